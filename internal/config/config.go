package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Secret string `env:"DEPLOY_SECRET,notEmpty,required"`

	GitHubToken  string `env:"GITHUB_TOKEN,notEmpty,required"`
	GitHubAPIURL string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	RepoPrefix   string `env:"REPO_PREFIX" envDefault:"tds"`
	PagesBranch  string `env:"PAGES_BRANCH" envDefault:"main"`

	LLMToken   string        `env:"AIPIPE_TOKEN,notEmpty,required"`
	LLMBaseURL string        `env:"LLM_BASE_URL" envDefault:"https://aipipe.org/openrouter/v1/"`
	LLMModel   string        `env:"LLM_MODEL" envDefault:"openai/gpt-4o-mini"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"0s"`

	EvaluationTimeout  time.Duration `env:"EVALUATION_TIMEOUT" envDefault:"10s"`
	CommitPollInterval time.Duration `env:"COMMIT_POLL_INTERVAL" envDefault:"1s"`
	CommitPollAttempts int           `env:"COMMIT_POLL_ATTEMPTS" envDefault:"10"`

	Port           string   `env:"PORT" envDefault:"10000"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	if cfg.CommitPollAttempts < 1 {
		return Config{}, fmt.Errorf("COMMIT_POLL_ATTEMPTS must be at least 1, got %d", cfg.CommitPollAttempts)
	}

	if !strings.HasSuffix(cfg.LLMBaseURL, "/") {
		cfg.LLMBaseURL += "/"
	}

	return cfg, nil
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
