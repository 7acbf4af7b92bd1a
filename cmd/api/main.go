package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"site-deployer/cmd"
	"site-deployer/internal/api"
	"site-deployer/internal/codegen"
	"site-deployer/internal/config"
	"site-deployer/internal/github"
	"site-deployer/internal/metrics"
	"site-deployer/internal/notify"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func createServer(cfg config.Config) *http.Server {
	generator := codegen.NewOpenAIGenerator(cfg.LLMBaseURL, cfg.LLMToken, cfg.LLMModel, cfg.LLMTimeout)

	publisher := github.NewPublisher(
		github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken),
		cfg.RepoPrefix,
		cfg.PagesBranch,
		github.PollConfig{Interval: cfg.CommitPollInterval, Attempts: cfg.CommitPollAttempts},
	)

	notifier := notify.NewNotifier(cfg.EvaluationTimeout, notify.DefaultBackoff)

	r := chi.NewRouter()

	// Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Log requests
	r.Use(middleware.Recoverer) // Recover from panics

	// No request timeout: a deploy runs generation, publishing and the
	// evaluation backoff back to back.
	deployHandler := api.NewDeployService(cfg.Secret, generator, publisher, notifier)
	deployHandler.AddRoutes(r)

	r.Handle("/metrics", metrics.Handler())

	return &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
}

func main() {
	cmd.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	slog.Info("starting deploy server", "port", cfg.Port, "github_api", cfg.GitHubAPIURL, "llm_base_url", cfg.LLMBaseURL, "model", cfg.LLMModel, "repo_prefix", cfg.RepoPrefix)

	server := createServer(cfg)

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	slog.Info("server started", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.Port, err)
	}

	slog.Info("server stopped")
}
