package cmd

import (
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
)

// LoadEnvFile applies the file named by the -env flag on top of the process
// environment. Variables already set in the environment win.
func LoadEnvFile() {
	var envPath string

	flag.StringVar(&envPath, "env", "", "path to a .env file with deployer settings")
	flag.Parse()

	if err := loadEnv(envPath); err != nil {
		log.Fatalf("%v", err)
	}
}

func loadEnv(path string) error {
	if path == "" {
		slog.Info("no env file given, reading settings from the environment")
		return nil
	}

	values, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("error reading env file %q: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file %q: %w", path, err)
	}

	slog.Info("loaded env file", "path", path, "variables", len(values))
	return nil
}
