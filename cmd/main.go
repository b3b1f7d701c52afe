package main

import (
	"context"
	"os"

	"github.com/desertthunder/libris/internal/repositories"
	"github.com/desertthunder/libris/internal/services"
	"github.com/desertthunder/libris/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("LIBRIS_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	if err := config.ApplyEnv(".env"); err != nil {
		logger.Fatalf("environment error: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	opts := RunnerOpts{Config: config, ConfigPath: configPath, Logger: logger}

	db, err := shared.NewDatabase(config.Database.Path)
	if err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		err = shared.RunMigrations(db)
	}
	if err != nil {
		logger.Warn("database unavailable, sessions will not be remembered", "path", config.Database.Path, "error", err)
	} else {
		defer db.Close()
		opts.DB = db

		provider, err := services.NewCognitoProvider(services.CognitoConfig{
			Region:   config.Identity.ResolvedRegion(),
			ClientID: config.Identity.ClientID,
			Endpoint: config.Identity.Endpoint,
		}, repositories.NewSessionRepository(db, config.Identity.ClientID), logger)
		if err != nil {
			logger.Debug("identity provider disabled", "error", err)
		} else {
			opts.Provider = provider
		}
	}

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "libris",
		Usage:    "Browse and manage a library catalog from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
