package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/libris/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the config file when missing, applies any --api-url or --mode override,
// then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		r.writePlain("✓ Config written to %s\n", configPath)
		config = shared.DefaultConfig()
	}

	if cmd.IsSet("api-url") || cmd.IsSet("mode") {
		if cmd.IsSet("api-url") {
			config.API.BaseURL = cmd.String("api-url")
		}
		if cmd.IsSet("mode") {
			config.UI.Mode = cmd.String("mode")
		}
		if err := config.Validate(); err != nil {
			return err
		}
		if err := shared.SaveConfig(configPath, config); err != nil {
			return err
		}
		r.writePlain("✓ Updated %s\n", configPath)
	}

	if err := config.Validate(); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}

	r.writePlain("✓ Database ready at %s (schema version %d)\n", config.Database.Path, version)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set api.base_url and the [identity] client settings in %s\n", configPath)
	r.writePlain("2. Run 'libris auth login' to sign in\n")
	return nil
}
