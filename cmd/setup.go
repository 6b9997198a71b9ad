package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the event journal and runs migrations.
//
// A missing config file is created from the embedded template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			r.logger.Info("config file not found, creating from template", "path", configPath)
			if err := shared.CreateConfigFile(configPath); err != nil {
				r.logger.Warn("failed to create config file, using defaults", "error", err)
			} else if config, err := shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
			} else {
				r.logger.Info("config file created", "path", configPath)
				r.config = config
			}
		}
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupCheck asks SABnzbd for its version to confirm the URL and API key.
func (r *Runner) SetupCheck(ctx context.Context, cmd *cli.Command) error {
	version, err := r.queue().Version(ctx)
	if err != nil {
		return fmt.Errorf("SABnzbd check failed: %w", err)
	}

	r.writePlain("✓ SABnzbd %s reachable at %s\n", version, r.config.SABnzbd.URL)
	return nil
}

// openJournal opens the configured database and brings its schema up to date.
func (r *Runner) openJournal() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.logger.Debug("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}
