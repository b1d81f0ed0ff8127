package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openStore(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	users, err := repositories.NewCredentialRepository(db).Count(ctx)
	if err != nil {
		return err
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s (%d stored users)\n", config.Database.Path, users)
}

// SetupConfig writes the example configuration to the config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		return fmt.Errorf("%w: config path", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Configuration written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or CLIENT_ID and CLIENT_SECRET)\n")
	r.writePlain("2. Run 'nowplaying serve' and then 'nowplaying login'\n")
	return nil
}
