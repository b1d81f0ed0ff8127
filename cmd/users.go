package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// UsersList prints stored credentials with masked tokens.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	db, err := r.openStore(ctx, config)
	if err != nil {
		return err
	}
	defer db.Close()

	creds, err := repositories.NewCredentialRepository(db).List(ctx)
	if err != nil {
		return err
	}

	now := r.now()
	var data []byte

	switch format := cmd.String("format"); format {
	case "table":
		if len(creds) == 0 {
			return r.writePlain("No users have authorized yet.\n")
		}
		return r.writePlain("%s\n", ui.Table(formatter.CredentialHeaders, formatter.CredentialRows(creds, now)))
	case "text":
		data, err = formatter.CredentialsToText(creds, now)
	case "csv":
		data, err = formatter.CredentialsToCSV(creds, now)
	case "json":
		data, err = formatter.CredentialsToJSON(creds, now, cmd.Bool("pretty"))
		if err == nil {
			data = append(data, '\n')
		}
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return err
	}

	return r.writePlain("%s", data)
}
