package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/urfave/cli/v3"
)

// Login opens the running service's /login page in the browser.
//
// The service completes the OAuth flow and redirects to the user's badge URL.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(config.Server.BaseURL, "/") + server.LoginURL(optionsFromFlags(cmd))

	r.logger.Info("opening browser for authorization", "url", url)
	if err := r.openBrowser(url); err != nil {
		r.logger.Warn("failed to open browser", "error", err)
		r.writePlain("Open this URL in your browser:\n%s\n", url)
		return nil
	}

	return r.writePlain("✓ Opened %s\nFinish authorizing in the browser; it will redirect to your badge URL.\n", url)
}

// loginHint explains how to recover from an authorization error.
func loginHint(userID string) string {
	return fmt.Sprintf("user %s must authorize again: run 'nowplaying login'", userID)
}
