package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// minInterval bounds how often watch may hit the Web API.
const minInterval = time.Second

// Watch launches the interactive terminal UI.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	interval := cmd.Duration("interval")
	if interval < minInterval {
		return fmt.Errorf("%w: interval must be at least %s", shared.ErrInvalidArgument, minInterval)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	st, err := r.open(ctx, config)
	if err != nil {
		return err
	}
	defer st.Close()

	userID := cmd.String("id")
	var users []*models.Credential
	if userID == "" {
		if users, err = st.credentials.List(ctx); err != nil {
			return err
		}
	}

	model := ui.NewModel(ctx, st.engine, ui.Options{
		UserID:   userID,
		Users:    users,
		Render:   optionsFromFlags(cmd),
		Interval: interval,
	})
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
