package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/server"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// handler wires the HTTP routes onto st.
func (r *Runner) handler(config *shared.Config, st *stack) http.Handler {
	return server.New(server.Deps{
		Authorizer:  st.authorizer,
		Store:       st.credentials,
		Renderer:    st.engine,
		Ping:        func(ctx context.Context) error { return repositories.Ping(ctx, st.db) },
		Logger:      shared.WithLogger(r.logger, "component", "http"),
		CacheMaxAge: config.Server.CacheMaxAge,
		FallbackURL: config.Server.FallbackURL,
	})
}

// Serve runs the badge service until SIGINT or SIGTERM, then drains in-flight requests.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig()
	if err != nil {
		return err
	}
	if port := cmd.Int("port"); port > 0 {
		config.Server.Port = port
	}
	if err := config.Validate(); err != nil {
		return err
	}

	st, err := r.open(ctx, config)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              config.Server.Addr(),
		Handler:           r.handler(config, st),
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		r.logger.Info("server starting", "addr", srv.Addr, "base_url", config.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		r.logger.Info("server stopped")
		return nil
	}
}
