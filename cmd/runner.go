package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowplaying/internal/repositories"
	"github.com/desertthunder/nowplaying/internal/services"
	"github.com/desertthunder/nowplaying/internal/shared"
	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/desertthunder/nowplaying/internal/tokens"
	"github.com/desertthunder/nowplaying/internal/widget"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	httpClient  *http.Client
	playback    tasks.Playback
	authorizer  services.Authorizer
	openBrowser func(string) error
	now         func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
	// Playback and Authorizer replace the Spotify service when set.
	Playback    tasks.Playback
	Authorizer  services.Authorizer
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		httpClient:  opts.HTTPClient,
		playback:    opts.Playback,
		authorizer:  opts.Authorizer,
		openBrowser: opts.OpenBrowser,
		now:         time.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, loginCommand, usersCommand, renderCommand, watchCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies global flags before any command runs.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	return ctx, nil
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}

// loadConfig reads the config file when present, else the defaults, then applies environment overrides once.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	config := shared.DefaultConfig()
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			if config, err = shared.LoadConfig(r.configPath); err != nil {
				return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
			}
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	r.config = config
	return config, nil
}

// stack is the wired service graph shared by serve, render and watch.
type stack struct {
	db          *sql.DB
	credentials *repositories.CredentialRepository
	playback    tasks.Playback
	authorizer  services.Authorizer
	guard       *tokens.Guard
	engine      *tasks.BadgeEngine
}

func (s *stack) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStore opens the database and applies migrations.
func (r *Runner) openStore(ctx context.Context, config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// open wires storage, the Spotify client, the token guard and the render engine.
func (r *Runner) open(ctx context.Context, config *shared.Config) (*stack, error) {
	db, err := r.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	st := &stack{
		db:          db,
		credentials: repositories.NewCredentialRepository(db),
		playback:    r.playback,
		authorizer:  r.authorizer,
	}

	if st.playback == nil || st.authorizer == nil {
		if err := config.Validate(); err != nil {
			db.Close()
			return nil, err
		}

		client := &http.Client{Timeout: config.HTTP.Timeout(), Transport: r.httpClient.Transport}
		svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(),
			services.WithScopes(config.Credentials.Spotify.Scopes...),
			services.WithHTTPClient(client),
			services.WithRateLimit(config.HTTP.RequestsPerSecond),
			services.WithServiceLogger(shared.WithLogger(r.logger, "component", "spotify")),
		)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create Spotify service: %w", err)
		}
		if st.playback == nil {
			st.playback = svc
		}
		if st.authorizer == nil {
			st.authorizer = svc
		}
	}

	composer, err := widget.NewComposer(widget.WithDefaultTheme(config.Widget.DefaultTheme))
	if err != nil {
		db.Close()
		return nil, err
	}

	st.guard = tokens.NewGuard(st.credentials, st.playback,
		tokens.WithLogger(shared.WithLogger(r.logger, "component", "tokens")))
	st.engine = tasks.NewBadgeEngine(st.guard, st.playback, composer,
		tasks.WithPaletteSize(config.Widget.PaletteSize),
		tasks.WithEngineLogger(shared.WithLogger(r.logger, "component", "engine")))

	return st, nil
}

// optionsFromFlags reads the shared render flags.
func optionsFromFlags(cmd *cli.Command) widget.Options {
	return widget.Options{
		Spin:         cmd.Bool("spin"),
		ShowScanCode: cmd.Bool("scan"),
		Rainbow:      cmd.Bool("rainbow"),
		Theme:        strings.ToLower(strings.TrimSpace(cmd.String("theme"))),
	}
}

// isAuthError reports errors that only a new login can fix.
func isAuthError(err error) bool {
	return errors.Is(err, shared.ErrNoCredential) || errors.Is(err, shared.ErrRefreshFailed)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
