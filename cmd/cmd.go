// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// renderFlags are the badge display toggles shared by login, render and watch.
func renderFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "spin",
			Usage: "Spin the album artwork",
		},
		&cli.BoolFlag{
			Name:  "scan",
			Usage: "Show the Spotify scan code",
		},
		&cli.BoolFlag{
			Name:  "rainbow",
			Usage: "Colour the bars with the rainbow spectrum",
		},
		&cli.StringFlag{
			Name:  "theme",
			Usage: "Badge theme (dark or light)",
		},
	}
}

// serveCommand runs the HTTP service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the badge HTTP service",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write config.toml from the example configuration",
				Action: r.SetupConfig,
			},
		},
	}
}

// loginCommand opens the service's authorization page.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Open the browser at the running service's /login page",
		Flags:  renderFlags(),
		Action: r.Login,
	}
}

// usersCommand handles stored credential operations.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Stored user operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users with stored credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: table, text, csv or json",
						Value:   "table",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
					},
				},
				Action: r.UsersList,
			},
		},
	}
}

// renderCommand renders one badge from the command line.
func renderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render a user's badge to a file or stdout",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "User id to render",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Base path for {base}.svg and {base}_metadata.json; stdout when empty",
			},
		}, renderFlags()...),
		Action: r.Render,
	}
}

// watchCommand returns the top-level TUI command for live badge previews.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch interactive TUI that re-renders a badge on an interval",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "User id to watch; pick from stored users when empty",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Time between renders",
				Value: ui.DefaultInterval,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file while the TUI owns the terminal",
				Value: "./tmp/nowplaying-watch.log",
			},
		}, renderFlags()...),
		Action: r.Watch,
	}
}
