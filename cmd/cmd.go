// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/tasks"
	"github.com/urfave/cli/v3"
)

const version = "0.3.0"

// newApp builds the root command with its global flags and every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "mixtape",
		Usage:     "Turn a free-text prompt into a ranked playlist",
		Version:   version,
		Flags:     globalFlags(),
		Commands:  r.register(),
		Writer:    r.output,
		ErrWriter: r.output,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Recommendation endpoint URL (overrides config and $MIXTAPE_ENDPOINT)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		askCommand, tuiCommand, serveCommand, batchCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func formatFlag(value string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, markdown, csv or json",
		Value:   value,
	}
}

// askCommand submits a single prompt and prints the playlist.
func askCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Get a playlist for a prompt",
		ArgsUsage: "<prompt...>",
		Before:    r.prepare,
		Flags: []cli.Flag{
			formatFlag(string(formatter.Text)),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the playlist to a file instead of stdout",
			},
		},
		Action: r.Ask,
	}
}

// tuiCommand returns the top-level TUI command for interactive prompting.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Before:  r.prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where to write logs while the TUI owns the terminal",
				Value: "./tmp/mixtape-tui.log",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand starts the web UI.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the web UI",
		Before: r.prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port from config)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the web UI in the default browser",
			},
		},
		Action: r.Serve,
	}
}

// batchCommand runs every prompt in a file and exports the playlists.
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "batch",
		Usage:  "Run prompts from a file (one per line) and export each playlist",
		Before: r.prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Prompt file, or - for stdin",
				Required: true,
			},
			formatFlag(""),
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: batch.output_dir or mixtape_batch_{epoch})",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "Concurrent workers (max 10)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Requests per second across all workers",
				Value: tasks.DefaultRateLimit,
			},
		},
		Action: r.Batch,
	}
}

// configCommand manages the configuration file.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Destination path",
						Value: "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration (defaults, file and environment merged)",
				Before: r.prepare,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output JSON instead of TOML",
					},
				},
				Action: r.ConfigShow,
			},
		},
	}
}
