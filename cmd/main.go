package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := newApp(runner)

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// newApp builds the root command with every subcommand bound to r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "nzbwatch",
		Usage:   "Watch SABnzbd jobs and clean up after them",
		Version: "0.3.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (.toml, .yaml or .yml)",
				Value:   "config.toml",
				Sources: cli.EnvVars("NZBWATCH_CONFIG"),
			},
		},
		Before:   r.loadConfig,
		Commands: r.register(),
	}
}

// loadConfig reads the file named by --config before any command runs.
//
// A missing file leaves the embedded defaults in place.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.LoadOrDefault(path)
	if err != nil {
		return ctx, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if err := shared.ApplyLogLevel(r.logger, config.Log.Level); err != nil {
		return ctx, err
	}

	r.config = config
	r.configPath = path
	return ctx, nil
}
