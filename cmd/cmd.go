// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, csv or json",
		Value:   "text",
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the event journal and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "check",
				Usage:  "Check that SABnzbd is reachable with the configured API key",
				Action: r.SetupCheck,
			},
		},
	}
}

// watchCommand runs the listener and the control API in the foreground.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Run the job listener and control API",
		Action: r.Watch,
	}
}

// addCommand hands a download to a running watcher.
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Track a queued job, or enqueue an NZB by URL and track it",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "NZB URL to enqueue instead of an existing nzo id",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Release name to report before the queue knows it",
			},
			&cli.StringFlag{
				Name:  "category",
				Usage: "Category to remove once the job is finished",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Add,
	}
}

// jobsCommand lists the jobs a running watcher is following.
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "jobs",
		Usage:  "List jobs tracked by the running watcher",
		Flags:  []cli.Flag{formatFlag()},
		Action: r.Jobs,
	}
}

// eventsCommand reads the local event journal.
func eventsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Show the job event journal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "job",
				Usage: "Only show events for this nzo id",
			},
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Only show events of this kind (registered, status, completed, failed, removed)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of events to show",
				Value: 50,
			},
			formatFlag(),
		},
		Action: r.Events,
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Delete journal entries older than a given age",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Age after which entries are deleted",
						Value: 30 * 24 * time.Hour,
					},
				},
				Action: r.EventsPrune,
			},
		},
	}
}

// queueCommand shows the raw SABnzbd views.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Inspect the SABnzbd queue directly",
		Commands: []*cli.Command{
			{
				Name:   "downloads",
				Usage:  "List active downloads",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.QueueDownloads,
			},
			{
				Name:   "history",
				Usage:  "List finished and failed jobs",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.QueueHistory,
			},
		},
	}
}

// apiCommand handles direct control API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the control API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the control API, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for the jobs dashboard.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive jobs dashboard",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "refresh",
				Usage: "How often the dashboard polls the watcher",
				Value: 2 * time.Second,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "File that receives log output while the dashboard runs",
				Value: "./tmp/nzbwatch-tui.log",
			},
		},
		Action: r.TUI,
	}
}
