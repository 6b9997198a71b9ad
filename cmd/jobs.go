package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/nzbwatch/internal/formatter"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/repositories"
	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// Add asks the running watcher to follow a job.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	req := models.TrackRequest{
		ID:       cmd.StringArg("id"),
		URL:      cmd.String("url"),
		Name:     cmd.String("name"),
		Category: cmd.String("category"),
	}
	if req.ID == "" && req.URL == "" {
		return fmt.Errorf("%w: an nzo id or --url is required", shared.ErrMissingArgument)
	}
	if req.ID != "" && req.URL != "" {
		return fmt.Errorf("%w: cannot specify both an nzo id and --url", shared.ErrInvalidArgument)
	}

	r.logger.Debug("tracking job", "id", req.ID, "url", req.URL)

	job, err := r.controlAPI().Track(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to track job: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(job, true)
	}

	name := job.Name
	if name == "" {
		name = "(name pending)"
	}
	return r.writePlain("✓ Tracking %s %s [%s]\n", job.ID, name, job.Status)
}

// Jobs lists the jobs tracked by the running watcher.
func (r *Runner) Jobs(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	jobs, err := r.controlAPI().Jobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	out, err := formatter.Jobs(jobs, format)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// Events prints entries from the local event journal.
func (r *Runner) Events(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := repositories.NewEventRepository(db).List(ctx, map[string]any{
		"job_id": cmd.String("job"),
		"kind":   cmd.String("kind"),
		"limit":  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	out, err := formatter.Events(events, format)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// EventsPrune deletes journal entries older than --older-than.
func (r *Runner) EventsPrune(ctx context.Context, cmd *cli.Command) error {
	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidArgument)
	}

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()

	cutoff := time.Now().Add(-age)
	n, err := repositories.NewEventRepository(db).Prune(ctx, cutoff)
	if err != nil {
		return err
	}

	r.logger.Info("pruned journal", "deleted", n, "cutoff", cutoff.Format(time.RFC3339))
	return r.writePlain("✓ Deleted %d events older than %s\n", n, age)
}

// QueueDownloads prints SABnzbd's active queue.
func (r *Runner) QueueDownloads(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	slots, err := r.queue().Downloads(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch queue: %w", err)
	}

	out, err := formatter.Queue(slots, format)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}

// QueueHistory prints SABnzbd's history.
func (r *Runner) QueueHistory(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	slots, err := r.queue().History(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	out, err := formatter.History(slots, format)
	if err != nil {
		return err
	}
	return r.writeBytes(out)
}
