package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/nzbwatch/internal/policy"
	"github.com/desertthunder/nzbwatch/internal/repositories"
	"github.com/desertthunder/nzbwatch/internal/server"
	"github.com/desertthunder/nzbwatch/internal/services"
	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/desertthunder/nzbwatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Watch runs the job listener behind the control API until interrupted.
//
// On SIGINT or SIGTERM the API stops accepting requests, the process-wide shutdown flag is raised so
// completion effects skip queue cleanup, and the listener loop is stopped before in-flight effects are awaited.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := r.config

	db, err := r.openJournal()
	if err != nil {
		return err
	}
	defer db.Close()
	journal := repositories.NewEventRepository(db)

	sab := r.queue()
	if version, err := sab.Version(ctx); err != nil {
		r.logger.Warn("SABnzbd not reachable yet", "url", cfg.SABnzbd.URL, "error", err)
	} else {
		r.logger.Info("connected to SABnzbd", "url", cfg.SABnzbd.URL, "version", version)
	}

	quota, err := policy.NewSizeLimit(cfg.Limits.MaxNZBSize)
	if err != nil {
		return err
	}
	duplicates := policy.NewDuplicateGuard(journal, cfg.Server.BaseURL())

	store := services.NewTaskStore()
	notifier := services.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.ExpireAfter, nil, r.logger)
	shutdown := &shared.Shutdown{}

	listener, err := tasks.NewListener(tasks.ListenerOpts{
		Client:            sab,
		Tasks:             store,
		Quota:             quota,
		Duplicates:        duplicates,
		Notifier:          notifier,
		Journal:           journal,
		Shutdown:          shutdown,
		Logger:            r.logger,
		PollInterval:      cfg.Listener.PollInterval,
		TaskTimeout:       cfg.Listener.TaskTimeout,
		PlaceholderPrefix: cfg.Listener.PlaceholderPrefix,
	})
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	handler := server.NewJobsHandler(server.JobsHandlerOpts{
		Watcher:  listener,
		Store:    store,
		Queue:    sab,
		Enqueuer: sab,
		Events:   journal,
		Notifier: notifier,
		Logger:   r.logger,
	})

	r.logger.Info("watching downloads",
		"poll_interval", cfg.Listener.PollInterval,
		"max_nzb_size", cfg.Limits.MaxNZBSize,
		"webhook", notifier.Enabled(),
	)
	serveErr := server.Serve(ctx, cfg.Server.Addr(), server.NewRouter(handler), r.logger)

	r.logger.Info("shutting down", "tracked", listener.Stats().Tracked)
	shutdown.Trigger()

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Listener.TaskTimeout)
	defer cancel()
	if err := listener.Stop(stopCtx); err != nil {
		r.logger.Warn("listener did not stop in time", "error", err)
	}
	listener.Wait()

	return serveErr
}
