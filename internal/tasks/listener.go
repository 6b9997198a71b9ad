package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

const (
	defaultPollInterval      = 3 * time.Second
	defaultTaskTimeout       = 2 * time.Minute
	defaultPlaceholderPrefix = "Trying"
)

// ListenerOpts contains the collaborators and tuning for a [Listener].
//
// Client and Tasks are required; the policies, notifier and journal are optional.
type ListenerOpts struct {
	Client     QueueClient
	Tasks      TaskLookup
	Quota      QuotaPolicy
	Duplicates DuplicatePolicy
	Notifier   Notifier
	Journal    Journal
	Shutdown   ShutdownSignal
	Logger     *log.Logger

	PollInterval      time.Duration // sleep between ticks
	TaskTimeout       time.Duration // per side effect and per snapshot fetch
	PlaceholderPrefix string        // queue filename prefix shown while the NZB is still being fetched
}

// Stats is a point-in-time view of the listener for health checks and dashboards.
type Stats struct {
	Tracked     int  `json:"tracked"`
	Running     bool `json:"running"`
	Starts      int  `json:"starts"`
	Ticks       int  `json:"ticks"`
	ActiveTasks int  `json:"active_tasks"`
}

// Listener owns the job registry and the reconciliation loop that keeps it in step with the download queue.
type Listener struct {
	registry *Registry
	spawner  *Spawner

	client     QueueClient
	tasks      TaskLookup
	quota      QuotaPolicy
	duplicates DuplicatePolicy
	notifier   Notifier
	journal    Journal
	shutdown   ShutdownSignal
	logger     *log.Logger

	interval    time.Duration
	taskTimeout time.Duration
	placeholder string

	ctx    context.Context
	cancel context.CancelFunc
	loopWG sync.WaitGroup

	// running and stopped only change while the registry lock is held.
	running atomic.Bool
	stopped bool
	starts  atomic.Int64
	ticks   atomic.Int64
}

// NewListener creates a Listener. The loop is not started until the first job is registered.
func NewListener(opts ListenerOpts) (*Listener, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("%w: queue client", shared.ErrMissingArgument)
	}
	if opts.Tasks == nil {
		return nil, fmt.Errorf("%w: task lookup", shared.ErrMissingArgument)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Shutdown == nil {
		opts.Shutdown = &shared.Shutdown{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = defaultTaskTimeout
	}
	if opts.PlaceholderPrefix == "" {
		opts.PlaceholderPrefix = defaultPlaceholderPrefix
	}

	logger := shared.WithLogger(opts.Logger, "component", "nzb_listener")
	ctx, cancel := context.WithCancel(context.Background())

	return &Listener{
		registry:    NewRegistry(),
		spawner:     NewSpawner(logger, opts.TaskTimeout),
		client:      opts.Client,
		tasks:       opts.Tasks,
		quota:       opts.Quota,
		duplicates:  opts.Duplicates,
		notifier:    opts.Notifier,
		journal:     opts.Journal,
		shutdown:    opts.Shutdown,
		logger:      logger,
		interval:    opts.PollInterval,
		taskTimeout: opts.TaskTimeout,
		placeholder: opts.PlaceholderPrefix,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Registry exposes the job registry for read-only callers such as the control API.
func (l *Listener) Registry() *Registry { return l.registry }

// OnDownloadStart registers jobID and makes sure the reconciliation loop is running.
//
// Registering an id that is already tracked is a no-op.
func (l *Listener) OnDownloadStart(ctx context.Context, jobID string) error {
	if jobID == "" {
		return fmt.Errorf("%w: job id is empty", shared.ErrInvalidArgument)
	}

	var added, started bool
	var err error
	l.registry.withLock(func(jobs map[string]*models.Job) {
		if l.stopped {
			err = shared.ErrListenerClosed
			return
		}
		added = l.registry.register(jobID)
		started = l.startLocked()
	})
	if err != nil {
		return err
	}

	if !added {
		l.logger.Debug("job already tracked", "job", jobID)
		return nil
	}

	l.logger.Info("tracking download", "job", jobID, "loop_started", started)
	l.record(ctx, models.JobEvent{JobID: jobID, Kind: models.EventRegistered, Status: models.StatusDownloading})
	return nil
}

// Start launches the reconciliation loop if it is not already running.
// Reports whether a new loop was started.
func (l *Listener) Start() bool {
	var started bool
	l.registry.withLock(func(map[string]*models.Job) {
		started = l.startLocked()
	})
	return started
}

// startLocked starts the loop goroutine. Caller holds the registry lock.
func (l *Listener) startLocked() bool {
	if l.stopped || l.running.Load() {
		return false
	}
	l.running.Store(true)
	l.starts.Add(1)
	l.loopWG.Add(1)
	go l.run()
	return true
}

// Running reports whether the reconciliation loop is active.
func (l *Listener) Running() bool {
	return l.running.Load()
}

// Stop ends the reconciliation loop for good and waits for it to exit.
//
// Side effects already spawned keep running; use [Listener.Wait] to wait for them.
func (l *Listener) Stop(ctx context.Context) error {
	var already bool
	l.registry.withLock(func(map[string]*models.Job) {
		already = l.stopped
		l.stopped = true
	})
	if already {
		return nil
	}

	l.cancel()

	done := make(chan struct{})
	go func() {
		l.loopWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		l.logger.Info("listener stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for listener loop", shared.ErrTimeout)
	}
}

// Wait blocks until every detached side effect has returned.
func (l *Listener) Wait() {
	l.spawner.Wait()
}

// Stats returns counters for health checks.
func (l *Listener) Stats() Stats {
	return Stats{
		Tracked:     l.registry.Len(),
		Running:     l.Running(),
		Starts:      int(l.starts.Load()),
		Ticks:       int(l.ticks.Load()),
		ActiveTasks: l.spawner.Active(),
	}
}

// run is the reconciliation loop.
func (l *Listener) run() {
	defer l.loopWG.Done()

	l.logger.Debug("listener loop started", "interval", l.interval)

	timer := time.NewTimer(l.interval)
	defer timer.Stop()

	for {
		if l.shutdown.Stopping() {
			l.exit("shutdown")
			return
		}
		if !l.tick() {
			return
		}

		timer.Reset(l.interval)
		select {
		case <-l.ctx.Done():
			l.exit("stopped")
			return
		case <-timer.C:
		}
	}
}

func (l *Listener) exit(reason string) {
	l.registry.withLock(func(map[string]*models.Job) {
		l.running.Store(false)
	})
	l.logger.Debug("listener loop exited", "reason", reason)
}

// fetchFailed logs a failed snapshot fetch. Fetches cut short by Stop are not errors.
func (l *Listener) fetchFailed(what string, err error) {
	if l.ctx.Err() != nil {
		l.logger.Debug("fetch cancelled", "snapshot", what, "error", err)
		return
	}
	l.logger.Error("failed to fetch "+what, "error", err)
}

// tick runs one reconciliation pass. It reports false when the registry was empty and the loop must exit.
func (l *Listener) tick() bool {
	var empty bool
	l.registry.withLock(func(jobs map[string]*models.Job) {
		if len(jobs) == 0 {
			empty = true
			l.running.Store(false)
		}
	})
	if empty {
		l.logger.Debug("no jobs left, listener loop exiting")
		return false
	}

	l.ticks.Add(1)

	ctx, cancel := context.WithTimeout(l.ctx, l.taskTimeout)
	defer cancel()

	history, err := l.client.History(ctx)
	if err != nil {
		l.fetchFailed("history", err)
		return true
	}
	queue, err := l.client.Downloads(ctx)
	if err != nil {
		l.fetchFailed("queue", err)
		return true
	}

	for _, e := range l.registry.reconcile(history, queue, l.placeholder) {
		l.spawn(e)
	}
	return true
}

// spawn starts the side effect chosen for e.
func (l *Listener) spawn(e effect) *Handle {
	l.logger.Debug("dispatching", "job", e.jobID, "effect", e.kind.String(), "status", e.status)

	switch e.kind {
	case effectComplete:
		return l.spawner.Go(e.kind.String(), e.jobID, func(ctx context.Context) error {
			return l.onDownloadComplete(ctx, e.jobID)
		})
	case effectFail:
		return l.spawner.Go(e.kind.String(), e.jobID, func(ctx context.Context) error {
			return l.onDownloadError(ctx, e.jobID, e.message, models.None[models.Control]())
		})
	case effectStatus:
		return l.spawner.Go(e.kind.String(), e.jobID, func(ctx context.Context) error {
			return l.onStatusChange(ctx, e.jobID, e.status)
		})
	case effectDuplicateCheck:
		return l.spawner.Go(e.kind.String(), e.jobID, func(ctx context.Context) error {
			return l.onDuplicateCheck(ctx, e.jobID)
		})
	case effectQuotaCheck:
		return l.spawner.Go(e.kind.String(), e.jobID, func(ctx context.Context) error {
			return l.onQuotaCheck(ctx, e.jobID)
		})
	}
	return nil
}

// record writes an event to the journal, if one is configured.
func (l *Listener) record(ctx context.Context, event models.JobEvent) {
	if l.journal == nil {
		return
	}
	if err := l.journal.Record(ctx, event); err != nil {
		l.logger.Warn("failed to record job event", "job", event.JobID, "kind", event.Kind, "error", err)
	}
}
