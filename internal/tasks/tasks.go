// package tasks implements the NZB job listener.
//
// The core abstraction is Listener, which owns the job registry and the reconciliation loop.
// Everything it talks to is an interface so the queue client, task registry and policies can be swapped out.
package tasks

import (
	"context"

	"github.com/desertthunder/nzbwatch/internal/models"
)

// QueueClient is the subset of the download queue API the listener needs.
type QueueClient interface {
	// History returns the history view, newest first.
	History(ctx context.Context) ([]models.HistorySlot, error)

	// Downloads returns the active queue.
	Downloads(ctx context.Context) ([]models.QueueSlot, error)

	// DeleteHistory removes a history entry, optionally with its files. Reports whether anything was deleted.
	DeleteHistory(ctx context.Context, id string, deleteFiles bool) (bool, error)

	// DeleteCategory removes the category grouping a job was filed under.
	DeleteCategory(ctx context.Context, key string) (bool, error)

	// DeleteJob force-removes a job from the queue.
	DeleteJob(ctx context.Context, id string, deleteFiles bool) error
}

// JobListener is the owner of a download job and the listener's only channel for reporting on it.
type JobListener interface {
	OnDownloadError(ctx context.Context, message string, control models.Optional[models.Control]) error
	OnDownloadComplete(ctx context.Context) error

	CategoryKey() string // category the job was filed under
	Name() string
	SetName(name string)
	Size() int64
	SetSize(size int64)
}

// Task is a tracked download as seen by the wider task registry.
type Task interface {
	// Refresh re-reads name and size from the download queue.
	Refresh(ctx context.Context) error
	Name() string
	Size() string // human readable, e.g. "1.4 GB"
	SetStatus(status models.Status)
	Listener() JobListener
}

// TaskLookup finds tasks by the id the download queue issued.
//
// Implementations return an error wrapping shared.ErrTaskNotFound when the id is unknown.
type TaskLookup interface {
	FindByExternalID(ctx context.Context, id string) (Task, error)
}

// QuotaPolicy decides whether a job exceeds size limits. An empty message means no violation.
type QuotaPolicy interface {
	CheckQuota(ctx context.Context, listener JobListener, isNZB bool) (string, error)
}

// DuplicatePolicy decides whether a job duplicates existing content. An empty message means no conflict.
type DuplicatePolicy interface {
	CheckDuplicate(ctx context.Context, listener JobListener) (string, models.Optional[models.Control], error)
}

// Notifier posts a notice that removes itself after a while.
type Notifier interface {
	AutoExpire(ctx context.Context, jobID, message string) error
}

// Journal records job events. Failures to record are logged and otherwise ignored.
type Journal interface {
	Record(ctx context.Context, event models.JobEvent) error
}

// ShutdownSignal reports whether the owning process is tearing down all work.
type ShutdownSignal interface {
	Stopping() bool
}
