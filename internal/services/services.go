// package services implements the HTTP collaborators of the job listener
//
// SABnzbd, the in-memory task registry, job listeners and webhook notices
package services

import (
	"context"

	"github.com/desertthunder/nzbwatch/internal/tasks"
)

// Downloader is everything the watcher needs from the download queue: the listener's
// [tasks.QueueClient] plus enqueueing and category management.
type Downloader interface {
	tasks.QueueClient

	// AddURL queues the NZB at nzbURL and returns the queue job id.
	AddURL(ctx context.Context, nzbURL, name, category string) (string, error)

	// CreateCategory adds a category jobs can be filed under.
	CreateCategory(ctx context.Context, key, dir string) error

	// Version returns the downloader version. Used as a connectivity check.
	Version(ctx context.Context) (string, error)
}

var (
	_ Downloader        = (*SABnzbdClient)(nil)
	_ tasks.TaskLookup  = (*TaskStore)(nil)
	_ tasks.Task        = (*DownloadTask)(nil)
	_ tasks.JobListener = (*NZBListener)(nil)
	_ tasks.Notifier    = (*WebhookNotifier)(nil)
)
