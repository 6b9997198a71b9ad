package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

// NZBListener is the owner of one watched download. It reports outcomes to the log
// and the notifier, and drops its task from the store once the job is finished.
type NZBListener struct {
	jobID    string
	category string
	store    *TaskStore
	notifier *WebhookNotifier
	logger   *log.Logger

	mu   sync.Mutex
	name string
	size int64
}

// NewNZBListener creates a listener for jobID. store and notifier may be nil.
func NewNZBListener(jobID, name, category string, store *TaskStore, notifier *WebhookNotifier, logger *log.Logger) *NZBListener {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &NZBListener{
		jobID:    jobID,
		name:     name,
		category: category,
		store:    store,
		notifier: notifier,
		logger:   shared.WithLogger(logger, "job", jobID),
	}
}

// OnDownloadError reports a failed or rejected download.
func (n *NZBListener) OnDownloadError(ctx context.Context, message string, control models.Optional[models.Control]) error {
	n.logger.Warn("download failed", "name", n.Name(), "reason", message)
	defer n.forget()

	if n.notifier == nil {
		return nil
	}
	notice := Notice{JobID: n.jobID, Name: n.Name(), Level: NoticeError, Message: message}
	if c, ok := control.Get(); ok {
		notice.Control = &c
	}
	if err := n.notifier.Notify(ctx, notice); err != nil {
		return fmt.Errorf("failed to post failure notice: %w", err)
	}
	return nil
}

// OnDownloadComplete reports a finished download.
func (n *NZBListener) OnDownloadComplete(ctx context.Context) error {
	n.logger.Info("download complete", "name", n.Name(), "size", shared.FormatSize(n.Size()))
	defer n.forget()

	if n.notifier == nil {
		return nil
	}
	notice := Notice{JobID: n.jobID, Name: n.Name(), Level: NoticeInfo, Message: "download complete"}
	if err := n.notifier.Notify(ctx, notice); err != nil {
		return fmt.Errorf("failed to post completion notice: %w", err)
	}
	return nil
}

func (n *NZBListener) forget() {
	if n.store != nil {
		n.store.Remove(n.jobID)
	}
}

func (n *NZBListener) CategoryKey() string { return n.category }

func (n *NZBListener) Name() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.name
}

func (n *NZBListener) SetName(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.name = name
}

func (n *NZBListener) Size() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.size
}

func (n *NZBListener) SetSize(size int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.size = size
}
