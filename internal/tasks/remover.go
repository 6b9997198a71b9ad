package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/nzbwatch/internal/models"
)

// RemoveJob deletes a job's history entry (with files) and its category concurrently.
// When the history delete does not succeed it falls back to a forced job delete.
// The registry entry is evicted regardless of how the external calls went.
//
// Safe to call more than once for the same id.
func (l *Listener) RemoveJob(ctx context.Context, id, categoryKey string) error {
	var (
		wg          sync.WaitGroup
		deleted     bool
		historyErr  error
		categoryErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		deleted, historyErr = l.client.DeleteHistory(ctx, id, true)
	}()
	go func() {
		defer wg.Done()
		if categoryKey == "" {
			return
		}
		_, categoryErr = l.client.DeleteCategory(ctx, categoryKey)
	}()
	wg.Wait()

	if categoryErr != nil {
		l.logger.Warn("failed to delete category", "job", id, "category", categoryKey, "error", categoryErr)
	}

	var err error
	if historyErr != nil || !deleted {
		l.logger.Debug("history delete did not succeed, forcing job delete", "job", id, "error", historyErr)
		if jobErr := l.client.DeleteJob(ctx, id, true); jobErr != nil {
			err = fmt.Errorf("force delete job %s: %w", id, jobErr)
		}
	}

	if l.registry.Remove(id) {
		l.record(ctx, models.JobEvent{JobID: id, Kind: models.EventRemoved})
	}
	return err
}
