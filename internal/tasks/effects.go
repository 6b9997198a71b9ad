package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

// lookup finds the task for id. ok is false when the task registry no longer knows the job,
// which side effects treat as "no longer tracked".
func (l *Listener) lookup(ctx context.Context, id string) (Task, bool, error) {
	task, err := l.tasks.FindByExternalID(ctx, id)
	if errors.Is(err, shared.ErrTaskNotFound) {
		l.logger.Debug("job no longer tracked", "job", id)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up task %s: %w", id, err)
	}
	return task, true, nil
}

// onDownloadComplete hands the finished job to its listener and cleans it up,
// unless the whole process is stopping.
func (l *Listener) onDownloadComplete(ctx context.Context, id string) error {
	task, ok, err := l.lookup(ctx, id)
	if err != nil || !ok {
		return err
	}

	listener := task.Listener()
	completeErr := listener.OnDownloadComplete(ctx)
	if completeErr != nil {
		completeErr = fmt.Errorf("completion callback: %w", completeErr)
	}
	l.record(ctx, models.JobEvent{JobID: id, Kind: models.EventCompleted, Status: models.StatusCompleted, Name: task.Name()})

	if l.shutdown.Stopping() {
		l.logger.Debug("shutdown in progress, skipping cleanup", "job", id)
		return completeErr
	}

	return errors.Join(completeErr, l.RemoveJob(ctx, id, listener.CategoryKey()))
}

// onDownloadError reports message to the job's listener and tears the job down:
// removal, a forced queue delete and a forced category delete run concurrently with the report.
func (l *Listener) onDownloadError(ctx context.Context, id, message string, control models.Optional[models.Control]) error {
	task, ok, err := l.lookup(ctx, id)
	if err != nil {
		// The failure gate is already set, so the entry must not outlive this action.
		l.logger.Warn("evicting job without a task", "job", id, "error", err)
		var deleteErr error
		if derr := l.client.DeleteJob(ctx, id, true); derr != nil {
			deleteErr = fmt.Errorf("force delete job: %w", derr)
		}
		l.registry.Remove(id)
		l.record(ctx, models.JobEvent{JobID: id, Kind: models.EventFailed, Status: models.StatusFailed, Message: message})
		return errors.Join(err, deleteErr)
	}
	if !ok {
		l.registry.Remove(id)
		return nil
	}

	if err := task.Refresh(ctx); err != nil {
		l.logger.Warn("failed to refresh task", "job", id, "error", err)
	}
	l.logger.Info("cancelling download", "job", id, "name", task.Name(), "reason", message)

	listener := task.Listener()
	key := listener.CategoryKey()

	var wg sync.WaitGroup
	errs := make([]error, 4)

	wg.Add(4)
	go func() {
		defer wg.Done()
		if err := listener.OnDownloadError(ctx, message, control); err != nil {
			errs[0] = fmt.Errorf("error callback: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		errs[1] = l.RemoveJob(ctx, id, key)
	}()
	go func() {
		defer wg.Done()
		if err := l.client.DeleteJob(ctx, id, true); err != nil {
			errs[2] = fmt.Errorf("force delete job: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		if key == "" {
			return
		}
		if _, err := l.client.DeleteCategory(ctx, key); err != nil {
			errs[3] = fmt.Errorf("force delete category: %w", err)
		}
	}()
	wg.Wait()

	l.registry.Remove(id)
	l.record(ctx, models.JobEvent{JobID: id, Kind: models.EventFailed, Status: models.StatusFailed, Name: task.Name(), Message: message})

	return errors.Join(errs...)
}

// dispatchFailure spawns the failure side effect once per job. It returns nil when the
// job is gone or its failure was already dispatched.
func (l *Listener) dispatchFailure(id, message string, control models.Optional[models.Control]) *Handle {
	if !l.registry.MarkFailureDispatched(id) {
		l.logger.Debug("failure already dispatched or job gone", "job", id)
		return nil
	}
	return l.spawner.Go(effectFail.String(), id, func(ctx context.Context) error {
		return l.onDownloadError(ctx, id, message, control)
	})
}

// onStatusChange updates the display status cached on the task.
func (l *Listener) onStatusChange(ctx context.Context, id string, status models.Status) error {
	task, ok, err := l.lookup(ctx, id)
	if err != nil || !ok {
		return err
	}
	task.SetStatus(status)
	l.record(ctx, models.JobEvent{JobID: id, Kind: models.EventStatus, Status: status, Name: task.Name()})
	return nil
}

// onDuplicateCheck refreshes the job's name and fails it when the duplicate policy reports a conflict.
func (l *Listener) onDuplicateCheck(ctx context.Context, id string) error {
	if l.duplicates == nil {
		return nil
	}
	task, ok, err := l.lookup(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := task.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh before duplicate check: %w", err)
	}

	listener := task.Listener()
	listener.SetName(task.Name())

	message, control, err := l.duplicates.CheckDuplicate(ctx, listener)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if message != "" {
		l.logger.Info("duplicate download", "job", id, "name", task.Name())
		l.dispatchFailure(id, message, control)
	}
	return nil
}

// onQuotaCheck records the job's size on its listener and fails it when the quota policy reports a violation.
func (l *Listener) onQuotaCheck(ctx context.Context, id string) error {
	if l.quota == nil {
		return nil
	}
	task, ok, err := l.lookup(ctx, id)
	if err != nil || !ok {
		return err
	}
	if err := task.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh before quota check: %w", err)
	}

	size, err := shared.ParseSize(task.Size())
	if err != nil {
		return fmt.Errorf("quota check: %w", err)
	}
	listener := task.Listener()
	listener.SetSize(size)

	message, err := l.quota.CheckQuota(ctx, listener, true)
	if err != nil {
		return fmt.Errorf("quota check: %w", err)
	}
	if message == "" {
		return nil
	}

	l.logger.Info("NZB limit exceeded", "job", id, "name", task.Name(), "size", task.Size())
	if l.dispatchFailure(id, message, models.None[models.Control]()) == nil {
		return nil
	}

	if l.notifier != nil {
		l.spawner.Go("notify", id, func(ctx context.Context) error {
			return l.notifier.AutoExpire(ctx, id, message)
		})
	}
	return nil
}
