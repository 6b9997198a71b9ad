package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
	tu "github.com/desertthunder/nzbwatch/internal/testing"
)

func TestListener_OnDownloadComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes job after callback", func(t *testing.T) {
		env := newTestEnv(t, nil)
		task := env.lookup.add("J1", &mockTask{name: "Some.Release"})
		env.listener.Registry().Register("J1")

		if err := env.listener.onDownloadComplete(ctx, "J1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.listener.completeCount() != 1 {
			t.Error("expected completion callback")
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be removed")
		}
	})

	t.Run("removes job even when callback fails", func(t *testing.T) {
		env := newTestEnv(t, nil)
		callbackErr := errors.New("upload failed")
		env.lookup.add("J1", &mockTask{listener: &mockJobListener{completeErr: callbackErr}})
		env.listener.Registry().Register("J1")

		err := env.listener.onDownloadComplete(ctx, "J1")
		if !errors.Is(err, callbackErr) {
			t.Errorf("expected callback error to surface, got %v", err)
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be removed")
		}
	})

	t.Run("skips cleanup during shutdown", func(t *testing.T) {
		env := newTestEnv(t, nil)
		task := env.lookup.add("J1", &mockTask{})
		env.listener.Registry().Register("J1")
		env.shutdown.Trigger()

		if err := env.listener.onDownloadComplete(ctx, "J1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.listener.completeCount() != 1 {
			t.Error("expected completion callback to still run")
		}
		if !env.tracked("J1") {
			t.Error("expected J1 to stay registered during shutdown")
		}
		if history, jobs, categories := env.client.counts(); history+jobs+categories != 0 {
			t.Errorf("expected no delete calls, got %d/%d/%d", history, jobs, categories)
		}
	})

	t.Run("missing task is a no-op", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.listener.Registry().Register("J1")

		if err := env.listener.onDownloadComplete(ctx, "J1"); err != nil {
			t.Errorf("expected no error for unknown task, got %v", err)
		}
		if history, jobs, categories := env.client.counts(); history+jobs+categories != 0 {
			t.Errorf("expected no delete calls, got %d/%d/%d", history, jobs, categories)
		}
	})

	t.Run("lookup errors surface", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.lookup.err = shared.ErrServiceUnavailable
		env.listener.Registry().Register("J1")

		if err := env.listener.onDownloadComplete(ctx, "J1"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestListener_OnDownloadError(t *testing.T) {
	ctx := context.Background()

	t.Run("reports and tears down", func(t *testing.T) {
		env := newTestEnv(t, nil)
		task := env.lookup.add("J1", &mockTask{name: "Some.Release"})
		env.listener.Registry().Register("J1")

		if err := env.listener.onDownloadError(ctx, "J1", "bad", models.None[models.Control]()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if task.listener.errorCount() != 1 {
			t.Error("expected error callback")
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be removed")
		}
		history, jobs, categories := env.client.counts()
		if history != 1 || jobs != 1 || categories != 2 {
			t.Errorf("expected 1 history, 1 job and 2 category deletes, got %d/%d/%d", history, jobs, categories)
		}
		if kinds := env.journal.kinds("J1"); !slices.Contains(kinds, models.EventFailed) {
			t.Errorf("expected failed event, got %v", kinds)
		}
	})

	t.Run("missing task evicts job", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.listener.Registry().Register("J1")

		if err := env.listener.onDownloadError(ctx, "J1", "bad", models.None[models.Control]()); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be evicted")
		}
	})

	t.Run("lookup error still evicts job", func(t *testing.T) {
		env := newTestEnv(t, nil)
		transient := errors.New("transient")
		env.lookup.setErr(transient)
		env.listener.Registry().Register("J1")
		env.listener.Registry().MarkFailureDispatched("J1")

		err := env.listener.onDownloadError(ctx, "J1", "disk full", models.None[models.Control]())
		if !errors.Is(err, transient) {
			t.Errorf("expected lookup error to surface, got %v", err)
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be evicted after lookup error")
		}
		if _, jobs, _ := env.client.counts(); jobs != 1 {
			t.Errorf("expected one forced job delete, got %d", jobs)
		}
		if kinds := env.journal.kinds("J1"); !slices.Contains(kinds, models.EventFailed) {
			t.Errorf("expected failed event, got %v", kinds)
		}
	})

	t.Run("collects delete failures", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.lookup.add("J1", &mockTask{})
		env.client.jobDeleteErr = shared.ErrAPIRequest
		env.listener.Registry().Register("J1")

		err := env.listener.onDownloadError(ctx, "J1", "bad", models.None[models.Control]())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be evicted despite errors")
		}
	})
}

func TestListener_Checks(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate fails the job once", func(t *testing.T) {
		dup := &mockDuplicates{message: "already downloaded", control: models.Some(models.Control{Text: "Retry", URL: "/retry"})}
		env := newTestEnv(t, func(opts *ListenerOpts) { opts.Duplicates = dup })
		task := env.lookup.add("J1", &mockTask{name: "Some.Release"})
		env.listener.Registry().Register("J1")

		if err := env.listener.onDuplicateCheck(ctx, "J1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := env.listener.onDuplicateCheck(ctx, "J1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		env.listener.Wait()

		if n := task.listener.errorCount(); n != 1 {
			t.Errorf("expected one error callback, got %d", n)
		}
		if task.listener.Name() != "Some.Release" {
			t.Errorf("expected listener name to be refreshed, got %q", task.listener.Name())
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be removed")
		}
	})

	t.Run("no duplicate leaves job alone", func(t *testing.T) {
		env := newTestEnv(t, func(opts *ListenerOpts) { opts.Duplicates = &mockDuplicates{} })
		task := env.lookup.add("J1", &mockTask{})
		env.listener.Registry().Register("J1")

		if err := env.listener.onDuplicateCheck(ctx, "J1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		env.listener.Wait()
		if task.listener.errorCount() != 0 || !env.tracked("J1") {
			t.Error("expected job untouched")
		}
	})

	t.Run("quota violation fails and notifies", func(t *testing.T) {
		notifier := &mockNotifier{}
		env := newTestEnv(t, func(opts *ListenerOpts) {
			opts.Quota = &mockQuota{message: "NZB limit exceeded"}
			opts.Notifier = notifier
		})
		task := env.lookup.add("J1", &mockTask{size: "1.5 GB"})
		env.listener.Registry().Register("J1")

		if err := env.listener.onQuotaCheck(ctx, "J1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		env.listener.Wait()

		if got := task.listener.Size(); got != 1536*1024*1024 {
			t.Errorf("expected listener size to be set, got %d", got)
		}
		if task.listener.errorCount() != 1 {
			t.Error("expected error callback")
		}
		if notifier.count() != 1 {
			t.Errorf("expected one notice, got %d", notifier.count())
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be removed")
		}
	})

	t.Run("quota notice skipped when failure already dispatched", func(t *testing.T) {
		notifier := &mockNotifier{}
		env := newTestEnv(t, func(opts *ListenerOpts) {
			opts.Quota = &mockQuota{message: "NZB limit exceeded"}
			opts.Notifier = notifier
		})
		task := env.lookup.add("J1", &mockTask{size: "1.5 GB"})
		env.listener.Registry().Register("J1")
		env.listener.Registry().MarkFailureDispatched("J1")

		if err := env.listener.onQuotaCheck(ctx, "J1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		env.listener.Wait()

		if n := notifier.count(); n != 0 {
			t.Errorf("expected no notice, got %d", n)
		}
		if n := task.listener.errorCount(); n != 0 {
			t.Errorf("expected no second error callback, got %d", n)
		}
	})

	t.Run("invalid size is reported", func(t *testing.T) {
		env := newTestEnv(t, func(opts *ListenerOpts) { opts.Quota = &mockQuota{} })
		env.lookup.add("J1", &mockTask{size: "lots"})
		env.listener.Registry().Register("J1")

		if err := env.listener.onQuotaCheck(ctx, "J1"); !errors.Is(err, shared.ErrInvalidSize) {
			t.Errorf("expected ErrInvalidSize, got %v", err)
		}
	})

	t.Run("refresh failure skips check", func(t *testing.T) {
		dup := &mockDuplicates{message: "dup"}
		env := newTestEnv(t, func(opts *ListenerOpts) { opts.Duplicates = dup })
		task := env.lookup.add("J1", &mockTask{refreshErr: shared.ErrServiceUnavailable})
		env.listener.Registry().Register("J1")

		if err := env.listener.onDuplicateCheck(ctx, "J1"); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected refresh error, got %v", err)
		}
		if task.listener.errorCount() != 0 {
			t.Error("expected no failure dispatch")
		}
	})

	t.Run("checks run from the loop", func(t *testing.T) {
		env := newTestEnv(t, func(opts *ListenerOpts) { opts.Duplicates = &mockDuplicates{message: "dup"} })
		task := env.lookup.add("J1", &mockTask{name: "Some.Release", size: "10 MB"})
		env.client.setQueue(models.QueueSlot{ID: "J1", Status: "Downloading", Filename: "Some.Release"})

		env.listener.OnDownloadStart(ctx, "J1")

		tu.Eventually(t, waitFor, func() bool { return !env.tracked("J1") }, "duplicate was never failed")
		tu.Never(t, 50*time.Millisecond, func() bool { return task.listener.errorCount() > 1 }, "duplicate failure dispatched more than once")
		env.listener.Wait()
		if n := task.listener.errorCount(); n != 1 {
			t.Errorf("expected one error callback, got %d", n)
		}
	})
}
