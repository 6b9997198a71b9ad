package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

func TestListener_RemoveJob(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		deleted       bool
		historyErr    error
		category      string
		wantJobDelete int
		wantCategory  int
	}{
		{name: "history delete succeeds", deleted: true, category: "movies-1", wantJobDelete: 0, wantCategory: 1},
		{name: "history delete finds nothing", deleted: false, category: "movies-1", wantJobDelete: 1, wantCategory: 1},
		{name: "history delete errors", historyErr: shared.ErrAPIRequest, category: "movies-1", wantJobDelete: 1, wantCategory: 1},
		{name: "empty category is skipped", deleted: true, wantJobDelete: 0, wantCategory: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.client.historyDeleteResult = tt.deleted
			env.client.historyDeleteErr = tt.historyErr
			env.listener.Registry().Register("J1")

			if err := env.listener.RemoveJob(ctx, "J1", tt.category); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, jobs, categories := env.client.counts()
			if jobs != tt.wantJobDelete {
				t.Errorf("expected %d job deletes, got %d", tt.wantJobDelete, jobs)
			}
			if categories != tt.wantCategory {
				t.Errorf("expected %d category deletes, got %d", tt.wantCategory, categories)
			}
			if env.tracked("J1") {
				t.Error("expected J1 to be evicted")
			}
		})
	}

	t.Run("forced delete failure is reported and job still evicted", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.client.historyDeleteResult = false
		env.client.jobDeleteErr = shared.ErrAPIRequest
		env.listener.Registry().Register("J1")

		if err := env.listener.RemoveJob(ctx, "J1", ""); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if env.tracked("J1") {
			t.Error("expected J1 to be evicted")
		}
	})

	t.Run("safe to call twice", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.listener.Registry().Register("J1")

		for range 2 {
			if err := env.listener.RemoveJob(ctx, "J1", "movies-1"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		removed := 0
		for _, kind := range env.journal.kinds("J1") {
			if kind == models.EventRemoved {
				removed++
			}
		}
		if removed != 1 {
			t.Errorf("expected one removed event, got %d", removed)
		}
	})
}
