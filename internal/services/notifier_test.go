package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

type webhookRecorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (w *webhookRecorder) all() []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Notice(nil), w.notices...)
}

func newWebhook(t *testing.T, status int) (string, *webhookRecorder) {
	t.Helper()
	rec := &webhookRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n Notice
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			t.Errorf("failed to decode notice: %v", err)
		}
		rec.mu.Lock()
		rec.notices = append(rec.notices, n)
		rec.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server.URL, rec
}

func TestWebhookNotifier(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("Disabled Without URL", func(t *testing.T) {
		n := NewWebhookNotifier("", time.Minute, nil, logger)
		if n.Enabled() {
			t.Error("expected notifier to be disabled")
		}
		if err := n.AutoExpire(ctx, "nzo_1", "too big"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("AutoExpire Sets Expiry", func(t *testing.T) {
		url, rec := newWebhook(t, http.StatusNoContent)
		n := NewWebhookNotifier(url, time.Minute, nil, logger)
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		n.now = func() time.Time { return fixed }

		if err := n.AutoExpire(ctx, "nzo_1", "NZB limit exceeded"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		notices := rec.all()
		if len(notices) != 1 {
			t.Fatalf("expected 1 notice, got %d", len(notices))
		}
		got := notices[0]
		if got.JobID != "nzo_1" || got.Level != NoticeError || got.ExpiresAt == nil || !got.ExpiresAt.Equal(fixed.Add(time.Minute)) {
			t.Errorf("unexpected notice %+v", got)
		}
	})

	t.Run("Webhook Error Status", func(t *testing.T) {
		url, _ := newWebhook(t, http.StatusBadGateway)
		n := NewWebhookNotifier(url, 0, nil, logger)

		if err := n.Notify(ctx, Notice{JobID: "nzo_1"}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestNZBListener(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	t.Run("Error Notice Carries Control", func(t *testing.T) {
		url, rec := newWebhook(t, http.StatusOK)
		store := NewTaskStore()
		store.Add(NewDownloadTask("nzo_1", "Some.Release", "", &stubQueue{}, nil))
		l := NewNZBListener("nzo_1", "Some.Release", "movies", store, NewWebhookNotifier(url, 0, nil, logger), logger)

		control := models.Some(models.Control{Text: "View existing", URL: "/jobs/nzo_0"})
		if err := l.OnDownloadError(ctx, "duplicate", control); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		notices := rec.all()
		if len(notices) != 1 || notices[0].Control == nil || notices[0].Control.Text != "View existing" {
			t.Errorf("unexpected notices %+v", notices)
		}
		if _, ok := store.Get("nzo_1"); ok {
			t.Error("expected task to be dropped from store")
		}
	})

	t.Run("Complete Without Notifier", func(t *testing.T) {
		l := NewNZBListener("nzo_1", "Some.Release", "", nil, nil, logger)
		if err := l.OnDownloadComplete(ctx); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("Name and Size", func(t *testing.T) {
		l := NewNZBListener("nzo_1", "a", "movies", nil, nil, logger)
		l.SetName("b")
		l.SetSize(42)
		if l.Name() != "b" || l.Size() != 42 || l.CategoryKey() != "movies" {
			t.Errorf("unexpected listener state %s %d %s", l.Name(), l.Size(), l.CategoryKey())
		}
	})
}
