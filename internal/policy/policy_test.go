package policy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

type stubListener struct {
	name string
	size int64
}

func (s *stubListener) OnDownloadError(ctx context.Context, message string, control models.Optional[models.Control]) error {
	return nil
}
func (s *stubListener) OnDownloadComplete(ctx context.Context) error { return nil }
func (s *stubListener) CategoryKey() string                          { return "" }
func (s *stubListener) Name() string                                 { return s.name }
func (s *stubListener) SetName(name string)                          { s.name = name }
func (s *stubListener) Size() int64                                  { return s.size }
func (s *stubListener) SetSize(size int64)                           { s.size = size }

type stubLookup struct {
	completed map[string]string
	err       error
}

func (s *stubLookup) LastCompleted(ctx context.Context, name string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	id, ok := s.completed[shared.NormalizeName(name)]
	return id, ok, nil
}

func TestSizeLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("NewSizeLimit", func(t *testing.T) {
		limit, err := NewSizeLimit("2 GB")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if limit.Max() != 2<<30 {
			t.Errorf("expected %d bytes, got %d", int64(2<<30), limit.Max())
		}

		if _, err := NewSizeLimit("huge"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	tests := []struct {
		name    string
		limit   string
		size    int64
		isNZB   bool
		wantMsg bool
	}{
		{name: "under limit", limit: "1 GB", size: 500 << 20, isNZB: true},
		{name: "at limit", limit: "1 GB", size: 1 << 30, isNZB: true},
		{name: "over limit", limit: "1 GB", size: 2 << 30, isNZB: true, wantMsg: true},
		{name: "not an NZB", limit: "1 GB", size: 2 << 30, isNZB: false},
		{name: "disabled", limit: "", size: 2 << 40, isNZB: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, err := NewSizeLimit(tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			msg, err := limit.CheckQuota(ctx, &stubListener{name: "Some.Release", size: tt.size}, tt.isNZB)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if (msg != "") != tt.wantMsg {
				t.Errorf("expected violation=%v, got %q", tt.wantMsg, msg)
			}
			if tt.wantMsg && !strings.Contains(msg, "Some.Release") {
				t.Errorf("expected message to name the release, got %q", msg)
			}
		})
	}
}

func TestDuplicateGuard(t *testing.T) {
	ctx := context.Background()
	lookup := &stubLookup{completed: map[string]string{"some release 2024": "nzo_0"}}

	t.Run("duplicate with control", func(t *testing.T) {
		guard := NewDuplicateGuard(lookup, "http://127.0.0.1:3000")
		msg, control, err := guard.CheckDuplicate(ctx, &stubListener{name: "Some.Release.2024"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if msg == "" {
			t.Fatal("expected duplicate message")
		}
		c, ok := control.Get()
		if !ok || c.URL != "http://127.0.0.1:3000/jobs/nzo_0" {
			t.Errorf("unexpected control %+v", c)
		}
	})

	t.Run("duplicate without link", func(t *testing.T) {
		guard := NewDuplicateGuard(lookup, "")
		msg, control, _ := guard.CheckDuplicate(ctx, &stubListener{name: "some_release_2024"})
		if msg == "" || control.IsSome() {
			t.Errorf("expected message without control, got %q %v", msg, control.IsSome())
		}
	})

	t.Run("new release", func(t *testing.T) {
		guard := NewDuplicateGuard(lookup, "")
		msg, _, err := guard.CheckDuplicate(ctx, &stubListener{name: "Other.Release"})
		if err != nil || msg != "" {
			t.Errorf("expected no conflict, got %q %v", msg, err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		guard := NewDuplicateGuard(lookup, "")
		if msg, _, _ := guard.CheckDuplicate(ctx, &stubListener{}); msg != "" {
			t.Errorf("expected no conflict for unnamed job, got %q", msg)
		}
	})

	t.Run("lookup error", func(t *testing.T) {
		guard := NewDuplicateGuard(&stubLookup{err: shared.ErrServiceUnavailable}, "")
		if _, _, err := guard.CheckDuplicate(ctx, &stubListener{name: "x"}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}
