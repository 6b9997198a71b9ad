package models

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tc := []struct {
		input string
		want  Status
		ok    bool
	}{
		{input: "Downloading", want: StatusDownloading, ok: true},
		{input: "Completed", want: StatusCompleted, ok: true},
		{input: "Extracting", want: StatusExtracting, ok: true},
		{input: "Queued", ok: false},
		{input: "completed", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseStatus(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseStatus(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatusClassification(t *testing.T) {
	for _, s := range []Status{StatusQuickCheck, StatusVerifying, StatusRepairing, StatusFetching, StatusMoving, StatusExtracting} {
		if !s.IsPostProcessing() {
			t.Errorf("%s should be post-processing", s)
		}
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}

	for _, s := range []Status{StatusCompleted, StatusFailed} {
		if !s.IsTerminal() {
			t.Errorf("%s should be terminal", s)
		}
		if s.IsPostProcessing() {
			t.Errorf("%s should not be post-processing", s)
		}
	}

	if StatusDownloading.IsTerminal() || StatusDownloading.IsPostProcessing() {
		t.Error("Downloading is neither terminal nor post-processing")
	}
}

func TestNewJob(t *testing.T) {
	now := time.Now()
	job := NewJob("SABnzbd_nzo_1", now)

	if job.Status != StatusDownloading {
		t.Errorf("expected Downloading, got %s", job.Status)
	}
	if job.Uploaded || job.StopDupCheck || job.FailureDispatched {
		t.Error("expected all gates to start false")
	}
	if !job.RegisteredAt.Equal(now) {
		t.Error("expected registration time to be kept")
	}
}

func TestOptional(t *testing.T) {
	some := Some(Control{Text: "View", URL: "https://example.com"})
	if c, ok := some.Get(); !ok || c.Text != "View" {
		t.Errorf("expected present control, got %+v %v", c, ok)
	}

	none := None[Control]()
	if none.IsSome() {
		t.Error("expected None to be absent")
	}
	if c, ok := none.Get(); ok || c != (Control{}) {
		t.Errorf("expected zero value, got %+v", c)
	}
}
