// package models defines the data model for the NZB job listener
package models

import (
	"time"
)

// Status is the job status reported by the download queue.
type Status string

const (
	StatusDownloading Status = "Downloading"
	StatusQuickCheck  Status = "QuickCheck"
	StatusVerifying   Status = "Verifying"
	StatusRepairing   Status = "Repairing"
	StatusFetching    Status = "Fetching"
	StatusMoving      Status = "Moving"
	StatusExtracting  Status = "Extracting"
	StatusCompleted   Status = "Completed"
	StatusFailed      Status = "Failed"
)

var knownStatuses = map[Status]struct{}{
	StatusDownloading: {},
	StatusQuickCheck:  {},
	StatusVerifying:   {},
	StatusRepairing:   {},
	StatusFetching:    {},
	StatusMoving:      {},
	StatusExtracting:  {},
	StatusCompleted:   {},
	StatusFailed:      {},
}

// ParseStatus maps a raw status string onto a known [Status].
//
// Statuses the listener has no use for (Queued, Paused, Propagating, ...) report false.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := knownStatuses[st]
	return st, ok
}

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsPostProcessing reports whether s is one of the intermediate statuses
// the queue passes through after the download itself finished.
func (s Status) IsPostProcessing() bool {
	switch s {
	case StatusQuickCheck, StatusVerifying, StatusRepairing, StatusFetching, StatusMoving, StatusExtracting:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// Job is the local record kept for each registered job id.
type Job struct {
	ID                string    `json:"id"`
	Status            Status    `json:"status"`
	Uploaded          bool      `json:"uploaded"`           // completion side effect triggered
	StopDupCheck      bool      `json:"stop_dup_check"`     // duplicate and quota checks scheduled
	FailureDispatched bool      `json:"failure_dispatched"` // failure side effect triggered
	RegisteredAt      time.Time `json:"registered_at"`
}

// NewJob returns the initial record for a freshly registered job.
func NewJob(id string, now time.Time) *Job {
	return &Job{
		ID:           id,
		Status:       StatusDownloading,
		RegisteredAt: now,
	}
}

// HistorySlot is one entry of the queue's history view.
type HistorySlot struct {
	ID          string `json:"nzo_id"`
	Status      string `json:"status"`
	FailMessage string `json:"fail_message"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Bytes       int64  `json:"bytes"`
}

// QueueSlot is one entry of the queue's active downloads view.
type QueueSlot struct {
	ID         string `json:"nzo_id"`
	Status     string `json:"status"`
	Filename   string `json:"filename"`
	Category   string `json:"cat"`
	Size       string `json:"size"`
	SizeLeft   string `json:"sizeleft"`
	Percentage string `json:"percentage"`
}

// Control is an interactive element (a button or link) attached to a failure notice.
type Control struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Optional holds a value that may be absent.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// IsSome reports whether a value is present.
func (o Optional[T]) IsSome() bool { return o.ok }

// EventKind classifies a journal entry.
type EventKind string

const (
	EventRegistered EventKind = "registered"
	EventStatus     EventKind = "status"
	EventCompleted  EventKind = "completed"
	EventFailed     EventKind = "failed"
	EventRemoved    EventKind = "removed"
)

// JobEvent is a persisted record of something that happened to a job.
type JobEvent struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	JobID     string    `json:"job_id"`
	Kind      EventKind `json:"kind"`
	Status    Status    `json:"status,omitempty"`
	Name      string    `json:"name,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackRequest asks a running watcher to follow a download.
//
// Either ID (an nzo id already in the queue) or URL (an NZB to enqueue first) must be set.
type TrackRequest struct {
	ID       string `json:"id,omitempty"`
	URL      string `json:"url,omitempty"`
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
}

// JobView joins a registry record with what the task registry knows about the job.
type JobView struct {
	Job
	Name     string `json:"name"`
	Size     string `json:"size"`
	Category string `json:"category"`
}

// JobsResponse is the body of the control API's job listing.
type JobsResponse struct {
	Jobs []JobView `json:"jobs"`
}

// JobDetail is the body of the control API's single-job view.
//
// Job is nil when the job is no longer tracked and only its journal remains.
type JobDetail struct {
	Job    *JobView    `json:"job,omitempty"`
	Events []*JobEvent `json:"events"`
}
