package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/desertthunder/nzbwatch/internal/tasks"
)

// QueueReader reads the active download queue.
type QueueReader interface {
	Downloads(ctx context.Context) ([]models.QueueSlot, error)
}

// DownloadTask is a download the watcher was asked to follow.
type DownloadTask struct {
	id       string
	category string
	queue    QueueReader
	listener tasks.JobListener
	created  time.Time

	mu     sync.Mutex
	name   string
	size   string
	status models.Status
}

// NewDownloadTask creates a task for the queue job id. name is the display name until the queue reports one.
func NewDownloadTask(id, name, category string, queue QueueReader, listener tasks.JobListener) *DownloadTask {
	return &DownloadTask{
		id:       id,
		name:     name,
		category: category,
		queue:    queue,
		listener: listener,
		status:   models.StatusDownloading,
		created:  time.Now(),
	}
}

// ID is the id the download queue issued.
func (t *DownloadTask) ID() string { return t.id }

// Category is the queue category the job was filed under.
func (t *DownloadTask) Category() string { return t.category }

// Refresh re-reads name and size from the job's queue slot.
//
// A job that already left the queue keeps its last known values.
func (t *DownloadTask) Refresh(ctx context.Context) error {
	slots, err := t.queue.Downloads(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue: %w", err)
	}
	for _, slot := range slots {
		if slot.ID != t.id {
			continue
		}
		t.mu.Lock()
		if slot.Filename != "" {
			t.name = slot.Filename
		}
		if slot.Size != "" {
			t.size = slot.Size
		}
		t.mu.Unlock()
		return nil
	}
	return nil
}

func (t *DownloadTask) Name() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.name
}

func (t *DownloadTask) Size() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

func (t *DownloadTask) Status() models.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *DownloadTask) SetStatus(status models.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

func (t *DownloadTask) Listener() tasks.JobListener { return t.listener }

// TaskStore is the in-memory task registry, keyed by queue job id.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*DownloadTask
}

// NewTaskStore creates an empty store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*DownloadTask)}
}

// Add stores task, replacing any task with the same id.
func (s *TaskStore) Add(task *DownloadTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.id] = task
}

// Get returns the task for id.
func (s *TaskStore) Get(id string) (*DownloadTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	return task, ok
}

// Remove forgets the task for id.
func (s *TaskStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

// FindByExternalID implements [tasks.TaskLookup].
func (s *TaskStore) FindByExternalID(ctx context.Context, id string) (tasks.Task, error) {
	task, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return task, nil
}

// List returns every task, oldest first.
func (s *TaskStore) List() []*DownloadTask {
	s.mu.RLock()
	out := make([]*DownloadTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, task)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].created.Before(out[j].created) })
	return out
}
