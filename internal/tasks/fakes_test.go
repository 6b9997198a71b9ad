package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

type mockClient struct {
	mu         sync.Mutex
	history    []models.HistorySlot
	queue      []models.QueueSlot
	historyErr error
	queueErr   error

	historyDeleteResult bool
	historyDeleteErr    error
	jobDeleteErr        error

	historyCalls    int
	deletedHistory  []string
	deletedJobs     []string
	deletedCategory []string
}

func (m *mockClient) History(ctx context.Context) ([]models.HistorySlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyCalls++
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return append([]models.HistorySlot(nil), m.history...), nil
}

func (m *mockClient) Downloads(ctx context.Context) ([]models.QueueSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.queueErr != nil {
		return nil, m.queueErr
	}
	return append([]models.QueueSlot(nil), m.queue...), nil
}

func (m *mockClient) DeleteHistory(ctx context.Context, id string, deleteFiles bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedHistory = append(m.deletedHistory, id)
	return m.historyDeleteResult, m.historyDeleteErr
}

func (m *mockClient) DeleteCategory(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedCategory = append(m.deletedCategory, key)
	return true, nil
}

func (m *mockClient) DeleteJob(ctx context.Context, id string, deleteFiles bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletedJobs = append(m.deletedJobs, id)
	return m.jobDeleteErr
}

func (m *mockClient) setHistory(slots ...models.HistorySlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = slots
}

func (m *mockClient) setQueue(slots ...models.QueueSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = slots
}

func (m *mockClient) counts() (history, jobs, categories int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.deletedHistory), len(m.deletedJobs), len(m.deletedCategory)
}

func (m *mockClient) polls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.historyCalls
}

type mockJobListener struct {
	mu          sync.Mutex
	category    string
	name        string
	size        int64
	completeErr error
	errors      []string
	completes   int
}

func (m *mockJobListener) OnDownloadError(ctx context.Context, message string, control models.Optional[models.Control]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, message)
	return nil
}

func (m *mockJobListener) OnDownloadComplete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completes++
	return m.completeErr
}

func (m *mockJobListener) CategoryKey() string { return m.category }

func (m *mockJobListener) Name() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.name
}

func (m *mockJobListener) SetName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
}

func (m *mockJobListener) Size() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

func (m *mockJobListener) SetSize(size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = size
}

func (m *mockJobListener) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func (m *mockJobListener) completeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completes
}

type mockTask struct {
	mu         sync.Mutex
	name       string
	size       string
	status     models.Status
	refreshErr error
	listener   *mockJobListener
}

func (m *mockTask) Refresh(ctx context.Context) error { return m.refreshErr }
func (m *mockTask) Name() string                      { return m.name }
func (m *mockTask) Size() string                      { return m.size }
func (m *mockTask) Listener() JobListener             { return m.listener }

func (m *mockTask) SetStatus(status models.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

func (m *mockTask) Status() models.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

type mockLookup struct {
	mu    sync.Mutex
	tasks map[string]*mockTask
	err   error
}

func newMockLookup() *mockLookup {
	return &mockLookup{tasks: make(map[string]*mockTask)}
}

func (m *mockLookup) add(id string, task *mockTask) *mockTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	if task.listener == nil {
		task.listener = &mockJobListener{category: "cat-" + id}
	}
	m.tasks[id] = task
	return task
}

func (m *mockLookup) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *mockLookup) FindByExternalID(ctx context.Context, id string) (Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	task, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return task, nil
}

type mockQuota struct {
	message string
	err     error
}

func (m *mockQuota) CheckQuota(ctx context.Context, listener JobListener, isNZB bool) (string, error) {
	return m.message, m.err
}

type mockDuplicates struct {
	message string
	control models.Optional[models.Control]
	err     error
}

func (m *mockDuplicates) CheckDuplicate(ctx context.Context, listener JobListener) (string, models.Optional[models.Control], error) {
	return m.message, m.control, m.err
}

type mockNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (m *mockNotifier) AutoExpire(ctx context.Context, jobID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, jobID+": "+message)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notices)
}

type mockJournal struct {
	mu     sync.Mutex
	events []models.JobEvent
}

func (m *mockJournal) Record(ctx context.Context, event models.JobEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockJournal) kinds(jobID string) []models.EventKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EventKind
	for _, e := range m.events {
		if e.JobID == jobID {
			out = append(out, e.Kind)
		}
	}
	return out
}
