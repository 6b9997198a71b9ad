package tasks

import (
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/nzbwatch/internal/models"
)

// Registry maps download queue job ids to the listener's local record of them.
//
// All access goes through one non-reentrant mutex, which the reconciliation loop
// also holds while it diffs a tick. Records never leave the registry except by [Registry.Remove].
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
	now  func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs: make(map[string]*models.Job),
		now:  time.Now,
	}
}

// withLock runs fn while holding the registry lock. fn must not call back into exported methods.
func (r *Registry) withLock(fn func(jobs map[string]*models.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.jobs)
}

// register inserts a fresh record. Caller holds the lock.
func (r *Registry) register(id string) bool {
	if _, ok := r.jobs[id]; ok {
		return false
	}
	r.jobs[id] = models.NewJob(id, r.now())
	return true
}

// Register creates a record for id. Registering an id that is already present is a no-op and reports false.
func (r *Registry) Register(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(id)
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id string) (models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}

// SetStatus stores the last observed status for id. Reports false when id is not registered.
func (r *Registry) SetStatus(id string, status models.Status) bool {
	return r.update(id, func(job *models.Job) bool {
		job.Status = status
		return true
	})
}

// MarkUploaded flips the completion gate. Reports true only on the false→true transition.
func (r *Registry) MarkUploaded(id string) bool {
	return r.update(id, func(job *models.Job) bool {
		if job.Uploaded {
			return false
		}
		job.Uploaded = true
		return true
	})
}

// MarkDupChecked flips the duplicate/quota gate. Reports true only on the false→true transition.
func (r *Registry) MarkDupChecked(id string) bool {
	return r.update(id, func(job *models.Job) bool {
		if job.StopDupCheck {
			return false
		}
		job.StopDupCheck = true
		return true
	})
}

// MarkFailureDispatched flips the failure gate. Reports true only on the false→true transition.
func (r *Registry) MarkFailureDispatched(id string) bool {
	return r.update(id, func(job *models.Job) bool {
		if job.FailureDispatched {
			return false
		}
		job.FailureDispatched = true
		job.Status = models.StatusFailed
		return true
	})
}

func (r *Registry) update(id string, fn func(job *models.Job) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false
	}
	return fn(job)
}

// Remove evicts id. Removing an absent id is a no-op and reports false.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	return true
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Snapshot returns copies of all records ordered by registration time.
func (r *Registry) Snapshot() []models.Job {
	r.mu.Lock()
	out := make([]models.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out
}
