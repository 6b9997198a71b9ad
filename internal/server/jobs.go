package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/services"
	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/desertthunder/nzbwatch/internal/tasks"
	"github.com/go-chi/chi/v5"
)

// categoryPrefix names the per-job categories the watcher creates and later removes.
const categoryPrefix = "nzbwatch-"

// Watcher is the listener surface the control API drives.
type Watcher interface {
	OnDownloadStart(ctx context.Context, jobID string) error
	Registry() *tasks.Registry
	Stats() tasks.Stats
}

// Enqueuer adds NZBs to the download queue.
type Enqueuer interface {
	AddURL(ctx context.Context, nzbURL, name, category string) (string, error)
	CreateCategory(ctx context.Context, key, dir string) error
}

// EventLister reads the job event journal.
type EventLister interface {
	List(ctx context.Context, criteria map[string]any) ([]*models.JobEvent, error)
}

// JobsHandlerOpts contains the dependencies of a [JobsHandler].
//
// Watcher, Store and Queue are required; Enqueuer, Events and Notifier are optional.
type JobsHandlerOpts struct {
	Watcher  Watcher
	Store    *services.TaskStore
	Queue    services.QueueReader
	Enqueuer Enqueuer
	Events   EventLister
	Notifier *services.WebhookNotifier
	Logger   *log.Logger
}

// JobsHandler serves the job endpoints of the control API.
type JobsHandler struct {
	JobsHandlerOpts
}

// NewJobsHandler creates a new [JobsHandler].
func NewJobsHandler(opts JobsHandlerOpts) *JobsHandler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	opts.Logger = shared.WithLogger(opts.Logger, "component", "control_api")
	return &JobsHandler{JobsHandlerOpts: opts}
}

// Register mounts the job endpoints on r.
func (h *JobsHandler) Register(r Router) {
	r.Handle(http.MethodGet, "/jobs", http.HandlerFunc(h.list))
	r.Handle(http.MethodPost, "/jobs", http.HandlerFunc(h.track))
	r.Handle(http.MethodGet, "/jobs/{id}", http.HandlerFunc(h.get))
	r.Handler(healthHandler{watcher: h.Watcher})
}

// NewRouter builds the control API router with the standard middleware stack.
func NewRouter(h *JobsHandler) *BasicRouter {
	r := NewBasicRouter()
	r.Use(RequestID, LogRequests(h.Logger), Recoverer)
	h.Register(r)
	return r
}

func (h *JobsHandler) view(job models.Job) models.JobView {
	v := models.JobView{Job: job}
	if task, ok := h.Store.Get(job.ID); ok {
		v.Name = task.Name()
		v.Size = task.Size()
		v.Category = task.Category()
	}
	return v
}

func (h *JobsHandler) list(w http.ResponseWriter, r *http.Request) {
	jobs := h.Watcher.Registry().Snapshot()
	out := models.JobsResponse{Jobs: make([]models.JobView, 0, len(jobs))}
	for _, job := range jobs {
		out.Jobs = append(out.Jobs, h.view(job))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *JobsHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	resp := models.JobDetail{Events: []*models.JobEvent{}}

	if job, ok := h.Watcher.Registry().Get(id); ok {
		v := h.view(job)
		resp.Job = &v
	}
	if h.Events != nil {
		events, err := h.Events.List(r.Context(), map[string]any{"job_id": id})
		if err != nil {
			h.Logger.Error("failed to read events", "job", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to read events")
			return
		}
		if events != nil {
			resp.Events = events
		}
	}

	if resp.Job == nil && len(resp.Events) == 0 {
		writeError(w, http.StatusNotFound, shared.ErrJobNotTracked.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// track registers a download with the listener, enqueueing its NZB first when a URL is given.
func (h *JobsHandler) track(w http.ResponseWriter, r *http.Request) {
	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.URL = strings.TrimSpace(req.URL)

	switch {
	case req.ID == "" && req.URL == "":
		writeError(w, http.StatusBadRequest, "id or url is required")
		return
	case req.ID != "" && req.URL != "":
		writeError(w, http.StatusBadRequest, "id and url are mutually exclusive")
		return
	case req.URL != "" && h.Enqueuer == nil:
		writeError(w, http.StatusBadRequest, "enqueueing by url is not available")
		return
	}

	ctx := r.Context()
	if req.URL != "" {
		if req.Category == "" {
			req.Category = categoryPrefix + shared.GenerateID()[:8]
			if err := h.Enqueuer.CreateCategory(ctx, req.Category, ""); err != nil {
				h.Logger.Error("failed to create category", "category", req.Category, "error", err)
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
		}
		id, err := h.Enqueuer.AddURL(ctx, req.URL, req.Name, req.Category)
		if err != nil {
			h.Logger.Error("failed to enqueue NZB", "url", req.URL, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		req.ID = id
	}

	if _, ok := h.Store.Get(req.ID); !ok {
		listener := services.NewNZBListener(req.ID, req.Name, req.Category, h.Store, h.Notifier, h.Logger)
		h.Store.Add(services.NewDownloadTask(req.ID, req.Name, req.Category, h.Queue, listener))
	}

	if err := h.Watcher.OnDownloadStart(ctx, req.ID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrListenerClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	job, _ := h.Watcher.Registry().Get(req.ID)
	writeJSON(w, http.StatusCreated, h.view(job))
}

// healthHandler reports listener stats.
type healthHandler struct {
	watcher Watcher
}

func (h healthHandler) Routes() []string { return []string{"/health"} }

func (h healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.watcher.Stats())
}
