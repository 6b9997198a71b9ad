// API service for talking to a running watcher's control API
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/desertthunder/nzbwatch/internal/tasks"
)

const defaultControlURL = "http://127.0.0.1:3000"

// APIService makes HTTP requests to the control API of a running watcher.
//
// The raw Get and Post methods are also used to post webhook notices.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = defaultControlURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the response carries a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
	}

	var jsonData any
	if err := json.Unmarshal(raw, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// decode checks resp for an error status and unmarshals its body into out.
func decode(resp *APIResponse, out any) error {
	if !resp.OK() {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(resp.Body, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%w (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Jobs lists the jobs the watcher is following.
func (a *APIService) Jobs(ctx context.Context) ([]models.JobView, error) {
	resp, err := a.Get(ctx, "/jobs")
	if err != nil {
		return nil, err
	}
	var out models.JobsResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Job returns one job and its journal entries.
func (a *APIService) Job(ctx context.Context, id string) (*models.JobDetail, error) {
	resp, err := a.Get(ctx, "/jobs/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var out models.JobDetail
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Track asks the watcher to follow a download and returns the tracked job.
func (a *APIService) Track(ctx context.Context, req models.TrackRequest) (*models.JobView, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	resp, err := a.Post(ctx, "/jobs", data)
	if err != nil {
		return nil, err
	}
	var out models.JobView
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health returns the watcher's listener stats.
func (a *APIService) Health(ctx context.Context) (*tasks.Stats, error) {
	resp, err := a.Get(ctx, "/health")
	if err != nil {
		return nil, err
	}
	var out tasks.Stats
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
