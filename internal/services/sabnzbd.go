package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
	"golang.org/x/time/rate"
)

const defaultSABnzbdURL = "http://127.0.0.1:8080"

// SABnzbdClient talks to the SABnzbd JSON API.
//
// Every call passes through a token bucket so the reconciliation loop and the
// side effects it spawns never flood the downloader.
type SABnzbdClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSABnzbdClient creates a client for the SABnzbd instance at baseURL.
//
// requestsPerSecond <= 0 disables rate limiting.
func NewSABnzbdClient(baseURL, apiKey string, requestsPerSecond float64, client *http.Client) *SABnzbdClient {
	if baseURL == "" {
		baseURL = defaultSABnzbdURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	return &SABnzbdClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// statusResponse is the envelope SABnzbd uses for commands.
type statusResponse struct {
	Status bool     `json:"status"`
	Error  string   `json:"error"`
	NzoIDs []string `json:"nzo_ids"`
}

type historyResponse struct {
	History struct {
		Slots []models.HistorySlot `json:"slots"`
	} `json:"history"`
	Error string `json:"error"`
}

type queueResponse struct {
	Queue struct {
		Slots []models.QueueSlot `json:"slots"`
	} `json:"queue"`
	Error string `json:"error"`
}

// doRequest calls /api with mode and params and decodes the JSON body into result.
func (s *SABnzbdClient) doRequest(ctx context.Context, mode string, params url.Values, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrTimeout, err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("mode", mode)
	params.Set("output", "json")
	if s.apiKey != "" {
		params.Set("apikey", s.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sabnzbd %s returned status %d", shared.ErrAPIRequest, mode, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// command runs a mode that answers with a status envelope.
func (s *SABnzbdClient) command(ctx context.Context, mode string, params url.Values) (statusResponse, error) {
	var out statusResponse
	if err := s.doRequest(ctx, mode, params, &out); err != nil {
		return out, err
	}
	if out.Error != "" {
		return out, fmt.Errorf("%w: sabnzbd %s: %s", shared.ErrAPIRequest, mode, out.Error)
	}
	return out, nil
}

// History returns the history view, newest first.
func (s *SABnzbdClient) History(ctx context.Context) ([]models.HistorySlot, error) {
	var out historyResponse
	if err := s.doRequest(ctx, "history", nil, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: sabnzbd history: %s", shared.ErrAPIRequest, out.Error)
	}
	return out.History.Slots, nil
}

// Downloads returns the active queue.
func (s *SABnzbdClient) Downloads(ctx context.Context) ([]models.QueueSlot, error) {
	var out queueResponse
	if err := s.doRequest(ctx, "queue", nil, &out); err != nil {
		return nil, err
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: sabnzbd queue: %s", shared.ErrAPIRequest, out.Error)
	}
	return out.Queue.Slots, nil
}

// DeleteHistory removes a history entry. Reports whether SABnzbd deleted anything.
func (s *SABnzbdClient) DeleteHistory(ctx context.Context, id string, deleteFiles bool) (bool, error) {
	out, err := s.command(ctx, "history", deleteParams(id, deleteFiles))
	if err != nil {
		return false, err
	}
	return out.Status, nil
}

// DeleteJob removes a job from the active queue.
func (s *SABnzbdClient) DeleteJob(ctx context.Context, id string, deleteFiles bool) error {
	out, err := s.command(ctx, "queue", deleteParams(id, deleteFiles))
	if err != nil {
		return err
	}
	if !out.Status {
		return fmt.Errorf("%w: queue delete of %s was refused", shared.ErrAPIRequest, id)
	}
	return nil
}

// CreateCategory adds a category that jobs can be filed under.
func (s *SABnzbdClient) CreateCategory(ctx context.Context, key, dir string) error {
	params := url.Values{"section": {"categories"}, "keyword": {key}, "name": {key}}
	if dir != "" {
		params.Set("dir", dir)
	}
	_, err := s.command(ctx, "set_config", params)
	return err
}

// DeleteCategory removes a category. Reports whether SABnzbd deleted anything.
func (s *SABnzbdClient) DeleteCategory(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("%w: category key", shared.ErrMissingArgument)
	}
	out, err := s.command(ctx, "del_config", url.Values{"section": {"categories"}, "keyword": {key}})
	if err != nil {
		return false, err
	}
	return out.Status, nil
}

// AddURL queues the NZB at nzbURL and returns the id SABnzbd assigned to it.
func (s *SABnzbdClient) AddURL(ctx context.Context, nzbURL, name, category string) (string, error) {
	if nzbURL == "" {
		return "", fmt.Errorf("%w: nzb url", shared.ErrMissingArgument)
	}
	params := url.Values{"name": {nzbURL}}
	if name != "" {
		params.Set("nzbname", name)
	}
	if category != "" {
		params.Set("cat", category)
	}

	out, err := s.command(ctx, "addurl", params)
	if err != nil {
		return "", err
	}
	if !out.Status || len(out.NzoIDs) == 0 {
		return "", fmt.Errorf("%w: sabnzbd did not accept %s", shared.ErrAPIRequest, nzbURL)
	}
	return out.NzoIDs[0], nil
}

// Version returns the SABnzbd version string. Used as a connectivity check.
func (s *SABnzbdClient) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := s.doRequest(ctx, "version", nil, &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

func deleteParams(id string, deleteFiles bool) url.Values {
	params := url.Values{"name": {"delete"}, "value": {id}}
	if deleteFiles {
		params.Set("del_files", "1")
	}
	return params
}
