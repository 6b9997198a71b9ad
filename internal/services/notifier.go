package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is the JSON body posted to the webhook.
type Notice struct {
	JobID     string          `json:"job_id"`
	Name      string          `json:"name,omitempty"`
	Level     NoticeLevel     `json:"level"`
	Message   string          `json:"message"`
	Control   *models.Control `json:"control,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

// WebhookNotifier posts notices as JSON to a webhook. Without a URL it only logs them.
type WebhookNotifier struct {
	api         *APIService
	expireAfter time.Duration
	logger      *log.Logger
	now         func() time.Time
}

// NewWebhookNotifier creates a notifier posting to webhookURL.
func NewWebhookNotifier(webhookURL string, expireAfter time.Duration, api *APIService, logger *log.Logger) *WebhookNotifier {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	if webhookURL != "" && api == nil {
		api = NewAPIService(webhookURL, nil)
	}
	if webhookURL == "" {
		api = nil
	}
	return &WebhookNotifier{
		api:         api,
		expireAfter: expireAfter,
		logger:      shared.WithLogger(logger, "component", "notifier"),
		now:         time.Now,
	}
}

// Enabled reports whether notices leave the process.
func (w *WebhookNotifier) Enabled() bool { return w.api != nil }

// Notify posts notice.
func (w *WebhookNotifier) Notify(ctx context.Context, notice Notice) error {
	w.logger.Debug("notice", "job", notice.JobID, "level", notice.Level, "message", notice.Message)
	if w.api == nil {
		return nil
	}

	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}
	resp, err := w.api.Post(ctx, "", data)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: webhook returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}
	return nil
}

// AutoExpire posts an error notice that receivers should drop after the configured expiry.
func (w *WebhookNotifier) AutoExpire(ctx context.Context, jobID, message string) error {
	notice := Notice{JobID: jobID, Level: NoticeError, Message: message}
	if w.expireAfter > 0 {
		at := w.now().Add(w.expireAfter)
		notice.ExpiresAt = &at
	}
	return w.Notify(ctx, notice)
}
