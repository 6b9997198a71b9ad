// package policy implements the quota and duplicate policies consulted once a download starts
package policy

import (
	"context"
	"fmt"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
	"github.com/desertthunder/nzbwatch/internal/tasks"
)

// SizeLimit rejects NZB downloads larger than a fixed number of bytes.
//
// A zero limit accepts everything.
type SizeLimit struct {
	maxBytes int64
}

// NewSizeLimit builds a SizeLimit from a human readable size such as "50 GB". An empty string disables the limit.
func NewSizeLimit(limit string) (*SizeLimit, error) {
	if limit == "" {
		return &SizeLimit{}, nil
	}
	n, err := shared.ParseSize(limit)
	if err != nil {
		return nil, fmt.Errorf("%w: limits.max_nzb_size: %v", shared.ErrInvalidConfig, err)
	}
	return &SizeLimit{maxBytes: n}, nil
}

// Max returns the limit in bytes.
func (s *SizeLimit) Max() int64 { return s.maxBytes }

// CheckQuota implements [tasks.QuotaPolicy].
func (s *SizeLimit) CheckQuota(ctx context.Context, listener tasks.JobListener, isNZB bool) (string, error) {
	if !isNZB || s.maxBytes <= 0 {
		return "", nil
	}
	if size := listener.Size(); size > s.maxBytes {
		return fmt.Sprintf("NZB limit is %s, %s is %s", shared.FormatSize(s.maxBytes), listener.Name(), shared.FormatSize(size)), nil
	}
	return "", nil
}

// CompletedLookup finds the last completed job with a matching release name.
type CompletedLookup interface {
	LastCompleted(ctx context.Context, name string) (jobID string, ok bool, err error)
}

// DuplicateGuard rejects downloads whose release name matches a job that already completed.
type DuplicateGuard struct {
	lookup  CompletedLookup
	linkURL string
}

// NewDuplicateGuard creates a guard. When linkURL is set, rejections carry a control pointing at
// the existing job's events under that base URL.
func NewDuplicateGuard(lookup CompletedLookup, linkURL string) *DuplicateGuard {
	return &DuplicateGuard{lookup: lookup, linkURL: linkURL}
}

// CheckDuplicate implements [tasks.DuplicatePolicy].
func (d *DuplicateGuard) CheckDuplicate(ctx context.Context, listener tasks.JobListener) (string, models.Optional[models.Control], error) {
	none := models.None[models.Control]()
	name := listener.Name()
	if name == "" {
		return "", none, nil
	}

	existing, ok, err := d.lookup.LastCompleted(ctx, name)
	if err != nil {
		return "", none, fmt.Errorf("duplicate lookup: %w", err)
	}
	if !ok {
		return "", none, nil
	}

	message := fmt.Sprintf("%s was already downloaded", name)
	if d.linkURL == "" {
		return message, none, nil
	}
	return message, models.Some(models.Control{Text: "View existing", URL: d.linkURL + "/jobs/" + existing}), nil
}

var (
	_ tasks.QuotaPolicy     = (*SizeLimit)(nil)
	_ tasks.DuplicatePolicy = (*DuplicateGuard)(nil)
)
