package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

const eventColumns = `id, sequence, job_id, kind, status, name, message, created_at`

// EventRepository persists [models.JobEvent] records. It implements tasks.Journal.
//
// The journal is append-only and never used to rebuild listener state.
type EventRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewEventRepository creates a new EventRepository with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db, now: time.Now}
}

// Record inserts event with a generated ID, sequence and timestamp.
func (r *EventRepository) Record(ctx context.Context, event models.JobEvent) error {
	if event.JobID == "" {
		return fmt.Errorf("%w: event job id is empty", shared.ErrInvalidInput)
	}
	if event.Kind == "" {
		return fmt.Errorf("%w: event kind is empty", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "job_events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if event.ID == "" {
		event.ID = shared.GenerateID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}

	query := `
		INSERT INTO job_events (
			id, sequence, job_id, kind, status, name, normalized_name, message, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		event.ID,
		sequence,
		event.JobID,
		string(event.Kind),
		string(event.Status),
		event.Name,
		shared.NormalizeName(event.Name),
		event.Message,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job event: %w", err)
	}
	return nil
}

// Get retrieves an event by ID.
func (r *EventRepository) Get(ctx context.Context, id string) (*models.JobEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM job_events WHERE id = ?`

	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job event not found: %s", id)
	}
	return event, err
}

// List retrieves events matching the given criteria, oldest first.
//
// Supported criteria: "job_id" (string), "kind" (string), "limit" (int, keeps the newest N).
func (r *EventRepository) List(ctx context.Context, criteria map[string]any) ([]*models.JobEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM job_events WHERE 1 = 1`
	args := []any{}

	if jobID, ok := criteria["job_id"].(string); ok && jobID != "" {
		query += " AND job_id = ?"
		args = append(args, jobID)
	}
	if kind, ok := criteria["kind"].(string); ok && kind != "" {
		query += " AND kind = ?"
		args = append(args, kind)
	}

	query += " ORDER BY sequence DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job events: %w", err)
	}
	defer rows.Close()

	var events []*models.JobEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job events: %w", err)
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	return events, nil
}

// LastCompleted returns the id of the most recent completed job whose name normalises to the same
// value as name. ok is false when no such job exists.
func (r *EventRepository) LastCompleted(ctx context.Context, name string) (jobID string, ok bool, err error) {
	normalized := shared.NormalizeName(name)
	if normalized == "" {
		return "", false, nil
	}

	query := `
		SELECT job_id FROM job_events
		WHERE normalized_name = ? AND kind = ?
		ORDER BY sequence DESC
		LIMIT 1
	`
	err = r.db.QueryRowContext(ctx, query, normalized, string(models.EventCompleted)).Scan(&jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to look up completed jobs: %w", err)
	}
	return jobID, true, nil
}

// Prune deletes events older than cutoff and reports how many were removed.
func (r *EventRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM job_events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune job events: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(s scanner) (*models.JobEvent, error) {
	var (
		event  models.JobEvent
		kind   string
		status string
	)
	err := s.Scan(
		&event.ID,
		&event.Sequence,
		&event.JobID,
		&kind,
		&status,
		&event.Name,
		&event.Message,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan job event: %w", err)
	}
	event.Kind = models.EventKind(kind)
	event.Status = models.Status(status)
	return &event, nil
}
