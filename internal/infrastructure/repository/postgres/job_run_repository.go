package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-league/internal/domain/jobrun"
	qb "github.com/riskibarqy/survivor-league/internal/platform/querybuilder"
)

type JobRunRepository struct {
	db *sqlx.DB
}

func NewJobRunRepository(db *sqlx.DB) *JobRunRepository {
	return &JobRunRepository{db: db}
}

func (r *JobRunRepository) UpsertEvent(ctx context.Context, event jobrun.Event) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	jobName := strings.TrimSpace(event.JobName)
	if jobName == "" {
		jobName = "unknown"
	}
	leagueID := strings.TrimSpace(event.LeagueID)
	if leagueID == "" {
		leagueID = "unknown"
	}
	occurredAt := event.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	payloadJSON, err := marshalPayload(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal job run payload: %w", err)
	}

	model := jobRunInsertModel{
		RunID:     runID,
		JobName:   jobName,
		LeagueID:  leagueID,
		Week:      event.Week,
		Status:    string(event.Status),
		Payload:   payloadJSON,
		LastError: optionalString(event.ErrorMessage),
		TraceID:   optionalString(event.TraceID),
		SpanID:    optionalString(event.SpanID),
	}
	switch event.Status {
	case jobrun.StatusStarted:
		model.StartedAt = &occurredAt
		model.LastError = nil
	case jobrun.StatusCompleted:
		model.CompletedAt = &occurredAt
		model.LastError = nil
	case jobrun.StatusFailed:
		model.FailedAt = &occurredAt
	}

	query, args, err := qb.InsertModel("job_runs", model, `ON CONFLICT (run_id) WHERE deleted_at IS NULL
DO UPDATE SET
    job_name = EXCLUDED.job_name,
    league_public_id = EXCLUDED.league_public_id,
    week = EXCLUDED.week,
    status = EXCLUDED.status,
    payload = CASE
        WHEN EXCLUDED.payload = '{}' THEN job_runs.payload
        ELSE EXCLUDED.payload
    END,
    started_at = COALESCE(job_runs.started_at, EXCLUDED.started_at),
    completed_at = CASE
        WHEN EXCLUDED.status = 'completed' THEN EXCLUDED.completed_at
        ELSE job_runs.completed_at
    END,
    failed_at = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.failed_at
        WHEN EXCLUDED.status = 'completed' THEN NULL
        ELSE job_runs.failed_at
    END,
    last_error = CASE
        WHEN EXCLUDED.status = 'failed' THEN EXCLUDED.last_error
        ELSE NULL
    END,
    trace_id = COALESCE(EXCLUDED.trace_id, job_runs.trace_id),
    span_id = COALESCE(EXCLUDED.span_id, job_runs.span_id),
    updated_at = NOW(),
    deleted_at = NULL`)
	if err != nil {
		return fmt.Errorf("build upsert job run query: %w", err)
	}

	if _, err := execWithRetry(ctx, r.db, query, args...); err != nil {
		return fmt.Errorf("upsert job run run_id=%s status=%s: %w", runID, event.Status, err)
	}
	return nil
}

func (r *JobRunRepository) ListByLeague(ctx context.Context, leagueID string, limit int) ([]jobrun.Event, error) {
	if limit <= 0 {
		limit = 20
	}
	query, args, err := qb.Select("*").From("job_runs").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("updated_at DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list job runs query: %w", err)
	}

	var rows []jobRunTableModel
	if err := selectWithRetry(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list job runs league=%s: %w", leagueID, err)
	}

	out := make([]jobrun.Event, 0, len(rows))
	for _, row := range rows {
		event, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, nil
}

func (row jobRunTableModel) toDomain() (jobrun.Event, error) {
	var payload map[string]any
	if len(row.Payload) > 0 {
		if err := sonic.Unmarshal(row.Payload, &payload); err != nil {
			return jobrun.Event{}, fmt.Errorf("decode job run payload run_id=%s: %w", row.RunID, err)
		}
	}

	occurredAt := row.UpdatedAt
	errMessage := ""
	switch jobrun.Status(row.Status) {
	case jobrun.StatusStarted:
		occurredAt = derefTime(row.StartedAt, occurredAt)
	case jobrun.StatusCompleted:
		occurredAt = derefTime(row.CompletedAt, occurredAt)
	case jobrun.StatusFailed:
		occurredAt = derefTime(row.FailedAt, occurredAt)
		if row.LastError != nil {
			errMessage = *row.LastError
		}
	}

	return jobrun.Event{
		RunID:        row.RunID,
		JobName:      row.JobName,
		LeagueID:     row.LeagueID,
		Week:         row.Week,
		Status:       jobrun.Status(row.Status),
		Payload:      payload,
		ErrorMessage: errMessage,
		OccurredAt:   occurredAt.UTC(),
		TraceID:      derefString(row.TraceID),
		SpanID:       derefString(row.SpanID),
	}, nil
}

func marshalPayload(payload map[string]any) (string, error) {
	if len(payload) == 0 {
		return "{}", nil
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func derefTime(v *time.Time, fallback time.Time) time.Time {
	if v == nil {
		return fallback
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
