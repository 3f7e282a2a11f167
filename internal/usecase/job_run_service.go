package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/jobrun"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

type JobRun struct {
	// RunID is taken from the caller (e.g. a QStash message id) when set.
	RunID    string
	Name     string
	LeagueID string
	Week     int
	Payload  map[string]any
}

type summarizer interface {
	Summary() map[string]any
}

// JobRunService records started/completed/failed events for settlement and
// audit jobs. Recording is best effort and never fails the job.
type JobRunService struct {
	repo   jobrun.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewJobRunService(repo jobrun.Repository, logger *logging.Logger) *JobRunService {
	if logger == nil {
		logger = logging.Default()
	}
	return &JobRunService{repo: repo, logger: logger.Named("jobrun"), now: time.Now}
}

func (s *JobRunService) Recent(ctx context.Context, leagueID string, limit int) ([]jobrun.Event, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("%w: job run store is not configured", ErrDependencyUnavailable)
	}
	items, err := s.repo.ListByLeague(ctx, strings.TrimSpace(leagueID), limit)
	if err != nil {
		return nil, fmt.Errorf("list job runs: %w", err)
	}
	return items, nil
}

// RunJob executes fn between a started and a completed or failed event. A
// result with a Summary method has it merged into the completion payload.
func RunJob[T any](ctx context.Context, s *JobRunService, job JobRun, fn func(context.Context) (T, error)) (T, error) {
	if s == nil {
		return fn(ctx)
	}
	if strings.TrimSpace(job.RunID) == "" {
		job.RunID = buildManualRunID(job.Name, job.LeagueID, s.now().UTC())
	}

	s.record(ctx, job, jobrun.StatusStarted, job.Payload, "")
	result, err := fn(ctx)
	if err != nil {
		s.record(ctx, job, jobrun.StatusFailed, job.Payload, err.Error())
		s.logger.WarnContext(ctx, "job failed", "run_id", job.RunID, "job_name", job.Name, "league_id", job.LeagueID, "error", err)
		return result, err
	}

	payload := make(map[string]any, len(job.Payload)+8)
	for k, v := range job.Payload {
		payload[k] = v
	}
	if summary, ok := any(result).(summarizer); ok {
		for k, v := range summary.Summary() {
			payload[k] = v
		}
	}
	s.record(ctx, job, jobrun.StatusCompleted, payload, "")
	return result, nil
}

func (s *JobRunService) record(ctx context.Context, job JobRun, status jobrun.Status, payload map[string]any, errMessage string) {
	if s.repo == nil {
		return
	}
	traceID, spanID := traceMeta(ctx)
	event := jobrun.Event{
		RunID:        job.RunID,
		JobName:      job.Name,
		LeagueID:     job.LeagueID,
		Week:         job.Week,
		Status:       status,
		Payload:      payload,
		ErrorMessage: errMessage,
		OccurredAt:   s.now().UTC(),
		TraceID:      traceID,
		SpanID:       spanID,
	}
	if err := s.repo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "record job run failed",
			"run_id", job.RunID,
			"job_name", job.Name,
			"status", status,
			"error", err,
		)
	}
}

func buildManualRunID(jobName, leagueID string, now time.Time) string {
	if leagueID == "" {
		leagueID = "all"
	}
	return sanitizeDedupID(fmt.Sprintf("manual-%s-%s-%d", jobName, leagueID, now.UnixNano()))
}

func traceMeta(ctx context.Context) (string, string) {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}
