package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/riskibarqy/survivor-league/internal/domain/jobrun"
)

// JobRunRepository keeps the latest event per run id.
type JobRunRepository struct {
	mu   sync.RWMutex
	runs map[string]jobrun.Event
}

func NewJobRunRepository() *JobRunRepository {
	return &JobRunRepository{runs: make(map[string]jobrun.Event)}
}

func (r *JobRunRepository) UpsertEvent(_ context.Context, event jobrun.Event) error {
	runID := strings.TrimSpace(event.RunID)
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[runID] = event
	return nil
}

func (r *JobRunRepository) ListByLeague(_ context.Context, leagueID string, limit int) ([]jobrun.Event, error) {
	r.mu.RLock()
	out := make([]jobrun.Event, 0)
	for _, event := range r.runs {
		if event.LeagueID == leagueID {
			out = append(out, event)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
