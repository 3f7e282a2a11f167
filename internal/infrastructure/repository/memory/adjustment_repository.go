package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/survivor-league/internal/domain/adjustment"
)

type AdjustmentRepository struct {
	mu    sync.RWMutex
	items []adjustment.Adjustment
}

func NewAdjustmentRepository(items []adjustment.Adjustment) *AdjustmentRepository {
	return &AdjustmentRepository{items: append([]adjustment.Adjustment(nil), items...)}
}

func (r *AdjustmentRepository) ListByLeague(_ context.Context, leagueID string) ([]adjustment.Adjustment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]adjustment.Adjustment, 0)
	for _, item := range r.items {
		if item.LeagueID == leagueID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *AdjustmentRepository) Create(_ context.Context, item adjustment.Adjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, item)
	return nil
}
