package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-league/internal/domain/adjustment"
	qb "github.com/riskibarqy/survivor-league/internal/platform/querybuilder"
)

type AdjustmentRepository struct {
	db *sqlx.DB
}

func NewAdjustmentRepository(db *sqlx.DB) *AdjustmentRepository {
	return &AdjustmentRepository{db: db}
}

func (r *AdjustmentRepository) ListByLeague(ctx context.Context, leagueID string) ([]adjustment.Adjustment, error) {
	query, args, err := qb.Select("*").From("life_adjustments").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("created_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list adjustments query: %w", err)
	}

	var rows []adjustmentTableModel
	if err := selectWithRetry(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list adjustments league=%s: %w", leagueID, err)
	}

	out := make([]adjustment.Adjustment, 0, len(rows))
	for _, row := range rows {
		out = append(out, adjustment.Adjustment{
			ID:        row.PublicID,
			LeagueID:  row.LeagueID,
			MemberID:  row.MemberID,
			Week:      row.Week,
			Delta:     row.Delta,
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *AdjustmentRepository) Create(ctx context.Context, item adjustment.Adjustment) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("adjustment id is required")
	}
	createdAt := item.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("life_adjustments", adjustmentInsertModel{
		PublicID:  item.ID,
		LeagueID:  item.LeagueID,
		MemberID:  item.MemberID,
		Week:      item.Week,
		Delta:     item.Delta,
		Reason:    strings.TrimSpace(item.Reason),
		CreatedAt: createdAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert adjustment query: %w", err)
	}

	if _, err := execWithRetry(ctx, r.db, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("adjustment id=%s already exists: %w", item.ID, err)
		}
		return fmt.Errorf("insert adjustment id=%s: %w", item.ID, err)
	}
	return nil
}
