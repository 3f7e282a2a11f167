package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-league/internal/domain/penalty"
	qb "github.com/riskibarqy/survivor-league/internal/platform/querybuilder"
)

type penaltyTableModel struct {
	LeagueID  string    `db:"league_public_id"`
	MemberID  string    `db:"member_public_id"`
	Week      int       `db:"week"`
	AppliedAt time.Time `db:"applied_at"`
}

type PenaltyRepository struct {
	db *sqlx.DB
}

func NewPenaltyRepository(db *sqlx.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

func (r *PenaltyRepository) Claim(ctx context.Context, p penalty.Penalty) (bool, error) {
	appliedAt := p.AppliedAt.UTC()
	if appliedAt.IsZero() {
		appliedAt = time.Now().UTC()
	}

	query, args, err := qb.InsertModel("missing_pick_penalties", penaltyTableModel{
		LeagueID:  p.LeagueID,
		MemberID:  p.MemberID,
		Week:      p.Week,
		AppliedAt: appliedAt,
	}, "ON CONFLICT (league_public_id, member_public_id, week) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build claim penalty query: %w", err)
	}

	res, err := execWithRetry(ctx, r.db, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim penalty league=%s member=%s week=%d: %w", p.LeagueID, p.MemberID, p.Week, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows penalty member=%s: %w", p.MemberID, err)
	}
	return affected > 0, nil
}

func (r *PenaltyRepository) Release(ctx context.Context, leagueID, memberID string, week int) error {
	query, args, err := qb.DeleteFrom("missing_pick_penalties").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("member_public_id", memberID),
			qb.Eq("week", week),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build release penalty query: %w", err)
	}

	if _, err := execWithRetry(ctx, r.db, query, args...); err != nil {
		return fmt.Errorf("release penalty league=%s member=%s week=%d: %w", leagueID, memberID, week, err)
	}
	return nil
}

func (r *PenaltyRepository) ListByMember(ctx context.Context, leagueID, memberID string) ([]penalty.Penalty, error) {
	query, args, err := qb.Select("*").From("missing_pick_penalties").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("member_public_id", memberID),
		).
		OrderBy("week").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list penalties query: %w", err)
	}

	var rows []penaltyTableModel
	if err := selectWithRetry(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list penalties league=%s member=%s: %w", leagueID, memberID, err)
	}

	out := make([]penalty.Penalty, 0, len(rows))
	for _, row := range rows {
		out = append(out, penalty.Penalty{
			LeagueID:  row.LeagueID,
			MemberID:  row.MemberID,
			Week:      row.Week,
			AppliedAt: row.AppliedAt.UTC(),
		})
	}
	return out, nil
}
