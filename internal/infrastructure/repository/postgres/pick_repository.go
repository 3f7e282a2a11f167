package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	qb "github.com/riskibarqy/survivor-league/internal/platform/querybuilder"
)

type PickRepository struct {
	db *sqlx.DB
}

func NewPickRepository(db *sqlx.DB) *PickRepository {
	return &PickRepository{db: db}
}

func (r *PickRepository) ListByLeagueWeek(ctx context.Context, leagueID string, week int) ([]pick.Pick, error) {
	return r.list(ctx, "league week",
		qb.Eq("league_public_id", leagueID),
		qb.Eq("week", week),
		qb.IsNull("deleted_at"),
	)
}

func (r *PickRepository) ListByLeague(ctx context.Context, leagueID string) ([]pick.Pick, error) {
	return r.list(ctx, "league",
		qb.Eq("league_public_id", leagueID),
		qb.IsNull("deleted_at"),
	)
}

func (r *PickRepository) ListByMember(ctx context.Context, leagueID, memberID string) ([]pick.Pick, error) {
	return r.list(ctx, "member",
		qb.Eq("league_public_id", leagueID),
		qb.Eq("member_public_id", memberID),
		qb.IsNull("deleted_at"),
	)
}

func (r *PickRepository) GetByMemberWeek(ctx context.Context, leagueID, memberID string, week int) (pick.Pick, bool, error) {
	query, args, err := qb.Select("*").From("picks").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("member_public_id", memberID),
			qb.Eq("week", week),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return pick.Pick{}, false, fmt.Errorf("build get pick by member week query: %w", err)
	}

	var row pickTableModel
	if err := getWithRetry(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return pick.Pick{}, false, nil
		}
		return pick.Pick{}, false, fmt.Errorf("get pick league=%s member=%s week=%d: %w", leagueID, memberID, week, err)
	}
	return row.toDomain(), true, nil
}

// Upsert writes the member's pick for the week. A resubmission keeps the
// original public id and submission time and resets the verdict.
func (r *PickRepository) Upsert(ctx context.Context, p pick.Pick) (pick.Pick, error) {
	if strings.TrimSpace(p.ID) == "" {
		return pick.Pick{}, fmt.Errorf("pick id is required")
	}
	submittedAt := p.SubmittedAt.UTC()
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	model := pickInsertModel{
		PublicID:    p.ID,
		LeagueID:    p.LeagueID,
		MemberID:    p.MemberID,
		Week:        p.Week,
		GameID:      p.GameID,
		TeamID:      p.TeamID,
		IsCorrect:   boolPtrToNullBool(p.IsCorrect),
		SubmittedAt: submittedAt,
	}
	query, args, err := qb.InsertModel("picks", model, `ON CONFLICT (league_public_id, member_public_id, week) WHERE deleted_at IS NULL
DO UPDATE SET
    game_public_id = EXCLUDED.game_public_id,
    team_id = EXCLUDED.team_id,
    is_correct = NULL,
    updated_at = NOW()
RETURNING *`)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("build upsert pick query: %w", err)
	}

	var row pickTableModel
	if err := getWithRetry(ctx, r.db, &row, query, args...); err != nil {
		return pick.Pick{}, fmt.Errorf("upsert pick league=%s member=%s week=%d: %w", p.LeagueID, p.MemberID, p.Week, err)
	}
	return row.toDomain(), nil
}

func (r *PickRepository) SetCorrectness(ctx context.Context, pickID string, expected *bool, next *bool) (bool, error) {
	query, args, err := qb.Update("picks").
		Set("is_correct", boolPtrToNullBool(next)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", pickID),
			qb.IsNull("deleted_at"),
			qb.Expr("is_correct IS NOT DISTINCT FROM ?::boolean", boolPtrToNullBool(expected)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build set pick correctness query: %w", err)
	}

	res, err := execWithRetry(ctx, r.db, query, args...)
	if err != nil {
		return false, fmt.Errorf("set correctness pick=%s: %w", pickID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows pick=%s: %w", pickID, err)
	}
	if affected > 0 {
		return true, nil
	}

	exists, err := r.exists(ctx, pickID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, fmt.Errorf("pick=%s not found", pickID)
	}
	return false, nil
}

func (r *PickRepository) exists(ctx context.Context, pickID string) (bool, error) {
	query, args, err := qb.Select("COUNT(1)").From("picks").
		Where(qb.Eq("public_id", pickID), qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build pick exists query: %w", err)
	}
	var count int
	if err := getWithRetry(ctx, r.db, &count, query, args...); err != nil {
		return false, fmt.Errorf("check pick=%s exists: %w", pickID, err)
	}
	return count > 0, nil
}

func (r *PickRepository) list(ctx context.Context, scope string, conditions ...qb.Condition) ([]pick.Pick, error) {
	query, args, err := qb.Select("*").From("picks").
		Where(conditions...).
		OrderBy("week", "member_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select picks by %s query: %w", scope, err)
	}

	var rows []pickTableModel
	if err := selectWithRetry(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select picks by %s: %w", scope, err)
	}

	out := make([]pick.Pick, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (row pickTableModel) toDomain() pick.Pick {
	return pick.Pick{
		ID:          row.PublicID,
		MemberID:    row.MemberID,
		LeagueID:    row.LeagueID,
		Week:        row.Week,
		GameID:      row.GameID,
		TeamID:      row.TeamID,
		IsCorrect:   nullBoolToPtr(row.IsCorrect),
		SubmittedAt: row.SubmittedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
