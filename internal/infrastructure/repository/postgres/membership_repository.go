package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	qb "github.com/riskibarqy/survivor-league/internal/platform/querybuilder"
)

type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Get(ctx context.Context, leagueID, memberID string) (membership.Membership, bool, error) {
	query, args, err := qb.Select("*").From("memberships").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.Eq("member_public_id", memberID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return membership.Membership{}, false, fmt.Errorf("build get membership query: %w", err)
	}

	var row membershipTableModel
	if err := getWithRetry(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return membership.Membership{}, false, nil
		}
		return membership.Membership{}, false, fmt.Errorf("get membership league=%s member=%s: %w", leagueID, memberID, err)
	}
	return row.toDomain(), true, nil
}

func (r *MembershipRepository) ListByLeague(ctx context.Context, leagueID string) ([]membership.Membership, error) {
	query, args, err := qb.Select("*").From("memberships").
		Where(
			qb.Eq("league_public_id", leagueID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("member_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list memberships query: %w", err)
	}

	var rows []membershipTableModel
	if err := selectWithRetry(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list memberships league=%s: %w", leagueID, err)
	}

	out := make([]membership.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *MembershipRepository) CompareAndSwap(ctx context.Context, expected, next membership.Membership) (bool, error) {
	if err := next.Validate(); err != nil {
		return false, err
	}

	query, args, err := qb.Update("memberships").
		Set("lives_remaining", next.LivesRemaining).
		Set("eliminated", next.Eliminated).
		Set("eliminated_week", intPtrToNullInt64(next.EliminatedWeek)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("league_public_id", expected.LeagueID),
			qb.Eq("member_public_id", expected.MemberID),
			qb.IsNull("deleted_at"),
			qb.Eq("lives_remaining", expected.LivesRemaining),
			qb.Eq("eliminated", expected.Eliminated),
			qb.Expr("eliminated_week IS NOT DISTINCT FROM ?::integer", intPtrToNullInt64(expected.EliminatedWeek)),
		).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build compare and swap membership query: %w", err)
	}

	res, err := execWithRetry(ctx, r.db, query, args...)
	if err != nil {
		return false, fmt.Errorf("compare and swap membership league=%s member=%s: %w", expected.LeagueID, expected.MemberID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows membership member=%s: %w", expected.MemberID, err)
	}
	if affected > 0 {
		return true, nil
	}

	if _, exists, err := r.Get(ctx, expected.LeagueID, expected.MemberID); err != nil {
		return false, err
	} else if !exists {
		return false, fmt.Errorf("membership league=%s member=%s not found", expected.LeagueID, expected.MemberID)
	}
	return false, nil
}

func (row membershipTableModel) toDomain() membership.Membership {
	return membership.Membership{
		MemberID:       row.MemberID,
		LeagueID:       row.LeagueID,
		LivesRemaining: row.LivesRemaining,
		Eliminated:     row.Eliminated,
		EliminatedWeek: nullInt64ToIntPtr(row.EliminatedWeek),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}
