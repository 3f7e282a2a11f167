package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/survivor-league/internal/domain/game"
	qb "github.com/riskibarqy/survivor-league/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) ListBySeasonWeek(ctx context.Context, season, week int) ([]game.Game, error) {
	return r.list(ctx, "season week",
		qb.Eq("season", season),
		qb.Eq("week", week),
		qb.IsNull("deleted_at"),
	)
}

func (r *GameRepository) ListBySeason(ctx context.Context, season int) ([]game.Game, error) {
	return r.list(ctx, "season",
		qb.Eq("season", season),
		qb.IsNull("deleted_at"),
	)
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("public_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game by id query: %w", err)
	}

	var row gameTableModel
	if err := getWithRetry(ctx, r.db, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, fmt.Errorf("get game by id=%s: %w", gameID, err)
	}
	return row.toDomain(), true, nil
}

func (r *GameRepository) list(ctx context.Context, scope string, conditions ...qb.Condition) ([]game.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(conditions...).
		OrderBy("week", "kickoff_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select games by %s query: %w", scope, err)
	}

	var rows []gameTableModel
	if err := selectWithRetry(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games by %s: %w", scope, err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (row gameTableModel) toDomain() game.Game {
	return game.Game{
		ID:         row.PublicID,
		Season:     row.Season,
		Week:       row.Week,
		HomeTeamID: row.HomeTeam,
		AwayTeamID: row.AwayTeam,
		KickoffAt:  row.KickoffAt.UTC(),
		HomeScore:  nullInt64ToIntPtr(row.HomeScore),
		AwayScore:  nullInt64ToIntPtr(row.AwayScore),
		IsFinal:    row.IsFinal,
	}
}
