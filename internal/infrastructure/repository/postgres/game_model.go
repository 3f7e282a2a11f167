package postgres

import (
	"database/sql"
	"time"
)

type gameTableModel struct {
	ID        int64         `db:"id"`
	PublicID  string        `db:"public_id"`
	Season    int           `db:"season"`
	Week      int           `db:"week"`
	HomeTeam  string        `db:"home_team"`
	AwayTeam  string        `db:"away_team"`
	KickoffAt time.Time     `db:"kickoff_at"`
	HomeScore sql.NullInt64 `db:"home_score"`
	AwayScore sql.NullInt64 `db:"away_score"`
	IsFinal   bool          `db:"is_final"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
	DeletedAt *time.Time    `db:"deleted_at"`
}
