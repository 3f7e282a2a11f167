package postgres

import (
	"database/sql"
	"time"
)

type membershipTableModel struct {
	ID             int64         `db:"id"`
	LeagueID       string        `db:"league_public_id"`
	MemberID       string        `db:"member_public_id"`
	LivesRemaining int           `db:"lives_remaining"`
	Eliminated     bool          `db:"eliminated"`
	EliminatedWeek sql.NullInt64 `db:"eliminated_week"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	DeletedAt      *time.Time    `db:"deleted_at"`
}
