package postgres

import (
	"database/sql"
	"time"
)

type pickTableModel struct {
	ID          int64        `db:"id"`
	PublicID    string       `db:"public_id"`
	LeagueID    string       `db:"league_public_id"`
	MemberID    string       `db:"member_public_id"`
	Week        int          `db:"week"`
	GameID      string       `db:"game_public_id"`
	TeamID      string       `db:"team_id"`
	IsCorrect   sql.NullBool `db:"is_correct"`
	SubmittedAt time.Time    `db:"submitted_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	DeletedAt   *time.Time   `db:"deleted_at"`
}

type pickInsertModel struct {
	PublicID    string       `db:"public_id"`
	LeagueID    string       `db:"league_public_id"`
	MemberID    string       `db:"member_public_id"`
	Week        int          `db:"week"`
	GameID      string       `db:"game_public_id"`
	TeamID      string       `db:"team_id"`
	IsCorrect   sql.NullBool `db:"is_correct"`
	SubmittedAt time.Time    `db:"submitted_at"`
}
