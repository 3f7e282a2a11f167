package postgres

import "time"

type leagueTableModel struct {
	ID            int64      `db:"id"`
	PublicID      string     `db:"public_id"`
	Name          string     `db:"name"`
	Season        int        `db:"season"`
	StartingLives int        `db:"starting_lives"`
	StartWeek     int        `db:"start_week"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}
