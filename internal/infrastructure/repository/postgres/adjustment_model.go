package postgres

import "time"

type adjustmentTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	LeagueID  string     `db:"league_public_id"`
	MemberID  string     `db:"member_public_id"`
	Week      int        `db:"week"`
	Delta     int        `db:"delta"`
	Reason    string     `db:"reason"`
	CreatedAt time.Time  `db:"created_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

type adjustmentInsertModel struct {
	PublicID  string    `db:"public_id"`
	LeagueID  string    `db:"league_public_id"`
	MemberID  string    `db:"member_public_id"`
	Week      int       `db:"week"`
	Delta     int       `db:"delta"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}
