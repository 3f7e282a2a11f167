package postgres

import "time"

type jobRunInsertModel struct {
	RunID       string     `db:"run_id"`
	JobName     string     `db:"job_name"`
	LeagueID    string     `db:"league_public_id"`
	Week        int        `db:"week"`
	Status      string     `db:"status"`
	Payload     string     `db:"payload"`
	LastError   *string    `db:"last_error"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	TraceID     *string    `db:"trace_id"`
	SpanID      *string    `db:"span_id"`
}

type jobRunTableModel struct {
	ID          int64      `db:"id"`
	RunID       string     `db:"run_id"`
	JobName     string     `db:"job_name"`
	LeagueID    string     `db:"league_public_id"`
	Week        int        `db:"week"`
	Status      string     `db:"status"`
	Payload     []byte     `db:"payload"`
	LastError   *string    `db:"last_error"`
	StartedAt   *time.Time `db:"started_at"`
	CompletedAt *time.Time `db:"completed_at"`
	FailedAt    *time.Time `db:"failed_at"`
	TraceID     *string    `db:"trace_id"`
	SpanID      *string    `db:"span_id"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	DeletedAt   *time.Time `db:"deleted_at"`
}
