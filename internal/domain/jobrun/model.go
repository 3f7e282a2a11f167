package jobrun

import "time"

type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Event records one state change of a settlement or audit job invoked
// through the internal job API or the batch CLI.
type Event struct {
	RunID        string
	JobName      string
	LeagueID     string
	Week         int
	Status       Status
	Payload      map[string]any
	ErrorMessage string
	OccurredAt   time.Time
	TraceID      string
	SpanID       string
}
