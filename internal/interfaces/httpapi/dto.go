package httpapi

import (
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/jobrun"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
)

type leagueDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Season        int    `json:"season"`
	StartingLives int    `json:"starting_lives"`
	StartWeek     int    `json:"start_week"`
}

type pickDTO struct {
	ID          string `json:"id"`
	LeagueID    string `json:"league_id"`
	MemberID    string `json:"member_id"`
	Week        int    `json:"week"`
	GameID      string `json:"game_id"`
	TeamID      string `json:"team_id"`
	IsCorrect   *bool  `json:"is_correct"`
	SubmittedAt string `json:"submitted_at"`
}

type jobRunDTO struct {
	RunID        string         `json:"run_id"`
	JobName      string         `json:"job_name"`
	LeagueID     string         `json:"league_id"`
	Week         int            `json:"week,omitempty"`
	Status       string         `json:"status"`
	Payload      map[string]any `json:"payload,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	OccurredAt   string         `json:"occurred_at"`
	TraceID      string         `json:"trace_id,omitempty"`
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		ID:            v.ID,
		Name:          v.Name,
		Season:        v.Season,
		StartingLives: v.Lives(0),
		StartWeek:     v.FirstWeek(),
	}
}

func pickToDTO(v pick.Pick) pickDTO {
	return pickDTO{
		ID:          v.ID,
		LeagueID:    v.LeagueID,
		MemberID:    v.MemberID,
		Week:        v.Week,
		GameID:      v.GameID,
		TeamID:      v.TeamID,
		IsCorrect:   v.IsCorrect,
		SubmittedAt: v.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func jobRunToDTO(v jobrun.Event) jobRunDTO {
	return jobRunDTO{
		RunID:        v.RunID,
		JobName:      v.JobName,
		LeagueID:     v.LeagueID,
		Week:         v.Week,
		Status:       string(v.Status),
		Payload:      v.Payload,
		ErrorMessage: v.ErrorMessage,
		OccurredAt:   v.OccurredAt.UTC().Format(time.RFC3339),
		TraceID:      v.TraceID,
	}
}
