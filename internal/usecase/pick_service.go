package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/survivor-league/internal/domain/game"
	"github.com/riskibarqy/survivor-league/internal/domain/league"
	"github.com/riskibarqy/survivor-league/internal/domain/membership"
	"github.com/riskibarqy/survivor-league/internal/domain/pick"
	"github.com/riskibarqy/survivor-league/internal/domain/survivor"
	"github.com/riskibarqy/survivor-league/internal/platform/id"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
)

type PickSubmission struct {
	LeagueID string
	MemberID string
	Week     int
	TeamID   string
	// GameID is required by SubmitPick only.
	GameID string
}

type PickService struct {
	leagueRepo     league.Repository
	gameRepo       game.Repository
	pickRepo       pick.Repository
	membershipRepo membership.Repository
	idGen          id.Generator
	logger         *logging.Logger
	now            func() time.Time
}

func NewPickService(
	leagueRepo league.Repository,
	gameRepo game.Repository,
	pickRepo pick.Repository,
	membershipRepo membership.Repository,
	idGen id.Generator,
	logger *logging.Logger,
) *PickService {
	if idGen == nil {
		idGen = id.NewPrefixedGenerator("pick")
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &PickService{
		leagueRepo:     leagueRepo,
		gameRepo:       gameRepo,
		pickRepo:       pickRepo,
		membershipRepo: membershipRepo,
		idGen:          idGen,
		logger:         logger.Named("pick"),
		now:            time.Now,
	}
}

// ValidatePickSubmission rejects a team the member already used in an
// earlier week of the league. Picks in the target week or later are ignored.
func (s *PickService) ValidatePickSubmission(ctx context.Context, input PickSubmission) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.ValidatePickSubmission")
	defer span.End()

	input = normalizePickSubmission(input)
	if err := validatePickSubmission(input, false); err != nil {
		return err
	}

	history, err := s.pickRepo.ListByMember(ctx, input.LeagueID, input.MemberID)
	if err != nil {
		return fmt.Errorf("list member picks: %w", err)
	}
	return survivor.CheckTeamReuse(history, input.Week, input.TeamID)
}

// SubmitPick stores the member's pick for the week, replacing an earlier pick
// for the same week while both games are still open.
func (s *PickService) SubmitPick(ctx context.Context, input PickSubmission) (pick.Pick, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PickService.SubmitPick")
	defer span.End()

	input = normalizePickSubmission(input)
	if err := validatePickSubmission(input, true); err != nil {
		return pick.Pick{}, err
	}

	lg, exists, err := s.leagueRepo.GetByID(ctx, input.LeagueID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return pick.Pick{}, fmt.Errorf("%w: league=%s", ErrNotFound, input.LeagueID)
	}
	if input.Week < lg.FirstWeek() {
		return pick.Pick{}, fmt.Errorf("%w: week %d is before league start week %d", ErrInvalidInput, input.Week, lg.FirstWeek())
	}

	m, exists, err := s.membershipRepo.Get(ctx, input.LeagueID, input.MemberID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get membership: %w", err)
	}
	if !exists {
		return pick.Pick{}, fmt.Errorf("%w: league=%s member=%s", ErrMembershipNotFound, input.LeagueID, input.MemberID)
	}
	if !m.Alive() {
		return pick.Pick{}, fmt.Errorf("%w: member=%s", ErrMemberEliminated, input.MemberID)
	}

	target, exists, err := s.gameRepo.GetByID(ctx, input.GameID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get game: %w", err)
	}
	if !exists || target.Season != lg.Season || target.Week != input.Week {
		return pick.Pick{}, fmt.Errorf("%w: game=%s season=%d week=%d", ErrNotFound, input.GameID, lg.Season, input.Week)
	}
	teamID, ok := target.Team(input.TeamID)
	if !ok {
		return pick.Pick{}, fmt.Errorf("%w: team=%s game=%s", survivor.ErrTeamNotInGame, input.TeamID, target.ID)
	}
	input.TeamID = teamID

	existing, hasExisting, err := s.pickRepo.GetByMemberWeek(ctx, input.LeagueID, input.MemberID, input.Week)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("get current pick: %w", err)
	}
	var current *game.Game
	if hasExisting {
		if existing.GameID == target.ID {
			current = &target
		} else {
			g, ok, err := s.gameRepo.GetByID(ctx, existing.GameID)
			if err != nil {
				return pick.Pick{}, fmt.Errorf("get current pick game: %w", err)
			}
			if ok {
				current = &g
			}
		}
	}
	if err := survivor.CheckPickWindow(s.now().UTC(), target, current); err != nil {
		return pick.Pick{}, err
	}

	history, err := s.pickRepo.ListByMember(ctx, input.LeagueID, input.MemberID)
	if err != nil {
		return pick.Pick{}, fmt.Errorf("list member picks: %w", err)
	}
	if err := survivor.CheckTeamReuse(history, input.Week, input.TeamID); err != nil {
		return pick.Pick{}, err
	}

	pickID := existing.ID
	if !hasExisting {
		pickID, err = s.idGen.NewID()
		if err != nil {
			return pick.Pick{}, fmt.Errorf("generate pick id: %w", err)
		}
	}

	saved, err := s.pickRepo.Upsert(ctx, pick.Pick{
		ID:          pickID,
		MemberID:    input.MemberID,
		LeagueID:    input.LeagueID,
		Week:        input.Week,
		GameID:      target.ID,
		TeamID:      input.TeamID,
		SubmittedAt: s.now().UTC(),
	})
	if err != nil {
		return pick.Pick{}, fmt.Errorf("save pick: %w", err)
	}

	s.logger.InfoContext(ctx, "pick submitted",
		"league_id", input.LeagueID,
		"member_id", input.MemberID,
		"week", input.Week,
		"team_id", input.TeamID,
		"resubmission", hasExisting,
	)
	return saved, nil
}

func normalizePickSubmission(input PickSubmission) PickSubmission {
	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.MemberID = strings.TrimSpace(input.MemberID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	input.GameID = strings.TrimSpace(input.GameID)
	return input
}

func validatePickSubmission(input PickSubmission, requireGame bool) error {
	switch {
	case input.LeagueID == "":
		return fmt.Errorf("%w: league id is required", ErrInvalidInput)
	case input.MemberID == "":
		return fmt.Errorf("%w: member id is required", ErrInvalidInput)
	case input.Week <= 0:
		return fmt.Errorf("%w: week must be > 0", ErrInvalidInput)
	case input.TeamID == "":
		return fmt.Errorf("%w: team id is required", ErrInvalidInput)
	case requireGame && input.GameID == "":
		return fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}
	return nil
}
