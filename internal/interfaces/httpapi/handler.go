package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/survivor-league/internal/platform/logging"
	"github.com/riskibarqy/survivor-league/internal/usecase"
)

type Handler struct {
	leagueService     *usecase.LeagueService
	pickService       *usecase.PickService
	settlementService *usecase.SettlementService
	auditService      *usecase.AuditService
	jobRunService     *usecase.JobRunService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	leagueService *usecase.LeagueService,
	pickService *usecase.PickService,
	settlementService *usecase.SettlementService,
	auditService *usecase.AuditService,
	jobRunService *usecase.JobRunService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leagueService:     leagueService,
		pickService:       pickService,
		settlementService: settlementService,
		auditService:      auditService,
		jobRunService:     jobRunService,
		logger:            logger.Named("httpapi"),
		validator:         validator.New(),
	}
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// decodeJSON treats an empty body as a zero value; validation decides
// whether that is acceptable.
func decodeJSON(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStandings")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	standings, err := h.leagueService.Standings(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standings)
}

type validatePickRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Week     int    `json:"week" validate:"required,gt=0"`
	TeamID   string `json:"team_id" validate:"required,max=8"`
}

type submitPickRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Week     int    `json:"week" validate:"required,gt=0"`
	GameID   string `json:"game_id" validate:"required"`
	TeamID   string `json:"team_id" validate:"required,max=8"`
}

func (h *Handler) ValidatePick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ValidatePick")
	defer span.End()

	var req validatePickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	err := h.pickService.ValidatePickSubmission(ctx, usecase.PickSubmission{
		LeagueID: leagueID,
		MemberID: req.MemberID,
		Week:     req.Week,
		TeamID:   req.TeamID,
	})
	if err != nil {
		h.logger.InfoContext(ctx, "pick rejected", "league_id", leagueID, "member_id", req.MemberID, "week", req.Week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"valid": true})
}

func (h *Handler) SubmitPick(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitPick")
	defer span.End()

	var req submitPickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	saved, err := h.pickService.SubmitPick(ctx, usecase.PickSubmission{
		LeagueID: leagueID,
		MemberID: req.MemberID,
		Week:     req.Week,
		GameID:   req.GameID,
		TeamID:   req.TeamID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit pick failed", "league_id", leagueID, "member_id", req.MemberID, "week", req.Week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, pickToDTO(saved))
}
