package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/riskibarqy/survivor-league/internal/usecase"
)

// QStash sets this header on every delivery; it doubles as the run id so a
// redelivered message updates the same job run row.
const qstashMessageIDHeader = "Upstash-Message-Id"

type internalWeekJobRequest struct {
	LeagueID   string `json:"leagueId" validate:"required"`
	Week       int    `json:"week" validate:"required,gt=0"`
	Force      bool   `json:"force"`
	DispatchID string `json:"dispatchId" validate:"omitempty,max=200"`
}

type applyCorrectionsRequest struct {
	MemberIDs []string `json:"member_ids" validate:"omitempty,dive,required"`
	Confirm   bool     `json:"confirm"`
}

func runIDFromRequest(r *http.Request, dispatchID string) string {
	if id := strings.TrimSpace(dispatchID); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(qstashMessageIDHeader))
}

func (h *Handler) decodeWeekJob(r *http.Request) (internalWeekJobRequest, error) {
	var req internalWeekJobRequest
	if err := decodeJSON(r, &req); err != nil {
		return internalWeekJobRequest{}, err
	}
	req.LeagueID = strings.TrimSpace(req.LeagueID)
	if err := h.validateRequest(r.Context(), req); err != nil {
		return internalWeekJobRequest{}, err
	}
	return req, nil
}

func (h *Handler) RunSettleWeekJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSettleWeekJob")
	defer span.End()

	req, err := h.decodeWeekJob(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := usecase.RunJob(ctx, h.jobRunService, usecase.JobRun{
		RunID:    runIDFromRequest(r, req.DispatchID),
		Name:     "settle-week",
		LeagueID: req.LeagueID,
		Week:     req.Week,
		Payload:  map[string]any{"league_id": req.LeagueID, "week": req.Week},
	}, func(ctx context.Context) (usecase.SettlementReport, error) {
		return h.settlementService.SettleWeek(ctx, req.LeagueID, req.Week)
	})
	if err != nil {
		h.logger.WarnContext(ctx, "settle week job failed", "league_id", req.LeagueID, "week", req.Week, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) RunMissingPickPenaltiesJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunMissingPickPenaltiesJob")
	defer span.End()

	req, err := h.decodeWeekJob(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := usecase.RunJob(ctx, h.jobRunService, usecase.JobRun{
		RunID:    runIDFromRequest(r, req.DispatchID),
		Name:     "missing-pick-penalties",
		LeagueID: req.LeagueID,
		Week:     req.Week,
		Payload:  map[string]any{"league_id": req.LeagueID, "week": req.Week, "force": req.Force},
	}, func(ctx context.Context) (usecase.SettlementReport, error) {
		return h.settlementService.ApplyMissingPickPenalties(ctx, usecase.MissingPickInput{
			LeagueID: req.LeagueID,
			Week:     req.Week,
			Force:    req.Force,
		})
	})
	if err != nil {
		h.logger.WarnContext(ctx, "missing pick penalties job failed", "league_id", req.LeagueID, "week", req.Week, "force", req.Force, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) AuditLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AuditLeague")
	defer span.End()

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	memberID := strings.TrimSpace(r.URL.Query().Get("member_id"))

	report, err := usecase.RunJob(ctx, h.jobRunService, usecase.JobRun{
		Name:     "audit-league",
		LeagueID: leagueID,
		Payload:  map[string]any{"league_id": leagueID, "member_id": memberID},
	}, func(ctx context.Context) (usecase.AuditReport, error) {
		return h.auditService.AuditLeague(ctx, usecase.AuditInput{LeagueID: leagueID, MemberID: memberID})
	})
	if err != nil {
		h.logger.WarnContext(ctx, "audit league failed", "league_id", leagueID, "member_id", memberID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) ApplyAuditCorrections(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyAuditCorrections")
	defer span.End()

	var req applyCorrectionsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	result, err := usecase.RunJob(ctx, h.jobRunService, usecase.JobRun{
		RunID:    strings.TrimSpace(r.Header.Get(qstashMessageIDHeader)),
		Name:     "apply-corrections",
		LeagueID: leagueID,
		Payload:  map[string]any{"league_id": leagueID, "member_ids": req.MemberIDs, "confirm": req.Confirm},
	}, func(ctx context.Context) (usecase.CorrectionResult, error) {
		return h.auditService.ApplyCorrections(ctx, usecase.CorrectionInput{
			LeagueID:  leagueID,
			MemberIDs: req.MemberIDs,
			Confirm:   req.Confirm,
		})
	})
	if err != nil {
		h.logger.WarnContext(ctx, "apply corrections failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ListJobRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobRuns")
	defer span.End()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be between 1 and 200", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	leagueID := strings.TrimSpace(r.PathValue("leagueID"))
	runs, err := h.jobRunService.Recent(ctx, leagueID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list job runs failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]jobRunDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, jobRunToDTO(run))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
