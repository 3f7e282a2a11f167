package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/leagues/{leagueID}/standings", handler.ListStandings)
	mux.HandleFunc("POST /v1/leagues/{leagueID}/picks/validate", handler.ValidatePick)
	mux.HandleFunc("PUT /v1/leagues/{leagueID}/picks", handler.SubmitPick)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	internal := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireInternalJobToken(internalJobToken, fn))
	}

	internal("POST /v1/internal/jobs/settle-week", handler.RunSettleWeekJob)
	internal("POST /v1/internal/jobs/missing-pick-penalties", handler.RunMissingPickPenaltiesJob)
	internal("GET /v1/internal/leagues/{leagueID}/audit", handler.AuditLeague)
	internal("POST /v1/internal/leagues/{leagueID}/audit/apply", handler.ApplyAuditCorrections)
	internal("GET /v1/internal/leagues/{leagueID}/job-runs", handler.ListJobRuns)
}
