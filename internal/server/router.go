package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Scoring history.
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/latest", h.LatestRun)
	r.Get("/runs/{id}/scores", h.RunScores)
	r.Get("/pages/trend", h.PageTrend)

	// Inventory and link resolution.
	r.Get("/ledger", h.Ledger)
	r.Get("/resolve", h.Resolve)

	// Ad-hoc single-document scoring.
	r.Get("/score", h.Score)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
