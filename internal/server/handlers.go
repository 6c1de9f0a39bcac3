package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dreamfactorysoftware/df-wiki/internal/apperr"
	"github.com/dreamfactorysoftware/df-wiki/internal/history"
	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// Handler holds API route handlers over the scoring engines and the
// history store.
type Handler struct {
	db     history.Store
	ledger *ledger.Ledger
	index  *ledger.LinkIndex
	scorer *score.Scorer
	store  *storage.FS
}

// NewHandler creates a new Handler.
func NewHandler(db history.Store, led *ledger.Ledger, ix *ledger.LinkIndex, scorer *score.Scorer, store *storage.FS) *Handler {
	return &Handler{db: db, ledger: led, index: ix, scorer: scorer, store: store}
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.db.Runs(limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if runs == nil {
		runs = []Run{}
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs, Total: len(runs)})
}

// LatestRun handles GET /api/runs/latest.
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.db.LatestRun()
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no runs recorded"))
		} else {
			slog.Error("latest run failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// RunScores handles GET /api/runs/{id}/scores.
func (h *Handler) RunScores(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid run id"))
		return
	}
	scores, err := h.db.RunScores(id)
	if err != nil {
		slog.Error("run scores failed", slog.Int64("run_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if scores == nil {
		scores = []PageScore{}
	}
	writeJSON(w, http.StatusOK, RunScoresResponse{RunID: id, Scores: scores})
}

// PageTrend handles GET /api/pages/trend?path=.
func (h *Handler) PageTrend(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	points, err := h.db.PageTrend(path, limit)
	if err != nil {
		slog.Error("page trend failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if points == nil {
		points = []PageScore{}
	}
	writeJSON(w, http.StatusOK, TrendResponse{Path: path, Points: points})
}

// Resolve handles GET /api/resolve?path=. The fallback transform
// guarantees a target even for unledgered paths.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	target, resolved := h.index.ResolveOrFallback(path)
	writeJSON(w, http.StatusOK, ResolveResponse{Path: path, Target: target, Resolved: resolved})
}

// Ledger handles GET /api/ledger?status=.
func (h *Handler) Ledger(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	records := h.ledger.Records
	if status != "" {
		records = h.ledger.FilterStatus(ledger.Status(status))
	}
	out := make([]RecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordDTO(rec))
	}
	writeJSON(w, http.StatusOK, LedgerResponse{Records: out, Total: len(out)})
}

// Score handles GET /api/score?path=, evaluating one document under the
// docs root on demand.
func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	data, err := h.store.Read(path)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("document not found"))
		return
	}
	result := h.scorer.Score(models.NewDocument(path, string(data)))
	writeJSON(w, http.StatusOK, ScoreResponse{Result: result, Fixes: score.RankedFixes(result)})
}
