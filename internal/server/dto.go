package server

import (
	"github.com/dreamfactorysoftware/df-wiki/internal/history"
	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/score"
)

// Run is a scoring run in API responses (aliased from the history layer).
type Run = history.Run

// PageScore is one recorded evaluation (aliased from the history layer).
type PageScore = history.PageScore

// RunListResponse wraps the run listing.
type RunListResponse struct {
	Runs  []Run `json:"runs"`
	Total int   `json:"total"`
}

// RunScoresResponse wraps the page scores of one run.
type RunScoresResponse struct {
	RunID  int64       `json:"run_id"`
	Scores []PageScore `json:"scores"`
}

// TrendResponse wraps the score history of one page.
type TrendResponse struct {
	Path   string      `json:"path"`
	Points []PageScore `json:"points"`
}

// ResolveResponse is the outcome of a link resolution request. Resolved
// is false when the deterministic fallback produced the target.
type ResolveResponse struct {
	Path     string `json:"path"`
	Target   string `json:"target"`
	Resolved bool   `json:"resolved"`
}

// RecordDTO is one inventory row in API responses.
type RecordDTO struct {
	SourcePath string   `json:"source_path"`
	SourceType string   `json:"source_type"`
	Title      string   `json:"title"`
	TargetPage string   `json:"target_page"`
	Priority   string   `json:"priority"`
	Status     string   `json:"status"`
	WordCount  int      `json:"word_count"`
	Keywords   []string `json:"keywords,omitempty"`
}

func toRecordDTO(rec ledger.Record) RecordDTO {
	return RecordDTO{
		SourcePath: rec.SourcePath,
		SourceType: rec.SourceType,
		Title:      rec.Title,
		TargetPage: rec.TargetPage,
		Priority:   rec.Priority,
		Status:     string(rec.Status),
		WordCount:  rec.WordCount,
		Keywords:   rec.Keywords,
	}
}

// LedgerResponse wraps inventory listings.
type LedgerResponse struct {
	Records []RecordDTO `json:"records"`
	Total   int         `json:"total"`
}

// ScoreResponse wraps an ad-hoc single-document evaluation with its
// ranked fix suggestions.
type ScoreResponse struct {
	Result score.ContentScore      `json:"result"`
	Fixes  []score.CriterionResult `json:"fixes,omitempty"`
}
