// Package validate runs post-migration quality checks over a converted
// docs tree. Per-file checks catch conversion damage (empty pages, broken
// markup, Pandoc artifacts, content loss), and an inventory sweep flags
// source documents that never got migrated.
package validate

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/models"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// Severity ranks an issue for triage. Blockers fail the run.
type Severity string

const (
	SeverityBlocker Severity = "Blocker"
	SeverityMajor   Severity = "Major"
	SeverityMinor   Severity = "Minor"
)

// Check names group issues of the same kind in the report.
const (
	CheckEmptyContent    = "Empty Content"
	CheckSyntaxError     = "Syntax Error"
	CheckFormatting      = "Formatting"
	CheckContentVariance = "Content Variance"
	CheckMissingMetadata = "Missing Metadata"
	CheckNotMigrated     = "Not Migrated"
)

// Issue is one validation finding against a file or an inventory row.
type Issue struct {
	File        string   `json:"file"`
	Check       string   `json:"check"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}

// Bodies shorter than this are treated as failed conversions.
const minContentLen = 50

// Variance beyond this fraction of the source word count gets flagged.
const maxWordVariance = 0.20

var (
	reSyntaxOpen  = regexp.MustCompile(`<syntaxhighlight[^>]*>`)
	reSyntaxClose = regexp.MustCompile(`</syntaxhighlight>`)
)

// CheckContent runs the per-file checks on one converted page body.
// sourceWords is the word count of the source document, or 0 when no
// source pairing exists; the variance check only runs with a baseline.
func CheckContent(file, content string, sourceWords int) []Issue {
	var issues []Issue

	if len(strings.TrimSpace(content)) < minContentLen {
		issues = append(issues, Issue{
			File:        file,
			Check:       CheckEmptyContent,
			Severity:    SeverityBlocker,
			Description: "converted page has almost no content",
		})
	}

	opens := len(reSyntaxOpen.FindAllString(content, -1))
	closes := len(reSyntaxClose.FindAllString(content, -1))
	if opens != closes {
		issues = append(issues, Issue{
			File:        file,
			Check:       CheckSyntaxError,
			Severity:    SeverityMajor,
			Description: fmt.Sprintf("mismatched syntaxhighlight tags (%d open, %d close)", opens, closes),
		})
	}

	if strings.Contains(content, `\[`) || strings.Contains(content, `\]`) {
		issues = append(issues, Issue{
			File:        file,
			Check:       CheckFormatting,
			Severity:    SeverityMinor,
			Description: "escaped brackets detected (Pandoc artifact)",
		})
	}

	if tableOpens := strings.Count(content, "{|"); tableOpens > 0 {
		tableCloses := strings.Count(content, "|}")
		if tableOpens != tableCloses {
			issues = append(issues, Issue{
				File:        file,
				Check:       CheckSyntaxError,
				Severity:    SeverityMajor,
				Description: fmt.Sprintf("mismatched table markers (%d open, %d close)", tableOpens, tableCloses),
			})
		}
	}

	if sourceWords > 0 {
		words := parser.CountWords(content, models.FormatWiki)
		variance := float64(abs(words-sourceWords)) / float64(sourceWords)
		if variance > maxWordVariance {
			issues = append(issues, Issue{
				File:        file,
				Check:       CheckContentVariance,
				Severity:    SeverityMinor,
				Description: fmt.Sprintf("word count variance: source=%d, converted=%d (%.1f%%)", sourceWords, words, variance*100),
			})
		}
	}

	if !strings.Contains(content, "[[Category:") {
		issues = append(issues, Issue{
			File:        file,
			Check:       CheckMissingMetadata,
			Severity:    SeverityMinor,
			Description: "no categories assigned",
		})
	}

	return issues
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

const aiReferenceName = "_ai-reference.md"

// primarySourceType is the inventory source the completeness sweep covers.
// Secondary sources (forum threads, blog posts) migrate opportunistically
// and do not gate the run.
const primarySourceType = "df-docs"

// Validator checks a converted docs tree against the migration inventory.
type Validator struct {
	store *storage.FS
	led   *ledger.Ledger
	log   *slog.Logger
}

// New returns a Validator over the given docs root and inventory.
func New(store *storage.FS, led *ledger.Ledger, logger *slog.Logger) *Validator {
	return &Validator{store: store, led: led, log: logger}
}

// ValidateTree checks every page under the docs root plus inventory
// completeness. Unreadable files are logged and skipped so one bad page
// cannot sink the pass.
func (v *Validator) ValidateTree(ctx context.Context) (*Report, error) {
	metas, err := v.store.List("")
	if err != nil {
		return nil, err
	}
	rep := &Report{}
	for _, meta := range metas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := filepath.ToSlash(meta.Path)
		if hasHiddenSegment(rel) || path.Base(rel) == aiReferenceName {
			continue
		}
		data, err := v.store.Read(meta.Path)
		if err != nil {
			v.log.Warn("validate: read failed", slog.String("path", meta.Path), slog.String("error", err.Error()))
			continue
		}
		rep.Files++
		rep.Issues = append(rep.Issues, CheckContent(rel, string(data), v.sourceWords(rel))...)
	}
	rep.Issues = append(rep.Issues, v.InventoryCompleteness()...)
	v.log.Info("validate: tree checked",
		slog.Int("files", rep.Files),
		slog.Int("issues", len(rep.Issues)),
		slog.Int("blockers", rep.Count(SeverityBlocker)))
	return rep, nil
}

// InventoryCompleteness flags primary-source inventory rows still waiting
// for migration.
func (v *Validator) InventoryCompleteness() []Issue {
	var issues []Issue
	for _, rec := range v.led.FilterStatus(ledger.StatusNotStarted) {
		if rec.SourceType != primarySourceType {
			continue
		}
		issues = append(issues, Issue{
			File:        rec.SourcePath,
			Check:       CheckNotMigrated,
			Severity:    SeverityMajor,
			Description: fmt.Sprintf("source document not migrated: %s", rec.Title),
		})
	}
	return issues
}

// sourceWords returns the inventory word count for the page at rel, or 0
// when the page has no inventory pairing.
func (v *Validator) sourceWords(rel string) int {
	page := strings.TrimSuffix(rel, path.Ext(rel))
	rec, ok := v.led.FindByTarget(page)
	if !ok {
		return 0
	}
	return rec.WordCount
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
