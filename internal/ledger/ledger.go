// Package ledger loads the migration inventory CSV and derives the lookup
// structures the rewriter and scorer share: the source-path to wiki-page
// link index, the hub classification rule, and the draft skip filter.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/apperr"
)

// Status tracks a page through the migration pipeline. Values match the
// inventory CSV verbatim.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusMigrated   Status = "Migrated"
	StatusReview     Status = "Review"
	StatusSkipDraft  Status = "Skip-EmptyDraft"
)

// Record is one row of the migration inventory.
type Record struct {
	SourcePath    string
	SourceType    string
	Title         string
	TargetPage    string
	Priority      string
	Status        Status
	Assigned      string
	WordCount     int
	Images        int
	Links         int
	LinksVerified bool
	Difficulty    string
	Keywords      []string
	Notes         string
}

// columns is the canonical inventory header, in write order.
var columns = []string{
	"source_path", "source_type", "title", "target_wiki_page", "priority",
	"status", "assigned", "word_count", "images", "links", "links_verified",
	"difficulty", "keywords", "notes",
}

// Ledger holds the loaded inventory plus a derived set of target pages.
type Ledger struct {
	Records []Record

	targets map[string]struct{}
}

// Empty returns a ledger with no records. Resolution against it always
// falls through to FallbackTitle.
func Empty() *Ledger {
	return &Ledger{targets: make(map[string]struct{})}
}

// New builds a ledger from in-memory records.
func New(records []Record) *Ledger {
	l := Empty()
	for _, rec := range records {
		l.add(rec)
	}
	return l
}

func (l *Ledger) add(rec Record) {
	l.Records = append(l.Records, rec)
	if rec.TargetPage != "" {
		l.targets[rec.TargetPage] = struct{}{}
	}
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.Records) }

// HasTarget reports whether page is a known migration target.
func (l *Ledger) HasTarget(page string) bool {
	_, ok := l.targets[page]
	return ok
}

// ChildCount counts targets nested directly or transitively under page.
func (l *Ledger) ChildCount(page string) int {
	n := 0
	for t := range l.targets {
		if t != page && strings.HasPrefix(t, page+"/") {
			n++
		}
	}
	return n
}

// FindByTarget returns the first non-draft record whose target matches page.
func (l *Ledger) FindByTarget(page string) (Record, bool) {
	for _, rec := range l.Records {
		if rec.Status == StatusSkipDraft {
			continue
		}
		if rec.TargetPage == page {
			return rec, true
		}
	}
	return Record{}, false
}

// FilterStatus returns the records with the given status.
func (l *Ledger) FilterStatus(status Status) []Record {
	var out []Record
	for _, rec := range l.Records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

// Load reads the inventory CSV from path. A missing file is reported as
// apperr.ErrLedgerMissing so callers can degrade to Empty() instead of
// aborting.
func Load(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("ledger: %s: %w", path, apperr.ErrLedgerMissing)
		}
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	defer f.Close()
	l, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("ledger: read %s: %w", path, err)
	}
	return l, nil
}

// Read parses inventory CSV. Columns are located by header name, so extra
// columns are ignored and missing ones default to zero values.
func Read(r io.Reader) (*Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return Empty(), nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	l := Empty()
	for _, row := range rows[1:] {
		l.add(Record{
			SourcePath:    get(row, "source_path"),
			SourceType:    get(row, "source_type"),
			Title:         get(row, "title"),
			TargetPage:    get(row, "target_wiki_page"),
			Priority:      get(row, "priority"),
			Status:        Status(get(row, "status")),
			Assigned:      get(row, "assigned"),
			WordCount:     atoi(get(row, "word_count")),
			Images:        atoi(get(row, "images")),
			Links:         atoi(get(row, "links")),
			LinksVerified: isTrue(get(row, "links_verified")),
			Difficulty:    get(row, "difficulty"),
			Keywords:      SplitKeywords(get(row, "keywords")),
			Notes:         get(row, "notes"),
		})
	}
	return l, nil
}

// Write encodes records as inventory CSV with the canonical header.
func Write(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, rec := range records {
		verified := "0"
		if rec.LinksVerified {
			verified = "1"
		}
		row := []string{
			rec.SourcePath,
			rec.SourceType,
			rec.Title,
			rec.TargetPage,
			rec.Priority,
			string(rec.Status),
			rec.Assigned,
			strconv.Itoa(rec.WordCount),
			strconv.Itoa(rec.Images),
			strconv.Itoa(rec.Links),
			verified,
			rec.Difficulty,
			strings.Join(rec.Keywords, ", "),
			rec.Notes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SplitKeywords parses a comma-separated keyword cell into trimmed,
// non-empty entries.
func SplitKeywords(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func isTrue(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes":
		return true
	}
	return false
}
