// Package audit flags outdated product positioning in migrated pages. A
// fixed set of descriptor patterns finds lines that describe DreamFactory,
// outdated and aligned phrase tables classify them, and the report buckets
// findings for editors chasing down stale messaging.
package audit

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// Golden positioning anchors. Every page intro should read like one of
// these; the audit flags intros that do not.
const (
	AnchorShort = "DreamFactory is a self-hosted platform providing governed API access " +
		"to any data source for enterprise apps and local LLMs."
	AnchorLong = "DreamFactory is a secure, self-hosted enterprise data access platform " +
		"that provides governed API access to any data source, connecting enterprise " +
		"applications and on-prem LLMs with role-based access and identity passthrough."
)

// Verdict classifies one positioning statement.
type Verdict string

const (
	VerdictOutdated Verdict = "OUTDATED"
	VerdictMixed    Verdict = "MIXED"
	VerdictAligned  Verdict = "ALIGNED"
	VerdictReview   Verdict = "REVIEW"
)

// Finding is one flagged line. Line holds the 1-based line number, or
// "intro" for the leading-lines scan.
type Finding struct {
	Page     string   `json:"page"`
	Line     string   `json:"line"`
	Sentence string   `json:"sentence"`
	Verdict  Verdict  `json:"verdict"`
	Matched  []string `json:"matched,omitempty"`
}

// descriptorPatterns identify lines that position or describe the product.
var descriptorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)DreamFactory\s+is\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+provides\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+enables\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+allows\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+generates?\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+platform\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+offers?\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+makes?\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+can\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+helps?\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+serves?\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+acts?\b`),
	regexp.MustCompile(`(?i)DreamFactory\s+works?\b`),
	regexp.MustCompile(`(?i)DreamFactory,?\s+an?\s+`),
}

// outdatedPhrases are positioning lines the current messaging retired.
var outdatedPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)open[-\s]source\s+(REST\s+)?API`),
	regexp.MustCompile(`(?i)REST\s+API\s+automation`),
	regexp.MustCompile(`(?i)API\s+automation\s+platform`),
	regexp.MustCompile(`(?i)API\s+management\s+platform`),
	regexp.MustCompile(`(?i)instant\s+API\s+generation`),
	regexp.MustCompile(`(?i)instant\s+API`),
	regexp.MustCompile(`(?i)auto[-\s]?generat\w+\s+API`),
	regexp.MustCompile(`(?i)automatically\s+generates?\s+.{0,20}API`),
	regexp.MustCompile(`(?i)open[-\s]source\s+platform`),
	regexp.MustCompile(`(?i)API\s+generation\s+platform`),
	regexp.MustCompile(`(?i)API\s+platform`),
}

// alignedPhrases carry the golden anchor language.
var alignedPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)governed\s+API\s+access`),
	regexp.MustCompile(`(?i)enterprise\s+data\s+access`),
	regexp.MustCompile(`(?i)self[-\s]hosted\s+(enterprise\s+)?.*platform`),
	regexp.MustCompile(`(?i)governed\s+access`),
	regexp.MustCompile(`(?i)role[-\s]based\s+access`),
	regexp.MustCompile(`(?i)identity\s+passthrough`),
	regexp.MustCompile(`(?i)enterprise\s+app`),
	regexp.MustCompile(`(?i)on[-\s]prem\s+LLM`),
	regexp.MustCompile(`(?i)local\s+LLM`),
	regexp.MustCompile(`(?i)any\s+data\s+source`),
}

// skipPatterns drop procedural mentions: install steps, UI labels, version
// strings, markup-only lines.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*\|`),
	regexp.MustCompile(`(?i)install\s+DreamFactory`),
	regexp.MustCompile(`(?i)DreamFactory\s+admin`),
	regexp.MustCompile(`(?i)DreamFactory\s+(instance|server|container|docker|image|version|release|package|directory|folder|file)`),
	regexp.MustCompile(`(?i)DreamFactory\s+\d+\.\d+`),
	regexp.MustCompile(`(?i)(start|stop|restart|configure|upgrade|update)\s+DreamFactory`),
	regexp.MustCompile(`(?i)DreamFactory\s+(UI|dashboard|interface|console|panel|page|tab|screen|menu|sidebar)`),
	regexp.MustCompile(`(?i)log\s+into\s+DreamFactory`),
	regexp.MustCompile(`(?i)DreamFactory\s+(user|account|login|password|email)`),
	regexp.MustCompile(`(?i)DreamFactory\s+documentation`),
	regexp.MustCompile(`^\s*#`),
	regexp.MustCompile(`^\s*\[\[`),
	regexp.MustCompile(`^\s*<`),
}

var reProductName = regexp.MustCompile(`(?i)DreamFactory`)

// Classify weighs outdated phrase hits against aligned ones and returns
// the verdict with the matched evidence.
func Classify(line string) (Verdict, []string) {
	var outdated, aligned []string
	for _, p := range outdatedPhrases {
		if m := p.FindString(line); m != "" {
			outdated = append(outdated, m)
		}
	}
	for _, p := range alignedPhrases {
		if m := p.FindString(line); m != "" {
			aligned = append(aligned, m)
		}
	}
	switch {
	case len(outdated) > 0 && len(aligned) == 0:
		return VerdictOutdated, outdated
	case len(outdated) > 0:
		return VerdictMixed, append(outdated, aligned...)
	case len(aligned) > 0:
		return VerdictAligned, aligned
	}
	return VerdictReview, nil
}

// AuditPage scans one page body and returns its findings. Lines are
// deduplicated by their first 120 characters so repeated boilerplate is
// flagged once.
func AuditPage(page, text string) []Finding {
	var findings []Finding
	seen := make(map[string]bool)

	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		start, descriptor := descriptorMatch(line)
		if !descriptor && !hasOutdated(line) {
			continue
		}
		if shouldSkip(line) {
			continue
		}
		norm := head(line, 120)
		if seen[norm] {
			continue
		}
		seen[norm] = true

		sentence := head(line, 200)
		if descriptor {
			sentence = extractSentence(line, start)
		}
		verdict, matched := Classify(line)
		findings = append(findings, Finding{
			Page:     page,
			Line:     strconv.Itoa(i + 1),
			Sentence: sentence,
			Verdict:  verdict,
			Matched:  matched,
		})
	}

	// Intros describe the product more often than not, so the first lines
	// get a second pass that only needs a product mention.
	for _, line := range introLines(text) {
		norm := head(line, 120)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		if shouldSkip(line) {
			continue
		}
		_, descriptor := descriptorMatch(line)
		if !descriptor && !hasOutdated(line) {
			continue
		}
		verdict, matched := Classify(line)
		findings = append(findings, Finding{
			Page:     page,
			Line:     "intro",
			Sentence: head(line, 200),
			Verdict:  verdict,
			Matched:  matched,
		})
	}
	return findings
}

// introLines returns product mentions from the first five non-empty,
// non-heading lines of the body.
func introLines(text string) []string {
	var out []string
	count := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "=") || strings.HasPrefix(line, "__") ||
			strings.HasPrefix(line, "[[Category") {
			continue
		}
		count++
		if count > 5 {
			break
		}
		if reProductName.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

func descriptorMatch(line string) (int, bool) {
	for _, p := range descriptorPatterns {
		if loc := p.FindStringIndex(line); loc != nil {
			return loc[0], true
		}
	}
	return -1, false
}

func hasOutdated(line string) bool {
	for _, p := range outdatedPhrases {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func shouldSkip(line string) bool {
	for _, p := range skipPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// extractSentence returns the sentence around the match, or a trimmed
// window when no boundary is near. Short lines come back whole.
func extractSentence(line string, start int) string {
	line = strings.TrimSpace(line)
	if len(line) <= 200 {
		return line
	}
	s := start
	for s > 0 && !sentenceBoundary(line[s-1]) {
		s--
	}
	e := start
	for e < len(line) && !sentenceBoundary(line[e]) {
		e++
	}
	if e < len(line) {
		e++
	}
	sentence := strings.TrimSpace(line[s:e])
	if len(sentence) < 20 {
		s = max(0, start-80)
		e = min(len(line), start+120)
		sentence = strings.TrimSpace(line[s:e])
		if s > 0 {
			sentence = "..." + sentence
		}
		if e < len(line) {
			sentence += "..."
		}
	}
	return sentence
}

func sentenceBoundary(c byte) bool {
	return c == '.' || c == '!' || c == '?' || c == '\n'
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Report is the audit result for a docs tree.
type Report struct {
	Pages    int       `json:"pages"`
	Findings []Finding `json:"findings"`
}

// Bucket returns the findings with the given verdict, in scan order.
func (r *Report) Bucket(v Verdict) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Verdict == v {
			out = append(out, f)
		}
	}
	return out
}

// PagesNeedingWork returns the sorted unique pages with any non-aligned
// finding.
func (r *Report) PagesNeedingWork() []string {
	set := make(map[string]bool)
	for _, f := range r.Findings {
		if f.Verdict != VerdictAligned {
			set[f.Page] = true
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

const aiReferenceName = "_ai-reference.md"

// Auditor scans a docs tree through the storage provider.
type Auditor struct {
	store *storage.FS
	log   *slog.Logger
}

// New returns an Auditor over the given docs root.
func New(store *storage.FS, logger *slog.Logger) *Auditor {
	return &Auditor{store: store, log: logger}
}

// AuditTree classifies every page under the docs root. Unreadable files
// are logged and skipped so one bad page cannot sink the audit.
func (a *Auditor) AuditTree(ctx context.Context) (*Report, error) {
	metas, err := a.store.List("")
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
		data, err := a.store.Read(meta.Path)
		if err != nil {
			a.log.Warn("audit: read failed", slog.String("path", meta.Path), slog.String("error", err.Error()))
			continue
		}
		body := string(data)
		if strings.TrimSpace(body) == "" {
			continue
		}
		rep.Pages++
		rep.Findings = append(rep.Findings, AuditPage(rel, body)...)
	}
	a.log.Info("audit: tree scanned", slog.Int("pages", rep.Pages), slog.Int("findings", len(rep.Findings)))
	return rep, nil
}

func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
