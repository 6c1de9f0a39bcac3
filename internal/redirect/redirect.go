// Package redirect generates the .wiki files that preserve old wiki URLs
// after migration: plain redirects, navigation hubs, and stub scaffolds,
// driven by a redirect-mapping JSON. It also maintains the page-map JSON
// the deploy pipeline reads.
package redirect

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/storage"
)

// Strategies the mapping file may carry. Anything else is skipped and
// counted, never fatal.
const (
	StrategyRedirect        = "redirect"
	StrategyRedirectClosest = "redirect-closest"
	StrategyHub             = "hub"
	StrategyStub            = "stub"
	StrategyNoAction        = "no-action"
)

// Link is one labeled wiki link on a hub or stub page.
type Link struct {
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Entry is one row of the redirect mapping.
type Entry struct {
	OldPath     string `json:"old_path"`
	Strategy    string `json:"strategy"`
	Rank        int    `json:"rank"`
	NewTarget   string `json:"new_target,omitempty"`
	HubLinks    []Link `json:"hub_links,omitempty"`
	StubTitle   string `json:"stub_title,omitempty"`
	StubContent string `json:"stub_content,omitempty"`
	StubLinks   []Link `json:"stub_links,omitempty"`
}

// LoadMap reads the redirect mapping JSON.
func LoadMap(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("redirect: read map %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("redirect: parse map %s: %w", path, err)
	}
	return entries, nil
}

// SanitizeFilename converts an old wiki path to a flat .wiki filename by
// replacing path separators with underscores.
func SanitizeFilename(oldPath string) string {
	return strings.ReplaceAll(oldPath, "/", "_") + ".wiki"
}

// redirectContent emits MediaWiki redirect markup.
func redirectContent(target string) string {
	return fmt.Sprintf("#REDIRECT [[%s]]\n", target)
}

// hubContent emits a navigation page listing the related new pages.
func hubContent(oldPath string, links []Link) string {
	title := readableTitle(oldPath)

	var b strings.Builder
	fmt.Fprintf(&b, "= %s =\n\n", title)
	fmt.Fprintf(&b, "This page lists documentation related to DreamFactory %s.\n\n", strings.ToLower(title))
	for _, l := range links {
		fmt.Fprintf(&b, "* [[%s|%s]]\n", l.Target, l.Label)
	}
	b.WriteString("\n[[Category:Navigation]]\n")
	return b.String()
}

// stubContent emits a placeholder page with introductory content and
// related links.
func stubContent(e Entry) string {
	title := e.StubTitle
	if title == "" {
		title = readableTitle(e.OldPath)
	}
	text := e.StubContent
	if text == "" {
		text = fmt.Sprintf("Content for %s is being developed.", title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "= %s =\n\n%s\n\n", title, text)
	if len(e.StubLinks) > 0 {
		b.WriteString("== Related Pages ==\n\n")
		for _, l := range e.StubLinks {
			fmt.Fprintf(&b, "* [[%s|%s]]\n", l.Target, l.Label)
		}
		b.WriteString("\n")
	}
	b.WriteString("[[Category:Navigation]]\n")
	return b.String()
}

// readableTitle derives a display title from the last segment of an old
// wiki path.
func readableTitle(oldPath string) string {
	segs := strings.Split(oldPath, "/")
	return strings.ReplaceAll(segs[len(segs)-1], "_", " ")
}

// Generated records one emitted file for the summary.
type Generated struct {
	Filename string `json:"filename"`
	WikiPage string `json:"wiki_page"`
	Strategy string `json:"strategy"`
	Rank     int    `json:"rank"`
}

// Summary aggregates a generation pass.
type Summary struct {
	Counts    map[string]int `json:"counts"`
	Generated []Generated    `json:"generated"`
	Skipped   int            `json:"skipped"`
	DryRun    bool           `json:"dry_run"`
}

// Generator writes redirect files into an output directory and keeps the
// page map current.
type Generator struct {
	outDir      string
	pageMapPath string
	log         *slog.Logger
}

// New builds a Generator. pageMapPath may be empty to skip page-map
// maintenance.
func New(outDir, pageMapPath string, logger *slog.Logger) *Generator {
	return &Generator{outDir: outDir, pageMapPath: pageMapPath, log: logger}
}

// Generate renders every actionable entry. With dryRun nothing is written;
// the summary still reports what would be generated. Unknown strategies
// are counted as skipped, no-action entries are counted under their own
// key, and neither produces a file.
func (g *Generator) Generate(entries []Entry, dryRun bool) (*Summary, error) {
	sum := &Summary{Counts: make(map[string]int), DryRun: dryRun}

	if !dryRun {
		if err := os.MkdirAll(g.outDir, 0o755); err != nil {
			return nil, fmt.Errorf("redirect: create output dir: %w", err)
		}
	}

	pageMap, err := g.loadPageMap()
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		var content string
		switch e.Strategy {
		case StrategyNoAction:
			sum.Counts[e.Strategy]++
			g.log.Debug("redirect: no action", slog.String("old_path", e.OldPath), slog.Int("rank", e.Rank))
			continue
		case StrategyRedirect, StrategyRedirectClosest:
			content = redirectContent(e.NewTarget)
		case StrategyHub:
			content = hubContent(e.OldPath, e.HubLinks)
		case StrategyStub:
			content = stubContent(e)
		default:
			sum.Skipped++
			g.log.Warn("redirect: unknown strategy", slog.String("strategy", e.Strategy), slog.String("old_path", e.OldPath))
			continue
		}
		sum.Counts[e.Strategy]++

		filename := SanitizeFilename(e.OldPath)
		if !dryRun {
			if err := storage.WriteFileAtomic(filepath.Join(g.outDir, filename), []byte(content)); err != nil {
				return nil, fmt.Errorf("redirect: write %s: %w", filename, err)
			}
			// The page map key is relative to the docs directory; the
			// wiki page name keeps the original path separators.
			pageMap["redirects/"+filename] = e.OldPath
		}

		sum.Generated = append(sum.Generated, Generated{
			Filename: filename,
			WikiPage: e.OldPath,
			Strategy: e.Strategy,
			Rank:     e.Rank,
		})
	}

	if !dryRun {
		if err := g.savePageMap(pageMap); err != nil {
			return nil, err
		}
	}

	g.log.Info("redirect: generation complete",
		slog.Int("files", len(sum.Generated)),
		slog.Int("skipped", sum.Skipped),
		slog.Bool("dry_run", dryRun))
	return sum, nil
}

// loadPageMap reads the existing page map; a missing file is an empty map.
func (g *Generator) loadPageMap() (map[string]string, error) {
	pageMap := make(map[string]string)
	if g.pageMapPath == "" {
		return pageMap, nil
	}
	data, err := os.ReadFile(g.pageMapPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return pageMap, nil
		}
		return nil, fmt.Errorf("redirect: read page map: %w", err)
	}
	if err := json.Unmarshal(data, &pageMap); err != nil {
		return nil, fmt.Errorf("redirect: parse page map: %w", err)
	}
	return pageMap, nil
}

// savePageMap writes the page map with sorted keys and a trailing newline.
func (g *Generator) savePageMap(pageMap map[string]string) error {
	if g.pageMapPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(pageMap, "", "  ")
	if err != nil {
		return fmt.Errorf("redirect: encode page map: %w", err)
	}
	if err := storage.WriteFileAtomic(g.pageMapPath, append(data, '\n')); err != nil {
		return fmt.Errorf("redirect: save page map: %w", err)
	}
	return nil
}

// FormatSummary renders the generation summary for the CLI.
func FormatSummary(sum *Summary, outDir string) string {
	var b strings.Builder
	line := strings.Repeat("=", 60)
	b.WriteString(line + "\nGeneration Summary\n" + line + "\n")
	fmt.Fprintf(&b, "  Redirects:         %d\n", sum.Counts[StrategyRedirect])
	fmt.Fprintf(&b, "  Redirect-closest:  %d\n", sum.Counts[StrategyRedirectClosest])
	fmt.Fprintf(&b, "  Hubs:              %d\n", sum.Counts[StrategyHub])
	fmt.Fprintf(&b, "  Stubs:             %d\n", sum.Counts[StrategyStub])
	fmt.Fprintf(&b, "  No-action:         %d\n", sum.Counts[StrategyNoAction])
	fmt.Fprintf(&b, "  Unknown skipped:   %d\n", sum.Skipped)
	fmt.Fprintf(&b, "  Total files:       %d\n", len(sum.Generated))
	if sum.DryRun {
		b.WriteString("  (dry run, no files written)\n")
	} else {
		fmt.Fprintf(&b, "  Output directory:  %s\n", outDir)
	}
	b.WriteString(line + "\n")
	return b.String()
}
