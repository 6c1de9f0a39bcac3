// Package inventory builds the migration ledger by scanning the three
// documentation sources: the Docusaurus docs tree, the Hugo guide tree, and
// the legacy MediaWiki SQL dump. Each scan yields ledger records with
// derived target pages and priorities; Save publishes the sorted CSV that
// every other pipeline stage loads.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
)

// Source type values as they appear in the inventory CSV.
const (
	SourceDocusaurus = "df-docs"
	SourceHugo       = "guide"
	SourceMediaWiki  = "mediawiki"
)

const (
	aiReferenceName = "_ai-reference.md"

	// Pages with fewer prose words than this are inventoried as empty
	// drafts and excluded from rewriting and scoring downstream.
	emptyDraftWords = 30

	// Front matter descriptions are clipped to this many runes in the
	// notes column.
	noteLimit = 200
)

// guideUniqueMarkers flag guide paths whose content has no df-docs
// counterpart. Matching pages rank P2-Medium instead of P3-Low.
var guideUniqueMarkers = []string{
	"salesforce", "soap", "http connector", "demo", "modifying service",
	"gdpr", "architecture faq", "scalability", "configuration parameter",
}

// ScanDocusaurus walks a Docusaurus docs tree and returns one record per
// .md or .mdx file. Each record's SourcePath joins prefix with the file's
// root-relative path, so ledger keys match the checkout layout the link
// index strips. A missing root degrades to no records with a warning.
func ScanDocusaurus(ctx context.Context, root, prefix string, logger *slog.Logger) ([]ledger.Record, error) {
	if !sourceExists(root, logger) {
		return nil, nil
	}
	var out []ledger.Record
	exts := map[string]bool{".md": true, ".mdx": true}
	err := walkDocs(ctx, root, exts, func(abs, rel string) {
		data, err := os.ReadFile(abs)
		if err != nil {
			logger.Warn("inventory: read failed", slog.String("path", abs), slog.String("error", err.Error()))
			return
		}
		fm, body := parser.ParseFrontMatter(data)
		rec := newRecord(path.Join(prefix, rel), SourceDocusaurus, data, fm, body, rel)
		rec.Priority = Priority(rec.SourcePath)
		rec.Difficulty = fm.Difficulty
		rec.Keywords = fm.Keywords
		rec.Notes = clip(fm.Description, noteLimit)
		out = append(out, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: walk %s: %w", root, err)
	}
	logger.Info("inventory: scanned docusaurus tree", slog.String("root", root), slog.Int("files", len(out)))
	return out, nil
}

// ScanHugo walks a Hugo guide tree and returns one record per .md file.
// Guide pages default to P3-Low as likely df-docs duplicates; paths
// matching guideUniqueMarkers rank P2-Medium with a GUIDE-UNIQUE note.
func ScanHugo(ctx context.Context, root, prefix string, logger *slog.Logger) ([]ledger.Record, error) {
	if !sourceExists(root, logger) {
		return nil, nil
	}
	var out []ledger.Record
	exts := map[string]bool{".md": true}
	err := walkDocs(ctx, root, exts, func(abs, rel string) {
		data, err := os.ReadFile(abs)
		if err != nil {
			logger.Warn("inventory: read failed", slog.String("path", abs), slog.String("error", err.Error()))
			return
		}
		fm, body := parser.ParseFrontMatter(data)
		rec := newRecord(path.Join(prefix, rel), SourceHugo, data, fm, body, rel)
		if guideUnique(rec.SourcePath) {
			rec.Priority = PriorityMedium
			rec.Notes = "GUIDE-UNIQUE"
		} else {
			rec.Priority = PriorityLow
			rec.Notes = "May duplicate df-docs content"
		}
		out = append(out, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("inventory: walk %s: %w", root, err)
	}
	logger.Info("inventory: scanned hugo tree", slog.String("root", root), slog.Int("files", len(out)))
	return out, nil
}

// newRecord fills the fields every tree scan shares. Word count covers the
// body with code stripped; image and link counts cover the raw content so
// front matter examples still register.
func newRecord(sourcePath, sourceType string, data []byte, fm parser.FrontMatter, body, rel string) ledger.Record {
	words := parser.CountProseWords(body)
	status := ledger.StatusNotStarted
	if words < emptyDraftWords {
		status = ledger.StatusSkipDraft
	}
	return ledger.Record{
		SourcePath: sourcePath,
		SourceType: sourceType,
		Title:      parser.DeriveTitle(fm, body, rel),
		TargetPage: TargetPage(sourcePath),
		Priority:   PriorityLow,
		Status:     status,
		WordCount:  words,
		Images:     parser.CountImages(string(data)),
		Links:      parser.CountLinks(string(data)),
	}
}

// walkDocs visits matching files under root in lexical order, skipping
// hidden directories, hidden files, and the generated AI reference page.
func walkDocs(ctx context.Context, root string, exts map[string]bool, visit func(abs, rel string)) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || name == aiReferenceName {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		visit(p, filepath.ToSlash(rel))
		return nil
	})
}

func sourceExists(root string, logger *slog.Logger) bool {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("inventory: source missing", slog.String("path", root))
			return false
		}
	}
	return true
}

func guideUnique(sourcePath string) bool {
	lower := strings.ToLower(sourcePath)
	for _, marker := range guideUniqueMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
