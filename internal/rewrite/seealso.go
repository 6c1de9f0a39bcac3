package rewrite

import (
	"path"
	"strings"
	"unicode"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
)

type seeAlsoLink struct {
	target string
	title  string
}

// addSeeAlso inserts a "== See also ==" section when a page is under-linked
// for its class. Candidates come from the ledger in priority order: the
// parent page one level up in the target namespace, siblings from the same
// source directory, then pages sharing at least two keywords. Drafts are
// never candidates. The section lands just before any trailing category
// tags. Pages already at their threshold short-circuit, and inserted
// targets count as existing links on the next run, so the stage converges.
func (r *Rewriter) addSeeAlso(in Input, content string) string {
	existing := parser.ExtractWikiLinks(content)
	count := len(existing)
	existingTargets := make(map[string]bool, count)
	for _, link := range existing {
		existingTargets[strings.ToLower(strings.TrimSpace(link))] = true
	}

	threshold := ledger.LeafLinkThreshold
	if ledger.IsHub(in.SourcePath, count, r.index, r.ledger) {
		threshold = ledger.HubLinkThreshold
	}
	if count >= threshold || r.ledger.Len() == 0 {
		return content
	}

	currentTarget, _ := r.index.Resolve(in.SourcePath)
	currentDir := path.Dir(r.index.StripRoot(in.SourcePath))

	var candidates []seeAlsoLink

	// Parent hub page.
	if i := strings.LastIndex(currentTarget, "/"); i > 0 {
		parent := currentTarget[:i]
		if rec, ok := r.ledger.FindByTarget(parent); ok && !existingTargets[strings.ToLower(parent)] {
			title := rec.Title
			if title == "" {
				title = parent
			}
			candidates = append(candidates, seeAlsoLink{parent, title})
		}
	}

	// Siblings from the same source directory.
	for _, rec := range r.ledger.Records {
		if r.skipSources[rec.SourcePath] || rec.TargetPage == "" || rec.Title == "" {
			continue
		}
		if path.Dir(r.index.StripRoot(rec.SourcePath)) != currentDir {
			continue
		}
		if rec.TargetPage != currentTarget && !existingTargets[strings.ToLower(rec.TargetPage)] {
			candidates = append(candidates, seeAlsoLink{rec.TargetPage, rec.Title})
		}
	}

	// Keyword-overlap pages.
	if current := r.keywordSet(in.SourcePath); len(current) > 0 {
		for _, rec := range r.ledger.Records {
			if r.skipSources[rec.SourcePath] || rec.SourcePath == in.SourcePath {
				continue
			}
			if rec.TargetPage == "" || rec.Title == "" {
				continue
			}
			shared := make(map[string]bool)
			for _, kw := range rec.Keywords {
				if lower := strings.ToLower(kw); current[lower] {
					shared[lower] = true
				}
			}
			if len(shared) >= 2 && !existingTargets[strings.ToLower(rec.TargetPage)] {
				candidates = append(candidates, seeAlsoLink{rec.TargetPage, rec.Title})
			}
		}
	}

	seen := make(map[string]bool, len(candidates))
	var links []seeAlsoLink
	for _, c := range candidates {
		key := strings.ToLower(c.target)
		if !seen[key] {
			seen[key] = true
			links = append(links, c)
		}
	}

	limit := threshold - count
	if limit < 3 {
		limit = 3
	}
	if len(links) > limit {
		links = links[:limit]
	}
	if len(links) == 0 {
		return content
	}

	var b strings.Builder
	b.WriteString("\n== See also ==")
	for _, l := range links {
		b.WriteString("\n* [[" + l.target + "|" + l.title + "]]")
	}
	b.WriteString("\n")
	section := b.String()

	if i := strings.Index(content, "\n[[Category:"); i >= 0 {
		return content[:i] + "\n" + section + content[i:]
	}
	return strings.TrimRightFunc(content, unicode.IsSpace) + "\n" + section
}

// keywordSet returns the lowercased keyword set of the ledger record that
// matches sourcePath exactly or by path suffix.
func (r *Rewriter) keywordSet(sourcePath string) map[string]bool {
	for _, rec := range r.ledger.Records {
		if rec.SourcePath == "" {
			continue
		}
		if rec.SourcePath != sourcePath && !strings.HasSuffix(sourcePath, rec.SourcePath) {
			continue
		}
		if len(rec.Keywords) == 0 {
			return nil
		}
		set := make(map[string]bool, len(rec.Keywords))
		for _, kw := range rec.Keywords {
			set[strings.ToLower(kw)] = true
		}
		return set
	}
	return nil
}
