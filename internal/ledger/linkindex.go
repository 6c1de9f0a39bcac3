package ledger

import (
	"path"
	"strings"
	"unicode"
)

// DefaultSourceRoots are the path prefixes stripped from source paths when
// building and resolving lookup keys. First match wins.
var DefaultSourceRoots = []string{
	"df-docs/df-docs/docs/",
	"guide/dreamfactory-book-v2/content/en/docs/",
}

// indexStems are filenames too generic to claim a bare-stem key.
var indexStems = map[string]struct{}{"index": {}, "_index": {}}

// hubStems are filenames that mark a page as a navigation hub.
var hubStems = map[string]struct{}{"index": {}, "_index": {}, "introduction": {}}

// Link-count thresholds for the hub/leaf split, shared by the related-link
// stage and the cross-link scoring criterion.
const (
	HubLinkThreshold  = 25
	LeafLinkThreshold = 4
)

// LinkIndex maps normalized source paths to wiki page titles. Every record
// with both a source path and a target contributes three key variants: the
// root-stripped extensionless path, the bare file stem (first writer wins,
// index markers excluded), and the path with a "docs/" prefix.
type LinkIndex struct {
	entries map[string]string
	roots   []string
}

// NewLinkIndex builds the lookup table from a ledger. An empty roots slice
// selects DefaultSourceRoots.
func NewLinkIndex(l *Ledger, roots []string) *LinkIndex {
	if len(roots) == 0 {
		roots = DefaultSourceRoots
	}
	ix := &LinkIndex{entries: make(map[string]string), roots: roots}
	for _, rec := range l.Records {
		if rec.SourcePath == "" || rec.TargetPage == "" {
			continue
		}
		key := strings.ToLower(trimExt(ix.StripRoot(rec.SourcePath)))
		ix.entries[key] = rec.TargetPage

		stem := path.Base(key)
		if _, generic := indexStems[stem]; stem != "" && stem != "." && !generic {
			if _, taken := ix.entries[stem]; !taken {
				ix.entries[stem] = rec.TargetPage
			}
		}
		ix.entries["docs/"+key] = rec.TargetPage
	}
	return ix
}

// Len returns the number of lookup keys.
func (ix *LinkIndex) Len() int { return len(ix.entries) }

// StripRoot removes the first configured source root found in p, along with
// everything before it. Absolute paths therefore normalize the same way as
// ledger-relative ones.
func (ix *LinkIndex) StripRoot(p string) string {
	for _, root := range ix.roots {
		if i := strings.Index(p, root); i >= 0 {
			return p[i+len(root):]
		}
	}
	return p
}

// Key normalizes a candidate path exactly like index construction: root
// stripped, extension removed, slashes trimmed, lowercased.
func (ix *LinkIndex) Key(candidate string) string {
	return strings.ToLower(strings.Trim(trimExt(ix.StripRoot(candidate)), "/"))
}

// Resolve maps a link candidate to its wiki page, trying the full
// normalized path first and the bare stem second.
func (ix *LinkIndex) Resolve(candidate string) (string, bool) {
	key := ix.Key(candidate)
	if t, ok := ix.entries[key]; ok {
		return t, true
	}
	if t, ok := ix.entries[path.Base(key)]; ok {
		return t, true
	}
	return "", false
}

// ResolveOrFallback resolves through the index and falls back to the
// deterministic path transform, so a candidate always yields a well-formed
// destination. The second result reports whether the index resolved it.
func (ix *LinkIndex) ResolveOrFallback(candidate string) (string, bool) {
	if t, ok := ix.Resolve(candidate); ok {
		return t, true
	}
	return FallbackTitle(ix.Key(candidate)), false
}

// FallbackTitle converts an unmapped path to a deterministic title: each
// segment is split on hyphens and underscores, words are capitalized and
// rejoined with underscores, segments rejoin with the path separator.
// "guides/quick-start" becomes "Guides/Quick_Start".
func FallbackTitle(p string) string {
	var segs []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		words := strings.Split(strings.ReplaceAll(seg, "-", "_"), "_")
		for i, w := range words {
			words[i] = capitalize(w)
		}
		segs = append(segs, strings.Join(words, "_"))
	}
	return strings.Join(segs, "/")
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	r := []rune(strings.ToLower(w))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// IsHub reports whether a document is a navigation hub: more than 15
// internal links, a resolved target with at least 3 ledgered children, or
// an index-marker filename.
func IsHub(sourcePath string, linkCount int, ix *LinkIndex, l *Ledger) bool {
	if linkCount > 15 {
		return true
	}
	if ix != nil && l != nil {
		if target, ok := ix.Resolve(sourcePath); ok && l.ChildCount(target) >= 3 {
			return true
		}
	}
	_, ok := hubStems[strings.ToLower(stem(sourcePath))]
	return ok
}

// IsHubStem reports whether name (a file stem) marks a hub on its own.
func IsHubStem(name string) bool {
	_, ok := hubStems[strings.ToLower(name)]
	return ok
}

// DraftFilter matches file paths against Skip-EmptyDraft inventory rows by
// suffix, so absolute paths match regardless of the checkout location.
type DraftFilter struct {
	suffixes []string
}

// NewDraftFilter collects skip suffixes from the ledger: the full source
// path and its root-stripped extensionless variant, both lowercased.
func NewDraftFilter(l *Ledger, ix *LinkIndex) *DraftFilter {
	f := &DraftFilter{}
	seen := make(map[string]struct{})
	add := func(s string) {
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		f.suffixes = append(f.suffixes, s)
	}
	for _, rec := range l.Records {
		if rec.Status != StatusSkipDraft || rec.SourcePath == "" {
			continue
		}
		add(strings.ToLower(rec.SourcePath))
		add(strings.ToLower(trimExt(ix.StripRoot(rec.SourcePath))))
	}
	return f
}

// Match reports whether p corresponds to a Skip-EmptyDraft entry.
func (f *DraftFilter) Match(p string) bool {
	lower := strings.ToLower(p)
	for _, s := range f.suffixes {
		if strings.HasSuffix(lower, "/"+s) || strings.HasSuffix(lower, "/"+s+".md") || lower == s {
			return true
		}
	}
	return false
}

// trimExt removes a trailing .md or .wiki extension.
func trimExt(p string) string {
	if s, ok := strings.CutSuffix(p, ".md"); ok {
		return s
	}
	if s, ok := strings.CutSuffix(p, ".wiki"); ok {
		return s
	}
	return p
}

// stem returns the final path element without its extension.
func stem(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}
