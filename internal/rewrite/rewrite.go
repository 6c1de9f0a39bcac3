// Package rewrite normalizes converted MediaWiki text through an ordered
// table of transforms: artifact cleanup, pre-block extraction, admonition
// conversion, image normalization, code re-fencing, link resolution,
// related-link augmentation, category tagging, and metadata headers.
// Order matters: later stages assume earlier ones have run. Re-applying
// the full table to its own output yields byte-identical text.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/ledger"
	"github.com/dreamfactorysoftware/df-wiki/internal/parser"
)

// Input describes the document being rewritten. FrontMatter comes from the
// originating markdown source and may be zero; the metadata stage then
// contributes nothing and categories fall back to path rules alone.
type Input struct {
	SourcePath  string
	FrontMatter parser.FrontMatter
}

// Stage is one named transform in the pipeline.
type Stage struct {
	Name  string
	Apply func(in Input, content string) string
}

// Rewriter applies the stage table against a shared read-only link index
// and ledger.
type Rewriter struct {
	index       *ledger.LinkIndex
	ledger      *ledger.Ledger
	skipSources map[string]bool
	stages      []Stage
}

// New builds a Rewriter. The ledger may be empty; link resolution then
// always falls back to the deterministic title transform and related-link
// augmentation finds no candidates.
func New(ix *ledger.LinkIndex, led *ledger.Ledger) *Rewriter {
	r := &Rewriter{index: ix, ledger: led, skipSources: make(map[string]bool)}
	for _, rec := range led.FilterStatus(ledger.StatusSkipDraft) {
		r.skipSources[rec.SourcePath] = true
	}
	r.stages = []Stage{
		{"artifacts", r.cleanArtifacts},
		{"preblocks", r.extractPreBlocks},
		{"admonitions", r.convertAdmonitions},
		{"images", r.normalizeImages},
		{"code", r.fixCodeBlocks},
		{"links", r.resolveLinks},
		{"seealso", r.addSeeAlso},
		{"categories", r.addCategories},
		{"metadata", r.addMetadata},
	}
	return r
}

// Stages exposes the ordered pipeline for inspection and per-stage tests.
func (r *Rewriter) Stages() []Stage { return r.stages }

// Apply runs every stage in order and returns the rewritten text.
func (r *Rewriter) Apply(in Input, content string) string {
	for _, st := range r.stages {
		content = st.Apply(in, content)
	}
	return content
}

// replaceAllSubmatchFunc rewrites every match of re through repl, which
// receives the submatch texts (index 0 is the whole match, non-participating
// groups are empty strings).
func replaceAllSubmatchFunc(re *regexp.Regexp, src string, repl func(groups []string) string) string {
	matches := re.FindAllStringSubmatchIndex(src, -1)
	if matches == nil {
		return src
	}
	var b strings.Builder
	last := 0
	for _, idx := range matches {
		b.WriteString(src[last:idx[0]])
		groups := make([]string, len(idx)/2)
		for i := range groups {
			if idx[2*i] >= 0 {
				groups[i] = src[idx[2*i]:idx[2*i+1]]
			}
		}
		b.WriteString(repl(groups))
		last = idx[1]
	}
	b.WriteString(src[last:])
	return b.String()
}
