package rewrite

import (
	"regexp"
	"strings"
)

var (
	reInlineLink  = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	reWikiLinkRef = regexp.MustCompile(`\[\[([^\]|]+)(\|[^\]]*\]\]|\]\])`)
	reNamespaced  = regexp.MustCompile(`^[A-Z][a-z0-9]+:`)
	reMDSuffix    = regexp.MustCompile(`\.md$`)
)

// resolveLinks converts inline markdown links to wiki links and re-resolves
// wiki links that still point at source paths. External URLs become
// external link syntax, anchors keep their fragment with hyphens folded to
// underscores, and unmapped paths fall back to the deterministic title
// transform so no link is left dangling.
func (r *Rewriter) resolveLinks(_ Input, content string) string {
	content = replaceAllSubmatchFunc(reInlineLink, content, func(g []string) string {
		return r.convertInlineLink(g[1], g[2])
	})

	return replaceAllSubmatchFunc(reWikiLinkRef, content, func(g []string) string {
		return r.fixWikiLink(g[0], g[1], g[2])
	})
}

func (r *Rewriter) convertInlineLink(text, url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "mailto:") {
		return "[" + url + " " + text + "]"
	}
	if strings.HasPrefix(url, "#") {
		return "[[#" + strings.ReplaceAll(url[1:], "-", "_") + "|" + text + "]]"
	}

	url, anchor := splitAnchor(url)

	p := strings.TrimLeft(url, "/")
	p = reMDSuffix.ReplaceAllString(p, "")
	page, _ := r.index.ResolveOrFallback(p)
	return "[[" + page + anchor + "|" + text + "]]"
}

// fixWikiLink re-resolves an existing [[target...]] link when the target is
// still a source path. Special namespaces, anchors, external URLs, and
// already-namespaced targets pass through untouched; so do targets the
// index cannot resolve.
func (r *Rewriter) fixWikiLink(whole, target, rest string) string {
	for _, prefix := range []string{"File:", "Category:", "#", "http", "Template:"} {
		if strings.HasPrefix(target, prefix) {
			return whole
		}
	}
	if reNamespaced.MatchString(target) {
		return whole
	}

	target, anchor := splitAnchor(target)
	page, ok := r.index.Resolve(strings.Trim(target, "/"))
	if !ok {
		return whole
	}
	return "[[" + page + anchor + rest
}

// splitAnchor cuts a trailing #fragment off a link target, folding hyphens
// in the fragment to underscores.
func splitAnchor(target string) (string, string) {
	base, frag, found := strings.Cut(target, "#")
	if !found {
		return target, ""
	}
	return base, "#" + strings.ReplaceAll(frag, "-", "_")
}
