package rewrite

import (
	"regexp"
	"strings"
)

var (
	rePreBlock      = regexp.MustCompile(`(?s)<pre>(.*?)</pre>`)
	rePreAdmonition = regexp.MustCompile(`(?i):::(note|warning|tip|caution|info|danger)`)
	rePreImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
)

// extractPreBlocks frees wiki content the converter trapped inside <pre>
// blocks. Admonition fences are unwrapped whole so the admonition stage can
// see them; inline images are pulled out, splitting the surrounding text
// into separate <pre> segments. Must run before code re-fencing.
func (r *Rewriter) extractPreBlocks(_ Input, content string) string {
	return replaceAllSubmatchFunc(rePreBlock, content, func(g []string) string {
		inner := g[1]
		if rePreAdmonition.MatchString(inner) {
			return inner
		}
		if strings.Contains(inner, "![") && strings.Contains(inner, "](") {
			return splitPreImages(inner)
		}
		return g[0]
	})
}

// splitPreImages rebuilds a <pre> body as alternating pre segments and
// free-standing image references.
func splitPreImages(inner string) string {
	var parts []string
	last := 0
	for _, loc := range rePreImage.FindAllStringIndex(inner, -1) {
		if text := inner[last:loc[0]]; strings.TrimSpace(text) != "" {
			parts = append(parts, "<pre>"+text+"</pre>")
		}
		parts = append(parts, inner[loc[0]:loc[1]])
		last = loc[1]
	}
	if text := inner[last:]; strings.TrimSpace(text) != "" {
		parts = append(parts, "<pre>"+text+"</pre>")
	}
	return strings.Join(parts, "\n")
}
