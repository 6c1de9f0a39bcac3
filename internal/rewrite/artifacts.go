package rewrite

import (
	"regexp"
	"strings"
)

var (
	reBlankRuns = regexp.MustCompile(`\n{3,}`)
	reTableOpen = regexp.MustCompile(`\{\|class=`)
	reDivOpen   = regexp.MustCompile(`<div[^>]*>\s*`)
	reDivClose  = regexp.MustCompile(`\s*</div>`)
)

// cleanArtifacts removes converter debris: runs of blank lines, glued
// table-open tokens, stray div wrappers, over-escaped brackets and pipes,
// and smart quotes.
func (r *Rewriter) cleanArtifacts(_ Input, content string) string {
	content = reBlankRuns.ReplaceAllString(content, "\n\n")
	content = reTableOpen.ReplaceAllString(content, "{| class=")
	content = reDivOpen.ReplaceAllString(content, "")
	content = reDivClose.ReplaceAllString(content, "")

	content = strings.ReplaceAll(content, `\[`, "[")
	content = strings.ReplaceAll(content, `\]`, "]")
	content = strings.ReplaceAll(content, `\|`, "|")

	content = strings.ReplaceAll(content, "“", `"`)
	content = strings.ReplaceAll(content, "”", `"`)
	content = strings.ReplaceAll(content, "‘", "'")
	content = strings.ReplaceAll(content, "’", "'")
	return content
}
