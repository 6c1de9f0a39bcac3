package rewrite

import "strings"

// addMetadata prepends a level-one heading and a bolded description line
// from front matter. Either part is skipped when the document already
// carries it, so a second pass adds nothing.
func (r *Rewriter) addMetadata(in Input, content string) string {
	var parts []string

	if title := in.FrontMatter.Title; title != "" {
		heading := "= " + title + " ="
		if !strings.HasPrefix(strings.TrimSpace(content), heading) {
			parts = append(parts, heading)
		}
	}

	if desc := in.FrontMatter.Description; desc != "" {
		line := "'''" + desc + "'''"
		if !strings.Contains(content, line) {
			parts = append(parts, line, "")
		}
	}

	if len(parts) == 0 {
		return content
	}
	return strings.Join(parts, "\n") + "\n" + content
}
