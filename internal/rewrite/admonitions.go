package rewrite

import (
	"regexp"
	"strings"
)

// admonitionTypes maps callout keywords to the three canonical templates,
// in fixed application order.
var admonitionTypes = []struct {
	Keyword  string
	Template string
}{
	{"note", "Note"},
	{"warning", "Warning"},
	{"tip", "Tip"},
	{"info", "Note"},
	{"caution", "Warning"},
	{"danger", "Warning"},
	{"success", "Tip"},
}

// admonitionTemplates is the keyword lookup form of admonitionTypes.
var admonitionTemplates = func() map[string]string {
	m := make(map[string]string, len(admonitionTypes))
	for _, at := range admonitionTypes {
		m[at.Keyword] = at.Template
	}
	return m
}()

// Both patterns accept an optional title, either bracket-enclosed or
// following the keyword on the same line. Groups: 1 bracket title,
// 2 same-line title, 3 body.
var (
	preAdmonitionRes  = buildAdmonitionRes(`(?is)<pre>\s*:::%s(?:\[([^\]]*)\]|[ \t]+([^\n]*?))?\s*\n(.*?)\s*::::?\s*</pre>`)
	bareAdmonitionRes = buildAdmonitionRes(`(?is):::%s(?:\[([^\]]*)\]|[ \t]+([^\n]*?))?\s*\n(.*?)\s*:::`)

	reHugoAlert        = regexp.MustCompile(`(?s)\{\{[<%]\s*alert\s+(.*?)\s*[>%]\}\}(.*?)\{\{[<%]\s*/alert\s*[>%]\}\}`)
	reHugoAlertEscaped = regexp.MustCompile(`(?s)\{\{&lt;\s*alert\s+(.*?)\s*&gt;\}\}(.*?)\{\{&lt;\s*/alert\s*&gt;\}\}`)

	// Attribute values may carry smart quotes when the converter ran with
	// quote substitution enabled.
	reAlertColor = regexp.MustCompile(`color=["\x{201c}](\w+)["\x{201d}]`)
	reAlertTitle = regexp.MustCompile(`title=["\x{201c}]([^"\x{201d}]*)["\x{201d}]`)
)

func buildAdmonitionRes(pattern string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(admonitionTypes))
	for i, at := range admonitionTypes {
		out[i] = regexp.MustCompile(strings.Replace(pattern, "%s", at.Keyword, 1))
	}
	return out
}

// convertAdmonitions rewrites callout blocks to template invocations.
// Three notations are recognized: colon-fenced blocks the converter left
// inside <pre> (closed by ::: or ::::), bare colon-fenced blocks, and Hugo
// alert shortcodes (literal or entity-escaped delimiters). Fences that
// match no pattern are left untouched.
func (r *Rewriter) convertAdmonitions(_ Input, content string) string {
	for i, at := range admonitionTypes {
		template := at.Template
		content = replaceAllSubmatchFunc(preAdmonitionRes[i], content, func(g []string) string {
			return renderAdmonition(template, firstNonEmpty(g[1], g[2]), strings.TrimSpace(g[3]))
		})
	}
	for i, at := range admonitionTypes {
		content = replaceBareAdmonitions(content, bareAdmonitionRes[i], at.Template)
	}
	content = replaceAllSubmatchFunc(reHugoAlert, content, renderHugoAlert)
	content = replaceAllSubmatchFunc(reHugoAlertEscaped, content, renderHugoAlert)
	return content
}

// replaceBareAdmonitions rewrites bare :::type fences. The closer must be
// exactly three colons; when a longer colon run follows the body, the close
// shifts to the run's last three colons and the extras stay in the body.
func replaceBareAdmonitions(content string, re *regexp.Regexp, template string) string {
	var b strings.Builder
	pos := 0
	for pos < len(content) {
		idx := re.FindStringSubmatchIndex(content[pos:])
		if idx == nil {
			break
		}
		start, end := pos+idx[0], pos+idx[1]
		title := firstNonEmpty(submatch(content, pos, idx, 1), submatch(content, pos, idx, 2))
		bodyStart, bodyEnd := pos+idx[6], pos+idx[7]

		runEnd := end
		for runEnd < len(content) && content[runEnd] == ':' {
			runEnd++
		}
		if runEnd != end {
			bodyEnd = runEnd - 3
			end = runEnd
		}

		b.WriteString(content[pos:start])
		b.WriteString(renderAdmonition(template, title, strings.TrimSpace(content[bodyStart:bodyEnd])))
		pos = end
	}
	b.WriteString(content[pos:])
	return b.String()
}

func submatch(src string, offset int, idx []int, group int) string {
	if idx[2*group] < 0 {
		return ""
	}
	return src[offset+idx[2*group] : offset+idx[2*group+1]]
}

func firstNonEmpty(a, b string) string {
	if s := strings.TrimSpace(a); s != "" {
		return s
	}
	return strings.TrimSpace(b)
}

func renderAdmonition(template, title, body string) string {
	if title != "" {
		return "{{" + template + "|title=" + title + "|" + body + "}}"
	}
	return "{{" + template + "|" + body + "}}"
}

// renderHugoAlert maps {{< alert color="x" title="y" >}}body{{< /alert >}}
// to the template named by the color (default Note).
func renderHugoAlert(g []string) string {
	attrs, body := g[1], g[2]
	color := "note"
	if m := reAlertColor.FindStringSubmatch(attrs); m != nil {
		color = strings.ToLower(m[1])
	}
	template, ok := admonitionTemplates[color]
	if !ok {
		template = "Note"
	}
	title := ""
	if m := reAlertTitle.FindStringSubmatch(attrs); m != nil {
		title = strings.TrimSpace(m[1])
	}
	return renderAdmonition(template, title, strings.TrimSpace(body))
}
