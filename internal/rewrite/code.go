package rewrite

import (
	"regexp"
	"strings"
)

// langAliases normalizes language identifiers for syntaxhighlight tags.
var langAliases = map[string]string{
	"bash":       "bash",
	"sh":         "bash",
	"shell":      "bash",
	"javascript": "javascript",
	"js":         "javascript",
	"typescript": "typescript",
	"ts":         "typescript",
	"python":     "python",
	"py":         "python",
	"php":        "php",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"sql":        "sql",
	"nginx":      "nginx",
	"apache":     "apache",
	"xml":        "xml",
	"html":       "html",
	"css":        "css",
	"ini":        "ini",
	"conf":       "ini",
	"env":        "bash",
	"dockerfile": "docker",
	"plaintext":  "text",
	"text":       "text",
}

// codeLineRatio is the share of non-empty lines that must look like code
// before a bare <pre> block is reclassified as a code block.
const codeLineRatio = 0.3

// codeLineRes are the per-line shapes the classifier counts: shell prompts,
// imports, trailing structural punctuation, known commands, JSON keys, and
// environment assignments.
var codeLineRes = []*regexp.Regexp{
	regexp.MustCompile(`^[\$#>]`),
	regexp.MustCompile(`^(import |from |use |require |include )`),
	regexp.MustCompile(`[{};=\[\]()]\s*$`),
	regexp.MustCompile(`^(docker|git|curl|npm|pip|apt|sudo|cd |mkdir|cp |mv |rm |ls |cat |php |python)`),
	regexp.MustCompile(`^\s*"[\w]+":\s`),
	regexp.MustCompile(`^[\w_]+=`),
}

var (
	reFencedInPre  = regexp.MustCompile("(?s)<pre>```(\\w*)\\n(.*?)\\n```</pre>")
	reBareFenced   = regexp.MustCompile("(?sm)^```(\\w*)\\n(.*?)\\n```$")
	reSyntaxHLLang = regexp.MustCompile(`<syntaxhighlight lang="([^"]*?)">`)
)

// Language signature patterns for unfenced code blocks, checked in
// precedence order by guessLang.
var (
	rePHPVarAssign = regexp.MustCompile(`\$\w+\s*=\s*\$`)
	reJSONOpen     = regexp.MustCompile(`^\s*[\[{]`)
	reJSONKey      = regexp.MustCompile(`["']\w+["']\s*:`)
	reSQLStart     = regexp.MustCompile(`(?i)^\s*(SELECT|INSERT|UPDATE|DELETE|CREATE|ALTER|DROP|SET GLOBAL|mysql>)`)
	reShellPrompt  = regexp.MustCompile(`^\s*[\$#>]`)
	reShellCmd     = regexp.MustCompile(`^\s*(docker|git|curl|npm|sudo|apt|pip|cd |ssh )`)
	reYAMLKey      = regexp.MustCompile(`^\w+:\s`)
	reEnvAssign    = regexp.MustCompile(`^[A-Z_]+=`)
)

// fixCodeBlocks converges all code notations onto syntaxhighlight with a
// normalized language tag: fenced code trapped in <pre>, bare fenced code
// the converter skipped, bare <pre> blocks that classify as code, and
// existing syntaxhighlight tags with alias language names.
func (r *Rewriter) fixCodeBlocks(_ Input, content string) string {
	content = replaceAllSubmatchFunc(reFencedInPre, content, func(g []string) string {
		return highlight(normalizeLang(g[1]), g[2])
	})

	content = replaceAllSubmatchFunc(reBareFenced, content, func(g []string) string {
		return highlight(normalizeLang(g[1]), g[2])
	})

	content = replaceAllSubmatchFunc(rePreBlock, content, func(g []string) string {
		inner := g[1]
		// Structural wiki content is never reclassified as code.
		if strings.Contains(inner, "[[File:") || strings.Contains(inner, "{{") ||
			strings.Contains(inner, "![") {
			return g[0]
		}
		if looksLikeCode(inner) {
			return highlight(guessLang(inner), strings.TrimSpace(inner))
		}
		return g[0]
	})

	return replaceAllSubmatchFunc(reSyntaxHLLang, content, func(g []string) string {
		return `<syntaxhighlight lang="` + normalizeLang(g[1]) + `">`
	})
}

func highlight(lang, code string) string {
	return `<syntaxhighlight lang="` + lang + `">` + "\n" + code + "\n</syntaxhighlight>"
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if canonical, ok := langAliases[lang]; ok {
		return canonical
	}
	if lang == "" {
		return "text"
	}
	return lang
}

// looksLikeCode reports whether at least codeLineRatio of the non-empty
// lines have code-like shape. A single-line block needs its one line to
// match.
func looksLikeCode(text string) bool {
	var nonEmpty, indicators int
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		nonEmpty++
		for _, re := range codeLineRes {
			if re.MatchString(stripped) {
				indicators++
				break
			}
		}
	}
	if nonEmpty == 0 {
		return false
	}
	required := float64(nonEmpty) * codeLineRatio
	if required < 1 {
		required = 1
	}
	return float64(indicators) >= required
}

// guessLang inspects unfenced code for a language signature.
func guessLang(code string) string {
	firstLine := ""
	if trimmed := strings.TrimSpace(code); trimmed != "" {
		firstLine, _, _ = strings.Cut(trimmed, "\n")
	}
	switch {
	case strings.Contains(code, "<?php") || rePHPVarAssign.MatchString(code):
		return "php"
	case reJSONOpen.MatchString(code) && reJSONKey.MatchString(code):
		return "json"
	case reSQLStart.MatchString(code):
		return "sql"
	case reShellPrompt.MatchString(firstLine) || reShellCmd.MatchString(firstLine):
		return "bash"
	case reYAMLKey.MatchString(firstLine):
		return "yaml"
	case reEnvAssign.MatchString(firstLine):
		return "bash"
	}
	return "text"
}
