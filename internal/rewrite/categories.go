package rewrite

import (
	"strings"
	"unicode"
)

// pathCategories are substring heuristics over the lowercased source path.
// Match is the predicate, Category the tag it contributes.
var pathCategories = []struct {
	Match    func(p string) bool
	Category string
}{
	{containsAny("security", "securing"), "Security"},
	{containsAny("installation", "installing"), "Installation"},
	{containsAny("getting-started"), "Getting_Started"},
	{containsAny("api"), "API"},
	{containsAny("database"), "Database"},
	{containsAny("scripting"), "Scripting"},
	{containsAny("upgrade", "migration"), "Upgrades"},
	{containsAny("salesforce"), "Salesforce"},
	{func(p string) bool {
		return strings.Contains(p, "file") && strings.Contains(p, "storage")
	}, "File_Storage"},
	{containsAny("guide/", "dreamfactory-book"), "Legacy_Guide"},
}

func containsAny(subs ...string) func(string) bool {
	return func(p string) bool {
		for _, s := range subs {
			if strings.Contains(p, s) {
				return true
			}
		}
		return false
	}
}

// addCategories appends [[Category:]] tags derived from front matter
// keywords (first three), path heuristics, the difficulty level, and, when
// no keywords exist, up to two capitalized title words. Tags already in the
// document are not appended again.
func (r *Rewriter) addCategories(in Input, content string) string {
	var categories []string

	keywords := in.FrontMatter.Keywords
	for i, kw := range keywords {
		if i == 3 {
			break
		}
		cat := titleCase(strings.ReplaceAll(strings.TrimSpace(kw), " ", "_"))
		if len(cat) > 2 {
			categories = append(categories, cat)
		}
	}

	if in.SourcePath != "" {
		lower := strings.ToLower(in.SourcePath)
		for _, pc := range pathCategories {
			if pc.Match(lower) {
				categories = append(categories, pc.Category)
			}
		}
	}

	if d := in.FrontMatter.Difficulty; d != "" {
		categories = append(categories, "Difficulty_"+capitalize(d))
	}

	// Title-word fallback only when the page has no keywords at all.
	if len(keywords) == 0 && in.FrontMatter.Title != "" {
		added := 0
		for _, w := range strings.Fields(in.FrontMatter.Title) {
			if added == 2 {
				break
			}
			runes := []rune(w)
			if len(runes) > 3 && unicode.IsUpper(runes[0]) {
				categories = append(categories, strings.ReplaceAll(w, " ", "_"))
				added++
			}
		}
	}

	seen := make(map[string]bool, len(categories))
	var tags []string
	for _, cat := range categories {
		if seen[cat] {
			continue
		}
		seen[cat] = true
		if !strings.Contains(content, "[[Category:"+cat+"]]") {
			tags = append(tags, "[[Category:"+cat+"]]")
		}
	}
	if len(tags) == 0 {
		return content
	}

	return strings.TrimRightFunc(content, unicode.IsSpace) + "\n\n" + strings.Join(tags, "\n") + "\n"
}

// titleCase uppercases the first letter of every letter run and lowercases
// the rest, so "api keys" keyed as "api_keys" becomes "Api_Keys".
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWord := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if inWord {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			inWord = true
		} else {
			b.WriteRune(r)
			inWord = false
		}
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
