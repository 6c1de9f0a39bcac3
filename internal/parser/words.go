package parser

import (
	"regexp"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/models"
)

var (
	reWord            = regexp.MustCompile(`\b\w+\b`)
	reCategoryTag     = regexp.MustCompile(`\[\[Category:[^\]]*\]\]`)
	reSyntaxOpen      = regexp.MustCompile(`<syntaxhighlight[^>]*>`)
	reWikiTable       = regexp.MustCompile(`\{\|[\s\S]*?\|\}`)
	reHTMLTag         = regexp.MustCompile(`<[^>]+>`)
	reWikiLinkText    = regexp.MustCompile(`\[\[(?:[^\]|]*\|)?([^\]]*)\]\]`)
	reImageRef        = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reFencedCodeBlock = regexp.MustCompile("(?s)```.*?```")
	reInlineCode      = regexp.MustCompile("`[^`]+`")
)

// CountWords counts readable words for scoring. Markup is stripped but link
// labels stay in, so a link-heavy page still counts its visible text.
func CountWords(content string, format models.Format) int {
	text := content
	if format == models.FormatWiki {
		text = reCategoryTag.ReplaceAllString(text, "")
		text = reSyntaxOpen.ReplaceAllString(text, "")
		text = strings.ReplaceAll(text, "</syntaxhighlight>", "")
		text = reWikiTable.ReplaceAllString(text, "")
	} else {
		// Drop front matter when fenced by exactly two --- markers.
		if strings.HasPrefix(text, "---") {
			parts := strings.SplitN(text, "---", 3)
			if len(parts) == 3 {
				text = parts[2]
			}
		}
	}
	text = reHTMLTag.ReplaceAllString(text, " ")
	text = reWikiLinkText.ReplaceAllString(text, "$1")
	text = reImageRef.ReplaceAllString(text, "")
	return len(reWord.FindAllString(text, -1))
}

// CountProseWords counts words with code fences and inline code removed.
// Inventory sizing wants prose volume, not snippet bulk.
func CountProseWords(text string) int {
	text = reFencedCodeBlock.ReplaceAllString(text, "")
	text = reInlineCode.ReplaceAllString(text, "")
	return len(strings.Fields(text))
}
