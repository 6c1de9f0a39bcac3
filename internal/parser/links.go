package parser

import (
	"regexp"
	"strings"

	"github.com/dreamfactorysoftware/df-wiki/internal/models"
)

var (
	reWikiLinkTarget = regexp.MustCompile(`\[\[([^\]|]+)`)
	reMarkdownLink   = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	reMarkdownImage  = regexp.MustCompile(`!\[.*?\]\(.*?\)`)
	reHTMLImage      = regexp.MustCompile(`(?i)<img\s+[^>]*src=`)
	reAnyLink        = regexp.MustCompile(`\[.*?\]\([^)]+\)`)
	reCategoryName   = regexp.MustCompile(`\[\[Category:([^\]]+)\]\]`)
)

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".svg"}

// InternalLinks extracts the internal link set for either dialect. The same
// rule feeds hub classification in the rewriter and the scorer.
func InternalLinks(content string, format models.Format) []string {
	if format == models.FormatWiki {
		return ExtractWikiLinks(content)
	}
	return ExtractMarkdownLinks(content)
}

// ExtractWikiLinks returns internal wiki link targets, excluding
// categories, file references, bare anchors, and external URLs.
func ExtractWikiLinks(content string) []string {
	var out []string
	for _, m := range reWikiLinkTarget.FindAllStringSubmatch(content, -1) {
		target := m[1]
		if strings.HasPrefix(target, "Category:") || strings.HasPrefix(target, "File:") ||
			strings.HasPrefix(target, "#") || strings.HasPrefix(target, "http") {
			continue
		}
		out = append(out, strings.TrimSpace(target))
	}
	return out
}

// ExtractMarkdownLinks returns internal link URLs from a markdown body,
// excluding external URLs, pure anchors, and images.
func ExtractMarkdownLinks(body string) []string {
	var out []string
	for _, m := range reMarkdownLink.FindAllStringSubmatch(body, -1) {
		url := m[2]
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") ||
			strings.HasPrefix(url, "#") || strings.HasPrefix(url, "mailto:") {
			continue
		}
		if hasImageExt(url) {
			continue
		}
		out = append(out, url)
	}
	return out
}

func hasImageExt(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range imageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// CategoryTags returns the names inside [[Category:...]] tags.
func CategoryTags(content string) []string {
	var out []string
	for _, m := range reCategoryName.FindAllStringSubmatch(content, -1) {
		out = append(out, m[1])
	}
	return out
}

// CountImages counts markdown and HTML image references.
func CountImages(content string) int {
	return len(reMarkdownImage.FindAllString(content, -1)) +
		len(reHTMLImage.FindAllString(content, -1))
}

// CountLinks counts markdown links of any kind, images included.
func CountLinks(content string) int {
	return len(reAnyLink.FindAllString(content, -1))
}
