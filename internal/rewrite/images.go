package rewrite

import (
	"path"
	"regexp"
	"strings"
)

var (
	reMarkdownImg     = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]+)\)`)
	reFileRef         = regexp.MustCompile(`\[\[File:([^\]|]+)\|?([^\]]*)\]\]`)
	reHTMLImg         = regexp.MustCompile(`(?s)<img\s+(.*?)/?>`)
	reImgSrc          = regexp.MustCompile(`src="([^"]+)"`)
	reImgAlt          = regexp.MustCompile(`alt="([^"]+)"`)
	reParaWrappedFile = regexp.MustCompile(`(?s)<p>\s*(\[\[File:.*?\]\])\s*</p>`)
)

// displayOptions are File-reference options that already control rendering;
// thumb is only inserted when none of them is present.
var displayOptions = map[string]bool{
	"thumb": true, "thumbnail": true, "frame": true, "frameless": true,
}

// normalizeImages converges three image notations onto the canonical
// [[File:basename|thumb|caption]] form: leftover markdown images, File
// references still carrying directory paths, and HTML img tags. A <p>
// wrapper left around a file reference is removed.
func (r *Rewriter) normalizeImages(_ Input, content string) string {
	content = replaceAllSubmatchFunc(reMarkdownImg, content, func(g []string) string {
		return fileRef(path.Base(g[2]), g[1])
	})

	content = replaceAllSubmatchFunc(reFileRef, content, func(g []string) string {
		filename := path.Base(g[1])
		var parts []string
		for _, p := range strings.Split(g[2], "|") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		hasDisplay := false
		for _, p := range parts {
			if displayOptions[p] {
				hasDisplay = true
				break
			}
		}
		if !hasDisplay {
			parts = append([]string{"thumb"}, parts...)
		}
		return "[[File:" + filename + "|" + strings.Join(parts, "|") + "]]"
	})

	content = replaceAllSubmatchFunc(reHTMLImg, content, func(g []string) string {
		src := reImgSrc.FindStringSubmatch(g[1])
		if src == nil {
			return g[0]
		}
		alt := ""
		if m := reImgAlt.FindStringSubmatch(g[1]); m != nil {
			alt = m[1]
		}
		return fileRef(path.Base(src[1]), alt)
	})

	return reParaWrappedFile.ReplaceAllString(content, "$1")
}

func fileRef(filename, caption string) string {
	if caption != "" {
		return "[[File:" + filename + "|thumb|" + caption + "]]"
	}
	return "[[File:" + filename + "|thumb]]"
}
