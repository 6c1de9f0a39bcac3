// Package parser extracts front matter, links, and word counts from
// documentation sources in both pipeline dialects.
package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// fmFormats are the front matter fences the docs trees use: Docusaurus
// YAML between --- fences and Hugo TOML between +++ fences.
var fmFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// FrontMatter carries the metadata fields the pipeline consumes. Fields
// not modeled here stay available in Rest.
type FrontMatter struct {
	Title       string
	Description string
	Difficulty  string
	Keywords    []string
	Rest        map[string]any
}

// IsZero reports whether no metadata was found.
func (fm FrontMatter) IsZero() bool {
	return fm.Title == "" && fm.Description == "" && fm.Difficulty == "" &&
		len(fm.Keywords) == 0 && len(fm.Rest) == 0
}

// ParseFrontMatter splits front matter from body, auto-detecting the fence
// dialect. Malformed front matter degrades to an empty FrontMatter with the
// full content as body, never an error.
func ParseFrontMatter(content []byte) (FrontMatter, string) {
	var raw map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(content), &raw, fmFormats...)
	if err != nil {
		return FrontMatter{}, string(content)
	}
	return fromMap(raw), string(body)
}

func fromMap(raw map[string]any) FrontMatter {
	return FrontMatter{
		Title:       stringField(raw, "title"),
		Description: stringField(raw, "description"),
		Difficulty:  stringField(raw, "difficulty"),
		Keywords:    listField(raw, "keywords"),
		Rest:        raw,
	}
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// listField accepts both list-valued and comma-separated string fields.
func listField(raw map[string]any, key string) []string {
	switch v := raw[key].(type) {
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// DeriveTitle returns the front matter title if present, otherwise the
// first H1 heading, otherwise the file stem.
func DeriveTitle(fm FrontMatter, body, path string) string {
	if fm.Title != "" {
		return fm.Title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
