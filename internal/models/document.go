// Package models defines the domain types shared by the pipeline engines.
package models

import (
	"path/filepath"
	"strings"
)

// Format identifies a document's markup dialect.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatWiki     Format = "wiki"
)

// DetectFormat classifies a path by extension; anything that is not .wiki
// is treated as markdown.
func DetectFormat(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".wiki") {
		return FormatWiki
	}
	return FormatMarkdown
}

// Document is one file moving through the migration pipeline.
type Document struct {
	Path    string `json:"path"`
	Format  Format `json:"format"`
	Content string `json:"-"`
}

// NewDocument wraps content with its detected format.
func NewDocument(path, content string) *Document {
	return &Document{Path: path, Format: DetectFormat(path), Content: content}
}
