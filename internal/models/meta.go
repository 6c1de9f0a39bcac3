package models

import "time"

// FileMeta describes one docs-tree file without its content.
type FileMeta struct {
	Path      string    `json:"path"`
	Format    Format    `json:"format"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
