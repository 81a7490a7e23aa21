package storage

import "time"

// Change types recorded for a save.
const (
	ChangeCreated   = "created"
	ChangeUpdated   = "updated"
	ChangeUnchanged = "unchanged"
)

// Save is one successful write of a record or a manifest.
type Save struct {
	ID         int64     `json:"id"`
	Slug       string    `json:"slug"`
	Kind       string    `json:"kind"` // json | manifest
	File       string    `json:"file"`
	Path       string    `json:"path"`
	Checksum   string    `json:"checksum"`
	Size       int       `json:"size"`
	ChangeType string    `json:"change_type"`
	SavedAt    time.Time `json:"saved_at"`
}

// SlugStats summarizes the history of one catalog entry.
type SlugStats struct {
	Slug      string    `json:"slug"`
	Records   int       `json:"records"`
	Manifests int       `json:"manifests"`
	LastSaved time.Time `json:"last_saved"`
}

// ListOptions controls selection when listing saves.
type ListOptions struct {
	Slug  string
	Kind  string
	Since time.Time
	Limit int
}
