package domain

import "time"

// ExportRow is a single row in a tag export.
// It is a flat, denormalized view: one row per tagged entity, with the tag's
// fields repeated on every row. A tag with no tagged entities yields no rows.
type ExportRow struct {
	// Tag fields, repeated for every tagged entity.
	TagID     string
	TagName   string
	OwnerType OwnerType
	OwnerID   string

	// Tagged entity fields.
	TaggedEntityID string
	EntityType     string
	EntityKey      string
	TaggedBy       int64
	TaggedAt       time.Time

	// Note fields. NoteModifiedAt is nil when the association has no note.
	Note           string
	NoteModifiedAt *time.Time
}
