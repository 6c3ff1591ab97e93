package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityRef identifies an external entity that can be tagged,
// e.g. EntityRef{Type: "Order", Key: "100"}.
type EntityRef struct {
	Type string
	Key  string
}

// TaggedEntity associates a Tag with an external entity.
// At most one TaggedEntity exists per (TagID, EntityType, EntityKey).
type TaggedEntity struct {
	ID         uuid.UUID
	TagID      uuid.UUID
	EntityType string
	EntityKey  string
	Note       *TagNote // nil when no note has been set
	CreatedBy  int64
	CreatedAt  time.Time
}

// Entity returns the reference to the tagged external entity.
func (e TaggedEntity) Entity() EntityRef {
	return EntityRef{Type: e.EntityType, Key: e.EntityKey}
}

// NoteText returns the note text, or "" when the association has no note.
func (e TaggedEntity) NoteText() string {
	if e.Note == nil {
		return ""
	}
	return e.Note.Note
}

// TagNote is the free-text annotation owned by exactly one TaggedEntity.
// It is removed together with its TaggedEntity.
type TagNote struct {
	ID             uuid.UUID
	TaggedEntityID uuid.UUID
	Note           string
	ModifiedBy     int64
	ModifiedAt     time.Time
}
