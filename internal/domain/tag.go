// Package domain contains the core data types for the ATag tagging service.
// It is imported by every other internal package (repo, service, handler)
// and carries no persistence or transport logic of its own.
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OwnerType identifies what kind of principal owns a tag.
// The set is open: unknown values are stored and filtered verbatim.
type OwnerType int

const (
	// OwnerPersonal marks a tag owned by a single user.
	OwnerPersonal OwnerType = 1
	// OwnerTeam marks a tag owned by a team.
	OwnerTeam OwnerType = 2
)

// String returns a short human-readable label for the owner type.
func (t OwnerType) String() string {
	switch t {
	case OwnerPersonal:
		return "personal"
	case OwnerTeam:
		return "team"
	default:
		return "unknown"
	}
}

// Tag is a named label owned by a user or a team.
// Tags are never physically removed; DeleteTag only sets IsDeleted and the
// Deleted* audit fields. Among non-deleted tags (OwnerType, OwnerID, Name)
// is expected to be unique, but that is only enforced when a tag is edited.
type Tag struct {
	ID        uuid.UUID
	Name      string
	OwnerType OwnerType
	OwnerID   string

	CreatedBy  int64
	CreatedAt  time.Time
	ModifiedBy *int64     // nil until the first edit
	ModifiedAt *time.Time // nil until the first edit

	IsDeleted bool
	DeletedBy *int64
	DeletedAt *time.Time
}

// NewTag returns a Tag ready to be passed to AddTag.
func NewTag(name string, ownerType OwnerType, ownerID string, createdBy int64) Tag {
	return Tag{
		Name:      name,
		OwnerType: ownerType,
		OwnerID:   ownerID,
		CreatedBy: createdBy,
	}
}

// OwnerFilter selects tags belonging to one owner. Several filters passed
// together are OR-ed; passing none matches every owner.
type OwnerFilter struct {
	OwnerType OwnerType
	OwnerID   string
}

// FilterByOwner is shorthand for constructing an OwnerFilter.
func FilterByOwner(ownerType OwnerType, ownerID string) OwnerFilter {
	return OwnerFilter{OwnerType: ownerType, OwnerID: ownerID}
}

// ParseOwnerFilter parses "<type>:<id>", where type is a positive number or
// one of "personal" and "team" (case-insensitive). The id is kept verbatim.
func ParseOwnerFilter(v string) (OwnerFilter, error) {
	kind, id, ok := strings.Cut(v, ":")
	if !ok || kind == "" || id == "" {
		return OwnerFilter{}, fmt.Errorf("owner %q must have the form <type>:<id>", v)
	}

	switch strings.ToLower(kind) {
	case "personal":
		return FilterByOwner(OwnerPersonal, id), nil
	case "team":
		return FilterByOwner(OwnerTeam, id), nil
	}
	n, err := strconv.Atoi(kind)
	if err != nil || n < 1 {
		return OwnerFilter{}, fmt.Errorf("owner %q has an unknown owner type", v)
	}
	return FilterByOwner(OwnerType(n), id), nil
}
