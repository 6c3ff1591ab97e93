package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing tag name, empty entity key).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrDuplicateName is returned when a tag is renamed to a name already used
// by another non-deleted tag of the same owner.
// Handlers should map this to HTTP 409 Conflict.
var ErrDuplicateName = errors.New("tag with the same name already exists")

// ErrAmbiguousMatch is returned when a lookup that must resolve to exactly
// one tagged entity resolves to zero or several.
var ErrAmbiguousMatch = errors.New("expected exactly one tagged entity")

// MatchCountError reports how many tagged entities a single-row lookup hit.
// It matches ErrAmbiguousMatch with errors.Is, and ErrNotFound as well when
// the lookup matched nothing.
type MatchCountError struct {
	Lookup string
	Count  int
}

func (e *MatchCountError) Error() string {
	return fmt.Sprintf("%s: %s, found %d", e.Lookup, ErrAmbiguousMatch, e.Count)
}

// Is reports whether target is one of the sentinels this error stands for.
func (e *MatchCountError) Is(target error) bool {
	switch target {
	case ErrAmbiguousMatch:
		return true
	case ErrNotFound:
		return e.Count == 0
	}
	return false
}
