package entity

import "github.com/rotisserie/eris"

// ErrNotFound reports that a referenced entity does not exist in the store.
var ErrNotFound = eris.New("entity: not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// UnknownTypeError builds the configuration error for an unrecognized
// entity type tag. Analyses fail fast on it before any writes.
func UnknownTypeError(tag string) error {
	return eris.Errorf("entity: unknown entity type %q", tag)
}
