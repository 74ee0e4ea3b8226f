package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrInvalid    = errors.New("invalid")
	ErrConflict   = errors.New("conflict")
	ErrEmbedding  = errors.New("embedding failed")
	ErrGeneration = errors.New("generation failed")
	ErrStore      = errors.New("store failed")
)

// Wrap tags err with a failure kind and the stage that produced it.
// Both the kind and the underlying cause stay matchable via errors.Is.
func Wrap(kind error, stage string, err error) error {
	return fmt.Errorf("%s: %w: %w", stage, kind, err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
