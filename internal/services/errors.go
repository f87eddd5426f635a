package services

import (
	"errors"

	"github.com/lib/pq"
)

// The five failure kinds every mutating operation can surface. They are
// terminal for the triggering call; nothing in this package retries a
// rejected transition.
var (
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation error")
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
