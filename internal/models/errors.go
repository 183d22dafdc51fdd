package models

import (
	"errors"
	"fmt"
)

// Error classes. Operations wrap one of these with fmt.Errorf("...: %w", ...)
// so handlers can map them to a status code with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("state conflict")

	ErrNoQuestions       = fmt.Errorf("%w: no questions available for the requested configuration", ErrValidation)
	ErrDistributionUnmet = errors.New("question bank cannot satisfy the requested distribution")
)

// ErrStaleVersion is returned by a store when a conditional replace lost a race.
var ErrStaleVersion = errors.New("document was modified concurrently")
