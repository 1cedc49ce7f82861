package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the lineage query boundary.
var (
	// ErrResourceNotFound is returned when the root of a query does not
	// exist (or is soft-deleted). Never retried internally.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrTraversalBounds is returned alongside a truncated LineageGraph
	// when a traversal safety ceiling was reached. The result is valid but
	// incomplete; callers should warn rather than treat it as a failure.
	ErrTraversalBounds = errors.New("traversal bounds exceeded")
)

// ValidationError rejects a malformed query parameter before traversal begins.
type ValidationError struct {
	Param   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ExtractionError wraps a failure of the dependency-parsing collaborator.
// It is absorbed inside the Lineage Service and never surfaces as a
// registration failure.
type ExtractionError struct {
	SQL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("dependency extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
