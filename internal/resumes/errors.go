package resumes

import (
	"errors"
	"fmt"

	"resume-builder/internal/generation"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("version conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPersistenceFailure = errors.New("persistence failure")

	ErrUpstreamExhausted    = generation.ErrUpstreamExhausted
	ErrPriorArtifactMissing = generation.ErrPriorArtifactMissing
)

// PersistenceError reports a failed durable write. ArtifactPath names the
// generated file left in storage without a version record, if any.
type PersistenceError struct {
	ArtifactPath string
	Err          error
}

func (e *PersistenceError) Error() string {
	if e.ArtifactPath == "" {
		return fmt.Sprintf("persistence failure: %v", e.Err)
	}
	return fmt.Sprintf("persistence failure (artifact %s): %v", e.ArtifactPath, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailure, e.Err}
}
