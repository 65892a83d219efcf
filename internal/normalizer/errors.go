package normalizer

import (
	"errors"
	"fmt"
)

// Projection errors.
var (
	ErrMissingAttribute = errors.New("missing mandatory attribute")
	ErrInvalidAttribute = errors.New("invalid attribute value")
	ErrInvalidChild     = errors.New("invalid child element")
	ErrSink             = errors.New("sink rejected document")
)

// ProjectionError reports why one element could not become a document.
type ProjectionError struct {
	Err  error
	Kind string
	ID   string
}

func (e *ProjectionError) Error() string {
	id := e.ID
	if id == "" {
		id = "?"
	}

	return fmt.Sprintf("project %s %s: %v", e.Kind, id, e.Err)
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}
