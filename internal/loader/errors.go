package loader

import (
	"errors"
	"fmt"
)

// ErrDataNotFound reports a missing source file at construction time.
var ErrDataNotFound = errors.New("data file not found")

// LoadError reports an ingestion or schema-inference failure, carrying the
// engine's underlying cause.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
