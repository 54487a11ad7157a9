package models

import (
	"errors"
	"fmt"
)

// Content-level failures. These are reported to callers as unsuccessful
// results and never abort the process.
var (
	ErrUnsupportedType = errors.New("UnsupportedType")
	ErrNotFound        = errors.New("NotFound")
	ErrCorruptSource   = errors.New("CorruptSource")
	ErrEmptyContent    = errors.New("EmptyContent")
	ErrPathTraversal   = errors.New("PathTraversal")
)

// RelocationError reports a filesystem fault while moving or deleting a
// source file. It leaves the hotdir in an unknown state and is fatal for the
// invocation.
type RelocationError struct {
	Op   string
	Path string
	Err  error
}

func (e *RelocationError) Error() string {
	return fmt.Sprintf("relocation %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RelocationError) Unwrap() error {
	return e.Err
}

// IsContentError reports whether err is one of the content-level failures.
func IsContentError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCorruptSource) ||
		errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrPathTraversal)
}
