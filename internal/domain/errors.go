package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameter is returned when a required input is empty.
	ErrMissingParameter = errors.New("missing required parameter")

	// ErrStorage marks failures of the object storage collaborator.
	ErrStorage = errors.New("storage access failed")

	// ErrIndexUnavailable is returned when answering before any successful synchronization.
	ErrIndexUnavailable = errors.New("semantic index is not available, synchronize the index first")

	// ErrModel marks failures of the embedding or generation models.
	ErrModel = errors.New("model call failed")
)

// StorageError carries the storage operation and path that failed.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{ErrStorage, e.Err}
}

// ModelError carries the model operation that failed.
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model %s failed: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() []error {
	return []error{ErrModel, e.Err}
}
