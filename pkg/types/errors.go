package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	// ErrMarkerCorruption is returned when boundary markers are missing,
	// mismatched, nested or duplicated during extraction. Recovered
	// locally by falling back to the chunk's original text.
	ErrMarkerCorruption = errors.New("marker corruption")

	// ErrChunkMissing is returned when reconstruction cannot find a
	// result for a chunk's marker ID.
	ErrChunkMissing = errors.New("translated chunk missing")

	// ErrEmptyText is returned when a backend is asked to translate
	// empty input.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrNoProviderEnabled is returned when no translation backend is
	// configured.
	ErrNoProviderEnabled = errors.New("no translation provider configured")

	// ErrUnsupportedProvider is returned for an unknown provider name.
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// BackendClass partitions backend failures by retryability.
type BackendClass int

const (
	// BackendTransient marks network, timeout and rate-limit class
	// failures; the dispatcher retries these a bounded number of times.
	BackendTransient BackendClass = iota

	// BackendPermanent marks authentication and invalid-request class
	// failures; these are never retried.
	BackendPermanent
)

func (c BackendClass) String() string {
	if c == BackendPermanent {
		return "permanent"
	}
	return "transient"
}

// BackendError wraps a translation backend failure with its retry class.
type BackendError struct {
	Class BackendClass
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (%s): %v", e.Class, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// NewTransientError wraps err as a retryable backend failure.
func NewTransientError(err error) *BackendError {
	return &BackendError{Class: BackendTransient, Err: err}
}

// NewPermanentError wraps err as a non-retryable backend failure.
func NewPermanentError(err error) *BackendError {
	return &BackendError{Class: BackendPermanent, Err: err}
}

// IsTransient reports whether err is a retryable backend failure.
// Unclassified errors are treated as transient so that plain network
// errors surfaced by HTTP clients still get retried.
func IsTransient(err error) bool {
	var be *BackendError
	if errors.As(err, &be) {
		return be.Class == BackendTransient
	}
	return true
}

// ReconstructionError reports an ordinal/count mismatch while
// reassembling a file. Fatal for that file only: the file is excluded
// from output, never partially written.
type ReconstructionError struct {
	Path     string
	Expected int
	Got      int
	Reason   string
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("reconstruction failed for %s: expected %d chunks, got %d (%s)",
		e.Path, e.Expected, e.Got, e.Reason)
}
