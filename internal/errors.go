package internal

import (
	"errors"
	"fmt"
)

// Failure taxonomy for extraction. None of these are fatal to a caller of
// the extraction engine; they are counted in the completeness report.
var (
	// ErrStoreUnavailable means a backing store file could not be opened or
	// scanned (missing, locked, corrupt header, or caller deadline expired).
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRecordUnparsable means a single stored value is not structured data.
	ErrRecordUnparsable = errors.New("record unparsable")

	// ErrSessionNotFound means no session metadata references a logical id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAmbiguousOrdering means a fragment has neither an authoritative
	// position nor a parseable numeric suffix.
	ErrAmbiguousOrdering = errors.New("ambiguous ordering")
)

// StorageError represents errors accessing storage files
type StorageError struct {
	Path string
	Op   string // "open", "scan", "get"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports every StorageError as ErrStoreUnavailable.
func (e *StorageError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // store path
	Key    string // storage key
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrRecordUnparsable
}

// ReconstructionError attributes a degraded or dropped part of a transcript
// to its logical session. It is logged, never returned to extract callers.
type ReconstructionError struct {
	SessionID string
	Err       error
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("reconstruction error [%s]: %v", e.SessionID, e.Err)
}

func (e *ReconstructionError) Unwrap() error {
	return e.Err
}

// ExportError wraps a failure writing a transcript. Path is empty for stdout.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	dest := e.Path
	if dest == "" {
		dest = "stdout"
	}
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, dest, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
