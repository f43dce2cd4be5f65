// Package store reads raw key-value records out of Cursor's state.vscdb
// files. It knows nothing about sessions or fragments: callers ask for a
// key prefix and get back decoded JSON values plus the keys that could not
// be decoded.
package store

import (
	"context"
	"errors"
)

// Key-value tables scanned, in order.
const (
	TableCursorDiskKV = "cursorDiskKV"
	TableItemTable    = "ItemTable"
)

// ErrNotFound is returned by Get when no table holds the key.
var ErrNotFound = errors.New("record not found")

// RawRecord is a single decoded key-value pair. Value always holds JSON.
type RawRecord struct {
	Key   string
	Value []byte
}

// ScanResult is the outcome of a prefix scan over one store.
type ScanResult struct {
	Records    []RawRecord
	Unparsable []string // keys whose value was not structured data
}

// Reader is a read-only view over one or more stores addressed by path.
type Reader interface {
	// Scan returns every record whose key starts with keyPrefix, ordered by
	// key. The match is exact and case-sensitive.
	Scan(ctx context.Context, storePath, keyPrefix string) (*ScanResult, error)

	// Get returns the record stored under key.
	Get(ctx context.Context, storePath, key string) (RawRecord, error)
}
