package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/iksnae/cursor-chatlog/internal"
	_ "modernc.org/sqlite"
)

// SQLiteReader reads state.vscdb files. Every call opens its own read-only
// connection and closes it before returning, so nothing is cached between
// calls and a file rewritten by the editor is always read fresh.
type SQLiteReader struct{}

// NewSQLiteReader returns a reader over SQLite store files.
func NewSQLiteReader() *SQLiteReader {
	return &SQLiteReader{}
}

// Scan implements Reader.
func (r *SQLiteReader) Scan(ctx context.Context, storePath, keyPrefix string) (*ScanResult, error) {
	db, err := openReadOnly(ctx, storePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := kvTables(ctx, db)
	if err != nil {
		return nil, &internal.StorageError{Path: storePath, Op: "scan", Err: err}
	}

	result := &ScanResult{}
	seen := make(map[string]bool)
	for _, table := range tables {
		if err := scanTable(ctx, db, table, keyPrefix, result, seen); err != nil {
			return nil, &internal.StorageError{Path: storePath, Op: "scan", Err: err}
		}
	}

	internal.Logger().Debug("scanned store", "store", storePath, "prefix", keyPrefix,
		"records", len(result.Records), "unparsable", len(result.Unparsable))
	return result, nil
}

// Get implements Reader.
func (r *SQLiteReader) Get(ctx context.Context, storePath, key string) (RawRecord, error) {
	db, err := openReadOnly(ctx, storePath)
	if err != nil {
		return RawRecord{}, err
	}
	defer db.Close()

	tables, err := kvTables(ctx, db)
	if err != nil {
		return RawRecord{}, &internal.StorageError{Path: storePath, Op: "get", Err: err}
	}

	for _, table := range tables {
		var value []byte
		query := fmt.Sprintf("SELECT value FROM %s WHERE key = ? AND value IS NOT NULL LIMIT 1", table)
		err := db.QueryRowContext(ctx, query, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return RawRecord{}, &internal.StorageError{Path: storePath, Op: "get", Err: err}
		}

		decoded, ok := Decode(value)
		if !ok {
			return RawRecord{}, &internal.ParseError{Source: storePath, Key: key, Err: errors.New("value is not JSON")}
		}
		return RawRecord{Key: key, Value: decoded}, nil
	}
	return RawRecord{}, ErrNotFound
}

// openReadOnly opens storePath without ever creating it.
func openReadOnly(ctx context.Context, storePath string) (*sql.DB, error) {
	if _, err := os.Stat(storePath); err != nil {
		return nil, &internal.StorageError{Path: storePath, Op: "open", Err: err}
	}

	db, err := sql.Open("sqlite", readOnlyDSN(storePath))
	if err != nil {
		return nil, &internal.StorageError{Path: storePath, Op: "open", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &internal.StorageError{Path: storePath, Op: "open", Err: err}
	}
	return db, nil
}

// readOnlyDSN builds a file: URI so SQLite honours mode=ro.
func readOnlyDSN(storePath string) string {
	p := filepath.ToSlash(storePath)
	if abs, err := filepath.Abs(storePath); err == nil {
		p = filepath.ToSlash(abs)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p, RawQuery: "mode=ro&_pragma=busy_timeout(2000)"}
	return u.String()
}

func kvTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name IN (?, ?)",
		TableCursorDiskKV, TableItemTable)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	var tables []string
	for _, name := range []string{TableCursorDiskKV, TableItemTable} {
		if present[name] {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

func scanTable(ctx context.Context, db *sql.DB, table, keyPrefix string, result *ScanResult, seen map[string]bool) error {
	query := fmt.Sprintf("SELECT key, value FROM %s WHERE value IS NOT NULL", table)
	var args []interface{}
	if keyPrefix != "" {
		// substr is case-sensitive and has no wildcards, unlike LIKE.
		query += " AND substr(key, 1, ?) = ?"
		args = append(args, utf8.RuneCountInString(keyPrefix), keyPrefix)
	}
	query += " ORDER BY key"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s failed: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan %s failed: %w", table, err)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		decoded, ok := Decode(value)
		if !ok {
			result.Unparsable = append(result.Unparsable, key)
			continue
		}
		result.Records = append(result.Records, RawRecord{Key: key, Value: decoded})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}
	return ctx.Err()
}
