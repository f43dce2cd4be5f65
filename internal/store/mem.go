package store

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/iksnae/cursor-chatlog/internal"
)

// MemReader is an in-memory Reader. Values go through the same decode
// ladder as SQLiteReader.
type MemReader struct {
	mu     sync.RWMutex
	stores map[string]map[string][]byte
	broken map[string]error
}

// NewMemReader returns an empty MemReader.
func NewMemReader() *MemReader {
	return &MemReader{
		stores: make(map[string]map[string][]byte),
		broken: make(map[string]error),
	}
}

// Put stores a raw value under key in the store at storePath.
func (m *MemReader) Put(storePath, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stores[storePath] == nil {
		m.stores[storePath] = make(map[string][]byte)
	}
	m.stores[storePath][key] = value
}

// PutString is Put for string values.
func (m *MemReader) PutString(storePath, key, value string) {
	m.Put(storePath, key, []byte(value))
}

// Fail makes every read of storePath return err wrapped as a StorageError.
func (m *MemReader) Fail(storePath string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broken[storePath] = err
}

func (m *MemReader) open(ctx context.Context, storePath, op string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &internal.StorageError{Path: storePath, Op: op, Err: err}
	}
	if err, ok := m.broken[storePath]; ok {
		return nil, &internal.StorageError{Path: storePath, Op: op, Err: err}
	}
	kv, ok := m.stores[storePath]
	if !ok {
		return nil, &internal.StorageError{Path: storePath, Op: "open", Err: os.ErrNotExist}
	}
	return kv, nil
}

// Scan implements Reader.
func (m *MemReader) Scan(ctx context.Context, storePath, keyPrefix string) (*ScanResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kv, err := m.open(ctx, storePath, "scan")
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(kv))
	for key := range kv {
		if strings.HasPrefix(key, keyPrefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	result := &ScanResult{}
	for _, key := range keys {
		decoded, ok := Decode(kv[key])
		if !ok {
			result.Unparsable = append(result.Unparsable, key)
			continue
		}
		result.Records = append(result.Records, RawRecord{Key: key, Value: decoded})
	}
	return result, nil
}

// Get implements Reader.
func (m *MemReader) Get(ctx context.Context, storePath, key string) (RawRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kv, err := m.open(ctx, storePath, "get")
	if err != nil {
		return RawRecord{}, err
	}
	value, ok := kv[key]
	if !ok {
		return RawRecord{}, ErrNotFound
	}
	decoded, ok := Decode(value)
	if !ok {
		return RawRecord{}, &internal.ParseError{Source: storePath, Key: key, Err: errors.New("value is not JSON")}
	}
	return RawRecord{Key: key, Value: decoded}, nil
}
