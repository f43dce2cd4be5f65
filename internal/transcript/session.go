package transcript

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
	"github.com/tidwall/gjson"
)

// Origin names the store a session record was read from.
type Origin string

const (
	OriginWorkspace Origin = "workspace"
	OriginGlobal    Origin = "global"
)

// Stores lists the store files an engine reads. Global holds the fragments
// in current Cursor versions; Workspace stores may hold older sessions.
type Stores struct {
	Workspace []string
	Global    string
}

type storeRef struct {
	path   string
	origin Origin
}

// refs lists workspace stores first so a global record read later wins.
func (s Stores) refs() []storeRef {
	var out []storeRef
	for _, p := range s.Workspace {
		if p != "" {
			out = append(out, storeRef{path: p, origin: OriginWorkspace})
		}
	}
	if s.Global != "" {
		out = append(out, storeRef{path: s.Global, origin: OriginGlobal})
	}
	return out
}

// Paths returns every configured store path.
func (s Stores) Paths() []string {
	var out []string
	for _, r := range s.refs() {
		out = append(out, r.path)
	}
	return out
}

// SessionHandle maps a logical session id to one storage segment.
type SessionHandle struct {
	LogicalID string    `json:"logical_id" yaml:"logical_id"`
	StorageID string    `json:"storage_id" yaml:"storage_id"`
	Origin    Origin    `json:"origin" yaml:"origin"`
	StorePath string    `json:"store_path" yaml:"store_path"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Resolution is the outcome of resolving a set of logical ids.
type Resolution struct {
	Handles           []SessionHandle `json:"sessions"` // creation order across all ids
	NotFound          []string        `json:"sessions_not_found,omitempty"`
	UnavailableStores []string        `json:"unavailable_stores,omitempty"`
	SkippedUnparsable int             `json:"skipped_unparsable"`
}

// ResolveSessions finds every storage segment whose metadata names one of
// logicalIDs in its explicit composerId field. Identifiers are compared for
// equality only.
func ResolveSessions(ctx context.Context, reader store.Reader, stores Stores, logicalIDs []string) *Resolution {
	res := &Resolution{}
	log := internal.Logger()

	wanted := make(map[string]bool, len(logicalIDs))
	for _, id := range logicalIDs {
		wanted[id] = true
	}

	byStorageID := make(map[string]SessionHandle)
	for _, s := range stores.refs() {
		result, err := reader.Scan(ctx, s.path, sessionKeyPrefix)
		if err != nil {
			log.Warn("session metadata unavailable", "store", s.path, "err", err)
			res.UnavailableStores = append(res.UnavailableStores, s.path)
			continue
		}
		res.SkippedUnparsable += len(result.Unparsable)

		for _, rec := range result.Records {
			meta := gjson.ParseBytes(rec.Value)
			handle := SessionHandle{
				LogicalID: meta.Get("composerId").String(),
				StorageID: rec.Key[len(sessionKeyPrefix):],
				Origin:    s.origin,
				StorePath: s.path,
				Name:      meta.Get("name").String(),
				CreatedAt: parseTime(meta.Get("createdAt")),
			}
			if handle.LogicalID == "" || handle.StorageID == "" {
				continue
			}
			// Fragment keys join ids with ':', so such an id would scan
			// another session's fragments.
			if strings.Contains(handle.StorageID, ":") {
				log.Warn("session record skipped", "key", rec.Key,
					"err", &internal.ParseError{Source: s.path, Key: rec.Key, Err: internal.ErrRecordUnparsable})
				res.SkippedUnparsable++
				continue
			}

			if prev, ok := byStorageID[handle.StorageID]; ok {
				log.Warn("storage id declared in more than one store",
					"storage_id", handle.StorageID, "kept", handle.StorePath, "dropped", prev.StorePath)
			}
			byStorageID[handle.StorageID] = handle
		}
	}

	for _, h := range byStorageID {
		if wanted[h.LogicalID] {
			res.Handles = append(res.Handles, h)
		}
	}
	sortHandles(res.Handles)

	found := make(map[string]bool)
	for _, h := range res.Handles {
		found[h.LogicalID] = true
	}
	for _, id := range logicalIDs {
		if !found[id] {
			res.NotFound = append(res.NotFound, id)
		}
	}
	return res
}

// sortHandles orders segments by creation time, then storage id. Segments
// without a creation time go last.
func sortHandles(handles []SessionHandle) {
	sort.SliceStable(handles, func(i, j int) bool {
		a, b := handles[i], handles[j]
		switch {
		case a.CreatedAt.IsZero() != b.CreatedAt.IsZero():
			return !a.CreatedAt.IsZero()
		case !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.StorageID < b.StorageID
	})
}
