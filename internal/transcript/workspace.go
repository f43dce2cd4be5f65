package transcript

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/iksnae/cursor-chatlog/internal"
	"github.com/iksnae/cursor-chatlog/internal/store"
	"github.com/tidwall/gjson"
)

const workspaceComposersKey = "composer.composerData"

// ActiveSessionIDs returns the logical session ids a workspace store lists
// as its composers, oldest first. A store without the list yields nil.
func ActiveSessionIDs(ctx context.Context, reader store.Reader, workspaceDB string) ([]string, error) {
	rec, err := reader.Get(ctx, workspaceDB, workspaceComposersKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	type composer struct {
		id        string
		createdAt time.Time
	}
	var composers []composer
	seen := make(map[string]bool)
	for _, c := range gjson.GetBytes(rec.Value, "allComposers").Array() {
		id := c.Get("composerId").String()
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		composers = append(composers, composer{id: id, createdAt: parseTime(c.Get("createdAt"))})
	}

	sort.SliceStable(composers, func(i, j int) bool {
		a, b := composers[i], composers[j]
		if a.createdAt.IsZero() != b.createdAt.IsZero() {
			return !a.createdAt.IsZero()
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.id < b.id
	})

	ids := make([]string, 0, len(composers))
	for _, c := range composers {
		ids = append(ids, c.id)
	}
	return ids, nil
}

// ProjectStores returns the stores to read for projectDir and the logical
// session ids its workspaces list. An explicit paths.WorkspaceDB replaces
// workspace detection; otherwise every workspace opened on projectDir (or
// matching pattern) contributes its store.
func ProjectStores(ctx context.Context, reader store.Reader, paths internal.StoragePaths, projectDir, pattern string) (Stores, []string, error) {
	stores := Stores{Global: paths.GetGlobalStorageDBPath()}

	if paths.WorkspaceDB != "" {
		stores.Workspace = []string{paths.WorkspaceDB}
	} else {
		workspaces, err := internal.DetectWorkspaces(paths.WorkspaceStorage)
		if err != nil {
			return Stores{}, nil, err
		}
		matched, err := internal.MatchWorkspaces(workspaces, projectDir, pattern)
		if err != nil {
			return Stores{}, nil, err
		}
		for _, ws := range matched {
			stores.Workspace = append(stores.Workspace, ws.DBPath)
		}
	}

	var active []string
	seen := make(map[string]bool)
	for _, path := range stores.Workspace {
		ids, err := ActiveSessionIDs(ctx, reader, path)
		if err != nil {
			internal.Logger().Warn("workspace sessions unavailable", "store", path, "err", err)
			continue
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				active = append(active, id)
			}
		}
	}
	return stores, active, nil
}
