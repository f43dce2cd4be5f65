package internal

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// WorkspaceInfo represents workspace information
type WorkspaceInfo struct {
	Hash   string
	Path   string // local folder the workspace was opened on
	Name   string
	DBPath string // workspace-scoped state.vscdb
}

// DetectWorkspaces detects all workspaces from workspaceStorage
func DetectWorkspaces(workspaceStorage string) ([]*WorkspaceInfo, error) {
	entries, err := os.ReadDir(workspaceStorage)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &StorageError{Path: workspaceStorage, Op: "open", Err: err}
	}

	var workspaces []*WorkspaceInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(workspaceStorage, entry.Name())
		info := &WorkspaceInfo{
			Hash:   entry.Name(),
			DBPath: filepath.Join(dir, "state.vscdb"),
		}

		if data, err := os.ReadFile(filepath.Join(dir, "workspace.json")); err == nil {
			var workspaceData struct {
				Folder string `json:"folder"`
			}
			if err := json.Unmarshal(data, &workspaceData); err == nil {
				info.Path = folderURIToPath(workspaceData.Folder)
				if info.Path != "" {
					info.Name = filepath.Base(info.Path)
				}
			}
		}

		workspaces = append(workspaces, info)
	}

	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].Hash < workspaces[j].Hash
	})
	return workspaces, nil
}

// MatchWorkspaces returns the workspaces opened on projectDir. When pattern
// is non-empty it is a glob over the workspace folder path instead.
func MatchWorkspaces(workspaces []*WorkspaceInfo, projectDir, pattern string) ([]*WorkspaceInfo, error) {
	if pattern == "" {
		abs, err := filepath.Abs(projectDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve project dir: %w", err)
		}
		pattern = glob.QuoteMeta(filepath.ToSlash(abs))
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid workspace pattern %q: %w", pattern, err)
	}

	var matched []*WorkspaceInfo
	for _, ws := range workspaces {
		if ws.Path == "" {
			continue
		}
		if g.Match(filepath.ToSlash(filepath.Clean(ws.Path))) {
			matched = append(matched, ws)
		}
	}
	return matched, nil
}

// folderURIToPath converts a workspace.json folder URI to a local path.
func folderURIToPath(folder string) string {
	if folder == "" {
		return ""
	}
	if !strings.Contains(folder, "://") {
		return filepath.Clean(folder)
	}
	u, err := url.Parse(folder)
	if err != nil || u.Scheme != "file" {
		// Remote workspaces (vscode-remote://...) keep their path component.
		if err == nil && u.Path != "" {
			return u.Path
		}
		return ""
	}
	return filepath.FromSlash(u.Path)
}
