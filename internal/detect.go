package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// StoragePaths holds the detected paths for Cursor storage
type StoragePaths struct {
	BasePath         string // Cursor User directory
	WorkspaceStorage string // workspaceStorage directory
	GlobalStorage    string // globalStorage directory
	GlobalDB         string // explicit global store, overrides GlobalStorage/state.vscdb
	WorkspaceDB      string // explicit workspace store, overrides workspace detection
}

// DetectStoragePaths detects the Cursor storage paths based on the operating system
func DetectStoragePaths() (StoragePaths, error) {
	base, err := defaultBasePath(runtime.GOOS)
	if err != nil {
		return StoragePaths{}, err
	}
	return storagePathsFromBase(base), nil
}

// ResolveStoragePaths applies config overrides on top of detection.
func ResolveStoragePaths(cfg StorageConfig) (StoragePaths, error) {
	var paths StoragePaths
	if cfg.BasePath != "" {
		paths = storagePathsFromBase(cfg.BasePath)
	} else {
		detected, err := DetectStoragePaths()
		if err != nil && cfg.GlobalDB == "" {
			return StoragePaths{}, err
		}
		paths = detected
	}

	if cfg.GlobalDB != "" {
		paths.GlobalStorage = filepath.Dir(cfg.GlobalDB)
		paths.GlobalDB = cfg.GlobalDB
	}
	paths.WorkspaceDB = cfg.WorkspaceDB
	return paths, nil
}

func defaultBasePath(goos string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	switch goos {
	case "darwin":
		return filepath.Join(home, "Library/Application Support/Cursor/User"), nil
	case "linux":
		return filepath.Join(home, ".config/Cursor/User"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "Cursor", "User"), nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", goos)
	}
}

func storagePathsFromBase(base string) StoragePaths {
	return StoragePaths{
		BasePath:         base,
		WorkspaceStorage: filepath.Join(base, "workspaceStorage"),
		GlobalStorage:    filepath.Join(base, "globalStorage"),
	}
}

// GetGlobalStorageDBPath returns the path to the globalStorage state.vscdb file
func (sp StoragePaths) GetGlobalStorageDBPath() string {
	if sp.GlobalDB != "" {
		return sp.GlobalDB
	}
	return filepath.Join(sp.GlobalStorage, "state.vscdb")
}

// GlobalStorageExists checks if the globalStorage database exists
func (sp StoragePaths) GlobalStorageExists() bool {
	_, err := os.Stat(sp.GetGlobalStorageDBPath())
	return err == nil
}
