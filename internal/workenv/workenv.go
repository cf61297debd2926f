// Package workenv manages the on-disk layout of extracted projects and the
// tool's cache directories.
package workenv

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
)

// DirectorySpec specifies a directory to create
type DirectorySpec struct {
	Path string
	Mode uint32
}

// GetCacheRoot returns the root cache directory
func GetCacheRoot() string {
	if cacheDir := os.Getenv("LANDFORGE_CACHE_DIR"); cacheDir != "" {
		return cacheDir
	}

	switch runtime.GOOS {
	case "darwin":
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "landforge")
		}
	case "linux":
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "landforge")
		}
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, ".cache", "landforge")
		}
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "landforge", "cache")
		}
	}

	return filepath.Join(os.TempDir(), "landforge", "cache")
}

// GetBackupDir returns the default directory for ROM backups.
func GetBackupDir() string {
	return filepath.Join(GetCacheRoot(), "backups")
}

// DirsFor returns the directory specs needed to hold files at the given
// project-relative paths, parents first.
func DirsFor(files []string) []DirectorySpec {
	seen := make(map[string]bool)
	for _, f := range files {
		for d := filepath.Dir(filepath.Clean(f)); d != "." && d != string(filepath.Separator); d = filepath.Dir(d) {
			seen[d] = true
		}
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	out := make([]DirectorySpec, len(dirs))
	for i, d := range dirs {
		out[i] = DirectorySpec{Path: d}
	}
	return out
}

// CreateLayout creates a project root and its subdirectories.
func CreateLayout(path string, dirs []DirectorySpec) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create project dir: %w", err)
	}

	for _, dir := range dirs {
		dirPath := filepath.Join(path, dir.Path)
		mode := dir.Mode
		if mode == 0 {
			mode = 0o755
		}
		if err := os.MkdirAll(dirPath, os.FileMode(mode)); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Path, err)
		}
	}

	return nil
}
