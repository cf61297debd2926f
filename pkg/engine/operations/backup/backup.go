// Package backup archives ROM images before they are overwritten.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
	_ "github.com/provide-io/landforge/go/landforge/pkg/engine/operations/bundle"
	_ "github.com/provide-io/landforge/go/landforge/pkg/engine/operations/compress"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

const (
	// RawExtension is used when the chain is empty.
	RawExtension = "bin"

	timestampFormat = "20060102T150405Z"
	prefixLength    = 12
)

// Now is the clock used for backup names.
var Now = time.Now

// Backup writes data through chain into dir as
// <fingerprint-prefix>-<timestamp>.<ext> and returns the path.
func Backup(data []byte, chain, dir string, logger hclog.Logger) (string, error) {
	logger = logging.OrNull(logger).Named("backup")

	packed, err := operations.StringToOperations(chain)
	if err != nil {
		return "", err
	}
	ops := operations.UnpackOperations(packed)
	out, err := operations.ApplyChain(data, ops)
	if err != nil {
		return "", err
	}

	ext := operations.Extension(ops)
	if ext == "" {
		ext = RawExtension
	}
	_, sum, _ := strings.Cut(rom.CalculateFingerprint(data, rom.FingerprintBlake3), ":")
	name := fmt.Sprintf("%s-%s.%s", sum[:prefixLength], Now().UTC().Format(timestampFormat), ext)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	path := filepath.Join(dir, name)
	tempPath := fmt.Sprintf("%s.tmp.%d", path, os.Getpid())
	if err := os.WriteFile(tempPath, out, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename backup: %w", err)
	}

	logger.Info("🗄️ backed up image", "path", path, "chain", operations.OperationsToString(packed),
		"size", len(data), "stored", len(out))
	return path, nil
}

// ChainFromPath infers the operation chain from a backup file name: every
// suffix after the first '.'.
func ChainFromPath(path string) ([]uint8, error) {
	base := filepath.Base(path)
	_, ext, found := strings.Cut(base, ".")
	if !found {
		return nil, fmt.Errorf("backup name has no extension: %s", base)
	}
	if ext == RawExtension {
		return nil, nil
	}
	packed, err := operations.StringToOperations(ext)
	if err != nil {
		return nil, err
	}
	return operations.UnpackOperations(packed), nil
}

// Restore reads a backup written by Backup and returns the original bytes.
func Restore(path string) ([]byte, error) {
	ops, err := ChainFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return operations.ReverseChain(data, ops)
}

// List returns the backups in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.Contains(e.Name(), ".tmp.") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Slice(out, func(i, j int) bool {
		return stamp(out[i]) < stamp(out[j])
	})
	return out, nil
}

func stamp(path string) string {
	base, _, _ := strings.Cut(filepath.Base(path), ".")
	if i := strings.LastIndexByte(base, '-'); i >= 0 {
		return base[i+1:]
	}
	return base
}
