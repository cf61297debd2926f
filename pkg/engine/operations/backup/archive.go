package backup

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations/bundle"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
	"github.com/provide-io/landforge/go/landforge/pkg/utils/permissions"
)

// archiveChain returns the compression steps of an archive path such as
// project.tar.zst. The chain must start with TAR.
func archiveChain(path string) ([]uint8, error) {
	ops, err := ChainFromPath(path)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 || ops[0] != operations.OP_TAR {
		return nil, fmt.Errorf("archive %s must be a tar chain", filepath.Base(path))
	}
	return ops[1:], nil
}

// ArchiveDir packs the project under dir into path. The compression
// follows the file name: .tar, .tar.gz, .tar.bz2, .tar.lz4 or .tar.zst.
func ArchiveDir(dir, path string, logger hclog.Logger) error {
	logger = logging.OrNull(logger).Named("backup")

	ops, err := archiveChain(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := bundle.PackDir(dir, &buf); err != nil {
		return fmt.Errorf("failed to pack %s: %w", dir, err)
	}
	out, err := operations.ApplyChain(buf.Bytes(), ops)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), permissions.DefaultDirPerms); err != nil {
		return err
	}
	if err := os.WriteFile(path, out, permissions.DefaultFilePerms); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	logger.Info("📦 archived project", "dir", dir, "path", path, "size", buf.Len(), "stored", len(out))
	return nil
}

// RestoreDir unpacks an archive written by ArchiveDir into dest.
func RestoreDir(path, dest string) error {
	ops, err := archiveChain(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	raw, err := operations.ReverseChain(data, ops)
	if err != nil {
		return err
	}
	return bundle.UnpackDir(bytes.NewReader(raw), dest)
}
