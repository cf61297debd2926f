// Package permissions parses and normalises file modes for project files
package permissions

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default modes for files and directories the tool creates
const (
	DefaultFilePerms = 0o644
	DefaultDirPerms  = 0o755
)

// ParseOctalString parses an octal permission string into a uint16
// Handles formats like "644", "0644", "0o644"
func ParseOctalString(s string) (uint16, error) {
	if s == "" {
		return DefaultFilePerms, nil
	}

	s = strings.TrimPrefix(s, "0o")
	s = strings.TrimPrefix(s, "0")

	val, err := strconv.ParseUint(s, 8, 16)
	if err != nil {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	if val > 0o777 {
		return DefaultFilePerms, fmt.Errorf("invalid permission string %q: out of range", s)
	}

	return uint16(val), nil
}

// FormatOctal formats a permission value as an octal string
func FormatOctal(perm uint16) string {
	return fmt.Sprintf("0%o", perm)
}

// IsExecutable checks if permissions include execute bit for owner
func IsExecutable(perm uint16) bool {
	return perm&0o100 != 0
}

// DataFile returns perm with execute and special bits cleared. Project
// side-files and ROM images are never executable. A mode the owner
// cannot read or write falls back to DefaultFilePerms.
func DataFile(perm uint16) os.FileMode {
	m := os.FileMode(perm) & 0o666
	if m&0o600 != 0o600 {
		return DefaultFilePerms
	}
	return m
}
