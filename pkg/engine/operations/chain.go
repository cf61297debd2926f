package operations

import (
	"fmt"
	"strings"
)

// maxChain is the number of operation bytes a packed chain holds.
const maxChain = 8

// PackOperations packs a chain into a uint64, first operation in the
// least significant byte.
func PackOperations(ops []uint8) (uint64, error) {
	if len(ops) > maxChain {
		return 0, fmt.Errorf("maximum %d operations allowed, got %d", maxChain, len(ops))
	}
	var packed uint64
	for i, op := range ops {
		if op == OP_NONE {
			return 0, fmt.Errorf("operation %d is NONE", i)
		}
		packed |= uint64(op) << (i * 8)
	}
	return packed, nil
}

// UnpackOperations reverses PackOperations. OP_NONE ends the chain.
func UnpackOperations(packed uint64) []uint8 {
	var ops []uint8
	for i := 0; i < maxChain; i++ {
		op := uint8(packed >> (i * 8))
		if op == OP_NONE {
			break
		}
		ops = append(ops, op)
	}
	return ops
}

// OperationsToString renders a packed chain as its archive suffix, or as
// a pipe-separated list when no suffix is known.
func OperationsToString(packed uint64) string {
	if packed == 0 {
		return "raw"
	}
	ops := UnpackOperations(packed)
	if name, ok := commonChains[chainKey(ops)]; ok {
		return name
	}
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = strings.ToLower(GetName(op))
	}
	return strings.Join(names, "|")
}

// StringToOperations parses "tar.zst", "gzip", "tar|lz4" and similar.
func StringToOperations(s string) (uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "raw" || s == "none" {
		return 0, nil
	}
	if ops, ok := namedChains[s]; ok {
		return PackOperations(ops)
	}
	if !strings.Contains(s, "|") {
		return 0, fmt.Errorf("unknown operation string: %s", s)
	}
	var ops []uint8
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(strings.ToUpper(part))
		if part == "" {
			continue
		}
		op, ok := namedOperations[part]
		if !ok {
			return 0, fmt.Errorf("unsupported operation: %s", part)
		}
		ops = append(ops, op)
	}
	return PackOperations(ops)
}

// Extension returns the file suffix for a chain, e.g. "tar.zst".
func Extension(ops []uint8) string {
	parts := make([]string, 0, len(ops))
	for _, id := range ops {
		if op, err := Get(id); err == nil {
			parts = append(parts, op.Extension())
		}
	}
	return strings.Join(parts, ".")
}

func chainKey(ops []uint8) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = fmt.Sprintf("%02x", op)
	}
	return strings.Join(parts, "-")
}

var commonChains = map[string]string{
	"01-10": "tar.gz",
	"01-13": "tar.bz2",
	"01-14": "tar.lz4",
	"01-1b": "tar.zst",
	"10":    "gzip",
	"13":    "bzip2",
	"14":    "lz4",
	"1b":    "zstd",
	"01":    "tar",
}

var namedChains = map[string][]uint8{
	"gzip":  {OP_GZIP},
	"gz":    {OP_GZIP},
	"bzip2": {OP_BZIP2},
	"bz2":   {OP_BZIP2},
	"lz4":   {OP_LZ4},
	"zstd":  {OP_ZSTD},
	"zst":   {OP_ZSTD},
	"tar":   {OP_TAR},

	"tar.gz":  {OP_TAR, OP_GZIP},
	"tar.bz2": {OP_TAR, OP_BZIP2},
	"tar.lz4": {OP_TAR, OP_LZ4},
	"tar.zst": {OP_TAR, OP_ZSTD},

	"tgz":  {OP_TAR, OP_GZIP},
	"tbz2": {OP_TAR, OP_BZIP2},
}

var namedOperations = map[string]uint8{
	"TAR":   OP_TAR,
	"GZIP":  OP_GZIP,
	"BZIP2": OP_BZIP2,
	"LZ4":   OP_LZ4,
	"ZSTD":  OP_ZSTD,
}

// ApplyChain runs each operation in order.
func ApplyChain(data []byte, ops []uint8) ([]byte, error) {
	current := data
	for _, id := range ops {
		op, err := Get(id)
		if err != nil {
			return nil, err
		}
		if current, err = op.Apply(current); err != nil {
			return nil, fmt.Errorf("applying %s: %w", op.Name(), err)
		}
	}
	return current, nil
}

// ReverseChain undoes ApplyChain, last operation first.
func ReverseChain(data []byte, ops []uint8) ([]byte, error) {
	current := data
	for i := len(ops) - 1; i >= 0; i-- {
		op, err := Get(ops[i])
		if err != nil {
			return nil, err
		}
		if current, err = op.Reverse(current); err != nil {
			return nil, fmt.Errorf("reversing %s: %w", op.Name(), err)
		}
	}
	return current, nil
}
