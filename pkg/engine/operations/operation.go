// Package operations provides reversible byte transformations used to
// archive ROM images and exported projects.
package operations

import (
	"fmt"
	"io"
)

// Operation identifiers. An identifier fits in one byte so a whole chain
// packs into a uint64.
const (
	OP_NONE = 0x00

	// Bundle operations (0x01-0x0F)
	OP_TAR = 0x01 // single-entry POSIX TAR

	// Compression operations (0x10-0x2F)
	OP_GZIP  = 0x10
	OP_BZIP2 = 0x13
	OP_LZ4   = 0x14
	OP_ZSTD  = 0x1B
)

// Operation is one reversible step of an archive chain.
type Operation interface {
	ID() uint8
	Name() string

	// Extension is appended to archive file names, e.g. "zst".
	Extension() string

	Apply(input []byte) ([]byte, error)
	ApplyStream(input io.Reader, output io.Writer) error

	Reverse(input []byte) ([]byte, error)
	ReverseStream(input io.Reader, output io.Writer) error
}

// BaseOperation carries the identity shared by every operation.
type BaseOperation struct {
	OpID   uint8
	OpName string
	OpExt  string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

func (o *BaseOperation) Extension() string {
	return o.OpExt
}

// Registry maps operation IDs to implementations. Implementations register
// themselves from init in their own packages.
var Registry = make(map[uint8]Operation)

// Register adds op to the registry.
func Register(op Operation) {
	Registry[op.ID()] = op
}

// Get retrieves an operation by ID.
func Get(id uint8) (Operation, error) {
	op, ok := Registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown operation: 0x%02x (%s)", id, GetName(id))
	}
	return op, nil
}

// GetName returns the display name of an operation ID.
func GetName(id uint8) string {
	switch id {
	case OP_NONE:
		return "NONE"
	case OP_TAR:
		return "TAR"
	case OP_GZIP:
		return "GZIP"
	case OP_BZIP2:
		return "BZIP2"
	case OP_LZ4:
		return "LZ4"
	case OP_ZSTD:
		return "ZSTD"
	default:
		return fmt.Sprintf("UNKNOWN_%02x", id)
	}
}
