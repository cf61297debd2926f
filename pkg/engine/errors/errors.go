package errors

import (
	"errors"
	"fmt"
)

var (
	// Input errors 📂
	ErrFileNotFound       = errors.New("❌ file not found")
	ErrMalformedDirective = errors.New("❌ malformed assembly directive")
	ErrLabelNotFound      = errors.New("❌ label not found")

	// Codec errors 🧩
	ErrCodecSizeMismatch = errors.New("❌ codec size mismatch")
	ErrEmpty             = errors.New("❌ empty input")
	ErrHuffmanDecode     = errors.New("❌ huffman decode error")

	// ROM errors 💾
	ErrCapacityExceeded = errors.New("❌ capacity exceeded")
	ErrOutOfRange       = errors.New("❌ address out of range")
	ErrBadChecksum      = errors.New("❌ bad ROM checksum")
	ErrUnknownRegion    = errors.New("❌ unknown ROM region")

	// Manager errors 🗂️
	ErrNotLoaded = errors.New("❌ data not loaded")
)

// SizeMismatchError reports a codec input whose length is wrong. When
// Multiple is set, Expected is the unit the length must be a multiple of.
type SizeMismatchError struct {
	Expected int
	Actual   int
	Multiple bool
}

func (e *SizeMismatchError) Error() string {
	if e.Multiple {
		return fmt.Sprintf("%v: length %d is not a multiple of %d", ErrCodecSizeMismatch, e.Actual, e.Expected)
	}
	return fmt.Sprintf("%v: expected %d bytes, got %d", ErrCodecSizeMismatch, e.Expected, e.Actual)
}

func (e *SizeMismatchError) Unwrap() error {
	return ErrCodecSizeMismatch
}

// ResourceError attaches a resource name and the failing operation to an
// underlying error.
type ResourceError struct {
	Resource string
	Op       string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Wrap returns a ResourceError, or nil when err is nil.
func Wrap(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Resource: resource, Op: op, Err: err}
}
