package text

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// MaxLSStringLength is the longest plain string a length byte can describe.
// 0xFF ends a table.
const MaxLSStringLength = 0xFE

// EncodeLSString writes s as a length byte followed by its character codes.
func EncodeLSString(s string, cs *Charset) ([]byte, error) {
	codes, err := cs.Encode(s)
	if err != nil {
		return nil, err
	}
	if len(codes) > MaxLSStringLength {
		return nil, fmt.Errorf("%w: string of %d characters", errs.ErrCapacityExceeded, len(codes))
	}
	return append([]byte{byte(len(codes))}, codes...), nil
}

// DecodeLSString reads one length-prefixed string and returns it with the
// number of bytes consumed.
func DecodeLSString(src []byte, cs *Charset) (string, int, error) {
	if len(src) == 0 {
		return "", 0, errs.ErrEmpty
	}
	n := int(src[0])
	if len(src) < n+1 {
		return "", len(src), &errs.SizeMismatchError{Expected: n + 1, Actual: len(src)}
	}
	return cs.Decode(src[1 : n+1]), n + 1, nil
}

// DecodeLSTable splits a run of length-prefixed strings.
func DecodeLSTable(src []byte, cs *Charset) ([]string, error) {
	var out []string
	for pos := 0; pos < len(src); {
		s, n, err := DecodeLSString(src[pos:], cs)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", len(out), err)
		}
		out = append(out, s)
		pos += n
	}
	return out, nil
}

// EncodeLSTable concatenates the encoded strings.
func EncodeLSTable(strs []string, cs *Charset) ([]byte, error) {
	var out []byte
	for i, s := range strs {
		b, err := EncodeLSString(s, cs)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

// ScanLSTable decodes strings from a ROM region whose end is not recorded
// and returns them with the number of bytes they occupy. It stops at a
// 0xFF length byte or at a string that would run past the end of src.
func ScanLSTable(src []byte, cs *Charset) ([]string, int) {
	var out []string
	pos := 0
	for pos < len(src) {
		n := int(src[pos])
		if n == 0xFF || pos+n >= len(src) {
			break
		}
		out = append(out, cs.Decode(src[pos+1:pos+n+1]))
		pos += n + 1
	}
	return out, pos
}
