package datamanager

import (
	"fmt"
	"os"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/asm"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/entry"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

// Resource is a decoded codec value tracked against its loaded bytes.
type Resource = entry.Entry[codec.Value]

func resourceOptions(file string, start *uint32) entry.Options[codec.Value] {
	return entry.Options[codec.Value]{
		Filename: file,
		Start:    start,
		Equal:    codec.Equal,
		Encode:   codec.Encode,
		Clone:    codec.Clone,
	}
}

func newResource(id entry.ID, v codec.Value, raw []byte, file string, start *uint32) *Resource {
	return entry.New(id, v, raw, resourceOptions(file, start))
}

// resourceLength returns how many bytes at the front of src belong to a
// resource whose codec cannot tell on its own.
func resourceLength(kind codec.Kind, params codec.Params, src []byte) (int, error) {
	if kind != codec.KindPalette {
		return len(src), nil
	}
	if params.Palette.IsVariable() {
		if len(src) < 2 {
			return 0, &errs.SizeMismatchError{Expected: 2, Actual: len(src)}
		}
		n := (int(src[0])<<8 | int(src[1]) + 1) * 2
		if n > len(src) {
			return 0, &errs.SizeMismatchError{Expected: n, Actual: len(src)}
		}
		return n, nil
	}
	n := params.Palette.Size() * 2
	if n > len(src) {
		return 0, &errs.SizeMismatchError{Expected: n, Actual: len(src)}
	}
	return n, nil
}

// decodeAt decodes a resource from src and returns it with the bytes it
// was read from.
func decodeAt(kind codec.Kind, params codec.Params, src []byte) (codec.Value, []byte, error) {
	n, err := resourceLength(kind, params, src)
	if err != nil {
		return nil, nil, err
	}
	v, consumed, err := codec.Decode(kind, src[:n], params)
	if err != nil {
		return nil, nil, err
	}
	return v, src[:consumed], nil
}

// readRom decodes a resource stored between begin and end.
func readRom(img *rom.Image, kind codec.Kind, params codec.Params, begin, end uint32) (codec.Value, []byte, error) {
	if end <= begin {
		return nil, nil, fmt.Errorf("%w: empty range %06X-%06X", errs.ErrEmpty, begin, end)
	}
	src, err := img.ReadArray(begin, int(end-begin))
	if err != nil {
		return nil, nil, err
	}
	return decodeAt(kind, params, src)
}

// readFile decodes a whole side-file under base.
func readFile(base, rel string, kind codec.Kind, params codec.Params) (codec.Value, []byte, error) {
	data, err := readProjectFile(base, rel)
	if err != nil {
		return nil, nil, err
	}
	v, consumed, err := codec.Decode(kind, data, params)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", rel, err)
	}
	return v, data[:consumed], nil
}

func readProjectFile(base, rel string) ([]byte, error) {
	data, err := os.ReadFile(projectPath(base, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errs.ErrFileNotFound, rel)
		}
		return nil, err
	}
	return data, nil
}

// openIndex parses a project index file.
func (m *Manager) openIndex(base, rel string) (*asm.File, error) {
	return asm.Open(projectPath(base, rel), m.logger)
}

// includeAt returns the binary file included under label.
func includeAt(f *asm.File, label string) (string, error) {
	if err := f.Goto(label); err != nil {
		return "", err
	}
	inc, err := f.ReadInclude()
	if err != nil {
		return "", fmt.Errorf("%s: %w", label, err)
	}
	if !inc.Binary {
		return "", fmt.Errorf("%w: %s includes source, want incbin", errs.ErrMalformedDirective, label)
	}
	return inc.Path, nil
}

// readSymbolTable reads symbols from the current label until the next
// label or the end of the file.
func readSymbolTable(f *asm.File, label string) ([]string, error) {
	if err := f.Goto(label); err != nil {
		return nil, err
	}
	var out []string
	for f.Good() {
		sym, err := f.ReadSymbol()
		if err != nil {
			return nil, fmt.Errorf("%s entry %d: %w", label, len(out), err)
		}
		out = append(out, sym)
		if f.IsLabel() {
			break
		}
	}
	return out, nil
}

func ptr(v uint32) *uint32 {
	return &v
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func be16(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}
