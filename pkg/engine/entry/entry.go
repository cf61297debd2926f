// Package entry tracks decoded resources against the bytes they were
// loaded from.
package entry

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
)

// ID names a resource, optionally with its position in a game table.
type ID struct {
	Name     string
	Index    int
	HasIndex bool
}

// Named returns an ID without an index.
func Named(name string) ID {
	return ID{Name: name}
}

// Indexed returns an ID with a table index.
func Indexed(name string, index int) ID {
	return ID{Name: name, Index: index, HasIndex: true}
}

func (id ID) String() string {
	if id.HasIndex {
		return fmt.Sprintf("%s[%d]", id.Name, id.Index)
	}
	return id.Name
}

// Options describes how an Entry compares, encodes and copies its value.
type Options[T any] struct {
	// Filename is the side-file path relative to the project root.
	Filename string
	// Start is the ROM address the bytes were read from, if known.
	Start *uint32

	Equal  func(a, b T) bool
	Encode func(v T) ([]byte, error)
	Clone  func(v T) T
}

// Entry is one decoded resource with the baseline it is compared against.
type Entry[T any] struct {
	id       ID
	decoded  T
	baseline T
	raw      []byte
	opts     Options[T]
}

// New wraps a freshly decoded value and the bytes it came from.
func New[T any](id ID, decoded T, raw []byte, opts Options[T]) *Entry[T] {
	if opts.Equal == nil {
		opts.Equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	if opts.Clone == nil {
		opts.Clone = func(v T) T { return v }
	}
	e := &Entry[T]{
		id:      id,
		decoded: decoded,
		raw:     append([]byte(nil), raw...),
		opts:    opts,
	}
	e.baseline = opts.Clone(decoded)
	return e
}

func (e *Entry[T]) ID() ID {
	return e.id
}

func (e *Entry[T]) Name() string {
	return e.id.Name
}

func (e *Entry[T]) Filename() string {
	return e.opts.Filename
}

func (e *Entry[T]) SetFilename(f string) {
	e.opts.Filename = f
}

// Start returns the ROM address the entry was loaded from.
func (e *Entry[T]) Start() (uint32, bool) {
	if e.opts.Start == nil {
		return 0, false
	}
	return *e.opts.Start, true
}

func (e *Entry[T]) SetStart(addr uint32) {
	e.opts.Start = &addr
}

// Decoded returns the live value for in-place edits.
func (e *Entry[T]) Decoded() *T {
	return &e.decoded
}

// Set replaces the live value.
func (e *Entry[T]) Set(v T) {
	e.decoded = v
}

// Baseline returns a copy of the value as of the last load or commit.
func (e *Entry[T]) Baseline() T {
	return e.opts.Clone(e.baseline)
}

// HasDataChanged compares the live value with the baseline.
func (e *Entry[T]) HasDataChanged() bool {
	return !e.opts.Equal(e.decoded, e.baseline)
}

// Commit encodes the live value and makes it the new baseline. On an
// encode error nothing changes.
func (e *Entry[T]) Commit() error {
	b, err := e.encode()
	if err != nil {
		return err
	}
	e.raw = b
	e.baseline = e.opts.Clone(e.decoded)
	return nil
}

// AbandonChanges restores the baseline.
func (e *Entry[T]) AbandonChanges() {
	e.decoded = e.opts.Clone(e.baseline)
}

func (e *Entry[T]) encode() ([]byte, error) {
	if e.opts.Encode == nil {
		return nil, fmt.Errorf("entry %s has no encoder", e.id)
	}
	b, err := e.opts.Encode(e.decoded)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.id, err)
	}
	return b, nil
}

// Bytes returns the encoded form, re-encoding only when the value changed.
func (e *Entry[T]) Bytes() ([]byte, error) {
	if !e.HasDataChanged() {
		return append([]byte(nil), e.raw...), nil
	}
	return e.encode()
}

// Raw returns the bytes as of the last load or commit.
func (e *Entry[T]) Raw() []byte {
	return append([]byte(nil), e.raw...)
}

// RoundTrips reports whether encoding the baseline reproduces the loaded
// bytes.
func (e *Entry[T]) RoundTrips() bool {
	if e.opts.Encode == nil {
		return false
	}
	b, err := e.opts.Encode(e.baseline)
	return err == nil && bytes.Equal(b, e.raw)
}

// Save writes the encoded bytes to dir/Filename, creating parent
// directories.
func (e *Entry[T]) Save(dir string) error {
	if e.opts.Filename == "" {
		return fmt.Errorf("entry %s has no filename", e.id)
	}
	b, err := e.Bytes()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.FromSlash(e.opts.Filename))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
