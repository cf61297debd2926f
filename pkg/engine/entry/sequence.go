package entry

import (
	"fmt"
	"reflect"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Sequence is an ordered list compared as a whole against its baseline.
// Inserting, deleting or reordering items marks it changed.
type Sequence[T any] struct {
	items    []T
	baseline []T
	equal    func(a, b T) bool
}

// NewSequence copies items into a sequence. A nil equal compares with
// reflect.DeepEqual.
func NewSequence[T any](items []T, equal func(a, b T) bool) *Sequence[T] {
	if equal == nil {
		equal = func(a, b T) bool { return reflect.DeepEqual(a, b) }
	}
	return &Sequence[T]{
		items:    append([]T(nil), items...),
		baseline: append([]T(nil), items...),
		equal:    equal,
	}
}

func (s *Sequence[T]) Len() int {
	return len(s.items)
}

// Items returns a copy of the current items.
func (s *Sequence[T]) Items() []T {
	return append([]T(nil), s.items...)
}

// Baseline returns a copy of the committed items.
func (s *Sequence[T]) Baseline() []T {
	return append([]T(nil), s.baseline...)
}

func (s *Sequence[T]) check(i, limit int) error {
	if i < 0 || i >= limit {
		return fmt.Errorf("%w: index %d of %d", errs.ErrOutOfRange, i, limit)
	}
	return nil
}

func (s *Sequence[T]) Get(i int) (T, error) {
	if err := s.check(i, len(s.items)); err != nil {
		var zero T
		return zero, err
	}
	return s.items[i], nil
}

func (s *Sequence[T]) Set(i int, v T) error {
	if err := s.check(i, len(s.items)); err != nil {
		return err
	}
	s.items[i] = v
	return nil
}

// Insert places v before position i; i == Len appends.
func (s *Sequence[T]) Insert(i int, v T) error {
	if err := s.check(i, len(s.items)+1); err != nil {
		return err
	}
	s.items = append(s.items, v)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = v
	return nil
}

func (s *Sequence[T]) Append(v T) {
	s.items = append(s.items, v)
}

func (s *Sequence[T]) Delete(i int) error {
	if err := s.check(i, len(s.items)); err != nil {
		return err
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	return nil
}

// Replace swaps in a whole new item list.
func (s *Sequence[T]) Replace(items []T) {
	s.items = append([]T(nil), items...)
}

// HasChanged compares length, order and every item with the baseline.
func (s *Sequence[T]) HasChanged() bool {
	if len(s.items) != len(s.baseline) {
		return true
	}
	for i := range s.items {
		if !s.equal(s.items[i], s.baseline[i]) {
			return true
		}
	}
	return false
}

func (s *Sequence[T]) Commit() {
	s.baseline = append([]T(nil), s.items...)
}

func (s *Sequence[T]) Abandon() {
	s.items = append([]T(nil), s.baseline...)
}
