package entry

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Catalog is an ordered set of entries, unique by name and by index.
type Catalog[T any] struct {
	entries []*Entry[T]
	byName  map[string]int
	byIndex map[int]int
}

func NewCatalog[T any]() *Catalog[T] {
	return &Catalog[T]{byName: make(map[string]int), byIndex: make(map[int]int)}
}

// Add appends e, rejecting a duplicate name or index.
func (c *Catalog[T]) Add(e *Entry[T]) error {
	id := e.ID()
	if _, dup := c.byName[id.Name]; dup {
		return fmt.Errorf("duplicate entry name %q", id.Name)
	}
	if id.HasIndex {
		if _, dup := c.byIndex[id.Index]; dup {
			return fmt.Errorf("duplicate entry index %d (%s)", id.Index, id.Name)
		}
		c.byIndex[id.Index] = len(c.entries)
	}
	c.byName[id.Name] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

func (c *Catalog[T]) Get(name string) (*Entry[T], error) {
	i, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrLabelNotFound, name)
	}
	return c.entries[i], nil
}

func (c *Catalog[T]) GetIndex(index int) (*Entry[T], error) {
	i, ok := c.byIndex[index]
	if !ok {
		return nil, fmt.Errorf("%w: no entry with index %d", errs.ErrOutOfRange, index)
	}
	return c.entries[i], nil
}

func (c *Catalog[T]) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *Catalog[T]) Len() int {
	return len(c.entries)
}

// All returns the entries in insertion order.
func (c *Catalog[T]) All() []*Entry[T] {
	return append([]*Entry[T](nil), c.entries...)
}

func (c *Catalog[T]) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Name()
	}
	return out
}

// AnyChanged reports whether any entry differs from its baseline.
func (c *Catalog[T]) AnyChanged() bool {
	for _, e := range c.entries {
		if e.HasDataChanged() {
			return true
		}
	}
	return false
}

// CommitAll commits every entry, stopping at the first failure.
func (c *Catalog[T]) CommitAll() error {
	for _, e := range c.entries {
		if err := e.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog[T]) AbandonAll() {
	for _, e := range c.entries {
		e.AbandonChanges()
	}
}
