// Package patch collects pending ROM writes, checks them against the
// space available and injects them.
package patch

import (
	"fmt"

	"github.com/fatih/color"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

// PendingWrite is a block of bytes bound for a named section or address.
type PendingWrite = rom.PendingWrite

// Set holds pending writes, at most one per target.
type Set struct {
	writes []PendingWrite
}

func NewSet() *Set {
	return &Set{}
}

// Add appends w, replacing an earlier write to the same target.
func (s *Set) Add(w PendingWrite) {
	w.Bytes = append([]byte(nil), w.Bytes...)
	for i := range s.writes {
		if s.writes[i].Target == w.Target {
			s.writes[i] = w
			return
		}
	}
	s.writes = append(s.writes, w)
}

// AddSection queues b for the start of section name.
func (s *Set) AddSection(name string, b []byte) {
	s.Add(rom.SectionWrite(name, b))
}

// AddAddress queues b for a named address.
func (s *Set) AddAddress(name string, b []byte) {
	s.Add(PendingWrite{Target: rom.Target{Name: name, Kind: rom.TargetAddress}, Bytes: b})
}

// Merge adds every write of o.
func (s *Set) Merge(o *Set) {
	for _, w := range o.writes {
		s.Add(w)
	}
}

func (s *Set) Len() int {
	return len(s.writes)
}

// All returns the writes in insertion order.
func (s *Set) All() []PendingWrite {
	return append([]PendingWrite(nil), s.writes...)
}

func (s *Set) Clear() {
	s.writes = nil
}

// Verdict is the outcome of one capacity check.
type Verdict string

const (
	VerdictOK  Verdict = "OK"
	VerdictBAD Verdict = "BAD"
)

// Colour returns the verdict coloured for a terminal.
func (v Verdict) Colour() string {
	if v == VerdictOK {
		return color.GreenString(string(v))
	}
	return color.New(color.FgRed, color.Bold).Sprint(string(v))
}

// Row describes one pending write against its destination.
type Row struct {
	Label     string
	Kind      rom.TargetKind
	Address   uint32
	Required  int
	Available int
	Verdict   Verdict
}

// CapacityReport lists every pending write with its verdict.
type CapacityReport struct {
	Rows []Row
}

// Fits reports whether every row is OK.
func (r CapacityReport) Fits() bool {
	for _, row := range r.Rows {
		if row.Verdict != VerdictOK {
			return false
		}
	}
	return true
}

// Totals sums required and available bytes.
func (r CapacityReport) Totals() (required, available int) {
	for _, row := range r.Rows {
		required += row.Required
		available += row.Available
	}
	return required, available
}

func resolve(img *rom.Image, t rom.Target) (addr uint32, available int, err error) {
	if t.Kind == rom.TargetAddress {
		a, err := img.Address(t.Name)
		return a, 4, err
	}
	sec, err := img.Section(t.Name)
	return sec.Begin, int(sec.Size()), err
}

// Report checks each write against its destination. A section offers its
// size, an address offers 4 bytes.
func (s *Set) Report(img *rom.Image) (CapacityReport, error) {
	var r CapacityReport
	for _, w := range s.writes {
		addr, avail, err := resolve(img, w.Target)
		if err != nil {
			return CapacityReport{}, err
		}
		v := VerdictOK
		if len(w.Bytes) > avail {
			v = VerdictBAD
		}
		r.Rows = append(r.Rows, Row{
			Label:     w.Target.Name,
			Kind:      w.Target.Kind,
			Address:   addr,
			Required:  len(w.Bytes),
			Available: avail,
			Verdict:   v,
		})
	}
	return r, nil
}

// WillFitInRom reports whether every write fits its destination.
func (s *Set) WillFitInRom(img *rom.Image) (bool, error) {
	r, err := s.Report(img)
	if err != nil {
		return false, err
	}
	return r.Fits(), nil
}

// InjectIntoRom writes everything into img without checking capacity and
// returns the number of bytes written. Writes that would run past the end
// of the image fail.
func (s *Set) InjectIntoRom(img *rom.Image) (int, error) {
	total := 0
	for _, w := range s.writes {
		addr, _, err := resolve(img, w.Target)
		if err != nil {
			return total, err
		}
		if err := img.WriteBytes(addr, w.Bytes); err != nil {
			return total, fmt.Errorf("inject %s: %w", w.Target.Name, err)
		}
		total += len(w.Bytes)
	}
	return total, nil
}

// CheckFits returns ErrCapacityExceeded naming the first BAD row.
func (r CapacityReport) CheckFits() error {
	for _, row := range r.Rows {
		if row.Verdict != VerdictOK {
			return fmt.Errorf("%w: %s needs %d bytes, %d available",
				errs.ErrCapacityExceeded, row.Label, row.Required, row.Available)
		}
	}
	return nil
}
