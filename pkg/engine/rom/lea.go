package rom

import (
	"fmt"
	"math"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// TargetKind says how a pending write's label is resolved.
type TargetKind int

const (
	// TargetSection writes at the start of a named section.
	TargetSection TargetKind = iota
	// TargetAddress writes at a named address, at most 4 bytes.
	TargetAddress
)

func (k TargetKind) String() string {
	if k == TargetAddress {
		return "address"
	}
	return "section"
}

// Target names the destination of a pending write.
type Target struct {
	Name string
	Kind TargetKind
}

// PendingWrite is a block of bytes waiting to be injected into an image.
type PendingWrite struct {
	Target Target
	Bytes  []byte
}

// PCRel16 returns the 16-bit displacement from the instruction at pc to
// loc. The 68000 measures it from pc+2.
func PCRel16(pc, loc uint32) uint16 {
	return uint16(int64(loc) - int64(pc+2))
}

// PCRel8 is the 8-bit form of PCRel16.
func PCRel8(pc, loc uint32) (uint8, error) {
	d := int64(loc) - int64(pc+2)
	if d < math.MinInt8 || d > math.MaxInt8 {
		return 0, fmt.Errorf("%w: %06X is %d bytes from %06X", errs.ErrOutOfRange, loc, d, pc)
	}
	return uint8(d), nil
}

func (img *Image) target(pc uint32, disp int64) (uint32, error) {
	t := int64(pc) + disp + 2
	if t < 0 || t >= int64(len(img.data)) {
		return 0, fmt.Errorf("%w: offset at %06X points to %X", errs.ErrOutOfRange, pc, t)
	}
	return uint32(t), nil
}

// ReadOffset16 follows the 16-bit PC-relative operand of the instruction
// at a labelled address.
func (img *Image) ReadOffset16(label string) (uint32, error) {
	pc, err := img.Address(label)
	if err != nil {
		return 0, err
	}
	instr, err := img.Read32(pc)
	if err != nil {
		return 0, err
	}
	return img.target(pc, int64(int16(instr&0xFFFF)))
}

// ReadOffset8 follows the 8-bit displacement in the low byte of the
// 32-bit instruction at a labelled address, as in move.w d8(pc,xn).
func (img *Image) ReadOffset8(label string) (uint32, error) {
	pc, err := img.Address(label)
	if err != nil {
		return 0, err
	}
	instr, err := img.Read32(pc)
	if err != nil {
		return 0, err
	}
	return img.target(pc, int64(int8(instr&0xFF)))
}

// WriteOffset16 returns the instruction at label re-pointed at target.
func (img *Image) WriteOffset16(label string, target uint32) (PendingWrite, error) {
	pc, err := img.Address(label)
	if err != nil {
		return PendingWrite{}, err
	}
	if int(target) >= len(img.data) {
		return PendingWrite{}, fmt.Errorf("%w: %s target %06X", errs.ErrOutOfRange, label, target)
	}
	d := int64(target) - int64(pc+2)
	if d < math.MinInt16 || d > math.MaxInt16 {
		return PendingWrite{}, fmt.Errorf("%w: %s target %06X is %d bytes away", errs.ErrOutOfRange, label, target, d)
	}
	instr, err := img.Read32(pc)
	if err != nil {
		return PendingWrite{}, err
	}
	instr = instr&0xFFFF0000 | uint32(PCRel16(pc, target))
	return PendingWrite{
		Target: Target{Name: label, Kind: TargetAddress},
		Bytes:  []byte{byte(instr >> 24), byte(instr >> 16), byte(instr >> 8), byte(instr)},
	}, nil
}

// WriteOffset8 is the 8-bit form of WriteOffset16. Only the low byte of
// the instruction changes.
func (img *Image) WriteOffset8(label string, target uint32) (PendingWrite, error) {
	pc, err := img.Address(label)
	if err != nil {
		return PendingWrite{}, err
	}
	if int(target) >= len(img.data) {
		return PendingWrite{}, fmt.Errorf("%w: %s target %06X", errs.ErrOutOfRange, label, target)
	}
	d, err := PCRel8(pc, target)
	if err != nil {
		return PendingWrite{}, err
	}
	instr, err := img.Read32(pc)
	if err != nil {
		return PendingWrite{}, err
	}
	instr = instr&0xFFFFFF00 | uint32(d)
	return PendingWrite{
		Target: Target{Name: label, Kind: TargetAddress},
		Bytes:  []byte{byte(instr >> 24), byte(instr >> 16), byte(instr >> 8), byte(instr)},
	}, nil
}

// WriteAddress32 returns a write of addr as a big-endian long at label.
func WriteAddress32(label string, addr uint32) PendingWrite {
	return PendingWrite{
		Target: Target{Name: label, Kind: TargetAddress},
		Bytes:  []byte{byte(addr >> 24), byte(addr >> 16), byte(addr >> 8), byte(addr)},
	}
}

// SectionWrite returns a write of b at the start of section name.
func SectionWrite(name string, b []byte) PendingWrite {
	return PendingWrite{Target: Target{Name: name, Kind: TargetSection}, Bytes: b}
}
