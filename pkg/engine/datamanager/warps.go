package datamanager

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

const (
	warpSize       = 8
	routeSize      = 4
	transitionSize = 6

	// NoRoom marks an unused warp endpoint or a missing route.
	NoRoom = 0xFFFF
)

// WarpType is the two type bits of a warp.
type WarpType uint8

const (
	WarpNormal WarpType = iota
	WarpStairSE
	WarpStairSW
	WarpUnknown
)

func (t WarpType) String() string {
	switch t {
	case WarpNormal:
		return "normal"
	case WarpStairSE:
		return "stair_se"
	case WarpStairSW:
		return "stair_sw"
	default:
		return "unknown"
	}
}

// Warp links a region of one room to a region of another.
type Warp struct {
	Room1, Room2 uint16
	X1, Y1       uint8
	X2, Y2       uint8
	XSize, YSize uint8
	Type         WarpType
}

// IsValid reports whether both endpoints name a room.
func (w Warp) IsValid() bool {
	return w.Room1 != NoRoom && w.Room2 != NoRoom
}

// Matches compares two warps, treating a warp and its reverse as the same.
func (w Warp) Matches(o Warp) bool {
	if w.Type != o.Type || w.XSize != o.XSize || w.YSize != o.YSize {
		return false
	}
	fwd := w.Room1 == o.Room1 && w.Room2 == o.Room2 && w.X1 == o.X1 && w.Y1 == o.Y1 && w.X2 == o.X2 && w.Y2 == o.Y2
	rev := w.Room1 == o.Room2 && w.Room2 == o.Room1 && w.X1 == o.X2 && w.Y1 == o.Y2 && w.X2 == o.X1 && w.Y2 == o.Y1
	return fwd || rev
}

func decodeWarp(b []byte) Warp {
	w := Warp{
		Room1: (uint16(b[0])<<8 | uint16(b[1])) & 0x03FF,
		X1:    b[2],
		Y1:    b[3],
		Room2: (uint16(b[4])<<8 | uint16(b[5])) & 0x03FF,
		X2:    b[6],
		Y2:    b[7],
		XSize: 1,
		YSize: 1,
		Type:  WarpType(b[0]>>5) & 0x03,
	}
	if b[0]&0x08 != 0 {
		w.XSize = 2
	}
	if b[0]&0x10 != 0 {
		w.YSize = 2
	}
	if b[0]&0x04 != 0 {
		if w.XSize == 2 {
			w.XSize = 3
		}
		if w.YSize == 2 {
			w.YSize = 3
		}
	}
	return w
}

func (w Warp) encode() []byte {
	b := []byte{
		byte(w.Room1>>8) & 0x03, byte(w.Room1), w.X1, w.Y1,
		byte(w.Room2>>8) & 0x03, byte(w.Room2), w.X2, w.Y2,
	}
	if w.XSize == 3 || w.YSize == 3 {
		b[0] |= 0x04
	}
	if w.XSize > 1 {
		b[0] |= 0x08
	}
	if w.YSize > 1 {
		b[0] |= 0x10
	}
	b[0] |= byte(w.Type&0x03) << 5
	return b
}

// DecodeWarps reads warps up to the 0xFFFF terminator.
func DecodeWarps(src []byte) ([]Warp, error) {
	var out []Warp
	for pos := 0; ; pos += warpSize {
		if pos+2 > len(src) {
			return nil, fmt.Errorf("%w: warp list has no terminator", errs.ErrCodecSizeMismatch)
		}
		if src[pos] == 0xFF && src[pos+1] == 0xFF {
			return out, nil
		}
		if pos+warpSize > len(src) {
			return nil, &errs.SizeMismatchError{Expected: pos + warpSize, Actual: len(src)}
		}
		out = append(out, decodeWarp(src[pos:pos+warpSize]))
	}
}

func EncodeWarps(warps []Warp) ([]byte, error) {
	out := make([]byte, 0, len(warps)*warpSize+2)
	for _, w := range warps {
		out = append(out, w.encode()...)
	}
	return append(out, 0xFF, 0xFF), nil
}

// Routes maps a room to the room reached by falling from or climbing out
// of it.
type Routes map[uint16]uint16

// DecodeRoutes reads (room, destination) pairs up to the 0xFFFF terminator.
func DecodeRoutes(src []byte) (Routes, error) {
	out := make(Routes)
	for pos := 0; ; pos += routeSize {
		if pos+2 > len(src) {
			return nil, fmt.Errorf("%w: route list has no terminator", errs.ErrCodecSizeMismatch)
		}
		room := uint16(src[pos])<<8 | uint16(src[pos+1])
		if room == NoRoom {
			return out, nil
		}
		if pos+routeSize > len(src) {
			return nil, &errs.SizeMismatchError{Expected: pos + routeSize, Actual: len(src)}
		}
		out[room] = uint16(src[pos+2])<<8 | uint16(src[pos+3])
	}
}

// EncodeRoutes writes the pairs in ascending room order.
func EncodeRoutes(r Routes) ([]byte, error) {
	out := make([]byte, 0, len(r)*routeSize+2)
	for _, room := range slices.Sorted(maps.Keys(r)) {
		out = append(out, be16(room)...)
		out = append(out, be16(r[room])...)
	}
	return append(out, 0xFF, 0xFF), nil
}

// Transition is a scripted room change with its flag.
type Transition struct {
	Src, Dst uint16
	Flag     uint16
}

func sortTransitions(ts []Transition) {
	sort.SliceStable(ts, func(i, j int) bool {
		if ts[i].Dst != ts[j].Dst {
			return ts[i].Dst < ts[j].Dst
		}
		return ts[i].Src > ts[j].Src
	})
}

// DecodeTransitions reads transitions up to the 0xFFFFFFFF terminator.
// The result is in table order: destination ascending, then source
// descending.
func DecodeTransitions(src []byte) ([]Transition, error) {
	var out []Transition
	for pos := 0; ; pos += transitionSize {
		if pos+4 > len(src) {
			return nil, fmt.Errorf("%w: transition list has no terminator", errs.ErrCodecSizeMismatch)
		}
		if src[pos] == 0xFF && src[pos+1] == 0xFF {
			sortTransitions(out)
			return out, nil
		}
		if pos+transitionSize > len(src) {
			return nil, &errs.SizeMismatchError{Expected: pos + transitionSize, Actual: len(src)}
		}
		out = append(out, Transition{
			Src:  uint16(src[pos])<<8 | uint16(src[pos+1]),
			Dst:  uint16(src[pos+2])<<8 | uint16(src[pos+3]),
			Flag: uint16(src[pos+4])<<3 | uint16(src[pos+5]),
		})
	}
}

func EncodeTransitions(ts []Transition) ([]byte, error) {
	sorted := slices.Clone(ts)
	sortTransitions(sorted)
	out := make([]byte, 0, len(sorted)*transitionSize+4)
	for _, t := range sorted {
		out = append(out, be16(t.Src)...)
		out = append(out, be16(t.Dst)...)
		out = append(out, byte(t.Flag>>3), byte(t.Flag&0x07))
	}
	return append(out, 0xFF, 0xFF, 0xFF, 0xFF), nil
}

// tableExtent returns the length of a terminated table at start, counting
// the terminator.
func tableExtent(img *rom.Image, start uint32, entrySize, termSize int) (int, error) {
	for n := 0; ; n += entrySize {
		w, err := img.Read16(start + uint32(n))
		if err != nil {
			return 0, fmt.Errorf("table at %06X: %w", start, err)
		}
		if w == 0xFFFF {
			return n + termSize, nil
		}
	}
}

func readTable(img *rom.Image, start uint32, entrySize, termSize int) ([]byte, error) {
	n, err := tableExtent(img, start, entrySize, termSize)
	if err != nil {
		return nil, err
	}
	return img.ReadArray(start, n)
}

// replaceMatching overwrites the items that match in place, removes the
// surplus and appends what is left of repl.
func replaceMatching[T any](items []T, match func(T) bool, repl []T) []T {
	out := make([]T, 0, len(items)+len(repl))
	used := 0
	for _, it := range items {
		if !match(it) {
			out = append(out, it)
			continue
		}
		if used < len(repl) {
			out = append(out, repl[used])
			used++
		}
	}
	return append(out, repl[used:]...)
}
