package codec

import (
	"cmp"
	"fmt"
	"math/bits"
	"slices"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/bitio"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Compressed room maps are a bit stream:
//
//	left, top, width-1, 2*height-1          4 bytes
//	incremental base, literal base          10 bits each
//	extra back offsets                      8 x 12 bits
//	run markers                             until the position passes the end
//	literal blocks                          2-bit command + payload
//	(byte align) hm width, hm height        2 bytes
//	heightmap runs                          word + run length bytes
//
// Both layers are packed as one buffer, foreground first. A run marker is
// a gamma-coded step, a 3 or 5 bit dictionary index and an optional
// vertical run that repeats the marker down or down-right. Dictionary
// entry 0 starts a literal run, the others copy from that far back. Every
// run lasts until the next marked position.
const (
	mapLiteralRun  = 0xFFFF
	mapFixedOffset = 6
	mapOffsets     = 14
	mapMaxBack     = 0xFFF
	mapMaxBlock    = 0x3FF
	mapHeaderBytes = 4
)

// mapReader wraps a bit reader with a sticky error so a decode phase can
// be checked once.
type mapReader struct {
	r   *bitio.Reader
	err error
}

func (m *mapReader) bits(n int) uint16 {
	if m.err != nil {
		return 0
	}
	v, err := m.r.ReadBits(n)
	if err != nil {
		m.err = err
	}
	return uint16(v)
}

func (m *mapReader) bit() bool {
	return m.bits(1) == 1
}

func (m *mapReader) step() int {
	if m.err != nil {
		return 0
	}
	v, err := readRun(m.r)
	if err != nil {
		m.err = err
	}
	return v + 1
}

func (m *mapReader) failed(phase string) error {
	if m.err == nil {
		return nil
	}
	return fmt.Errorf("%w: room map %s: %v", errs.ErrCodecSizeMismatch, phase, m.err)
}

func mapCorrupt(format string, args ...any) error {
	return fmt.Errorf("%w: room map "+format, append([]any{errs.ErrCodecSizeMismatch}, args...)...)
}

func fixedMapOffsets(width int) [mapOffsets]uint16 {
	w := uint16(width)
	return [mapOffsets]uint16{mapLiteralRun, 1, 2, w, w * 2, w + 1}
}

// DecodeTilemap3D reads a compressed room map and returns it with the
// bytes consumed.
func DecodeTilemap3D(src []byte) (*Tilemap3D, int, error) {
	if len(src) == 0 {
		return nil, 0, errs.ErrEmpty
	}
	if len(src) < mapHeaderBytes {
		return nil, len(src), &errs.SizeMismatchError{Expected: mapHeaderBytes, Actual: len(src)}
	}
	r := &mapReader{r: bitio.NewReader(src)}
	m := &Tilemap3D{
		Left:   int(r.bits(8)),
		Top:    int(r.bits(8)),
		Width:  int(r.bits(8)) + 1,
		Height: (int(r.bits(8)) + 1) / 2,
	}
	incBase := r.bits(10)
	litBase := r.bits(10)
	offsets := fixedMapOffsets(m.Width)
	for i := mapFixedOffset; i < mapOffsets; i++ {
		offsets[i] = r.bits(12)
	}
	if err := r.failed("header"); err != nil {
		return nil, len(src), err
	}

	total := m.Width * m.Height * 2
	marks := make([]uint16, total)
	for dst := -1; ; {
		dst += r.step()
		if r.err != nil || dst >= total {
			break
		}
		cmd := r.bits(3)
		if cmd >= mapFixedOffset {
			cmd = mapFixedOffset + ((cmd&1)<<2 | r.bits(2))
		}
		op := offsets[cmd]
		if op == 0 {
			return nil, r.r.BytePosition(), mapCorrupt("unused back offset %d", cmd)
		}
		marks[dst] = op
		if !r.bit() {
			continue
		}
		row, right := dst, r.bit()
		for again := true; again && r.err == nil; again = r.bit() {
			for more := true; more && r.err == nil; more = r.bit() {
				row += m.Width
				if right {
					row++
				}
				if row >= total {
					return nil, r.r.BytePosition(), mapCorrupt("vertical run leaves the map at %d", row)
				}
				marks[row] = op
			}
			right = !right
		}
	}
	if err := r.failed("runs"); err != nil {
		return nil, len(src), err
	}

	out := make([]uint16, total)
	counters := [2]uint16{litBase, incBase}
	literal := func() uint16 {
		switch r.bits(2) {
		case 0:
			if counters[0] == 0 {
				return 0
			}
			return r.bits(bits.Len16(counters[0]))
		case 1:
			if counters[1] == incBase {
				return incBase
			}
			return incBase + r.bits(bits.Len16(counters[1]-incBase))
		case 2:
			counters[0]++
			return counters[0] - 1
		default:
			counters[1]++
			return counters[1] - 1
		}
	}
	for dst := 0; dst < total; {
		op := marks[dst]
		switch {
		case op == 0:
			return nil, r.r.BytePosition(), mapCorrupt("no run starts at %d", dst)
		case op != mapLiteralRun && int(op) > dst:
			return nil, r.r.BytePosition(), mapCorrupt("copy at %d reaches back %d", dst, op)
		}
		for {
			if op == mapLiteralRun {
				out[dst] = literal()
			} else {
				out[dst] = out[dst-int(op)]
			}
			dst++
			if dst >= total || marks[dst] != 0 {
				break
			}
		}
	}
	if err := r.failed("blocks"); err != nil {
		return nil, len(src), err
	}
	m.Foreground = out[: total/2 : total/2]
	m.Background = out[total/2:]

	r.r.AlignByte()
	m.HMWidth = int(r.bits(8))
	m.HMHeight = int(r.bits(8))
	m.Heightmap = make([]HeightmapCell, m.HMWidth*m.HMHeight)
	var pattern uint16
	remaining := 0
	for i := range m.Heightmap {
		if remaining == 0 {
			pattern = r.bits(16)
			remaining = 1
			for {
				n := r.bits(8)
				remaining += int(n)
				if n != 0xFF || r.err != nil {
					break
				}
			}
		}
		m.Heightmap[i] = HeightmapCell(pattern)
		remaining--
	}
	if err := r.failed("heightmap"); err != nil {
		return nil, len(src), err
	}
	r.r.AlignByte()
	return m, r.r.BytePosition(), nil
}

// mapMatch returns the dictionary index and length of the longest copy
// available at i, or 0 when none is.
func mapMatch(blocks []uint16, i int, offsets [mapOffsets]uint16) (int, int) {
	best, length := 0, 0
	for k := 1; k < mapOffsets; k++ {
		back := int(offsets[k])
		if back == 0 || back > i || back > mapMaxBack {
			continue
		}
		n := 0
		for i+n < len(blocks) && blocks[i+n-back] == blocks[i+n] {
			n++
		}
		if n > length {
			best, length = k, n
		}
	}
	return best, length
}

// mapBackOffsets fills the eight free dictionary slots with the back
// offsets that most often give the longest match.
func mapBackOffsets(blocks []uint16, width int) [mapOffsets]uint16 {
	offsets := fixedMapOffsets(width)
	freq := map[int]int{}
	for i := 1; i < len(blocks); {
		lookback := min(i, mapMaxBack)
		best := 0
		runs := make([]int, lookback+1)
		for back := 1; back <= lookback; back++ {
			n := 0
			for i+n < len(blocks) && blocks[i+n-back] == blocks[i+n] {
				n++
			}
			runs[back] = n
			best = max(best, n)
		}
		if best < 2 {
			i++
			continue
		}
		for back, n := range runs {
			if n == best {
				freq[back]++
			}
		}
		i += best
	}

	candidates := make([]int, 0, len(freq))
	for back := range freq {
		if !slices.Contains(offsets[:mapFixedOffset], uint16(back)) {
			candidates = append(candidates, back)
		}
	}
	slices.SortFunc(candidates, func(a, b int) int {
		if c := cmp.Compare(freq[b], freq[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	for i, back := range candidates[:min(len(candidates), mapOffsets-mapFixedOffset)] {
		offsets[mapFixedOffset+i] = uint16(back)
	}
	return offsets
}

// EncodeTilemap3D compresses m. Vertical runs are never emitted.
func EncodeTilemap3D(m *Tilemap3D) ([]byte, error) {
	switch {
	case m.Width < 1 || m.Width > 0x100 || m.Height < 1 || m.Height > 0x80:
		return nil, fmt.Errorf("%w: room map size %dx%d", errs.ErrCapacityExceeded, m.Width, m.Height)
	case m.Left < 0 || m.Left > 0xFF || m.Top < 0 || m.Top > 0xFF:
		return nil, fmt.Errorf("%w: room map origin (%d,%d)", errs.ErrCapacityExceeded, m.Left, m.Top)
	case m.HMWidth < 0 || m.HMWidth > 0xFF || m.HMHeight < 0 || m.HMHeight > 0xFF:
		return nil, fmt.Errorf("%w: heightmap size %dx%d", errs.ErrCapacityExceeded, m.HMWidth, m.HMHeight)
	}
	layer := m.Width * m.Height
	if len(m.Foreground) != layer || len(m.Background) != layer {
		return nil, &errs.SizeMismatchError{Expected: layer, Actual: len(m.Foreground)}
	}
	if len(m.Heightmap) != m.HMWidth*m.HMHeight {
		return nil, &errs.SizeMismatchError{Expected: m.HMWidth * m.HMHeight, Actual: len(m.Heightmap)}
	}
	blocks := slices.Concat(m.Foreground, m.Background)
	top := slices.Max(blocks)
	if top > mapMaxBlock {
		return nil, fmt.Errorf("%w: block %d", errs.ErrCapacityExceeded, top)
	}

	offsets := mapBackOffsets(blocks, m.Width)
	type run struct{ at, op int }
	runs := []run{{0, 0}}
	literal := make([]bool, len(blocks))
	literal[0] = true
	for i := 1; i < len(blocks); {
		op, n := mapMatch(blocks, i, offsets)
		if op == 0 {
			if runs[len(runs)-1].op != 0 {
				runs = append(runs, run{i, 0})
			}
			literal[i] = true
			i++
			continue
		}
		runs = append(runs, run{i, op})
		i += n
	}

	var litBase uint16
	if top > 0 {
		litBase = 1 << (bits.Len16(top) - 1)
	}
	incBase := blocks[0]

	w := bitio.NewWriter()
	w.WriteBits(uint32(m.Left), 8)
	w.WriteBits(uint32(m.Top), 8)
	w.WriteBits(uint32(m.Width-1), 8)
	w.WriteBits(uint32(m.Height*2-1), 8)
	w.WriteBits(uint32(incBase), 10)
	w.WriteBits(uint32(litBase), 10)
	for _, off := range offsets[mapFixedOffset:] {
		w.WriteBits(uint32(off), 12)
	}

	last := -1
	for _, r := range runs {
		writeRun(w, r.at-last)
		last = r.at
		if r.op < mapFixedOffset {
			w.WriteBits(uint32(r.op), 3)
		} else {
			w.WriteBits(3, 2)
			w.WriteBits(uint32(r.op-mapFixedOffset), 3)
		}
		w.WriteBit(false)
	}
	writeRun(w, len(blocks)-last)

	counters := [2]uint16{litBase, incBase}
	for i, v := range blocks {
		if !literal[i] {
			continue
		}
		switch {
		case v == counters[1]:
			w.WriteBits(3, 2)
			counters[1]++
		case v == counters[0]:
			w.WriteBits(2, 2)
			counters[0]++
		case v >= incBase && v < counters[1]:
			w.WriteBits(1, 2)
			w.WriteBits(uint32(v-incBase), bits.Len16(counters[1]-incBase))
		default:
			w.WriteBits(0, 2)
			w.WriteBits(uint32(v), bits.Len16(counters[0]))
		}
	}

	w.AlignByte()
	w.WriteBits(uint32(m.HMWidth), 8)
	w.WriteBits(uint32(m.HMHeight), 8)
	for i := 0; i < len(m.Heightmap); {
		cell := m.Heightmap[i]
		n := 1
		for i+n < len(m.Heightmap) && m.Heightmap[i+n] == cell {
			n++
		}
		w.WriteBits(uint32(cell), 16)
		for extra := n - 1; ; extra -= 0xFF {
			if extra < 0xFF {
				w.WriteBits(uint32(extra), 8)
				break
			}
			w.WriteBits(0xFF, 8)
		}
		i += n
	}
	return w.Bytes(), nil
}
