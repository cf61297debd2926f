package codec

import (
	"fmt"
	"math/bits"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/bitio"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Block is a 2x2 group of tile words: top-left, top-right, bottom-left,
// bottom-right.
type Block [4]Tile

// Blockset is an ordered list of blocks.
type Blockset []Block

const tileQueueSize = 16

// tileQueue is the move-to-front cache of recently used tile indices.
type tileQueue [tileQueueSize]uint16

func (q *tileQueue) push(v uint16) {
	copy(q[1:], q[:tileQueueSize-1])
	q[0] = v
}

func (q *tileQueue) moveToFront(i int) {
	v := q[i]
	copy(q[1:i+1], q[:i])
	q[0] = v
}

func (q *tileQueue) find(v uint16) int {
	for i, e := range q {
		if e == v {
			return i
		}
	}
	return -1
}

// readRun reads a 2^exp+mantissa number and returns it minus one.
func readRun(r *bitio.Reader) (int, error) {
	exp := 0
	for {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if b {
			break
		}
		exp++
		if exp > 16 {
			return 0, fmt.Errorf("%w: run length exponent too large", errs.ErrCodecSizeMismatch)
		}
	}
	if exp == 0 {
		return 0, nil
	}
	m, err := r.ReadBits(exp)
	if err != nil {
		return 0, err
	}
	return (1 << uint(exp)) + int(m) - 1, nil
}

// writeRun writes v (>= 1) as exp zero bits, a one bit, then exp mantissa bits.
func writeRun(w *bitio.Writer, v int) {
	exp := bits.Len(uint(v)) - 1
	w.WriteBits(0, exp)
	w.WriteBit(true)
	if exp > 0 {
		w.WriteBits(uint32(v-(1<<uint(exp))), exp)
	}
}

func readMask(r *bitio.Reader, tiles []Tile, attr TileAttribute) error {
	pos := 0
	set := false
	first := true
	for {
		n, err := readRun(r)
		if err != nil {
			return err
		}
		if !first {
			n++
		}
		if pos+n > len(tiles) {
			return fmt.Errorf("%w: attribute run overflows %d tiles", errs.ErrCodecSizeMismatch, len(tiles))
		}
		if set {
			for i := pos; i < pos+n; i++ {
				tiles[i] = tiles[i].With(attr, true)
			}
		}
		pos += n
		first = false
		set = !set
		if pos == len(tiles) {
			return nil
		}
	}
}

// writeMask emits the run lengths of attr across all tiles, starting with
// an unset run that may be empty.
func writeMask(w *bitio.Writer, tiles []Tile, attr TileAttribute) {
	set := false
	run := 0
	first := true
	for _, t := range tiles {
		if t.Has(attr) == set {
			run++
			continue
		}
		if first {
			writeRun(w, run+1)
		} else {
			writeRun(w, run)
		}
		first = false
		set = !set
		run = 1
	}
	if first {
		writeRun(w, run+1)
	} else {
		writeRun(w, run)
	}
}

func readQueuedTile(r *bitio.Reader, q *tileQueue) (uint16, error) {
	hit, err := r.ReadBit()
	if err != nil {
		return 0, err
	}
	if hit {
		idx, err := r.ReadBits(4)
		if err != nil {
			return 0, err
		}
		if idx != 0 {
			q.moveToFront(int(idx))
		}
		return q[0], nil
	}
	v, err := r.ReadBits(11)
	if err != nil {
		return 0, err
	}
	q.push(uint16(v))
	return q[0], nil
}

func writeQueuedTile(w *bitio.Writer, q *tileQueue, v uint16) {
	idx := q.find(v)
	if idx < 0 {
		w.WriteBit(false)
		w.WriteBits(uint32(v), 11)
		q.push(v)
		return
	}
	w.WriteBit(true)
	w.WriteBits(uint32(idx), 4)
	if idx != 0 {
		q.moveToFront(idx)
	}
}

// pairSuccessor is the index implied for the right-hand tile of a pair.
func pairSuccessor(left Tile) uint16 {
	if left.HFlip() {
		return (left.Index() - 1) & TileIndexMask
	}
	return (left.Index() + 1) & TileIndexMask
}

// DecodeBlockset expands a compressed blockset and returns it with the
// number of bytes consumed.
func DecodeBlockset(src []byte) (Blockset, int, error) {
	if len(src) == 0 {
		return nil, 0, errs.ErrEmpty
	}
	if len(src) < 2 {
		return nil, len(src), &errs.SizeMismatchError{Expected: 2, Actual: len(src)}
	}
	r := bitio.NewReader(src)
	total, err := r.ReadBits(16)
	if err != nil {
		return nil, 0, err
	}

	tiles := make([]Tile, int(total)*4)
	for _, attr := range []TileAttribute{AttrPriority, AttrVFlip, AttrHFlip} {
		if err := readMask(r, tiles, attr); err != nil {
			return nil, r.BytePosition(), fmt.Errorf("blockset mask: %w", err)
		}
	}

	var q tileQueue
	for i := 0; i < len(tiles); i += 2 {
		left, err := readQueuedTile(r, &q)
		if err != nil {
			return nil, r.BytePosition(), fmt.Errorf("blockset tiles: %w", err)
		}
		tiles[i] = tiles[i].WithIndex(left)
		implied, err := r.ReadBit()
		if err != nil {
			return nil, r.BytePosition(), fmt.Errorf("blockset tiles: %w", err)
		}
		if implied {
			tiles[i+1] = tiles[i+1].WithIndex(pairSuccessor(tiles[i]))
			continue
		}
		right, err := readQueuedTile(r, &q)
		if err != nil {
			return nil, r.BytePosition(), fmt.Errorf("blockset tiles: %w", err)
		}
		tiles[i+1] = tiles[i+1].WithIndex(right)
	}
	r.AlignByte()

	bs := make(Blockset, total)
	for i := range bs {
		copy(bs[i][:], tiles[i*4:i*4+4])
	}
	return bs, r.BytePosition(), nil
}

// EncodeBlockset compresses bs. Palette bits of the tile words are not
// part of the format and are dropped.
func EncodeBlockset(bs Blockset) ([]byte, error) {
	if len(bs) > 0xFFFF {
		return nil, fmt.Errorf("%w: %d blocks", errs.ErrCapacityExceeded, len(bs))
	}
	tiles := make([]Tile, 0, len(bs)*4)
	for _, b := range bs {
		tiles = append(tiles, b[:]...)
	}

	w := bitio.NewWriter()
	w.WriteBits(uint32(len(bs)), 16)
	for _, attr := range []TileAttribute{AttrPriority, AttrVFlip, AttrHFlip} {
		writeMask(w, tiles, attr)
	}

	var q tileQueue
	for i := 0; i < len(tiles); i += 2 {
		writeQueuedTile(w, &q, tiles[i].Index())
		if tiles[i+1].Index() == pairSuccessor(tiles[i]) {
			w.WriteBit(true)
			continue
		}
		w.WriteBit(false)
		writeQueuedTile(w, &q, tiles[i+1].Index())
	}
	w.AlignByte()
	return w.Bytes(), nil
}

// Equal compares the blocks by index and attribute bits.
func (bs Blockset) Equal(o Blockset) bool {
	if len(bs) != len(o) {
		return false
	}
	for i := range bs {
		for t := 0; t < 4; t++ {
			if bs[i][t]&^Tile(TilePaletteMk) != o[i][t]&^Tile(TilePaletteMk) {
				return false
			}
		}
	}
	return true
}

func (bs Blockset) Clone() Blockset {
	if bs == nil {
		return nil
	}
	return append(Blockset(nil), bs...)
}
