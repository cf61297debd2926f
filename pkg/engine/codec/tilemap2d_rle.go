package codec

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// RLE tilemaps store the attribute bits and the tile indices as two
// separate run-length streams after a [width, height] header.
//
// Attribute runs: one byte holds the top five tile-word bits. Bit 2 set
// means bits 0-1 are the run length minus one; clear means they are the
// high bits of a 10-bit length completed by the next byte. A long run of
// zero ends the stream.
//
// Index commands, selected by the top two bits:
//
//	00 copy one index (0x7FF ends the stream)
//	01 fill: bits 3-5 repeat count, index in bits 0-2 and the next byte
//	10 repeat the last fill index, bits 0-5 count
//	11 increment from the first fill index, bits 0-5 count
const (
	rleMaxAttrRun  = 0x3FF
	rleMaxShortRun = 0x03
	rleMaxFill     = 0x07
	rleMaxRepeat   = 0x3F
	rleEnd         = 0x07FF
)

func rleTruncated(pos int) error {
	return fmt.Errorf("%w: rle tilemap ends early at byte %d", errs.ErrCodecSizeMismatch, pos)
}

func rleCorrupt(what string, pos int) error {
	return fmt.Errorf("%w: rle tilemap %s at byte %d", errs.ErrCodecSizeMismatch, what, pos)
}

// decodeTilemapRLE returns the dimensions, the tiles and the bytes consumed.
func decodeTilemapRLE(src []byte) (int, int, []Tile, int, error) {
	if len(src) <= 6 {
		return 0, 0, nil, len(src), &errs.SizeMismatchError{Expected: 7, Actual: len(src)}
	}
	w, h := int(src[0]), int(src[1])
	n := w * h
	tiles := make([]Tile, 0, n)
	pos := 2

	for {
		if pos >= len(src) {
			return 0, 0, nil, pos, rleTruncated(pos)
		}
		b := src[pos]
		pos++
		attrs := Tile(uint16(b&0xF8) << 8)
		length := int(b & 0x03)
		if b&0x04 == 0 {
			if pos >= len(src) {
				return 0, 0, nil, pos, rleTruncated(pos)
			}
			length = length<<8 | int(src[pos])
			pos++
			if length == 0 {
				break
			}
		}
		if len(tiles)+length+1 > n {
			return 0, 0, nil, pos, rleCorrupt("attribute run overflows the map", pos)
		}
		for i := 0; i <= length; i++ {
			tiles = append(tiles, attrs)
		}
	}
	if len(tiles) != n {
		return 0, 0, nil, pos, rleCorrupt(fmt.Sprintf("attributes cover %d of %d tiles", len(tiles), n), pos)
	}

	idx := 0
	last, incr := -1, -1
	put := func(v uint16) {
		tiles[idx] = tiles[idx]&^Tile(TileIndexMask) | Tile(v&TileIndexMask)
		idx++
	}
	for {
		if pos >= len(src) {
			return 0, 0, nil, pos, rleTruncated(pos)
		}
		b := src[pos]
		switch b >> 6 {
		case 0:
			if pos+1 >= len(src) {
				return 0, 0, nil, pos, rleTruncated(pos)
			}
			v := (uint16(b)<<8 | uint16(src[pos+1])) & TileIndexMask
			pos += 2
			if v == rleEnd {
				return w, h, tiles, pos, nil
			}
			if idx >= n {
				return 0, 0, nil, pos, rleCorrupt("copy past the last tile", pos)
			}
			put(v)
		case 1:
			if pos+1 >= len(src) {
				return 0, 0, nil, pos, rleTruncated(pos)
			}
			count := int(b&0x38) >> 3
			v := (uint16(b)<<8 | uint16(src[pos+1])) & TileIndexMask
			pos += 2
			if idx+count >= n {
				return 0, 0, nil, pos, rleCorrupt("fill past the last tile", pos)
			}
			for i := 0; i <= count; i++ {
				put(v)
			}
			last = int(v)
			if incr < 0 {
				incr = int(v)
			}
		case 2:
			count := int(b & 0x3F)
			pos++
			if last < 0 || idx+count >= n {
				return 0, 0, nil, pos, rleCorrupt("bad repeat", pos)
			}
			for i := 0; i <= count; i++ {
				put(uint16(last))
			}
		case 3:
			count := int(b & 0x3F)
			pos++
			if incr < 0 || idx+count >= n {
				return 0, 0, nil, pos, rleCorrupt("bad increment", pos)
			}
			for i := 0; i <= count; i++ {
				incr++
				put(uint16(incr))
			}
		}
	}
}

// runLength counts how many tiles after start satisfy same, up to limit.
func runLength(tiles []Tile, start, limit int, same func(Tile) bool) int {
	count := 0
	for j := start + 1; j < len(tiles) && count < limit; j++ {
		if !same(tiles[j]) {
			break
		}
		count++
	}
	return count
}

func encodeTilemapRLE(m *Tilemap2D) ([]byte, error) {
	if len(m.Tiles) == 0 {
		return nil, errs.ErrEmpty
	}
	if m.Width > 0xFF || m.Height > 0xFF {
		return nil, fmt.Errorf("%w: rle tilemap %dx%d does not fit a byte header",
			errs.ErrCapacityExceeded, m.Width, m.Height)
	}
	out := []byte{byte(m.Width), byte(m.Height)}

	const attrMask = 0xF800
	for i := 0; i < len(m.Tiles); {
		attrs := uint16(m.Tiles[i]) & attrMask
		count := runLength(m.Tiles, i, rleMaxAttrRun, func(t Tile) bool { return uint16(t)&attrMask == attrs })
		hi := byte(attrs >> 8)
		if count <= rleMaxShortRun {
			out = append(out, hi|0x04|byte(count))
		} else {
			out = append(out, hi|byte(count>>8), byte(count))
		}
		i += count + 1
	}
	out = append(out, 0x00, 0x00)

	index := func(i int) int { return int(m.Tiles[i].Index()) }
	fill := func(v, count int) {
		out = append(out, 0x40|byte(count)<<3|byte(v>>8), byte(v))
	}

	// the first command is always a fill, it seeds both registers
	last := index(0)
	incr := last
	count := runLength(m.Tiles, 0, rleMaxFill, func(t Tile) bool { return int(t.Index()) == last })
	fill(last, count)

	for i := count + 1; i < len(m.Tiles); {
		v := index(i)
		switch {
		case v == last:
			count := runLength(m.Tiles, i, rleMaxRepeat, func(t Tile) bool { return int(t.Index()) == last })
			out = append(out, 0x80|byte(count))
			i += count + 1
		case v == incr+1:
			next := v
			count := runLength(m.Tiles, i, rleMaxRepeat, func(t Tile) bool {
				if int(t.Index()) != next+1 {
					return false
				}
				next++
				return true
			})
			incr = next
			out = append(out, 0xC0|byte(count))
			i += count + 1
		case i+1 < len(m.Tiles) && index(i+1) == v, v == rleEnd:
			count := runLength(m.Tiles, i, rleMaxFill, func(t Tile) bool { return int(t.Index()) == v })
			fill(v, count)
			last = v
			i += count + 1
		default:
			out = append(out, byte(v>>8), byte(v))
			i++
		}
	}
	return append(out, 0x07, 0xFF), nil
}
