package codec

import "fmt"

// Tile word bit layout.
const (
	TilePriority  uint16 = 0x8000
	TilePaletteMk uint16 = 0x6000
	TileVFlip     uint16 = 0x1000
	TileHFlip     uint16 = 0x0800
	TileIndexMask uint16 = 0x07FF
)

// TileAttribute is one of the flag bits of a tile word.
type TileAttribute uint16

const (
	AttrPriority TileAttribute = TileAttribute(TilePriority)
	AttrVFlip    TileAttribute = TileAttribute(TileVFlip)
	AttrHFlip    TileAttribute = TileAttribute(TileHFlip)
)

// Tile is a VDP name-table word: an 11-bit tile index plus attribute bits.
type Tile uint16

// NewTile builds a tile word from its parts. Bits of index beyond 11 are dropped.
func NewTile(index uint16, priority, vflip, hflip bool) Tile {
	t := Tile(index & TileIndexMask)
	t = t.With(AttrPriority, priority)
	t = t.With(AttrVFlip, vflip)
	return t.With(AttrHFlip, hflip)
}

func (t Tile) Index() uint16 { return uint16(t) & TileIndexMask }
func (t Tile) Palette() uint8 { return uint8((uint16(t) & TilePaletteMk) >> 13) }
func (t Tile) Priority() bool { return t.Has(AttrPriority) }
func (t Tile) VFlip() bool { return t.Has(AttrVFlip) }
func (t Tile) HFlip() bool { return t.Has(AttrHFlip) }
func (t Tile) Word() uint16 { return uint16(t) }
func (t Tile) Has(a TileAttribute) bool { return uint16(t)&uint16(a) != 0 }

// With returns t with attribute a set or cleared.
func (t Tile) With(a TileAttribute, on bool) Tile {
	if on {
		return t | Tile(a)
	}
	return t &^ Tile(a)
}

// WithIndex returns t with its tile index replaced.
func (t Tile) WithIndex(index uint16) Tile {
	return Tile(uint16(t)&^TileIndexMask | index&TileIndexMask)
}

func (t Tile) String() string {
	s := fmt.Sprintf("%03X", t.Index())
	if t.Priority() {
		s += "P"
	}
	if t.VFlip() {
		s += "V"
	}
	if t.HFlip() {
		s += "H"
	}
	return s
}
