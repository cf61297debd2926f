package codec

import (
	"bytes"
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// MaxTiles is the largest number of tiles a tileset may hold.
const MaxTiles = 0x400

// BlockType describes how consecutive tiles group into larger blocks.
type BlockType uint8

const (
	BlockNormal BlockType = iota
	Block1x2
	Block2x1
	Block2x2
	Block3x3
	Block4x4
	Block4x6
)

var blockDimensions = map[BlockType][2]int{
	BlockNormal: {1, 1},
	Block1x2:    {1, 2},
	Block2x1:    {2, 1},
	Block2x2:    {2, 2},
	Block3x3:    {3, 3},
	Block4x4:    {4, 4},
	Block4x6:    {4, 6},
}

// 4x6 blocks are stored as a 4x4 block followed by a 4x2 block, each
// column-major. Entry i gives the stored tile drawn at row-major position i.
var transpose4x6 = [24]int{0, 4, 8, 12, 1, 5, 9, 13, 2, 6, 10, 14, 3, 7, 11, 15, 16, 18, 20, 22, 17, 19, 21, 23}

// Dimensions returns the block width and height in tiles.
func (b BlockType) Dimensions() (w, h int) {
	d, ok := blockDimensions[b]
	if !ok {
		return 1, 1
	}
	return d[0], d[1]
}

func (b BlockType) String() string {
	switch b {
	case BlockNormal:
		return "normal"
	case Block4x6:
		return "4x6"
	}
	w, h := b.Dimensions()
	return fmt.Sprintf("%dx%d", w, h)
}

// TilesetParams carries the shape of a tileset, which the stored bytes do not.
type TilesetParams struct {
	Width      int // pixels per tile row
	Height     int // pixels per tile column
	BitDepth   int // 1, 2 or 4
	Compressed bool
	Blocks     BlockType
}

// DefaultTilesetParams returns 8x8 4bpp uncompressed tiles.
func DefaultTilesetParams() TilesetParams {
	return TilesetParams{Width: 8, Height: 8, BitDepth: 4}
}

func (p TilesetParams) normalised() TilesetParams {
	if p.Width == 0 {
		p.Width = 8
	}
	if p.Height == 0 {
		p.Height = 8
	}
	if p.BitDepth == 0 {
		p.BitDepth = 4
	}
	return p
}

// TileBytes returns the packed size of one tile.
func (p TilesetParams) TileBytes() int {
	p = p.normalised()
	return p.Width * p.Height * p.BitDepth / 8
}

func (p TilesetParams) validate() error {
	switch p.BitDepth {
	case 1, 2, 4:
	default:
		return fmt.Errorf("unsupported bit depth %d", p.BitDepth)
	}
	if (p.Width*p.BitDepth)%8 != 0 {
		return fmt.Errorf("tile width %d does not pack into whole bytes at %d bpp", p.Width, p.BitDepth)
	}
	return nil
}

// Tileset is a list of tiles, each a row-major slice of palette indices.
type Tileset struct {
	Params TilesetParams
	Tiles  [][]uint8
}

// NewTileset creates a tileset of count blank tiles.
func NewTileset(params TilesetParams, count int) *Tileset {
	params = params.normalised()
	ts := &Tileset{Params: params, Tiles: make([][]uint8, count)}
	for i := range ts.Tiles {
		ts.Tiles[i] = make([]uint8, params.Width*params.Height)
	}
	return ts
}

// DecodeTileset unpacks src according to params and returns the tileset and
// the number of input bytes consumed.
func DecodeTileset(src []byte, params TilesetParams) (*Tileset, int, error) {
	params = params.normalised()
	if err := params.validate(); err != nil {
		return nil, 0, err
	}
	if len(src) == 0 {
		return nil, 0, errs.ErrEmpty
	}

	raw := src
	consumed := len(src)
	if params.Compressed {
		var err error
		raw, consumed, err = DecodeLZ77(src)
		if err != nil {
			return nil, consumed, fmt.Errorf("tileset: %w", err)
		}
	}

	unit := params.TileBytes()
	if len(raw)%unit != 0 {
		return nil, consumed, &errs.SizeMismatchError{Expected: unit, Actual: len(raw), Multiple: true}
	}
	count := len(raw) / unit
	if count > MaxTiles {
		return nil, consumed, fmt.Errorf("%w: %d tiles, maximum is %d", errs.ErrCapacityExceeded, count, MaxTiles)
	}

	ts := NewTileset(params, count)
	perByte := 8 / params.BitDepth
	mask := uint8(0xFF >> (8 - params.BitDepth))
	for t := range ts.Tiles {
		chunk := raw[t*unit : (t+1)*unit]
		px := ts.Tiles[t]
		for i, b := range chunk {
			for p := 0; p < perByte; p++ {
				shift := uint(8 - params.BitDepth*(p+1))
				px[i*perByte+p] = (b >> shift) & mask
			}
		}
	}
	return ts, consumed, nil
}

// EncodeTileset packs the tileset, compressing it when its params ask for it.
func EncodeTileset(ts *Tileset) ([]byte, error) {
	p := ts.Params.normalised()
	if err := p.validate(); err != nil {
		return nil, err
	}
	if len(ts.Tiles) > MaxTiles {
		return nil, fmt.Errorf("%w: %d tiles, maximum is %d", errs.ErrCapacityExceeded, len(ts.Tiles), MaxTiles)
	}

	out := make([]byte, 0, len(ts.Tiles)*p.TileBytes())
	mask := uint8(0xFF >> (8 - p.BitDepth))
	for i, px := range ts.Tiles {
		if len(px) != p.Width*p.Height {
			return nil, fmt.Errorf("tile %d has %d pixels, want %d", i, len(px), p.Width*p.Height)
		}
		var cur uint8
		bits := 0
		for _, v := range px {
			cur = cur<<uint(p.BitDepth) | v&mask
			bits += p.BitDepth
			if bits == 8 {
				out = append(out, cur)
				cur, bits = 0, 0
			}
		}
	}
	if p.Compressed {
		return EncodeLZ77(out), nil
	}
	return out, nil
}

func (ts *Tileset) Count() int { return len(ts.Tiles) }

// Tile returns a copy of the pixels of tile i.
func (ts *Tileset) Tile(i int) ([]uint8, error) {
	if i < 0 || i >= len(ts.Tiles) {
		return nil, fmt.Errorf("%w: tile %d of %d", errs.ErrOutOfRange, i, len(ts.Tiles))
	}
	return append([]uint8(nil), ts.Tiles[i]...), nil
}

func (ts *Tileset) Pixel(tile, x, y int) (uint8, error) {
	if err := ts.checkPixel(tile, x, y); err != nil {
		return 0, err
	}
	return ts.Tiles[tile][y*ts.Params.Width+x], nil
}

func (ts *Tileset) SetPixel(tile, x, y int, v uint8) error {
	if err := ts.checkPixel(tile, x, y); err != nil {
		return err
	}
	if int(v) >= 1<<uint(ts.Params.BitDepth) {
		return fmt.Errorf("%w: colour %d at %d bpp", errs.ErrOutOfRange, v, ts.Params.BitDepth)
	}
	ts.Tiles[tile][y*ts.Params.Width+x] = v
	return nil
}

func (ts *Tileset) checkPixel(tile, x, y int) error {
	if tile < 0 || tile >= len(ts.Tiles) {
		return fmt.Errorf("%w: tile %d of %d", errs.ErrOutOfRange, tile, len(ts.Tiles))
	}
	if x < 0 || y < 0 || x >= ts.Params.Width || y >= ts.Params.Height {
		return fmt.Errorf("%w: pixel (%d,%d)", errs.ErrOutOfRange, x, y)
	}
	return nil
}

// InsertTile inserts a blank tile before position at.
func (ts *Tileset) InsertTile(at int) error {
	if at < 0 || at > len(ts.Tiles) {
		return fmt.Errorf("%w: insert at %d of %d", errs.ErrOutOfRange, at, len(ts.Tiles))
	}
	if len(ts.Tiles) >= MaxTiles {
		return fmt.Errorf("%w: tileset already holds %d tiles", errs.ErrCapacityExceeded, MaxTiles)
	}
	blank := make([]uint8, ts.Params.Width*ts.Params.Height)
	ts.Tiles = append(ts.Tiles, nil)
	copy(ts.Tiles[at+1:], ts.Tiles[at:])
	ts.Tiles[at] = blank
	return nil
}

func (ts *Tileset) DeleteTile(at int) error {
	if at < 0 || at >= len(ts.Tiles) {
		return fmt.Errorf("%w: delete %d of %d", errs.ErrOutOfRange, at, len(ts.Tiles))
	}
	ts.Tiles = append(ts.Tiles[:at], ts.Tiles[at+1:]...)
	return nil
}

// BlockCount returns the number of whole blocks in the tileset.
func (ts *Tileset) BlockCount() int {
	w, h := ts.Params.Blocks.Dimensions()
	return len(ts.Tiles) / (w * h)
}

// Block returns the pixels of block n as a single row-major image of
// (blockW*tileW) x (blockH*tileH) pixels.
func (ts *Tileset) Block(n int) ([]uint8, int, int, error) {
	bw, bh := ts.Params.Blocks.Dimensions()
	area := bw * bh
	if n < 0 || (n+1)*area > len(ts.Tiles) {
		return nil, 0, 0, fmt.Errorf("%w: block %d of %d", errs.ErrOutOfRange, n, ts.BlockCount())
	}
	tw, th := ts.Params.Width, ts.Params.Height
	width, height := bw*tw, bh*th
	img := make([]uint8, width*height)
	for pos := 0; pos < area; pos++ {
		col, row := pos%bw, pos/bw
		stored := col*bh + row
		if ts.Params.Blocks == Block4x6 {
			stored = transpose4x6[pos]
		}
		tile := ts.Tiles[n*area+stored]
		for y := 0; y < th; y++ {
			copy(img[(row*th+y)*width+col*tw:], tile[y*tw:(y+1)*tw])
		}
	}
	return img, width, height, nil
}

// Equal compares shape and pixels. Compression and block layout are storage
// details and are not compared.
func (ts *Tileset) Equal(o *Tileset) bool {
	if ts == nil || o == nil {
		return ts == o
	}
	a, b := ts.Params.normalised(), o.Params.normalised()
	if a.BitDepth != b.BitDepth || a.Width != b.Width || a.Height != b.Height || len(ts.Tiles) != len(o.Tiles) {
		return false
	}
	for i := range ts.Tiles {
		if !bytes.Equal(ts.Tiles[i], o.Tiles[i]) {
			return false
		}
	}
	return true
}

func (ts *Tileset) Clone() *Tileset {
	if ts == nil {
		return nil
	}
	c := &Tileset{Params: ts.Params, Tiles: make([][]uint8, len(ts.Tiles))}
	for i, t := range ts.Tiles {
		c.Tiles[i] = append([]uint8(nil), t...)
	}
	return c
}
