package codec

import (
	"fmt"
	"slices"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Tilemap2DCompression selects the storage form of a 2D tilemap.
type Tilemap2DCompression uint8

const (
	Tilemap2DNone Tilemap2DCompression = iota
	Tilemap2DLZ77
	Tilemap2DRLE
)

func (c Tilemap2DCompression) String() string {
	switch c {
	case Tilemap2DLZ77:
		return "lz77"
	case Tilemap2DRLE:
		return "rle"
	default:
		return "none"
	}
}

// Extension is the project file extension for the compression.
func (c Tilemap2DCompression) Extension() string {
	switch c {
	case Tilemap2DLZ77:
		return ".lz77"
	case Tilemap2DRLE:
		return ".rle"
	default:
		return ".bin"
	}
}

// Tilemap2DParams carries the dimensions of uncompressed maps, which are
// not stored with the data. RLE maps store their size but not their
// position.
type Tilemap2DParams struct {
	Compression Tilemap2DCompression
	Width       int
	Height      int
	Left        int
	Top         int
}

// Tilemap2D is a rectangular grid of tile words, row-major.
type Tilemap2D struct {
	Compression Tilemap2DCompression
	Left, Top   int
	Width       int
	Height      int
	Tiles       []Tile
}

// NewTilemap2D creates a blank map.
func NewTilemap2D(width, height int, compression Tilemap2DCompression) *Tilemap2D {
	return &Tilemap2D{
		Compression: compression,
		Width:       width,
		Height:      height,
		Tiles:       make([]Tile, width*height),
	}
}

func readWords(src []byte, n int) []Tile {
	out := make([]Tile, n)
	for i := range out {
		out[i] = Tile(uint16(src[i*2])<<8 | uint16(src[i*2+1]))
	}
	return out
}

func appendWords(dst []byte, tiles []Tile) []byte {
	for _, t := range tiles {
		dst = append(dst, byte(t>>8), byte(t))
	}
	return dst
}

// DecodeTilemap2D reads a map and returns it with the number of bytes consumed.
func DecodeTilemap2D(src []byte, params Tilemap2DParams) (*Tilemap2D, int, error) {
	if len(src) == 0 {
		return nil, 0, errs.ErrEmpty
	}
	switch params.Compression {
	case Tilemap2DNone:
		if params.Width <= 0 || params.Height <= 0 {
			if len(src)%2 != 0 {
				return nil, len(src), &errs.SizeMismatchError{Expected: 2, Actual: len(src), Multiple: true}
			}
			params.Width, params.Height = len(src)/2, 1
		}
		want := params.Width * params.Height * 2
		if len(src) < want {
			return nil, len(src), &errs.SizeMismatchError{Expected: want, Actual: len(src)}
		}
		m := &Tilemap2D{
			Compression: Tilemap2DNone,
			Left:        params.Left,
			Top:         params.Top,
			Width:       params.Width,
			Height:      params.Height,
			Tiles:       readWords(src, params.Width*params.Height),
		}
		return m, want, nil

	case Tilemap2DLZ77:
		raw, consumed, err := DecodeLZ77(src)
		if err != nil {
			return nil, consumed, fmt.Errorf("tilemap: %w", err)
		}
		if len(raw) < 4 {
			return nil, consumed, &errs.SizeMismatchError{Expected: 4, Actual: len(raw)}
		}
		w, h := int(raw[2]), int(raw[3])
		if want := 4 + w*h*2; len(raw) != want {
			return nil, consumed, &errs.SizeMismatchError{Expected: want, Actual: len(raw)}
		}
		m := &Tilemap2D{
			Compression: Tilemap2DLZ77,
			Left:        int(raw[0]),
			Top:         int(raw[1]),
			Width:       w,
			Height:      h,
			Tiles:       readWords(raw[4:], w*h),
		}
		return m, consumed, nil

	case Tilemap2DRLE:
		w, h, tiles, consumed, err := decodeTilemapRLE(src)
		if err != nil {
			return nil, consumed, err
		}
		m := &Tilemap2D{
			Compression: Tilemap2DRLE,
			Left:        params.Left,
			Top:         params.Top,
			Width:       w,
			Height:      h,
			Tiles:       tiles,
		}
		return m, consumed, nil
	}
	return nil, 0, fmt.Errorf("unsupported tilemap compression %d", params.Compression)
}

// EncodeTilemap2D writes m in its own compression.
func EncodeTilemap2D(m *Tilemap2D) ([]byte, error) {
	if len(m.Tiles) != m.Width*m.Height {
		return nil, &errs.SizeMismatchError{Expected: m.Width * m.Height, Actual: len(m.Tiles)}
	}
	switch m.Compression {
	case Tilemap2DNone:
		return appendWords(make([]byte, 0, len(m.Tiles)*2), m.Tiles), nil
	case Tilemap2DLZ77:
		if m.Width > 0xFF || m.Height > 0xFF || m.Left > 0xFF || m.Top > 0xFF {
			return nil, fmt.Errorf("%w: tilemap %dx%d at (%d,%d) does not fit a byte header",
				errs.ErrCapacityExceeded, m.Width, m.Height, m.Left, m.Top)
		}
		raw := []byte{byte(m.Left), byte(m.Top), byte(m.Width), byte(m.Height)}
		return EncodeLZ77(appendWords(raw, m.Tiles)), nil
	case Tilemap2DRLE:
		return encodeTilemapRLE(m)
	}
	return nil, fmt.Errorf("unsupported tilemap compression %d", m.Compression)
}

func (m *Tilemap2D) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

func (m *Tilemap2D) Tile(x, y int) (Tile, error) {
	if !m.inBounds(x, y) {
		return 0, fmt.Errorf("%w: tile (%d,%d) of %dx%d", errs.ErrOutOfRange, x, y, m.Width, m.Height)
	}
	return m.Tiles[y*m.Width+x], nil
}

func (m *Tilemap2D) SetTile(x, y int, t Tile) error {
	if !m.inBounds(x, y) {
		return fmt.Errorf("%w: tile (%d,%d) of %dx%d", errs.ErrOutOfRange, x, y, m.Width, m.Height)
	}
	m.Tiles[y*m.Width+x] = t
	return nil
}

// Resize changes the dimensions, keeping the overlapping top-left region.
func (m *Tilemap2D) Resize(width, height int) {
	tiles := make([]Tile, width*height)
	for y := 0; y < height && y < m.Height; y++ {
		for x := 0; x < width && x < m.Width; x++ {
			tiles[y*width+x] = m.Tiles[y*m.Width+x]
		}
	}
	m.Width, m.Height, m.Tiles = width, height, tiles
}

// InsertRow inserts a blank row before row at.
func (m *Tilemap2D) InsertRow(at int) error {
	if at < 0 || at > m.Height {
		return fmt.Errorf("%w: row %d", errs.ErrOutOfRange, at)
	}
	tiles := make([]Tile, 0, (m.Height+1)*m.Width)
	tiles = append(tiles, m.Tiles[:at*m.Width]...)
	tiles = append(tiles, make([]Tile, m.Width)...)
	tiles = append(tiles, m.Tiles[at*m.Width:]...)
	m.Tiles = tiles
	m.Height++
	return nil
}

func (m *Tilemap2D) DeleteRow(at int) error {
	if at < 0 || at >= m.Height {
		return fmt.Errorf("%w: row %d", errs.ErrOutOfRange, at)
	}
	m.Tiles = append(m.Tiles[:at*m.Width], m.Tiles[(at+1)*m.Width:]...)
	m.Height--
	return nil
}

// InsertColumn inserts a blank column before column at.
func (m *Tilemap2D) InsertColumn(at int) error {
	if at < 0 || at > m.Width {
		return fmt.Errorf("%w: column %d", errs.ErrOutOfRange, at)
	}
	tiles := make([]Tile, 0, m.Height*(m.Width+1))
	for y := 0; y < m.Height; y++ {
		row := m.Tiles[y*m.Width : (y+1)*m.Width]
		tiles = append(tiles, row[:at]...)
		tiles = append(tiles, 0)
		tiles = append(tiles, row[at:]...)
	}
	m.Tiles = tiles
	m.Width++
	return nil
}

func (m *Tilemap2D) DeleteColumn(at int) error {
	if at < 0 || at >= m.Width {
		return fmt.Errorf("%w: column %d", errs.ErrOutOfRange, at)
	}
	tiles := make([]Tile, 0, m.Height*(m.Width-1))
	for y := 0; y < m.Height; y++ {
		row := m.Tiles[y*m.Width : (y+1)*m.Width]
		tiles = append(tiles, row[:at]...)
		tiles = append(tiles, row[at+1:]...)
	}
	m.Tiles = tiles
	m.Width--
	return nil
}

func (m *Tilemap2D) Equal(o *Tilemap2D) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Left == o.Left && m.Top == o.Top && m.Width == o.Width && m.Height == o.Height &&
		slices.Equal(m.Tiles, o.Tiles)
}

func (m *Tilemap2D) Clone() *Tilemap2D {
	if m == nil {
		return nil
	}
	c := *m
	c.Tiles = append([]Tile(nil), m.Tiles...)
	return &c
}
