package codec

import (
	"fmt"
	"slices"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Layer selects one of the two block layers of a room map.
type Layer uint8

const (
	LayerForeground Layer = iota
	LayerBackground
)

func (l Layer) String() string {
	if l == LayerBackground {
		return "background"
	}
	return "foreground"
}

// HeightmapCell is one heightmap word: restrictions in bits 12-15, height
// in bits 8-11 and the cell type in bits 0-7.
type HeightmapCell uint16

func (c HeightmapCell) Restrictions() uint8 { return uint8(c >> 12) }
func (c HeightmapCell) Height() uint8 { return uint8(c>>8) & 0x0F }
func (c HeightmapCell) CellType() uint8 { return uint8(c) }

func NewHeightmapCell(restrictions, height, cellType uint8) HeightmapCell {
	return HeightmapCell(uint16(restrictions&0x0F)<<12 | uint16(height&0x0F)<<8 | uint16(cellType))
}

// Tilemap3D is a room map: two layers of block indices and a heightmap
// with its own extent.
type Tilemap3D struct {
	Left, Top         int
	Width, Height     int
	HMWidth, HMHeight int

	Foreground []uint16
	Background []uint16
	Heightmap  []HeightmapCell
}

// NewTilemap3D creates a blank map with a heightmap of the same extent.
func NewTilemap3D(width, height int) *Tilemap3D {
	return &Tilemap3D{
		Width:      width,
		Height:     height,
		HMWidth:    width,
		HMHeight:   height,
		Foreground: make([]uint16, width*height),
		Background: make([]uint16, width*height),
		Heightmap:  make([]HeightmapCell, width*height),
	}
}

func (m *Tilemap3D) layer(l Layer) []uint16 {
	if l == LayerBackground {
		return m.Background
	}
	return m.Foreground
}

func (m *Tilemap3D) blockIndex(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return 0, fmt.Errorf("%w: block (%d,%d) of %dx%d", errs.ErrOutOfRange, x, y, m.Width, m.Height)
	}
	return y*m.Width + x, nil
}

func (m *Tilemap3D) cellIndex(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= m.HMWidth || y >= m.HMHeight {
		return 0, fmt.Errorf("%w: heightmap cell (%d,%d) of %dx%d", errs.ErrOutOfRange, x, y, m.HMWidth, m.HMHeight)
	}
	return y*m.HMWidth + x, nil
}

func (m *Tilemap3D) Block(l Layer, x, y int) (uint16, error) {
	i, err := m.blockIndex(x, y)
	if err != nil {
		return 0, err
	}
	return m.layer(l)[i], nil
}

func (m *Tilemap3D) SetBlock(l Layer, x, y int, block uint16) error {
	i, err := m.blockIndex(x, y)
	if err != nil {
		return err
	}
	m.layer(l)[i] = block
	return nil
}

func (m *Tilemap3D) Cell(x, y int) (HeightmapCell, error) {
	i, err := m.cellIndex(x, y)
	if err != nil {
		return 0, err
	}
	return m.Heightmap[i], nil
}

func (m *Tilemap3D) updateCell(x, y int, fn func(HeightmapCell) HeightmapCell) error {
	i, err := m.cellIndex(x, y)
	if err != nil {
		return err
	}
	m.Heightmap[i] = fn(m.Heightmap[i])
	return nil
}

func (m *Tilemap3D) HeightAt(x, y int) (uint8, error) {
	c, err := m.Cell(x, y)
	return c.Height(), err
}

func (m *Tilemap3D) SetHeight(x, y int, h uint8) error {
	if h > 0x0F {
		return fmt.Errorf("%w: height %d", errs.ErrOutOfRange, h)
	}
	return m.updateCell(x, y, func(c HeightmapCell) HeightmapCell {
		return NewHeightmapCell(c.Restrictions(), h, c.CellType())
	})
}

func (m *Tilemap3D) CellType(x, y int) (uint8, error) {
	c, err := m.Cell(x, y)
	return c.CellType(), err
}

func (m *Tilemap3D) SetCellType(x, y int, t uint8) error {
	return m.updateCell(x, y, func(c HeightmapCell) HeightmapCell {
		return NewHeightmapCell(c.Restrictions(), c.Height(), t)
	})
}

func (m *Tilemap3D) Restrictions(x, y int) (uint8, error) {
	c, err := m.Cell(x, y)
	return c.Restrictions(), err
}

func (m *Tilemap3D) SetRestrictions(x, y int, r uint8) error {
	if r > 0x0F {
		return fmt.Errorf("%w: restrictions %d", errs.ErrOutOfRange, r)
	}
	return m.updateCell(x, y, func(c HeightmapCell) HeightmapCell {
		return NewHeightmapCell(r, c.Height(), c.CellType())
	})
}

func (m *Tilemap3D) Equal(o *Tilemap3D) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.Left != o.Left || m.Top != o.Top || m.Width != o.Width || m.Height != o.Height ||
		m.HMWidth != o.HMWidth || m.HMHeight != o.HMHeight {
		return false
	}
	return slices.Equal(m.Foreground, o.Foreground) &&
		slices.Equal(m.Background, o.Background) &&
		slices.Equal(m.Heightmap, o.Heightmap)
}

func (m *Tilemap3D) Clone() *Tilemap3D {
	if m == nil {
		return nil
	}
	c := *m
	c.Foreground = append([]uint16(nil), m.Foreground...)
	c.Background = append([]uint16(nil), m.Background...)
	c.Heightmap = append([]HeightmapCell(nil), m.Heightmap...)
	return &c
}
