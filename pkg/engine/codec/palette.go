package codec

import (
	"fmt"
	"image/color"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// PaletteKind selects which of the 16 hardware palette entries a stored
// palette covers.
type PaletteKind uint8

const (
	PaletteFull PaletteKind = iota
	PaletteLow8
	PaletteRoom
	PaletteHUD
	PaletteSpriteLow
	PaletteSpriteHigh
	PaletteSpriteFull
	PaletteProjectile
	PaletteProjectile2
	PaletteSword
	PaletteArmour
	PaletteLava
	PaletteWarp
	PaletteSegaLogo
	PaletteClimaxLogo
	PaletteTitleYellow
	PaletteTitleSingleColour
	PaletteEndCredits
	PaletteTitleBlueFade
)

// PaletteEntries is the size of a hardware palette line.
const PaletteEntries = 16

type paletteLayout struct {
	name     string
	editable uint16 // bit i set when entry i is stored
	variable bool
}

var paletteLayouts = map[PaletteKind]paletteLayout{
	PaletteFull:              {"full", 0xFFFF, false},
	PaletteLow8:              {"low8", 0x00FF, false},
	PaletteRoom:              {"room", 0x7FFC, false},
	PaletteHUD:               {"hud", 0x7C00, false},
	PaletteSpriteLow:         {"sprite_low", 0x00FC, false},
	PaletteSpriteHigh:        {"sprite_high", 0x7F00, false},
	PaletteSpriteFull:        {"sprite_full", 0x7FFC, false},
	PaletteProjectile:        {"projectile", 0x0300, false},
	PaletteProjectile2:       {"projectile2", 0x00F0, false},
	PaletteSword:             {"sword", 0x6000, false},
	PaletteArmour:            {"armour", 0x1800, false},
	PaletteLava:              {"lava", 0x0300, false},
	PaletteWarp:              {"warp", 0x6000, false},
	PaletteSegaLogo:          {"sega_logo", 0x007F, false},
	PaletteClimaxLogo:        {"climax_logo", 0x000F, false},
	PaletteTitleYellow:       {"title_yellow", 0x003E, false},
	PaletteTitleSingleColour: {"title_single_colour", 0x0002, false},
	PaletteEndCredits:        {"end_credits", 0x000F, false},
	PaletteTitleBlueFade:     {"title_blue_fade", 0, true},
}

func (k PaletteKind) String() string {
	if l, ok := paletteLayouts[k]; ok {
		return l.name
	}
	return fmt.Sprintf("palette(%d)", uint8(k))
}

// ParsePaletteKind is the inverse of PaletteKind.String.
func ParsePaletteKind(s string) (PaletteKind, error) {
	for k, l := range paletteLayouts {
		if l.name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown palette kind %q", s)
}

// Size returns the number of stored colours, or -1 for variable width kinds.
func (k PaletteKind) Size() int {
	l := paletteLayouts[k]
	if l.variable {
		return -1
	}
	n := 0
	for i := 0; i < PaletteEntries; i++ {
		if l.editable&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}

func (k PaletteKind) IsVariable() bool { return paletteLayouts[k].variable }

// Locked reports whether entry i is outside the stored range of this kind.
func (k PaletteKind) Locked(i int) bool {
	l := paletteLayouts[k]
	if l.variable {
		return false
	}
	return l.editable&(1<<uint(i)) == 0
}

// Colour is a Genesis colour word, 0000BBB0GGG0RRR0.
type Colour uint16

func (c Colour) R() uint8 { return uint8((c & 0x000E) >> 1) }
func (c Colour) G() uint8 { return uint8((c & 0x00E0) >> 5) }
func (c Colour) B() uint8 { return uint8((c & 0x0E00) >> 9) }

// RGBA expands each 3-bit channel to 8 bits.
func (c Colour) RGBA() color.RGBA {
	return color.RGBA{R: c.R() * 36, G: c.G() * 36, B: c.B() * 36, A: 0xFF}
}

// ColourFromRGB quantises 8-bit channels to the nearest lower Genesis level.
func ColourFromRGB(r, g, b uint8) Colour {
	q := func(v uint8) uint16 {
		n := uint16(v) / 36
		if n > 7 {
			n = 7
		}
		return n
	}
	return Colour(q(b)<<9 | q(g)<<5 | q(r)<<1)
}

// Palette is a 16-entry palette line, or a free-length colour list for
// variable width kinds.
type Palette struct {
	Type    PaletteKind
	Colours []Colour
}

// NewPalette returns a cleared palette of the given kind.
func NewPalette(kind PaletteKind) *Palette {
	p := &Palette{Type: kind}
	if !kind.IsVariable() {
		p.Colours = make([]Colour, PaletteEntries)
		p.Clear()
	}
	return p
}

// Clear resets every entry: index 0 transparent black, index 1 light grey,
// the rest black.
func (p *Palette) Clear() {
	for i := range p.Colours {
		p.Colours[i] = 0x0000
	}
	if len(p.Colours) > 1 {
		p.Colours[1] = 0x0CCC
	}
}

// DecodePalette reads the stored colours of one palette. The input length
// must match the kind exactly.
func DecodePalette(src []byte, kind PaletteKind) (*Palette, error) {
	if len(src) == 0 {
		return nil, errs.ErrEmpty
	}
	p := NewPalette(kind)
	if kind.IsVariable() {
		if len(src) < 2 {
			return nil, &errs.SizeMismatchError{Expected: 2, Actual: len(src)}
		}
		n := int(src[0])<<8 | int(src[1])
		if want := (n + 1) * 2; len(src) != want {
			return nil, &errs.SizeMismatchError{Expected: want, Actual: len(src)}
		}
		p.Colours = make([]Colour, n)
		for i := range p.Colours {
			p.Colours[i] = Colour(uint16(src[2+i*2])<<8 | uint16(src[3+i*2]))
		}
		return p, nil
	}

	if want := kind.Size() * 2; len(src) != want {
		return nil, &errs.SizeMismatchError{Expected: want, Actual: len(src)}
	}
	pos := 0
	for i := 0; i < PaletteEntries; i++ {
		if kind.Locked(i) {
			continue
		}
		p.Colours[i] = Colour(uint16(src[pos])<<8 | uint16(src[pos+1]))
		pos += 2
	}
	return p, nil
}

// DecodePaletteArray splits a contiguous run of same-kind palettes.
func DecodePaletteArray(src []byte, kind PaletteKind) ([]*Palette, error) {
	if kind.IsVariable() {
		return nil, fmt.Errorf("palette kind %s has no fixed size", kind)
	}
	if len(src) == 0 {
		return nil, errs.ErrEmpty
	}
	unit := kind.Size() * 2
	if len(src)%unit != 0 {
		return nil, &errs.SizeMismatchError{Expected: unit, Actual: len(src), Multiple: true}
	}
	pals := make([]*Palette, 0, len(src)/unit)
	for off := 0; off < len(src); off += unit {
		p, err := DecodePalette(src[off:off+unit], kind)
		if err != nil {
			return nil, err
		}
		pals = append(pals, p)
	}
	return pals, nil
}

// EncodePalette writes the stored colours of p.
func EncodePalette(p *Palette) []byte {
	if p.Type.IsVariable() {
		out := make([]byte, 0, (len(p.Colours)+1)*2)
		out = append(out, byte(len(p.Colours)>>8), byte(len(p.Colours)))
		for _, c := range p.Colours {
			out = append(out, byte(c>>8), byte(c))
		}
		return out
	}
	out := make([]byte, 0, p.Type.Size()*2)
	for i, c := range p.Colours {
		if p.Type.Locked(i) {
			continue
		}
		out = append(out, byte(c>>8), byte(c))
	}
	return out
}

// EncodePaletteArray concatenates the stored colours of every palette.
func EncodePaletteArray(pals []*Palette) []byte {
	var out []byte
	for _, p := range pals {
		out = append(out, EncodePalette(p)...)
	}
	return out
}

func (p *Palette) Colour(i int) (Colour, error) {
	if i < 0 || i >= len(p.Colours) {
		return 0, fmt.Errorf("%w: palette entry %d", errs.ErrOutOfRange, i)
	}
	return p.Colours[i], nil
}

// SetColour replaces entry i. Entries outside the kind's stored range are
// locked.
func (p *Palette) SetColour(i int, c Colour) error {
	if i < 0 || i >= len(p.Colours) {
		return fmt.Errorf("%w: palette entry %d", errs.ErrOutOfRange, i)
	}
	if p.Type.Locked(i) {
		return fmt.Errorf("palette entry %d is locked for kind %s", i, p.Type)
	}
	p.Colours[i] = c & 0x0EEE
	return nil
}

// RGB returns entry i as 8-bit channels. Entry 0 of a fixed palette is
// transparent.
func (p *Palette) RGB(i int) (color.RGBA, error) {
	c, err := p.Colour(i)
	if err != nil {
		return color.RGBA{}, err
	}
	rgba := c.RGBA()
	if i == 0 && !p.Type.IsVariable() {
		rgba = color.RGBA{}
	}
	return rgba, nil
}

// ColorPalette converts p for use with the image package.
func (p *Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p.Colours))
	for i := range p.Colours {
		out[i], _ = p.RGB(i)
	}
	return out
}

func (p *Palette) Equal(o *Palette) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Type != o.Type || len(p.Colours) != len(o.Colours) {
		return false
	}
	for i := range p.Colours {
		if p.Colours[i] != o.Colours[i] {
			return false
		}
	}
	return true
}

func (p *Palette) Clone() *Palette {
	if p == nil {
		return nil
	}
	return &Palette{Type: p.Type, Colours: append([]Colour(nil), p.Colours...)}
}
