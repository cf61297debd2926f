package codec

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Kind identifies a resource codec
type Kind uint8

const (
	KindRaw Kind = iota
	KindTileset
	KindPalette
	KindBlockset
	KindTilemap2D
	KindTilemap3D
	KindAnimatedTileset
)

// Params carries the caller-supplied shape of a resource. Each codec reads
// only the field that concerns it.
type Params struct {
	Tileset   TilesetParams
	Palette   PaletteKind
	Tilemap2D Tilemap2DParams
	Animated  AnimatedParams
}

// Value is a decoded resource.
type Value interface {
	Kind() Kind
}

// Raw is an opaque byte resource.
type Raw []byte

func (Raw) Kind() Kind              { return KindRaw }
func (*Tileset) Kind() Kind         { return KindTileset }
func (*Palette) Kind() Kind         { return KindPalette }
func (Blockset) Kind() Kind         { return KindBlockset }
func (*Tilemap2D) Kind() Kind       { return KindTilemap2D }
func (*Tilemap3D) Kind() Kind       { return KindTilemap3D }
func (*AnimatedTileset) Kind() Kind { return KindAnimatedTileset }

// Codec decodes and encodes one resource kind
type Codec interface {
	// Kind returns the resource kind handled
	Kind() Kind

	// Name returns the human-readable name
	Name() string

	// Decode returns the value and the number of input bytes consumed
	Decode(src []byte, params Params) (Value, int, error)

	// Encode serializes a value of this codec's kind
	Encode(v Value) ([]byte, error)
}

// BaseCodec provides common functionality for codecs
type BaseCodec struct {
	CodecKind Kind
	CodecName string
}

func (c *BaseCodec) Kind() Kind {
	return c.CodecKind
}

func (c *BaseCodec) Name() string {
	return c.CodecName
}

func (c *BaseCodec) wrongKind(v Value) error {
	return fmt.Errorf("%s codec cannot encode %T", c.CodecName, v)
}

// Registry maps resource kinds to codecs
var Registry = make(map[Kind]Codec)

// Register registers a codec implementation
func Register(c Codec) {
	Registry[c.Kind()] = c
}

// Get retrieves a codec by kind
func Get(k Kind) (Codec, error) {
	c, exists := Registry[k]
	if !exists {
		return nil, fmt.Errorf("no codec registered for kind %d", k)
	}
	return c, nil
}

func (k Kind) String() string {
	if c, ok := Registry[k]; ok {
		return c.Name()
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Decode looks up the codec for k and decodes src.
func Decode(k Kind, src []byte, params Params) (Value, int, error) {
	c, err := Get(k)
	if err != nil {
		return nil, 0, err
	}
	return c.Decode(src, params)
}

// Encode serializes v with the codec registered for its kind.
func Encode(v Value) ([]byte, error) {
	c, err := Get(v.Kind())
	if err != nil {
		return nil, err
	}
	return c.Encode(v)
}

// Equal compares two decoded values of the same kind.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Raw:
		return string(av) == string(b.(Raw))
	case *Tileset:
		return av.Equal(b.(*Tileset))
	case *Palette:
		return av.Equal(b.(*Palette))
	case Blockset:
		return av.Equal(b.(Blockset))
	case *Tilemap2D:
		return av.Equal(b.(*Tilemap2D))
	case *Tilemap3D:
		return av.Equal(b.(*Tilemap3D))
	case *AnimatedTileset:
		return av.Equal(b.(*AnimatedTileset))
	}
	return false
}

// Clone deep-copies a decoded value.
func Clone(v Value) Value {
	switch tv := v.(type) {
	case Raw:
		return append(Raw(nil), tv...)
	case *Tileset:
		return tv.Clone()
	case *Palette:
		return tv.Clone()
	case Blockset:
		return tv.Clone()
	case *Tilemap2D:
		return tv.Clone()
	case *Tilemap3D:
		return tv.Clone()
	case *AnimatedTileset:
		return tv.Clone()
	}
	return v
}

// RawCodec passes bytes through unchanged
type RawCodec struct{ BaseCodec }

func (c *RawCodec) Decode(src []byte, _ Params) (Value, int, error) {
	if len(src) == 0 {
		return nil, 0, errs.ErrEmpty
	}
	return append(Raw(nil), src...), len(src), nil
}

func (c *RawCodec) Encode(v Value) ([]byte, error) {
	r, ok := v.(Raw)
	if !ok {
		return nil, c.wrongKind(v)
	}
	return append([]byte(nil), r...), nil
}

// TilesetCodec handles packed and LZ77 tilesets
type TilesetCodec struct{ BaseCodec }

func (c *TilesetCodec) Decode(src []byte, p Params) (Value, int, error) {
	ts, n, err := DecodeTileset(src, p.Tileset)
	if err != nil {
		return nil, n, err
	}
	return ts, n, nil
}

func (c *TilesetCodec) Encode(v Value) ([]byte, error) {
	ts, ok := v.(*Tileset)
	if !ok {
		return nil, c.wrongKind(v)
	}
	return EncodeTileset(ts)
}

// PaletteCodec handles a single palette of the kind given in Params
type PaletteCodec struct{ BaseCodec }

func (c *PaletteCodec) Decode(src []byte, p Params) (Value, int, error) {
	pal, err := DecodePalette(src, p.Palette)
	if err != nil {
		return nil, 0, err
	}
	return pal, len(src), nil
}

func (c *PaletteCodec) Encode(v Value) ([]byte, error) {
	pal, ok := v.(*Palette)
	if !ok {
		return nil, c.wrongKind(v)
	}
	return EncodePalette(pal), nil
}

// BlocksetCodec handles compressed blocksets
type BlocksetCodec struct{ BaseCodec }

func (c *BlocksetCodec) Decode(src []byte, _ Params) (Value, int, error) {
	bs, n, err := DecodeBlockset(src)
	if err != nil {
		return nil, n, err
	}
	return bs, n, nil
}

func (c *BlocksetCodec) Encode(v Value) ([]byte, error) {
	bs, ok := v.(Blockset)
	if !ok {
		return nil, c.wrongKind(v)
	}
	return EncodeBlockset(bs)
}

// Tilemap2DCodec handles plain and LZ77 tilemaps
type Tilemap2DCodec struct{ BaseCodec }

func (c *Tilemap2DCodec) Decode(src []byte, p Params) (Value, int, error) {
	m, n, err := DecodeTilemap2D(src, p.Tilemap2D)
	if err != nil {
		return nil, n, err
	}
	return m, n, nil
}

func (c *Tilemap2DCodec) Encode(v Value) ([]byte, error) {
	m, ok := v.(*Tilemap2D)
	if !ok {
		return nil, c.wrongKind(v)
	}
	return EncodeTilemap2D(m)
}

// Tilemap3DCodec handles room maps
type Tilemap3DCodec struct{ BaseCodec }

func (c *Tilemap3DCodec) Decode(src []byte, _ Params) (Value, int, error) {
	m, n, err := DecodeTilemap3D(src)
	if err != nil {
		return nil, n, err
	}
	return m, n, nil
}

func (c *Tilemap3DCodec) Encode(v Value) ([]byte, error) {
	m, ok := v.(*Tilemap3D)
	if !ok {
		return nil, c.wrongKind(v)
	}
	return EncodeTilemap3D(m)
}

// AnimatedTilesetCodec handles animated tileset frame data
type AnimatedTilesetCodec struct{ BaseCodec }

func (c *AnimatedTilesetCodec) Decode(src []byte, p Params) (Value, int, error) {
	a, n, err := DecodeAnimatedTileset(src, p.Animated)
	if err != nil {
		return nil, n, err
	}
	return a, n, nil
}

func (c *AnimatedTilesetCodec) Encode(v Value) ([]byte, error) {
	a, ok := v.(*AnimatedTileset)
	if !ok {
		return nil, c.wrongKind(v)
	}
	return EncodeAnimatedTileset(a)
}

func init() {
	Register(&RawCodec{BaseCodec{KindRaw, "raw"}})
	Register(&TilesetCodec{BaseCodec{KindTileset, "tileset"}})
	Register(&PaletteCodec{BaseCodec{KindPalette, "palette"}})
	Register(&BlocksetCodec{BaseCodec{KindBlockset, "blockset"}})
	Register(&Tilemap2DCodec{BaseCodec{KindTilemap2D, "tilemap2d"}})
	Register(&Tilemap3DCodec{BaseCodec{KindTilemap3D, "tilemap3d"}})
	Register(&AnimatedTilesetCodec{BaseCodec{KindAnimatedTileset, "animated_tileset"}})
}
