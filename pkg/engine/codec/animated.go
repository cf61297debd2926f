package codec

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// AnimatedParams is the table entry that describes an animated tileset.
type AnimatedParams struct {
	Base        uint16 // byte offset into the base tileset of the first replaced tile
	Length      uint16 // frame size in words
	Speed       uint8
	Frames      uint8
	BaseTileset uint8
}

// AnimatedTileset is a 4bpp tileset holding Frames consecutive frames that
// replace tiles of a room tileset in turn.
type AnimatedTileset struct {
	AnimatedParams
	Data *Tileset
}

// DecodeAnimatedTileset reads uncompressed frame data.
func DecodeAnimatedTileset(src []byte, params AnimatedParams) (*AnimatedTileset, int, error) {
	ts, n, err := DecodeTileset(src, DefaultTilesetParams())
	if err != nil {
		return nil, n, fmt.Errorf("animated tileset: %w", err)
	}
	return &AnimatedTileset{AnimatedParams: params, Data: ts}, n, nil
}

func EncodeAnimatedTileset(a *AnimatedTileset) ([]byte, error) {
	return EncodeTileset(a.Data)
}

// StartTile is the index of the first base tile the animation replaces.
func (a *AnimatedTileset) StartTile() int {
	return int(a.Base) / a.Data.Params.TileBytes()
}

// FrameSizeTiles is the number of tiles in one frame.
func (a *AnimatedTileset) FrameSizeTiles() int {
	return 2 * int(a.Length) / a.Data.Params.TileBytes()
}

// SetStartTile stores the base as a byte offset.
func (a *AnimatedTileset) SetStartTile(tile int) {
	a.Base = uint16(tile * a.Data.Params.TileBytes())
}

// FrameTiles returns copies of the tiles of frame f.
func (a *AnimatedTileset) FrameTiles(f int) ([][]uint8, error) {
	n := a.FrameSizeTiles()
	if f < 0 || f >= int(a.Frames) || (f+1)*n > a.Data.Count() {
		return nil, fmt.Errorf("%w: frame %d of %d", errs.ErrOutOfRange, f, a.Frames)
	}
	out := make([][]uint8, n)
	for i := range out {
		out[i] = append([]uint8(nil), a.Data.Tiles[f*n+i]...)
	}
	return out, nil
}

func (a *AnimatedTileset) Equal(o *AnimatedTileset) bool {
	if a == nil || o == nil {
		return a == o
	}
	return a.AnimatedParams == o.AnimatedParams && a.Data.Equal(o.Data)
}

func (a *AnimatedTileset) Clone() *AnimatedTileset {
	if a == nil {
		return nil
	}
	return &AnimatedTileset{AnimatedParams: a.AnimatedParams, Data: a.Data.Clone()}
}
