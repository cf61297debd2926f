package codec

import (
	"bytes"
	"errors"
	"testing"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func makeTileset(params TilesetParams, count int) *Tileset {
	ts := NewTileset(params, count)
	limit := uint8(1<<uint(ts.Params.BitDepth)) - 1
	for i, tile := range ts.Tiles {
		for p := range tile {
			tile[p] = uint8(i+p) & limit
		}
	}
	return ts
}

func TestTilesetRoundTrip(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name   string
		params TilesetParams
		count  int
	}{
		{"4bpp raw", TilesetParams{BitDepth: 4}, 12},
		{"2bpp lz77", TilesetParams{BitDepth: 2, Compressed: true}, 40},
		{"1bpp raw", TilesetParams{BitDepth: 1}, 96},
		{"4bpp 4x6 blocks", TilesetParams{BitDepth: 4, Blocks: Block4x6}, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := makeTileset(tt.params, tt.count)
			enc, err := EncodeTileset(ts)
			if err != nil {
				t.Fatalf("EncodeTileset() error = %v", err)
			}
			logger.Debug("🧩 encoded tileset", "name", tt.name, "bytes", len(enc))

			dec, consumed, err := DecodeTileset(enc, tt.params)
			if err != nil {
				t.Fatalf("DecodeTileset() error = %v", err)
			}
			if consumed != len(enc) {
				t.Errorf("consumed = %d, want %d", consumed, len(enc))
			}
			if !dec.Equal(ts) {
				t.Errorf("decoded tileset differs from original")
			}

			again, err := EncodeTileset(dec)
			if err != nil {
				t.Fatalf("EncodeTileset() error = %v", err)
			}
			if !bytes.Equal(again, enc) {
				t.Errorf("re-encoded bytes differ")
			}
		})
	}
}

func TestTilesetPixelPacking(t *testing.T) {
	// one 8x8 1bpp tile: first row 10100000, rest zero
	src := make([]byte, 8)
	src[0] = 0xA0
	ts, _, err := DecodeTileset(src, TilesetParams{BitDepth: 1})
	if err != nil {
		t.Fatalf("DecodeTileset() error = %v", err)
	}
	for x, want := range []uint8{1, 0, 1, 0} {
		got, _ := ts.Pixel(0, x, 0)
		if got != want {
			t.Errorf("Pixel(0,%d,0) = %d, want %d", x, got, want)
		}
	}
}

func TestTilesetSizeErrors(t *testing.T) {
	_, _, err := DecodeTileset(nil, DefaultTilesetParams())
	if !errors.Is(err, errs.ErrEmpty) {
		t.Errorf("empty input error = %v, want ErrEmpty", err)
	}

	_, _, err = DecodeTileset(make([]byte, 33), DefaultTilesetParams())
	var sm *errs.SizeMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("error = %v, want SizeMismatchError", err)
	}
	if sm.Expected != 32 || sm.Actual != 33 || !sm.Multiple {
		t.Errorf("SizeMismatchError = %+v", sm)
	}

	_, _, err = DecodeTileset(make([]byte, 32*(MaxTiles+1)), DefaultTilesetParams())
	if !errors.Is(err, errs.ErrCapacityExceeded) {
		t.Errorf("oversized tileset error = %v, want ErrCapacityExceeded", err)
	}
}

func TestTilesetEditing(t *testing.T) {
	ts := makeTileset(DefaultTilesetParams(), 3)
	orig := ts.Clone()

	if err := ts.SetPixel(1, 2, 3, 9); err != nil {
		t.Fatalf("SetPixel() error = %v", err)
	}
	if ts.Equal(orig) {
		t.Errorf("tileset still equal after SetPixel")
	}
	if err := ts.SetPixel(1, 2, 3, 16); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("SetPixel(16) error = %v, want ErrOutOfRange", err)
	}

	if err := ts.InsertTile(0); err != nil {
		t.Fatalf("InsertTile() error = %v", err)
	}
	if ts.Count() != 4 {
		t.Errorf("Count() = %d, want 4", ts.Count())
	}
	if err := ts.DeleteTile(0); err != nil {
		t.Fatalf("DeleteTile() error = %v", err)
	}
	if err := ts.DeleteTile(10); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("DeleteTile(10) error = %v, want ErrOutOfRange", err)
	}
}

func TestTilesetBlockLayout(t *testing.T) {
	params := TilesetParams{Width: 8, Height: 8, BitDepth: 4, Blocks: Block4x6}
	ts := NewTileset(params, 24)
	for i := range ts.Tiles {
		ts.Tiles[i][0] = uint8(i % 16)
	}

	img, w, h, err := ts.Block(0)
	if err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	if w != 32 || h != 48 {
		t.Fatalf("Block() size = %dx%d, want 32x48", w, h)
	}
	// row-major position 1 (second tile of first row) is stored tile 4
	if got := img[8]; got != 4 {
		t.Errorf("tile at (1,0) = %d, want 4", got)
	}
	// position 16 (first tile of fifth row) is stored tile 16
	if got := img[4*8*w]; got != 16%16 {
		t.Errorf("tile at (0,4) = %d, want 0", got)
	}
	// position 17 is stored tile 18
	if got := img[4*8*w+8]; got != 18%16 {
		t.Errorf("tile at (1,4) = %d, want 2", got)
	}

	ts.Params.Blocks = Block2x2
	img, _, _, err = ts.Block(1)
	if err != nil {
		t.Fatalf("Block() error = %v", err)
	}
	// 2x2 blocks are column-major: position 1 is stored tile 2 of the block
	if got := img[8]; got != 6 {
		t.Errorf("2x2 tile at (1,0) = %d, want 6", got)
	}
}
