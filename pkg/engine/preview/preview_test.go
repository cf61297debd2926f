package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
)

func testTileset(count int) *codec.Tileset {
	ts := codec.NewTileset(codec.TilesetParams{Width: 8, Height: 8, BitDepth: 4}, count)
	for i, tile := range ts.Tiles {
		for p := range tile {
			tile[p] = uint8(i+1) & 0x0F
		}
	}
	// top left pixel of tile 0 marks orientation
	ts.Tiles[0][0] = 15
	return ts
}

func testPalette() *codec.Palette {
	p := codec.NewPalette(codec.PaletteFull)
	for i := range p.Colours {
		p.Colours[i] = codec.Colour(uint16(i&7)<<1 | uint16(7-i&7)<<9)
	}
	return p
}

func TestSheetLayout(t *testing.T) {
	tests := []struct {
		name    string
		count   int
		columns int
		wantW   int
		wantH   int
	}{
		{"single row", 3, 16, 24, 8},
		{"wraps", 5, 2, 16, 24},
		{"default columns", 40, 0, 128, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Sheet(testTileset(tt.count), nil, tt.columns)
			if err != nil {
				t.Fatalf("Sheet() error = %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("Sheet() = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}

	if _, err := Sheet(codec.NewTileset(codec.DefaultTilesetParams(), 0), nil, 4); err == nil {
		t.Errorf("Sheet() accepted an empty tileset")
	}
}

func TestSheetColours(t *testing.T) {
	ts := testTileset(2)
	pal := testPalette()
	img, err := Sheet(ts, pal, 2)
	if err != nil {
		t.Fatalf("Sheet() error = %v", err)
	}
	want, _ := pal.RGB(2)
	got := color.NRGBAModel.Convert(img.At(9, 1)).(color.NRGBA)
	if got.R != want.R || got.G != want.G || got.B != want.B {
		t.Errorf("pixel of tile 1 = %v, want %v", got, want)
	}

	grey, err := Sheet(ts, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if c := color.GrayModel.Convert(grey.At(0, 0)).(color.Gray); c.Y != 0xFF {
		t.Errorf("grey value 15 = %d, want 255", c.Y)
	}
}

func TestTilemapFlip(t *testing.T) {
	ts := testTileset(1)
	m := codec.NewTilemap2D(2, 1, codec.Tilemap2DCompression(0))
	m.Tiles[0] = codec.NewTile(0, false, false, false)
	m.Tiles[1] = codec.NewTile(0, false, true, true)

	img, err := Tilemap(m, ts, nil)
	if err != nil {
		t.Fatalf("Tilemap() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("Tilemap() = %v", b)
	}
	marker := color.NRGBAModel.Convert(img.At(0, 0))
	if got := color.NRGBAModel.Convert(img.At(15, 7)); got != marker {
		t.Errorf("flipped tile corner = %v, want %v", got, marker)
	}
	if got := color.NRGBAModel.Convert(img.At(8, 0)); got == marker {
		t.Errorf("flipped tile kept the marker in its top left corner")
	}
}

func TestScaleAndEncode(t *testing.T) {
	img, err := Sheet(testTileset(2), testPalette(), 2)
	if err != nil {
		t.Fatal(err)
	}
	big := Scale(img, 3)
	if b := big.Bounds(); b.Dx() != 48 || b.Dy() != 24 {
		t.Errorf("Scale() = %v, want 48x24", b)
	}
	if Scale(img, 1) != image.Image(img) {
		t.Errorf("Scale(1) did not return the input")
	}

	for _, f := range []Format{FormatPNG, FormatBMP} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, big, f); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			var decoded image.Image
			if f == FormatPNG {
				decoded, err = png.Decode(&buf)
			} else {
				decoded, err = bmp.Decode(&buf)
			}
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if decoded.Bounds() != big.Bounds() {
				t.Errorf("decoded bounds = %v, want %v", decoded.Bounds(), big.Bounds())
			}
		})
	}

	if _, err := ParseFormat("GIF"); err == nil {
		t.Errorf("ParseFormat() accepted gif")
	}
	if f, err := ParseFormat("BMP"); err != nil || f != FormatBMP {
		t.Errorf("ParseFormat(BMP) = %v, %v", f, err)
	}
}
