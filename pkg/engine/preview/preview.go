// Package preview renders tilesets and tilemaps to images for inspection.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
)

// Format is an output image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatBMP Format = "bmp"
)

// ParseFormat accepts png or bmp in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatBMP:
		return f, nil
	}
	return "", fmt.Errorf("unknown image format %q (png, bmp)", s)
}

// Encode writes img to w.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatPNG, "":
		return png.Encode(w, img)
	}
	return fmt.Errorf("unknown image format %q", f)
}

// colours returns one entry per pixel value of a bitDepth-deep tile. The
// palette's colours come first; the rest is a grey ramp.
func colours(pal *codec.Palette, bitDepth int) color.Palette {
	n := 1 << uint(bitDepth)
	out := make(color.Palette, n)
	for i := range out {
		v := uint8(i * 255 / (n - 1))
		out[i] = color.RGBA{R: v, G: v, B: v, A: 0xFF}
	}
	if pal != nil {
		for i, c := range pal.ColorPalette() {
			if i < n {
				out[i] = c
			}
		}
	}
	return out
}

func tileImage(ts *codec.Tileset, i int, pal color.Palette) (*image.Paletted, error) {
	pix, err := ts.Tile(i)
	if err != nil {
		return nil, err
	}
	img := image.NewPaletted(image.Rect(0, 0, ts.Params.Width, ts.Params.Height), pal)
	copy(img.Pix, pix)
	return img, nil
}

// Sheet lays the tiles of ts out left to right, columns tiles per row.
// A nil palette shows pixel values as grey levels.
func Sheet(ts *codec.Tileset, pal *codec.Palette, columns int) (*image.NRGBA, error) {
	if ts.Count() == 0 {
		return nil, fmt.Errorf("tileset has no tiles")
	}
	if columns <= 0 {
		columns = 16
	}
	if columns > ts.Count() {
		columns = ts.Count()
	}
	rows := (ts.Count() + columns - 1) / columns
	w, h := ts.Params.Width, ts.Params.Height
	sheet := image.NewNRGBA(image.Rect(0, 0, columns*w, rows*h))
	cp := colours(pal, ts.Params.BitDepth)

	for i := 0; i < ts.Count(); i++ {
		tile, err := tileImage(ts, i, cp)
		if err != nil {
			return nil, err
		}
		x, y := (i%columns)*w, (i/columns)*h
		draw.Draw(sheet, image.Rect(x, y, x+w, y+h), tile, image.Point{}, draw.Src)
	}
	return sheet, nil
}

// Tilemap draws every cell of m with the referenced tile of ts, honouring
// the flip attributes.
func Tilemap(m *codec.Tilemap2D, ts *codec.Tileset, pal *codec.Palette) (*image.NRGBA, error) {
	w, h := ts.Params.Width, ts.Params.Height
	out := image.NewNRGBA(image.Rect(0, 0, m.Width*w, m.Height*h))
	cp := colours(pal, ts.Params.BitDepth)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			t, err := m.Tile(x, y)
			if err != nil {
				return nil, err
			}
			if int(t.Index()) >= ts.Count() {
				continue
			}
			tile, err := tileImage(ts, int(t.Index()), cp)
			if err != nil {
				return nil, err
			}
			flip(tile, t.HFlip(), t.VFlip())
			draw.Draw(out, image.Rect(x*w, y*h, (x+1)*w, (y+1)*h), tile, image.Point{}, draw.Src)
		}
	}
	return out, nil
}

func flip(img *image.Paletted, h, v bool) {
	b := img.Bounds()
	if h {
		for y := 0; y < b.Dy(); y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()]
			for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
				row[i], row[j] = row[j], row[i]
			}
		}
	}
	if v {
		for i, j := 0, b.Dy()-1; i < j; i, j = i+1, j-1 {
			top := img.Pix[i*img.Stride : i*img.Stride+b.Dx()]
			bottom := img.Pix[j*img.Stride : j*img.Stride+b.Dx()]
			for k := range top {
				top[k], bottom[k] = bottom[k], top[k]
			}
		}
	}
}

// Scale enlarges img by factor with nearest-neighbour sampling so pixel
// edges stay sharp. A factor below 2 returns img unchanged.
func Scale(img image.Image, factor int) image.Image {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	return resize.Resize(uint(b.Dx()*factor), uint(b.Dy()*factor), img, resize.NearestNeighbor)
}
