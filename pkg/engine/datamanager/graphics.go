package datamanager

import (
	"fmt"
	"path"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/asm"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/entry"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

type graphicsDescriptor struct {
	name     string
	kind     codec.Kind
	params   codec.Params
	section  string
	lea      string
	file     string
	optional bool
}

func paletteDescriptor(name string, kind codec.PaletteKind, file string, optional bool) graphicsDescriptor {
	return graphicsDescriptor{
		name:     name,
		kind:     codec.KindPalette,
		params:   codec.Params{Palette: kind},
		section:  name,
		file:     "assets_packed/graphics/palettes/" + file,
		optional: optional,
	}
}

// rleMapDescriptor describes an optional RLE-packed static screen map.
func rleMapDescriptor(name, file string) graphicsDescriptor {
	return graphicsDescriptor{
		name:     name,
		kind:     codec.KindTilemap2D,
		params:   codec.Params{Tilemap2D: codec.Tilemap2DParams{Compression: codec.Tilemap2DRLE}},
		section:  name,
		file:     "assets_packed/graphics/static/" + file,
		optional: true,
	}
}

var graphicsDescriptors = []graphicsDescriptor{
	{
		name:    LabelSystemFont,
		kind:    codec.KindTileset,
		params:  codec.Params{Tileset: codec.TilesetParams{Width: 8, Height: 8, BitDepth: 1}},
		section: LabelSystemFont,
		file:    "assets_packed/graphics/fonts/system_font.bin",
	},
	{
		name:    LabelMenuFont,
		kind:    codec.KindTileset,
		params:  codec.Params{Tileset: codec.TilesetParams{Width: 8, Height: 8, BitDepth: 2, Compressed: true}},
		section: LabelMenuFont,
		file:    "assets_packed/graphics/fonts/menu_font.lz77",
	},
	paletteDescriptor(LabelHudPalette, codec.PaletteHUD, "hud.pal", false),
	paletteDescriptor(LabelLavaPalette, codec.PaletteLava, "lava.pal", true),
	paletteDescriptor(LabelWarpPalette, codec.PaletteWarp, "warp.pal", true),
	paletteDescriptor(LabelSegaLogoPalette, codec.PaletteSegaLogo, "sega_logo.pal", true),
	paletteDescriptor(LabelEndCreditsPalette, codec.PaletteEndCredits, "end_credits.pal", true),
	paletteDescriptor(LabelTitleFadePalette, codec.PaletteTitleBlueFade, "title_fade.pal", true),
	{
		name:    LabelTitleMap,
		kind:    codec.KindTilemap2D,
		params:  codec.Params{Tilemap2D: codec.Tilemap2DParams{Compression: codec.Tilemap2DLZ77}},
		section: LabelTitleMap,
		lea:     LabelTitleMapLea,
		file:    "assets_packed/graphics/title/title_map.lz77",
	},
	rleMapDescriptor(LabelEndCreditsMap, "ending/logos.rle"),
	rleMapDescriptor(LabelLithographMap, "lithograph/lithograph.rle"),
	rleMapDescriptor(LabelClimaxLogoMap, "logos/climax.rle"),
	rleMapDescriptor(LabelLoadGameMap, "loadgame/tilemap.rle"),
}

// GraphicsData holds the fonts, fixed palettes and title map.
type GraphicsData struct {
	Manager
	resources *entry.Catalog[codec.Value]
	descs     map[string]graphicsDescriptor
}

func newGraphicsData(logger hclog.Logger) *GraphicsData {
	g := &GraphicsData{
		Manager:   newManager("graphics", logger),
		resources: entry.NewCatalog[codec.Value](),
		descs:     make(map[string]graphicsDescriptor),
	}
	g.impl = g
	return g
}

// NewGraphicsDataFromRom decodes every graphics resource the image's label
// table describes.
func NewGraphicsDataFromRom(img *rom.Image, logger hclog.Logger) (*GraphicsData, error) {
	g := newGraphicsData(logger)
	stages := make([]stage, 0, len(graphicsDescriptors))
	for _, d := range graphicsDescriptors {
		d := d
		stages = append(stages, stage{name: d.name, run: func() error { return g.loadRom(img, d) }})
	}
	if err := g.load(img.Fingerprint(), stages); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *GraphicsData) loadRom(img *rom.Image, d graphicsDescriptor) error {
	if !img.HasSection(d.section) {
		if d.optional {
			g.logger.Debug("⏭️ skipping absent resource", "name", d.name)
			return nil
		}
		return fmt.Errorf("%w: section %s", errs.ErrLabelNotFound, d.section)
	}
	sec, err := img.Section(d.section)
	if err != nil {
		return err
	}
	begin := sec.Begin
	if d.lea != "" {
		if begin, err = img.ReadOffset16(d.lea); err != nil {
			return err
		}
	}
	v, raw, err := readRom(img, d.kind, d.params, begin, sec.End)
	if err != nil {
		return err
	}
	return g.add(d, v, raw, ptr(begin))
}

// NewGraphicsDataFromAsm loads the graphics index of the project at base.
func NewGraphicsDataFromAsm(base string, logger hclog.Logger) (*GraphicsData, error) {
	g := newGraphicsData(logger)
	var index *asm.File
	stages := []stage{{name: "index", run: func() (err error) {
		index, err = g.openIndex(base, GraphicsDataAsm)
		return err
	}}}
	for _, d := range graphicsDescriptors {
		d := d
		stages = append(stages, stage{name: d.name, run: func() error { return g.loadAsm(base, index, d) }})
	}
	if err := g.load(base, stages); err != nil {
		return nil, err
	}
	g.basePath = base
	return g, nil
}

func (g *GraphicsData) loadAsm(base string, index *asm.File, d graphicsDescriptor) error {
	if !index.LabelExists(d.name) && d.optional {
		g.logger.Debug("⏭️ skipping absent resource", "name", d.name)
		return nil
	}
	file, err := includeAt(index, d.name)
	if err != nil {
		return err
	}
	v, raw, err := readFile(base, file, d.kind, d.params)
	if err != nil {
		return err
	}
	d.file = file
	return g.add(d, v, raw, nil)
}

func (g *GraphicsData) add(d graphicsDescriptor, v codec.Value, raw []byte, start *uint32) error {
	g.descs[d.name] = d
	g.logger.Trace("🖼️ loaded resource", "name", d.name, "kind", d.kind, "bytes", len(raw))
	return g.resources.Add(newResource(entry.Named(d.name), v, raw, d.file, start))
}

// Resources returns every loaded graphics resource in load order.
func (g *GraphicsData) Resources() []*Resource {
	return g.resources.All()
}

func (g *GraphicsData) value(name string, kind codec.Kind) (codec.Value, error) {
	e, err := g.resources.Get(name)
	if err != nil {
		return nil, err
	}
	v := *e.Decoded()
	if v.Kind() != kind {
		return nil, fmt.Errorf("%s is a %s, not a %s", name, v.Kind(), kind)
	}
	return v, nil
}

func (g *GraphicsData) ofKind(kind codec.Kind) []*Resource {
	var out []*Resource
	for _, e := range g.resources.All() {
		if (*e.Decoded()).Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// GetAllTilesets returns the font resources.
func (g *GraphicsData) GetAllTilesets() []*Resource {
	return g.ofKind(codec.KindTileset)
}

// GetAllPalettes returns the fixed palettes.
func (g *GraphicsData) GetAllPalettes() []*Resource {
	return g.ofKind(codec.KindPalette)
}

func (g *GraphicsData) GetTileset(name string) (*codec.Tileset, error) {
	v, err := g.value(name, codec.KindTileset)
	if err != nil {
		return nil, err
	}
	return v.(*codec.Tileset), nil
}

func (g *GraphicsData) GetPalette(name string) (*codec.Palette, error) {
	v, err := g.value(name, codec.KindPalette)
	if err != nil {
		return nil, err
	}
	return v.(*codec.Palette), nil
}

func (g *GraphicsData) GetTilemap(name string) (*codec.Tilemap2D, error) {
	v, err := g.value(name, codec.KindTilemap2D)
	if err != nil {
		return nil, err
	}
	return v.(*codec.Tilemap2D), nil
}

// SetPaletteColour changes entry i of a palette.
func (g *GraphicsData) SetPaletteColour(name string, i int, c codec.Colour) error {
	p, err := g.GetPalette(name)
	if err != nil {
		return err
	}
	return p.SetColour(i, c)
}

// SetTilesetPixel changes one pixel of a font.
func (g *GraphicsData) SetTilesetPixel(name string, tile, x, y int, v uint8) error {
	ts, err := g.GetTileset(name)
	if err != nil {
		return err
	}
	return ts.SetPixel(tile, x, y, v)
}

// SetTilemapTile changes one tile word of a tilemap.
func (g *GraphicsData) SetTilemapTile(name string, x, y int, t codec.Tile) error {
	m, err := g.GetTilemap(name)
	if err != nil {
		return err
	}
	return m.SetTile(x, y, t)
}

func (g *GraphicsData) hasBeenModified() bool {
	return g.resources.AnyChanged()
}

func (g *GraphicsData) commitAllChanges() error {
	return g.resources.CommitAll()
}

func (g *GraphicsData) abandonAllChanges() {
	g.resources.AbandonAll()
}

func (g *GraphicsData) refreshPendingWrites(img *rom.Image, set *patch.Set) error {
	for _, e := range g.resources.All() {
		d := g.descs[e.Name()]
		b, err := e.Bytes()
		if err != nil {
			return err
		}
		set.AddSection(d.section, b)
		if d.lea == "" {
			continue
		}
		sec, err := img.Section(d.section)
		if err != nil {
			return err
		}
		w, err := img.WriteOffset16(d.lea, sec.Begin)
		if err != nil {
			return err
		}
		set.Add(w)
	}
	return nil
}

func (g *GraphicsData) layout() []string {
	files := []string{GraphicsDataAsm}
	for _, e := range g.resources.All() {
		files = append(files, e.Filename())
	}
	return files
}

func (g *GraphicsData) saveFiles(dir string) error {
	w := asm.NewWriter()
	w.WriteFileHeader(GraphicsDataAsm, "Graphics data")
	for _, e := range g.resources.All() {
		if err := e.Save(dir); err != nil {
			return err
		}
		g.logger.Trace("💾 wrote resource", "name", e.Name(), "file", e.Filename())
		w.Label(e.Name())
		w.IncBin(path.Clean(e.Filename()))
		w.NewLine()
	}
	return w.WriteFile(projectPath(dir, GraphicsDataAsm))
}
