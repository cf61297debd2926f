package datamanager

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/text"
)

const (
	fixtureSize = 0x20000
	codeBase    = 0x8000 // LEA instructions
	pointerBase = 0x8100 // absolute longs
	dataBase    = 0x8200 // must stay within a 16-bit displacement of codeBase
)

var (
	fixtureMainStrings = []string{
		"Hello there.",
		"Welcome to Mercator!",
		"Nigel found the key, and Friday laughed.",
	}
	fixtureCharNames   = []string{"Nigel", "Friday", "Kayla"}
	fixtureItemNames   = []string{"EkeEke", "Magic Sword"}
	fixtureMenuStrings = []string{"Yes", "No", "Save"}
	fixtureSystem      = []string{"DEVELOPED FOR USE ONLY WITH", "NTSC", "PAL", "SYSTEMS."}

	fixtureWarps = []Warp{
		{Room1: 0, Room2: 1, X1: 10, Y1: 12, X2: 20, Y2: 22, XSize: 2, YSize: 1, Type: WarpNormal},
		{Room1: 1, Room2: 2, X1: 5, Y1: 6, X2: 7, Y2: 8, XSize: 3, YSize: 1, Type: WarpStairSE},
		{Room1: 4, Room2: 0, X1: 30, Y1: 31, X2: 32, Y2: 33, XSize: 1, YSize: 2, Type: WarpStairSW},
	}
	fixtureFalls       = Routes{1: 2}
	fixtureClimbs      = Routes{2: 1}
	fixtureTransitions = []Transition{
		{Src: 0, Dst: 2, Flag: 0x123},
		{Src: 1, Dst: 2, Flag: 0x045},
	}
	fixtureRooms = []Room{
		{Map: "Map001", Tileset: 1, PriBlockset: 1, Unknown1: 2, Palette: 1, Unknown2: 1, ZBegin: 3, ZEnd: 9, BGM: 17, SecBlockset: 5},
		{Map: "Map000", Tileset: 0, Palette: 0, ZBegin: 1, ZEnd: 2, BGM: 3},
		{Map: "Map000", Tileset: 1, Palette: 1, ZEnd: 15, BGM: 31, SecBlockset: 7},
		{Map: "Map001", Tileset: 0, Palette: 0, BGM: 1},
		{Map: "Map000", Tileset: 1, Palette: 0, Unknown1: 3, Unknown2: 3},
	}
	fixtureAnimParams = codec.AnimatedParams{Base: 0x40, Length: 32, Speed: 5, Frames: 2, BaseTileset: 0}
)

// romBuilder lays resources out in a blank image and records their labels.
type romBuilder struct {
	t      *testing.T
	data   []byte
	labels *rom.LabelTable
	code   uint32
	ptrs   uint32
	next   uint32
}

func newRomBuilder(t *testing.T) *romBuilder {
	return &romBuilder{
		t:      t,
		data:   make([]byte, fixtureSize),
		labels: rom.NewLabelTable(rom.AnyRegion),
		code:   codeBase,
		ptrs:   pointerBase,
		next:   dataBase,
	}
}

// section places content at the next long-aligned address and reserves
// slack spare bytes after it.
func (b *romBuilder) section(name string, content []byte, slack int) uint32 {
	begin := b.next
	copy(b.data[begin:], content)
	end := begin + uint32(len(content)+slack)
	b.labels.Sections[name] = rom.Section{Begin: begin, End: end}
	b.next = (end + 3) &^ 3
	require.Less(b.t, b.next, uint32(codeBase+0x7FFF), "fixture data overflows the LEA range")
	return begin
}

func (b *romBuilder) lea(name string, target uint32) {
	pc := b.code
	b.code += 4
	d := rom.PCRel16(pc, target)
	copy(b.data[pc:], []byte{0x41, 0xFA, byte(d >> 8), byte(d)})
	b.labels.Addresses[name] = pc
}

func (b *romBuilder) long(name string, v uint32) {
	at := b.ptrs
	b.ptrs += 4
	copy(b.data[at:], be32(v))
	b.labels.Addresses[name] = at
}

func (b *romBuilder) image() *rom.Image {
	img, err := rom.FromBytes(b.data, rom.LabelTables{rom.AnyRegion: b.labels}, testLogger())
	require.NoError(b.t, err)
	return img
}

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: "datamanager_test", Level: hclog.Trace})
}

func patternTileset(t *testing.T, params codec.TilesetParams, count, seed int) *codec.Tileset {
	t.Helper()
	ts := codec.NewTileset(params, count)
	levels := 1 << ts.Params.BitDepth
	for i, px := range ts.Tiles {
		for j := range px {
			px[j] = uint8((j*seed + i*3 + j/8) % levels)
		}
	}
	return ts
}

func encoded(t *testing.T, v codec.Value) []byte {
	t.Helper()
	b, err := codec.Encode(v)
	require.NoError(t, err)
	return b
}

// wordPacked concatenates parts with 0xFF padding to even lengths and
// returns each part's offset.
func wordPacked(parts ...[]byte) ([]byte, []uint32) {
	var out []byte
	offs := make([]uint32, len(parts))
	for i, p := range parts {
		offs[i] = uint32(len(out))
		out = append(out, p...)
		if len(out)%2 != 0 {
			out = append(out, 0xFF)
		}
	}
	return out, offs
}

func fixturePalette(kind codec.PaletteKind, seed uint16) *codec.Palette {
	p := codec.NewPalette(kind)
	for i := range p.Colours {
		if !kind.Locked(i) {
			p.Colours[i] = codec.Colour((seed*0x0222 + uint16(i)*0x0046) & 0x0EEE)
		}
	}
	return p
}

func fixtureMap(w, h int, seed uint16) *codec.Tilemap3D {
	m := codec.NewTilemap3D(w, h)
	m.Left, m.Top = 2, 3
	for i := range m.Foreground {
		m.Foreground[i] = seed + uint16(i)
		m.Background[i] = seed*2 + uint16(i)
		m.Heightmap[i] = codec.NewHeightmapCell(uint8(i%4), uint8(i%16), uint8(seed)+uint8(i))
	}
	return m
}

// buildFixture assembles a small image carrying every resource the
// managers read.
func buildFixture(t *testing.T) *romBuilder {
	t.Helper()
	b := newRomBuilder(t)
	buildGraphics(t, b)
	buildRooms(t, b)
	buildStrings(t, b)
	return b
}

func fixtureImage(t *testing.T) *rom.Image {
	t.Helper()
	return buildFixture(t).image()
}

func buildGraphics(t *testing.T, b *romBuilder) {
	system := patternTileset(t, codec.TilesetParams{Width: 8, Height: 8, BitDepth: 1}, 4, 5)
	b.section(LabelSystemFont, encoded(t, system), 0)

	menu := patternTileset(t, codec.TilesetParams{Width: 8, Height: 8, BitDepth: 2, Compressed: true}, 3, 7)
	b.section(LabelMenuFont, encoded(t, menu), 16)

	b.section(LabelHudPalette, codec.EncodePalette(fixturePalette(codec.PaletteHUD, 1)), 0)
	b.section(LabelLavaPalette, codec.EncodePalette(fixturePalette(codec.PaletteLava, 2)), 0)
	fade := &codec.Palette{Type: codec.PaletteTitleBlueFade, Colours: []codec.Colour{0x0E00, 0x0A00, 0x0600}}
	b.section(LabelTitleFadePalette, codec.EncodePalette(fade), 0)

	title := codec.NewTilemap2D(4, 3, codec.Tilemap2DLZ77)
	for i := range title.Tiles {
		title.Tiles[i] = codec.NewTile(uint16(0x100+i), i%2 == 0, false, i%3 == 0)
	}
	begin := b.section(LabelTitleMap, encoded(t, title), 8)
	b.lea(LabelTitleMapLea, begin)

	b.section(LabelLithographMap, encoded(t, fixtureLithograph()), 6)
}

// fixtureLithograph mixes index runs, increments and single tiles under
// a few attribute runs.
func fixtureLithograph() *codec.Tilemap2D {
	m := codec.NewTilemap2D(8, 3, codec.Tilemap2DRLE)
	indices := []uint16{
		0x100, 0x100, 0x100, 0x101, 0x102, 0x103, 0x100, 0x100,
		0x020, 0x104, 0x105, 0x7FF, 0x033, 0x033, 0x106, 0x100,
		0x100, 0x100, 0x100, 0x100, 0x100, 0x100, 0x100, 0x100,
	}
	for i, v := range indices {
		m.Tiles[i] = codec.NewTile(v, i >= 16, false, i == 9)
	}
	return m
}

func buildRooms(t *testing.T, b *romBuilder) {
	m0, m1 := encoded(t, fixtureMap(2, 2, 1)), encoded(t, fixtureMap(3, 2, 9))
	maps, mapOffs := wordPacked(m0, m1)
	// the room table is read first but points into the map data
	tableAt := b.next
	b.next += uint32(len(fixtureRooms) * roomEntrySize)
	mapBase := b.section(LabelMapData, maps, 12)
	mapAddr := map[string]uint32{"Map000": mapBase + mapOffs[0], "Map001": mapBase + mapOffs[1]}
	var table []byte
	for _, r := range fixtureRooms {
		table = append(table, be32(mapAddr[r.Map])...)
		table = append(table, r.Params()...)
	}
	copy(b.data[tableAt:], table)
	b.labels.Sections[LabelRoomTable] = rom.Section{Begin: tableAt, End: tableAt + uint32(len(table))}

	pals := codec.EncodePaletteArray([]*codec.Palette{fixturePalette(codec.PaletteRoom, 3), fixturePalette(codec.PaletteRoom, 4)})
	b.section(LabelRoomPalettes, pals, 0)

	params := roomTilesetParams.Tileset
	tilesets, tsOffs := wordPacked(
		encoded(t, patternTileset(t, params, 3, 11)),
		encoded(t, patternTileset(t, params, 2, 13)),
	)
	placePointerTable(b, LabelTilesetPtrTable, LabelTilesetData, tilesets, tsOffs)

	blocks := codec.Blockset{
		{codec.NewTile(1, false, false, false), codec.NewTile(2, false, false, false), codec.NewTile(3, true, false, false), codec.NewTile(4, true, false, false)},
		{codec.NewTile(5, false, true, false), codec.NewTile(9, false, false, false), codec.NewTile(1, false, false, true), codec.NewTile(0, false, false, true)},
		{codec.NewTile(1, false, false, false), codec.NewTile(2, false, false, false), codec.NewTile(7, false, false, false), codec.NewTile(7, false, false, false)},
	}
	blocksets, bsOffs := wordPacked(encoded(t, blocks))
	placePointerTable(b, LabelBlocksetPtrTable, LabelBlocksetData, blocksets, bsOffs)

	anim := &codec.AnimatedTileset{AnimatedParams: fixtureAnimParams, Data: patternTileset(t, codec.DefaultTilesetParams(), 4, 3)}
	animData, _ := wordPacked(encoded(t, anim))
	animTableAt := b.next
	b.next += animEntrySize
	animAt := b.section(LabelAnimTilesetData, animData, 0)
	p := fixtureAnimParams
	row := append(be32(animAt), be16(p.Base)...)
	row = append(row, be16(p.Length)...)
	row = append(row, p.BaseTileset, p.Speed, p.Frames, 0)
	copy(b.data[animTableAt:], row)
	b.labels.Sections[LabelAnimTilesetTable] = rom.Section{Begin: animTableAt, End: animTableAt + animEntrySize}

	warps, err := EncodeWarps(fixtureWarps)
	require.NoError(t, err)
	b.long(LabelRoomExitsPtr, b.section(LabelWarpSection, warps, 16))

	falls, err := EncodeRoutes(fixtureFalls)
	require.NoError(t, err)
	climbs, err := EncodeRoutes(fixtureClimbs)
	require.NoError(t, err)
	transitions, err := EncodeTransitions(fixtureTransitions)
	require.NoError(t, err)
	routes := append(append(append([]byte(nil), falls...), climbs...), transitions...)
	begin := b.section(LabelRouteSection, routes, 16)
	b.lea(LabelFallTableLea, begin)
	b.lea(LabelClimbTableLea, begin+uint32(len(falls)))
	b.lea(LabelTransitionTableLea, begin+uint32(len(falls)+len(climbs)))
}

func placePointerTable(b *romBuilder, table, data string, content []byte, offs []uint32) {
	tableAt := b.next
	b.next += uint32(len(offs) * pointerSize)
	base := b.section(data, content, 0)
	var ptrs []byte
	for _, off := range offs {
		ptrs = append(ptrs, be32(base+off)...)
	}
	copy(b.data[tableAt:], ptrs)
	b.labels.Sections[table] = rom.Section{Begin: tableAt, End: tableAt + uint32(len(ptrs))}
}

func buildStrings(t *testing.T, b *romBuilder) {
	cs := text.DefaultEnglish()
	font := make([]byte, 16)
	for i := range font {
		font[i] = byte(0x81 + i*7)
	}
	trees, compressed, err := text.EncodePool(fixtureMainStrings, cs)
	require.NoError(t, err)
	layout := text.LayoutBanks(font, text.SplitBanks(compressed))
	layout.SetBase(b.next)
	begin := b.section(LabelStringSection, layout.Data, 64)
	b.long(LabelMainFontPtr, begin)
	b.long(LabelStringBankPtrPtr, begin+uint32(layout.PointerTable))

	offsets, tables, err := trees.EncodeTrees()
	require.NoError(t, err)
	begin = b.section(LabelHuffmanSection, append(append([]byte(nil), offsets...), tables...), 64)
	b.lea(LabelHuffmanOffsetsLea, begin)
	b.lea(LabelHuffmanTablesLea, begin+uint32(len(offsets)))

	var data []byte
	var starts []uint32
	for _, strs := range [][]string{fixtureCharNames, fixtureItemNames, fixtureMenuStrings} {
		enc, err := text.EncodeLSTable(strs, cs)
		require.NoError(t, err)
		starts = append(starts, uint32(len(data)))
		data = append(data, enc...)
	}
	begin = b.section(LabelStringTableSection, data, 0)
	for i, lea := range []string{LabelCharNameTableLea, LabelItemNameTableLea, LabelMenuStringTableLea} {
		b.lea(lea, begin+starts[i])
	}

	sys, err := EncodeSystemStrings(fixtureSystem)
	require.NoError(t, err)
	addr := b.section(LabelRegionCheckStrings, sys, 0)
	for i, lea := range regionCheckLeas {
		b.lea(lea, addr)
		addr += uint32(len(fixtureSystem[i]) + 1)
	}
}
