package datamanager

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/asm"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/entry"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

const (
	roomEntrySize     = 8
	animEntrySize     = 12
	pointerSize       = 4
	roomPaletteFormat = "RoomPalette%02d"
	tilesetFormat     = "Tileset%02d"
	blocksetFormat    = "Blockset%02d"
	animFormat        = "AnimTileset%02d"
	mapFormat         = "Map%03d"
	roomFormat        = "Room%03d"

	roomDataDir = "assets_packed/roomdata/"

	labelWarpList        = "WarpList"
	labelFallTable       = "FallTable"
	labelClimbTable      = "ClimbTable"
	labelTransitionTable = "TransitionTable"
)

var roomTilesetParams = codec.Params{
	Tileset: codec.TilesetParams{Width: 8, Height: 8, BitDepth: 4, Compressed: true},
}

// Room is one entry of the room table. Map names a map of the same
// RoomData; the other fields are the packed parameter bits.
type Room struct {
	Map         string
	Tileset     uint8 // 5 bits
	PriBlockset uint8 // 1 bit
	Unknown1    uint8 // 2 bits
	Palette     uint8 // 6 bits
	Unknown2    uint8 // 2 bits
	ZBegin      uint8 // 4 bits
	ZEnd        uint8 // 4 bits
	BGM         uint8 // 5 bits
	SecBlockset uint8 // 3 bits
}

func roomFromParams(mapName string, p []byte) Room {
	return Room{
		Map:         mapName,
		Tileset:     p[0] & 0x1F,
		PriBlockset: (p[0] >> 5) & 0x01,
		Unknown1:    p[0] >> 6,
		Palette:     p[1] & 0x3F,
		Unknown2:    p[1] >> 6,
		ZBegin:      p[2] & 0x0F,
		ZEnd:        p[2] >> 4,
		BGM:         p[3] & 0x1F,
		SecBlockset: p[3] >> 5,
	}
}

// Params packs the four parameter bytes.
func (r Room) Params() []byte {
	return []byte{
		r.Unknown1<<6 | (r.PriBlockset&0x01)<<5 | r.Tileset&0x1F,
		r.Unknown2<<6 | r.Palette&0x3F,
		r.ZEnd<<4 | r.ZBegin&0x0F,
		r.SecBlockset<<5 | r.BGM&0x1F,
	}
}

// RoomData holds the room table and everything it references.
type RoomData struct {
	Manager

	rooms     *entry.Sequence[Room]
	maps      *entry.Catalog[codec.Value]
	palettes  *entry.Catalog[codec.Value]
	tilesets  *entry.Catalog[codec.Value]
	blocksets *entry.Catalog[codec.Value]
	animated  *entry.Catalog[codec.Value]

	warps       *entry.Entry[[]Warp]
	falls       *entry.Entry[Routes]
	climbs      *entry.Entry[Routes]
	transitions *entry.Entry[[]Transition]
}

func newRoomData(logger hclog.Logger) *RoomData {
	r := &RoomData{
		Manager:   newManager("rooms", logger),
		maps:      entry.NewCatalog[codec.Value](),
		palettes:  entry.NewCatalog[codec.Value](),
		tilesets:  entry.NewCatalog[codec.Value](),
		blocksets: entry.NewCatalog[codec.Value](),
		animated:  entry.NewCatalog[codec.Value](),
	}
	r.impl = r
	return r
}

func warpsEntry(v []Warp, raw []byte, file string) *entry.Entry[[]Warp] {
	return entry.New(entry.Named(labelWarpList), v, raw, entry.Options[[]Warp]{
		Filename: file,
		Equal:    slices.Equal[[]Warp],
		Encode:   EncodeWarps,
		Clone:    slices.Clone[[]Warp],
	})
}

func routesEntry(name string, v Routes, raw []byte, file string) *entry.Entry[Routes] {
	return entry.New(entry.Named(name), v, raw, entry.Options[Routes]{
		Filename: file,
		Equal:    func(a, b Routes) bool { return maps.Equal(a, b) },
		Encode:   EncodeRoutes,
		Clone:    maps.Clone[Routes],
	})
}

func transitionsEntry(v []Transition, raw []byte, file string) *entry.Entry[[]Transition] {
	return entry.New(entry.Named(labelTransitionTable), v, raw, entry.Options[[]Transition]{
		Filename: file,
		Equal:    slices.Equal[[]Transition],
		Encode:   EncodeTransitions,
		Clone:    slices.Clone[[]Transition],
	})
}

func warpFile(name string) string {
	return roomDataDir + "warps/" + name + ".bin"
}

// NewRoomDataFromRom reads the room table, maps, palettes, tilesets,
// blocksets, animated tilesets and warp tables.
func NewRoomDataFromRom(img *rom.Image, logger hclog.Logger) (*RoomData, error) {
	r := newRoomData(logger)
	var ptrs []uint32
	var params [][]byte
	stages := []stage{
		{"room table", func() (err error) {
			ptrs, params, err = readRoomTable(img)
			return err
		}},
		{"maps", func() error { return r.loadRomMaps(img, ptrs, params) }},
		{"palettes", func() error { return r.loadRomPalettes(img) }},
		{"tilesets", func() error {
			return r.loadRomPointerTable(img, r.tilesets, LabelTilesetPtrTable, LabelTilesetData, tilesetFormat, "tilesets", ".lz77", codec.KindTileset, roomTilesetParams)
		}},
		{"blocksets", func() error {
			return r.loadRomPointerTable(img, r.blocksets, LabelBlocksetPtrTable, LabelBlocksetData, blocksetFormat, "blocksets", ".cbs", codec.KindBlockset, codec.Params{})
		}},
		{"animated tilesets", func() error { return r.loadRomAnimated(img) }},
		{"warps", func() error { return r.loadRomWarps(img) }},
	}
	if err := r.load(img.Fingerprint(), stages); err != nil {
		return nil, err
	}
	return r, nil
}

func readRoomTable(img *rom.Image) ([]uint32, [][]byte, error) {
	data, err := img.SectionBytes(LabelRoomTable)
	if err != nil {
		return nil, nil, err
	}
	if len(data)%roomEntrySize != 0 {
		return nil, nil, &errs.SizeMismatchError{Expected: roomEntrySize, Actual: len(data), Multiple: true}
	}
	n := len(data) / roomEntrySize
	ptrs := make([]uint32, n)
	params := make([][]byte, n)
	for i := range ptrs {
		e := data[i*roomEntrySize:]
		ptrs[i] = uint32(e[0])<<24 | uint32(e[1])<<16 | uint32(e[2])<<8 | uint32(e[3])
		params[i] = e[4:8]
	}
	return ptrs, params, nil
}

func (r *RoomData) loadRomMaps(img *rom.Image, ptrs []uint32, params [][]byte) error {
	sec, err := img.Section(LabelMapData)
	if err != nil {
		return err
	}
	unique := slices.Compact(slices.Sorted(slices.Values(ptrs)))
	names := make(map[uint32]string, len(unique))
	for i, p := range unique {
		if !sec.Contains(p) {
			return fmt.Errorf("%w: map pointer %06X outside %s %s", errs.ErrOutOfRange, p, LabelMapData, sec)
		}
		name := fmt.Sprintf(mapFormat, i)
		v, raw, err := readRom(img, codec.KindTilemap3D, codec.Params{}, p, sec.End)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		names[p] = name
		e := newResource(entry.Indexed(name, i), v, raw, roomDataDir+"maps/"+name+".map", ptr(p))
		if err := r.maps.Add(e); err != nil {
			return err
		}
	}
	rooms := make([]Room, len(ptrs))
	for i, p := range ptrs {
		rooms[i] = roomFromParams(names[p], params[i])
	}
	r.rooms = entry.NewSequence(rooms, func(a, b Room) bool { return a == b })
	r.logger.Debug("🗺️ room table read", "rooms", len(rooms), "maps", len(unique))
	return nil
}

func (r *RoomData) loadRomPalettes(img *rom.Image) error {
	sec, err := img.Section(LabelRoomPalettes)
	if err != nil {
		return err
	}
	data, err := img.SectionBytes(LabelRoomPalettes)
	if err != nil {
		return err
	}
	pals, err := codec.DecodePaletteArray(data, codec.PaletteRoom)
	if err != nil {
		return err
	}
	unit := codec.PaletteRoom.Size() * 2
	for i, p := range pals {
		name := fmt.Sprintf(roomPaletteFormat, i)
		raw := data[i*unit : (i+1)*unit]
		e := newResource(entry.Indexed(name, i), p, raw, roomDataDir+"palettes/"+name+".pal", ptr(sec.Begin+uint32(i*unit)))
		if err := r.palettes.Add(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoomData) loadRomPointerTable(img *rom.Image, cat *entry.Catalog[codec.Value], table, data, format, dir, ext string, kind codec.Kind, params codec.Params) error {
	ptrs, err := img.SectionBytes(table)
	if err != nil {
		return err
	}
	if len(ptrs)%pointerSize != 0 {
		return &errs.SizeMismatchError{Expected: pointerSize, Actual: len(ptrs), Multiple: true}
	}
	sec, err := img.Section(data)
	if err != nil {
		return err
	}
	for i := 0; i < len(ptrs)/pointerSize; i++ {
		p := uint32(ptrs[i*4])<<24 | uint32(ptrs[i*4+1])<<16 | uint32(ptrs[i*4+2])<<8 | uint32(ptrs[i*4+3])
		name := fmt.Sprintf(format, i)
		if !sec.Contains(p) {
			return fmt.Errorf("%w: %s pointer %06X outside %s %s", errs.ErrOutOfRange, name, p, data, sec)
		}
		v, raw, err := readRom(img, kind, params, p, sec.End)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		e := newResource(entry.Indexed(name, i), v, raw, roomDataDir+dir+"/"+name+ext, ptr(p))
		if err := cat.Add(e); err != nil {
			return err
		}
	}
	return nil
}

func animatedParams(b []byte) codec.AnimatedParams {
	return codec.AnimatedParams{
		Base:        uint16(b[0])<<8 | uint16(b[1]),
		Length:      uint16(b[2])<<8 | uint16(b[3]),
		BaseTileset: b[4],
		Speed:       b[5],
		Frames:      b[6],
	}
}

func animatedFile(name string) string {
	return roomDataDir + "tilesets/animated/" + name + ".bin"
}

func (r *RoomData) loadRomAnimated(img *rom.Image) error {
	table, err := img.SectionBytes(LabelAnimTilesetTable)
	if err != nil {
		return err
	}
	if len(table)%animEntrySize != 0 {
		return &errs.SizeMismatchError{Expected: animEntrySize, Actual: len(table), Multiple: true}
	}
	sec, err := img.Section(LabelAnimTilesetData)
	if err != nil {
		return err
	}
	for i := 0; i < len(table)/animEntrySize; i++ {
		e := table[i*animEntrySize:]
		p := uint32(e[0])<<24 | uint32(e[1])<<16 | uint32(e[2])<<8 | uint32(e[3])
		params := animatedParams(e[4:])
		name := fmt.Sprintf(animFormat, i)
		size := uint32(params.Frames) * uint32(params.Length) * 2
		if !sec.Contains(p) || p+size > sec.End {
			return fmt.Errorf("%w: %s data %06X+%X outside %s %s", errs.ErrOutOfRange, name, p, size, LabelAnimTilesetData, sec)
		}
		v, raw, err := readRom(img, codec.KindAnimatedTileset, codec.Params{Animated: params}, p, p+size)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := r.animated.Add(newResource(entry.Indexed(name, i), v, raw, animatedFile(name), ptr(p))); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoomData) loadRomWarps(img *rom.Image) error {
	start, err := img.Read32Label(LabelRoomExitsPtr)
	if err != nil {
		return err
	}
	raw, err := readTable(img, start, warpSize, 2)
	if err != nil {
		return err
	}
	warps, err := DecodeWarps(raw)
	if err != nil {
		return err
	}
	r.warps = warpsEntry(warps, raw, warpFile(labelWarpList))

	for _, route := range []struct {
		lea, name string
		dst       **entry.Entry[Routes]
	}{
		{LabelFallTableLea, labelFallTable, &r.falls},
		{LabelClimbTableLea, labelClimbTable, &r.climbs},
	} {
		start, err := img.ReadOffset16(route.lea)
		if err != nil {
			return err
		}
		raw, err := readTable(img, start, routeSize, 2)
		if err != nil {
			return err
		}
		routes, err := DecodeRoutes(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", route.name, err)
		}
		*route.dst = routesEntry(route.name, routes, raw, warpFile(route.name))
	}

	start, err = img.ReadOffset16(LabelTransitionTableLea)
	if err != nil {
		return err
	}
	raw, err = readTable(img, start, transitionSize, 4)
	if err != nil {
		return err
	}
	ts, err := DecodeTransitions(raw)
	if err != nil {
		return err
	}
	r.transitions = transitionsEntry(ts, raw, warpFile(labelTransitionTable))
	r.logger.Debug("🚪 warp tables read", "warps", len(warps), "transitions", len(ts))
	return nil
}

// NewRoomDataFromAsm loads the room index files of the project at base.
func NewRoomDataFromAsm(base string, logger hclog.Logger) (*RoomData, error) {
	r := newRoomData(logger)
	stages := []stage{
		{"maps", func() error { return r.loadAsmLabelled(base, MapsAsm, r.maps, codec.KindTilemap3D, codec.Params{}) }},
		{"room table", func() error { return r.loadAsmRoomTable(base) }},
		{"palettes", func() error {
			return r.loadAsmLabelled(base, RoomPalettesAsm, r.palettes, codec.KindPalette, codec.Params{Palette: codec.PaletteRoom})
		}},
		{"tilesets", func() error {
			return r.loadAsmPointerTable(base, TilesetsAsm, LabelTilesetPtrTable, r.tilesets, codec.KindTileset, roomTilesetParams)
		}},
		{"blocksets", func() error {
			return r.loadAsmPointerTable(base, BlocksetsAsm, LabelBlocksetPtrTable, r.blocksets, codec.KindBlockset, codec.Params{})
		}},
		{"animated tilesets", func() error { return r.loadAsmAnimated(base) }},
		{"warps", func() error { return r.loadAsmWarps(base) }},
	}
	if err := r.load(base, stages); err != nil {
		return nil, err
	}
	r.basePath = base
	return r, nil
}

// loadAsmLabelled reads every label+incbin pair of an index file.
func (r *RoomData) loadAsmLabelled(base, index string, cat *entry.Catalog[codec.Value], kind codec.Kind, params codec.Params) error {
	f, err := r.openIndex(base, index)
	if err != nil {
		return err
	}
	for i, label := range f.Labels() {
		file, err := includeAt(f, label)
		if err != nil {
			return err
		}
		v, raw, err := readFile(base, file, kind, params)
		if err != nil {
			return err
		}
		if err := cat.Add(newResource(entry.Indexed(label, i), v, raw, file, nil)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoomData) loadAsmRoomTable(base string) error {
	f, err := r.openIndex(base, RoomListAsm)
	if err != nil {
		return err
	}
	if err := f.Goto(LabelRoomTable); err != nil {
		return err
	}
	var rooms []Room
	for f.Good() {
		mapName, err := f.ReadSymbol()
		if err != nil {
			return fmt.Errorf("room %d: %w", len(rooms), err)
		}
		if !r.maps.Has(mapName) {
			return fmt.Errorf("%w: room %d uses map %s", errs.ErrLabelNotFound, len(rooms), mapName)
		}
		p, err := f.ReadBytes(4)
		if err != nil {
			return fmt.Errorf("room %d: %w", len(rooms), err)
		}
		rooms = append(rooms, roomFromParams(mapName, p))
	}
	r.rooms = entry.NewSequence(rooms, func(a, b Room) bool { return a == b })
	return nil
}

func (r *RoomData) loadAsmPointerTable(base, index, table string, cat *entry.Catalog[codec.Value], kind codec.Kind, params codec.Params) error {
	f, err := r.openIndex(base, index)
	if err != nil {
		return err
	}
	names, err := readSymbolTable(f, table)
	if err != nil {
		return err
	}
	for i, name := range names {
		file, err := includeAt(f, name)
		if err != nil {
			return err
		}
		v, raw, err := readFile(base, file, kind, params)
		if err != nil {
			return err
		}
		if err := cat.Add(newResource(entry.Indexed(name, i), v, raw, file, nil)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoomData) loadAsmAnimated(base string) error {
	f, err := r.openIndex(base, AnimTilesetsAsm)
	if err != nil {
		return err
	}
	if err := f.Goto(LabelAnimTilesetTable); err != nil {
		return err
	}
	type row struct {
		name   string
		params codec.AnimatedParams
	}
	var rows []row
	for f.Good() && (len(rows) == 0 || !f.IsLabel()) {
		name, err := f.ReadSymbol()
		if err != nil {
			return fmt.Errorf("animated tileset %d: %w", len(rows), err)
		}
		b, err := f.ReadBytes(animEntrySize - pointerSize)
		if err != nil {
			return fmt.Errorf("animated tileset %d: %w", len(rows), err)
		}
		rows = append(rows, row{name, animatedParams(b)})
	}
	for i, row := range rows {
		file, err := includeAt(f, row.name)
		if err != nil {
			return err
		}
		v, raw, err := readFile(base, file, codec.KindAnimatedTileset, codec.Params{Animated: row.params})
		if err != nil {
			return err
		}
		if err := r.animated.Add(newResource(entry.Indexed(row.name, i), v, raw, file, nil)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RoomData) loadAsmWarps(base string) error {
	f, err := r.openIndex(base, WarpsAsm)
	if err != nil {
		return err
	}
	read := func(label string) ([]byte, string, error) {
		file, err := includeAt(f, label)
		if err != nil {
			return nil, "", err
		}
		data, err := readProjectFile(base, file)
		return data, file, err
	}

	raw, file, err := read(labelWarpList)
	if err != nil {
		return err
	}
	warps, err := DecodeWarps(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	r.warps = warpsEntry(warps, raw, file)

	for _, route := range []struct {
		name string
		dst  **entry.Entry[Routes]
	}{
		{labelFallTable, &r.falls},
		{labelClimbTable, &r.climbs},
	} {
		raw, file, err := read(route.name)
		if err != nil {
			return err
		}
		routes, err := DecodeRoutes(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		*route.dst = routesEntry(route.name, routes, raw, file)
	}

	raw, file, err = read(labelTransitionTable)
	if err != nil {
		return err
	}
	ts, err := DecodeTransitions(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	r.transitions = transitionsEntry(ts, raw, file)
	return nil
}

// RoomName returns the display name of the room at index.
func RoomName(index int) string {
	return fmt.Sprintf(roomFormat, index)
}

func (r *RoomData) RoomCount() int {
	return r.rooms.Len()
}

func (r *RoomData) GetRoom(index int) (Room, error) {
	return r.rooms.Get(index)
}

// GetRoomByName resolves a RoomNNN name.
func (r *RoomData) GetRoomByName(name string) (Room, int, error) {
	var index int
	if _, err := fmt.Sscanf(name, roomFormat, &index); err != nil || RoomName(index) != name {
		return Room{}, 0, fmt.Errorf("%w: room %q", errs.ErrLabelNotFound, name)
	}
	room, err := r.rooms.Get(index)
	return room, index, err
}

// GetRoomList returns a copy of the room table.
func (r *RoomData) GetRoomList() []Room {
	return r.rooms.Items()
}

// SetRoomParams replaces the parameters of a room. An empty Map keeps the
// current map.
func (r *RoomData) SetRoomParams(index int, room Room) error {
	cur, err := r.rooms.Get(index)
	if err != nil {
		return err
	}
	if room.Map == "" {
		room.Map = cur.Map
	}
	if !r.maps.Has(room.Map) {
		return fmt.Errorf("%w: map %s", errs.ErrLabelNotFound, room.Map)
	}
	return r.rooms.Set(index, room)
}

// AddRoom appends a room and returns its index.
func (r *RoomData) AddRoom(room Room) (int, error) {
	if !r.maps.Has(room.Map) {
		return 0, fmt.Errorf("%w: map %s", errs.ErrLabelNotFound, room.Map)
	}
	r.rooms.Append(room)
	return r.rooms.Len() - 1, nil
}

// DeleteRoom removes a room that no warp, route or transition uses, and
// renumbers references to the rooms after it.
func (r *RoomData) DeleteRoom(index int) error {
	if _, err := r.rooms.Get(index); err != nil {
		return err
	}
	room := uint16(index)
	if len(r.GetWarpsForRoom(room)) > 0 || len(r.GetAllTransitionsForRoom(room)) > 0 ||
		r.HasFallDestination(room) || r.HasClimbDestination(room) || r.isRouteTarget(room) {
		return fmt.Errorf("room %d is still referenced by the warp tables", index)
	}
	if err := r.rooms.Delete(index); err != nil {
		return err
	}

	shift := func(v uint16) uint16 {
		if v != NoRoom && v > room {
			return v - 1
		}
		return v
	}
	warps := slices.Clone(*r.warps.Decoded())
	for i := range warps {
		warps[i].Room1, warps[i].Room2 = shift(warps[i].Room1), shift(warps[i].Room2)
	}
	r.warps.Set(warps)
	for _, e := range []*entry.Entry[Routes]{r.falls, r.climbs} {
		routes := make(Routes, len(*e.Decoded()))
		for k, v := range *e.Decoded() {
			routes[shift(k)] = shift(v)
		}
		e.Set(routes)
	}
	ts := slices.Clone(*r.transitions.Decoded())
	for i := range ts {
		ts[i].Src, ts[i].Dst = shift(ts[i].Src), shift(ts[i].Dst)
	}
	r.transitions.Set(ts)
	return nil
}

func (r *RoomData) isRouteTarget(room uint16) bool {
	for _, e := range []*entry.Entry[Routes]{r.falls, r.climbs} {
		for _, dst := range *e.Decoded() {
			if dst == room {
				return true
			}
		}
	}
	return false
}

func valueOf[T codec.Value](cat *entry.Catalog[codec.Value], name string) (T, error) {
	var zero T
	e, err := cat.Get(name)
	if err != nil {
		return zero, err
	}
	v, ok := (*e.Decoded()).(T)
	if !ok {
		return zero, fmt.Errorf("%s holds a %s", name, (*e.Decoded()).Kind())
	}
	return v, nil
}

func valueAt[T codec.Value](cat *entry.Catalog[codec.Value], index int) (T, error) {
	var zero T
	e, err := cat.GetIndex(index)
	if err != nil {
		return zero, err
	}
	return valueOf[T](cat, e.Name())
}

func (r *RoomData) GetMap(name string) (*codec.Tilemap3D, error) {
	return valueOf[*codec.Tilemap3D](r.maps, name)
}

func (r *RoomData) GetMapForRoom(index int) (*codec.Tilemap3D, error) {
	room, err := r.rooms.Get(index)
	if err != nil {
		return nil, err
	}
	return r.GetMap(room.Map)
}

// MapNames returns the map names in address order.
func (r *RoomData) MapNames() []string {
	return r.maps.Names()
}

func (r *RoomData) GetRoomPalette(index int) (*codec.Palette, error) {
	room, err := r.rooms.Get(index)
	if err != nil {
		return nil, err
	}
	return valueAt[*codec.Palette](r.palettes, int(room.Palette))
}

func (r *RoomData) GetTileset(index int) (*codec.Tileset, error) {
	return valueAt[*codec.Tileset](r.tilesets, index)
}

// GetTilesetByName looks a room tileset up by its TilesetNN name.
func (r *RoomData) GetTilesetByName(name string) (*codec.Tileset, error) {
	return valueOf[*codec.Tileset](r.tilesets, name)
}

// GetPaletteByName looks a room palette up by its RoomPaletteNN name.
func (r *RoomData) GetPaletteByName(name string) (*codec.Palette, error) {
	return valueOf[*codec.Palette](r.palettes, name)
}

func (r *RoomData) TilesetNames() []string {
	return r.tilesets.Names()
}

func (r *RoomData) PaletteNames() []string {
	return r.palettes.Names()
}

func (r *RoomData) GetBlockset(index int) (codec.Blockset, error) {
	return valueAt[codec.Blockset](r.blocksets, index)
}

// GetAnimatedTilesets returns the animations that replace tiles of the
// given room tileset.
func (r *RoomData) GetAnimatedTilesets(tileset int) []*codec.AnimatedTileset {
	var out []*codec.AnimatedTileset
	for _, e := range r.animated.All() {
		if a, ok := (*e.Decoded()).(*codec.AnimatedTileset); ok && int(a.BaseTileset) == tileset {
			out = append(out, a)
		}
	}
	return out
}

// SetHeight changes the height of one heightmap cell.
func (r *RoomData) SetHeight(mapName string, x, y int, h uint8) error {
	m, err := r.GetMap(mapName)
	if err != nil {
		return err
	}
	return m.SetHeight(x, y, h)
}

// SetCellType changes the type of one heightmap cell.
func (r *RoomData) SetCellType(mapName string, x, y int, t uint8) error {
	m, err := r.GetMap(mapName)
	if err != nil {
		return err
	}
	return m.SetCellType(x, y, t)
}

// GetWarpsForRoom returns the warps with an endpoint in room.
func (r *RoomData) GetWarpsForRoom(room uint16) []Warp {
	var out []Warp
	for _, w := range *r.warps.Decoded() {
		if w.Room1 == room || w.Room2 == room {
			out = append(out, w)
		}
	}
	return out
}

// UpdateWarpsForRoom makes warps the complete set of warps touching room.
// Existing warps are overwritten in place, surplus ones removed and extra
// ones appended. Invalid warps are ignored.
func (r *RoomData) UpdateWarpsForRoom(room uint16, warps []Warp) {
	valid := slices.DeleteFunc(slices.Clone(warps), func(w Warp) bool { return !w.IsValid() })
	cur := *r.warps.Decoded()
	r.warps.Set(replaceMatching(cur, func(w Warp) bool { return w.Room1 == room || w.Room2 == room }, valid))
}

func routeDestination(e *entry.Entry[Routes], room uint16) uint16 {
	if dst, ok := (*e.Decoded())[room]; ok {
		return dst
	}
	return NoRoom
}

func setRoute(e *entry.Entry[Routes], room, dst uint16) {
	routes := maps.Clone(*e.Decoded())
	if dst == NoRoom {
		delete(routes, room)
	} else {
		routes[room] = dst
	}
	e.Set(routes)
}

func (r *RoomData) HasFallDestination(room uint16) bool {
	return routeDestination(r.falls, room) != NoRoom
}

// GetFallDestination returns NoRoom when falling from room leads nowhere.
func (r *RoomData) GetFallDestination(room uint16) uint16 {
	return routeDestination(r.falls, room)
}

// SetFallDestination sets where falling from room leads. NoRoom removes
// the route.
func (r *RoomData) SetFallDestination(room, dst uint16) {
	setRoute(r.falls, room, dst)
}

func (r *RoomData) HasClimbDestination(room uint16) bool {
	return routeDestination(r.climbs, room) != NoRoom
}

func (r *RoomData) GetClimbDestination(room uint16) uint16 {
	return routeDestination(r.climbs, room)
}

func (r *RoomData) SetClimbDestination(room, dst uint16) {
	setRoute(r.climbs, room, dst)
}

// GetAllTransitionsForRoom returns transitions into or out of room.
func (r *RoomData) GetAllTransitionsForRoom(room uint16) []Transition {
	var out []Transition
	for _, t := range *r.transitions.Decoded() {
		if t.Src == room || t.Dst == room {
			out = append(out, t)
		}
	}
	return out
}

func (r *RoomData) GetSrcTransitionsForRoom(room uint16) []Transition {
	var out []Transition
	for _, t := range *r.transitions.Decoded() {
		if t.Src == room {
			out = append(out, t)
		}
	}
	return out
}

// SetSrcTransitionsForRoom makes ts the transitions out of room, reusing
// existing slots first.
func (r *RoomData) SetSrcTransitionsForRoom(room uint16, ts []Transition) {
	cur := *r.transitions.Decoded()
	r.transitions.Set(replaceMatching(cur, func(t Transition) bool { return t.Src == room }, ts))
}

func (r *RoomData) catalogs() []*entry.Catalog[codec.Value] {
	return []*entry.Catalog[codec.Value]{r.maps, r.palettes, r.tilesets, r.blocksets, r.animated}
}

func (r *RoomData) hasBeenModified() bool {
	if r.rooms.HasChanged() {
		return true
	}
	for _, c := range r.catalogs() {
		if c.AnyChanged() {
			return true
		}
	}
	return r.warps.HasDataChanged() || r.falls.HasDataChanged() ||
		r.climbs.HasDataChanged() || r.transitions.HasDataChanged()
}

func (r *RoomData) commitAllChanges() error {
	r.rooms.Commit()
	for _, c := range r.catalogs() {
		if err := c.CommitAll(); err != nil {
			return err
		}
	}
	if err := r.warps.Commit(); err != nil {
		return err
	}
	if err := r.falls.Commit(); err != nil {
		return err
	}
	if err := r.climbs.Commit(); err != nil {
		return err
	}
	return r.transitions.Commit()
}

func (r *RoomData) abandonAllChanges() {
	r.rooms.Abandon()
	for _, c := range r.catalogs() {
		c.AbandonAll()
	}
	r.warps.AbandonChanges()
	r.falls.AbandonChanges()
	r.climbs.AbandonChanges()
	r.transitions.AbandonChanges()
}

// packed lays entries out back to back from base on word boundaries and
// returns the data with each entry's address.
func packed(entries []*Resource, base uint32) ([]byte, map[string]uint32, error) {
	var out []byte
	addrs := make(map[string]uint32, len(entries))
	for _, e := range entries {
		b, err := e.Bytes()
		if err != nil {
			return nil, nil, err
		}
		addrs[e.Name()] = base + uint32(len(out))
		out = append(out, b...)
		if len(out)%2 != 0 {
			out = append(out, 0xFF)
		}
	}
	return out, addrs, nil
}

func (r *RoomData) refreshPendingWrites(img *rom.Image, set *patch.Set) error {
	sec, err := img.Section(LabelMapData)
	if err != nil {
		return err
	}
	mapData, mapAddrs, err := packed(r.maps.All(), sec.Begin)
	if err != nil {
		return err
	}
	var table []byte
	for i, room := range r.rooms.Items() {
		addr, ok := mapAddrs[room.Map]
		if !ok {
			return fmt.Errorf("%w: room %d uses map %s", errs.ErrLabelNotFound, i, room.Map)
		}
		table = append(table, be32(addr)...)
		table = append(table, room.Params()...)
	}
	set.AddSection(LabelRoomTable, table)
	set.AddSection(LabelMapData, mapData)

	var pals []byte
	for _, e := range r.palettes.All() {
		b, err := e.Bytes()
		if err != nil {
			return err
		}
		pals = append(pals, b...)
	}
	set.AddSection(LabelRoomPalettes, pals)

	for _, t := range []struct {
		cat         *entry.Catalog[codec.Value]
		table, data string
	}{
		{r.tilesets, LabelTilesetPtrTable, LabelTilesetData},
		{r.blocksets, LabelBlocksetPtrTable, LabelBlocksetData},
	} {
		sec, err := img.Section(t.data)
		if err != nil {
			return err
		}
		data, addrs, err := packed(t.cat.All(), sec.Begin)
		if err != nil {
			return err
		}
		var ptrs []byte
		for _, e := range t.cat.All() {
			ptrs = append(ptrs, be32(addrs[e.Name()])...)
		}
		set.AddSection(t.table, ptrs)
		set.AddSection(t.data, data)
	}

	if err := r.animatedWrites(img, set); err != nil {
		return err
	}
	return r.warpWrites(img, set)
}

func (r *RoomData) animatedWrites(img *rom.Image, set *patch.Set) error {
	sec, err := img.Section(LabelAnimTilesetData)
	if err != nil {
		return err
	}
	data, addrs, err := packed(r.animated.All(), sec.Begin)
	if err != nil {
		return err
	}
	var table []byte
	for _, e := range r.animated.All() {
		a := (*e.Decoded()).(*codec.AnimatedTileset)
		table = append(table, be32(addrs[e.Name()])...)
		table = append(table, be16(a.Base)...)
		table = append(table, be16(a.Length)...)
		table = append(table, a.BaseTileset, a.Speed, a.Frames, 0)
	}
	set.AddSection(LabelAnimTilesetTable, table)
	set.AddSection(LabelAnimTilesetData, data)
	return nil
}

func (r *RoomData) warpWrites(img *rom.Image, set *patch.Set) error {
	warps, err := r.warps.Bytes()
	if err != nil {
		return err
	}
	sec, err := img.Section(LabelWarpSection)
	if err != nil {
		return err
	}
	set.AddSection(LabelWarpSection, warps)
	set.Add(rom.WriteAddress32(LabelRoomExitsPtr, sec.Begin))

	routes, err := img.Section(LabelRouteSection)
	if err != nil {
		return err
	}
	var data []byte
	for _, t := range []struct {
		lea string
		enc func() ([]byte, error)
	}{
		{LabelFallTableLea, r.falls.Bytes},
		{LabelClimbTableLea, r.climbs.Bytes},
		{LabelTransitionTableLea, r.transitions.Bytes},
	} {
		b, err := t.enc()
		if err != nil {
			return err
		}
		w, err := img.WriteOffset16(t.lea, routes.Begin+uint32(len(data)))
		if err != nil {
			return err
		}
		set.Add(w)
		data = append(data, b...)
	}
	set.AddSection(LabelRouteSection, data)
	return nil
}

func (r *RoomData) layout() []string {
	files := []string{RoomListAsm, MapsAsm, RoomPalettesAsm, TilesetsAsm, BlocksetsAsm, AnimTilesetsAsm, WarpsAsm}
	for _, c := range r.catalogs() {
		for _, e := range c.All() {
			files = append(files, e.Filename())
		}
	}
	return append(files, r.warps.Filename(), r.falls.Filename(), r.climbs.Filename(), r.transitions.Filename())
}

func (r *RoomData) saveFiles(dir string) error {
	for _, c := range r.catalogs() {
		for _, e := range c.All() {
			if err := e.Save(dir); err != nil {
				return err
			}
		}
	}
	if err := r.warps.Save(dir); err != nil {
		return err
	}
	for _, e := range []*entry.Entry[Routes]{r.falls, r.climbs} {
		if err := e.Save(dir); err != nil {
			return err
		}
	}
	if err := r.transitions.Save(dir); err != nil {
		return err
	}

	writers := []struct {
		file  string
		write func(w *asm.Writer)
	}{
		{RoomListAsm, r.writeRoomList},
		{MapsAsm, func(w *asm.Writer) { writeLabelled(w, r.maps.All()) }},
		{RoomPalettesAsm, func(w *asm.Writer) { writeLabelled(w, r.palettes.All()) }},
		{TilesetsAsm, func(w *asm.Writer) { writePointerTable(w, LabelTilesetPtrTable, r.tilesets.All()) }},
		{BlocksetsAsm, func(w *asm.Writer) { writePointerTable(w, LabelBlocksetPtrTable, r.blocksets.All()) }},
		{AnimTilesetsAsm, r.writeAnimated},
		{WarpsAsm, r.writeWarps},
	}
	for _, wr := range writers {
		w := asm.NewWriter()
		w.WriteFileHeader(wr.file, "Room data")
		wr.write(w)
		if err := w.WriteFile(projectPath(dir, wr.file)); err != nil {
			return err
		}
		r.logger.Trace("💾 wrote index", "file", wr.file)
	}
	return nil
}

func (r *RoomData) writeRoomList(w *asm.Writer) {
	w.Label(LabelRoomTable)
	for i, room := range r.rooms.Items() {
		w.Comment(RoomName(i))
		w.DcSymbols(4, room.Map)
		w.DcB(room.Params()...)
	}
}

func writeLabelled(w *asm.Writer, entries []*Resource) {
	for _, e := range entries {
		w.Label(e.Name())
		w.IncBin(e.Filename())
	}
}

func writePointerTable(w *asm.Writer, table string, entries []*Resource) {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	w.Label(table)
	w.DcSymbols(4, names...)
	w.NewLine()
	writeLabelled(w, entries)
}

func (r *RoomData) writeAnimated(w *asm.Writer) {
	entries := r.animated.All()
	w.Label(LabelAnimTilesetTable)
	for _, e := range entries {
		a := (*e.Decoded()).(*codec.AnimatedTileset)
		w.DcSymbols(4, e.Name())
		w.DcW(a.Base, a.Length)
		w.DcB(a.BaseTileset, a.Speed, a.Frames, 0)
	}
	w.NewLine()
	writeLabelled(w, entries)
}

func (r *RoomData) writeWarps(w *asm.Writer) {
	for _, e := range []struct{ label, file string }{
		{labelWarpList, r.warps.Filename()},
		{labelFallTable, r.falls.Filename()},
		{labelClimbTable, r.climbs.Filename()},
		{labelTransitionTable, r.transitions.Filename()},
	} {
		w.Label(e.label)
		w.IncBin(e.file)
	}
}
