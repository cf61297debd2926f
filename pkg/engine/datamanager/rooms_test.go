package datamanager

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func TestRoomParamsPacking(t *testing.T) {
	tests := []struct {
		name string
		room Room
		want []byte
	}{
		{"zero", Room{}, []byte{0x00, 0x00, 0x00, 0x00}},
		{"every field", fixtureRooms[0], []byte{0xA1, 0x41, 0x93, 0xB1}},
		{"maxima", Room{Tileset: 0x1F, PriBlockset: 1, Unknown1: 3, Palette: 0x3F, Unknown2: 3, ZBegin: 0xF, ZEnd: 0xF, BGM: 0x1F, SecBlockset: 7},
			[]byte{0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.room.Params()
			assert.Equal(t, tt.want, got)
			back := roomFromParams(tt.room.Map, got)
			assert.Equal(t, tt.room, back)
		})
	}
}

func TestRoomLookups(t *testing.T) {
	_, g := loadFixture(t)
	r := g.Rooms

	assert.Equal(t, len(fixtureRooms), r.RoomCount())
	assert.Equal(t, fixtureRooms, r.GetRoomList())
	assert.Equal(t, []string{"Map000", "Map001"}, r.MapNames())

	room, index, err := r.GetRoomByName("Room002")
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	assert.Equal(t, fixtureRooms[2], room)
	assert.Equal(t, "Room002", RoomName(2))

	for _, bad := range []string{"Room2", "Kitchen", "Room099"} {
		_, _, err := r.GetRoomByName(bad)
		assert.Error(t, err, bad)
	}

	m, err := r.GetMapForRoom(0)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Width)
	assert.Equal(t, 2, m.Height)

	pal, err := r.GetRoomPalette(0)
	require.NoError(t, err)
	assert.True(t, pal.Equal(fixturePalette(codec.PaletteRoom, 4)))

	byName, err := r.GetPaletteByName(fmt.Sprintf(roomPaletteFormat, fixtureRooms[0].Palette))
	require.NoError(t, err)
	assert.Same(t, pal, byName)
	assert.Len(t, r.PaletteNames(), 2)

	ts, err := r.GetTileset(1)
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Count())
	_, err = r.GetTileset(2)
	assert.ErrorIs(t, err, errs.ErrOutOfRange)
	assert.Equal(t, []string{"Tileset00", "Tileset01"}, r.TilesetNames())
	named, err := r.GetTilesetByName("Tileset01")
	require.NoError(t, err)
	assert.Same(t, ts, named)
	_, err = r.GetTilesetByName("Tileset09")
	assert.ErrorIs(t, err, errs.ErrLabelNotFound)

	bs, err := r.GetBlockset(0)
	require.NoError(t, err)
	assert.Len(t, bs, 3)

	anims := r.GetAnimatedTilesets(0)
	require.Len(t, anims, 1)
	assert.Equal(t, fixtureAnimParams, anims[0].AnimatedParams)
	assert.Equal(t, 2, anims[0].StartTile())
	assert.Equal(t, 2, anims[0].FrameSizeTiles())
	assert.Empty(t, r.GetAnimatedTilesets(1))
}

func TestSetRoomParams(t *testing.T) {
	_, g := loadFixture(t)
	r := g.Rooms

	edit := fixtureRooms[1]
	edit.Map = ""
	edit.BGM = 9
	require.NoError(t, r.SetRoomParams(1, edit))
	got, err := r.GetRoom(1)
	require.NoError(t, err)
	assert.Equal(t, "Map000", got.Map)
	assert.Equal(t, uint8(9), got.BGM)
	assert.True(t, r.HasBeenModified())

	edit.Map = "Map999"
	assert.ErrorIs(t, r.SetRoomParams(1, edit), errs.ErrLabelNotFound)
	assert.ErrorIs(t, r.SetRoomParams(99, edit), errs.ErrOutOfRange)
}

func TestAddAndDeleteRoom(t *testing.T) {
	_, g := loadFixture(t)
	r := g.Rooms

	_, err := r.AddRoom(Room{Map: "Nowhere"})
	assert.ErrorIs(t, err, errs.ErrLabelNotFound)

	i, err := r.AddRoom(Room{Map: "Map001", BGM: 2})
	require.NoError(t, err)
	assert.Equal(t, len(fixtureRooms), i)
	require.NoError(t, r.DeleteRoom(i))
	assert.Equal(t, len(fixtureRooms), r.RoomCount())

	assert.Error(t, r.DeleteRoom(1), "room 1 is used by warps and routes")
	assert.Error(t, r.DeleteRoom(len(fixtureRooms)))

	require.NoError(t, r.DeleteRoom(3))
	assert.Equal(t, len(fixtureRooms)-1, r.RoomCount())
	last, err := r.GetRoom(3)
	require.NoError(t, err)
	assert.Equal(t, fixtureRooms[4], last)

	renumbered := fixtureWarps[2]
	renumbered.Room1 = 3
	assert.Equal(t, []Warp{fixtureWarps[0], fixtureWarps[1], renumbered}, *r.warps.Decoded())
	assert.Equal(t, fixtureFalls, *r.falls.Decoded())
	assert.Equal(t, fixtureClimbs, *r.climbs.Decoded())
}

func TestMapEditInjected(t *testing.T) {
	img, g := loadFixture(t)
	require.NoError(t, g.Rooms.SetHeight("Map001", 1, 1, 7))
	require.NoError(t, g.Rooms.SetCellType("Map001", 2, 0, 0x42))
	assert.Error(t, g.Rooms.SetHeight("Map001", 3, 0, 1))
	assert.Error(t, g.Rooms.SetHeight("Map404", 0, 0, 1))

	require.NoError(t, g.Rooms.RefreshPendingWrites(img))
	out := img.Clone()
	_, err := g.Rooms.InjectIntoRom(out)
	require.NoError(t, err)

	reloaded, err := NewRoomDataFromRom(out, testLogger())
	require.NoError(t, err)
	m, err := reloaded.GetMap("Map001")
	require.NoError(t, err)
	h, err := m.HeightAt(1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint8(7), h)
	ct, err := m.CellType(2, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), ct)
	assert.Equal(t, fixtureRooms, reloaded.GetRoomList())
}
