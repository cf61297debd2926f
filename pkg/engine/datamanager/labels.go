package datamanager

// ROM label names resolved through the label table.
const (
	// graphics
	LabelSystemFont        = "SystemFont"
	LabelMenuFont          = "MenuFont"
	LabelHudPalette        = "HudPalette"
	LabelLavaPalette       = "LavaPalette"
	LabelWarpPalette       = "WarpPalette"
	LabelSegaLogoPalette   = "SegaLogoPalette"
	LabelEndCreditsPalette = "EndCreditsPalette"
	LabelTitleFadePalette  = "TitleFadePalette"
	LabelTitleMap          = "TitleMap"
	LabelTitleMapLea       = "TitleMapLea"
	LabelEndCreditsMap     = "EndCreditsMap"
	LabelLithographMap     = "LithographMap"
	LabelClimaxLogoMap     = "ClimaxLogoMap"
	LabelLoadGameMap       = "LoadGameMap"

	// rooms
	LabelRoomTable          = "RoomTable"
	LabelMapData            = "MapData"
	LabelRoomPalettes       = "RoomPalettes"
	LabelTilesetPtrTable    = "TilesetPtrTable"
	LabelTilesetData        = "TilesetData"
	LabelBlocksetPtrTable   = "BlocksetPtrTable"
	LabelBlocksetData       = "BlocksetData"
	LabelAnimTilesetTable   = "AnimTilesetTable"
	LabelAnimTilesetData    = "AnimTilesetData"
	LabelRoomExitsPtr       = "RoomExitsPtr"
	LabelFallTableLea       = "FallTableLea"
	LabelClimbTableLea      = "ClimbTableLea"
	LabelTransitionTableLea = "TransitionTableLea"
	LabelWarpSection        = "WarpSection"
	LabelRouteSection       = "RouteSection"

	// strings
	LabelMainFontPtr        = "MainFontPtr"
	LabelStringBankPtrPtr   = "StringBankPtrPtr"
	LabelStringSection      = "StringSection"
	LabelHuffmanSection     = "HuffmanSection"
	LabelHuffmanOffsetsLea  = "HuffmanOffsetsLea"
	LabelHuffmanTablesLea   = "HuffmanTablesLea"
	LabelStringTableSection = "StringTableSection"
	LabelCharNameTableLea   = "CharNameTableLea"
	LabelItemNameTableLea   = "ItemNameTableLea"
	LabelMenuStringTableLea = "MenuStringTableLea"
	LabelRegionCheckStrings = "RegionCheckStrings"
	LabelRegionErrorLine1   = "RegionErrorLine1"
	LabelRegionErrorNTSC    = "RegionErrorNTSC"
	LabelRegionErrorPAL     = "RegionErrorPAL"
	LabelRegionErrorLine3   = "RegionErrorLine3"
)

// Project-relative index files.
const (
	GraphicsDataAsm = "code/graphics/graphics_data.asm"

	RoomListAsm     = "code/rooms/roomlist.asm"
	MapsAsm         = "code/rooms/maps.asm"
	RoomPalettesAsm = "code/rooms/palettes.asm"
	TilesetsAsm     = "code/rooms/tilesets.asm"
	BlocksetsAsm    = "code/rooms/blocksets.asm"
	AnimTilesetsAsm = "code/rooms/animtilesets.asm"
	WarpsAsm        = "code/rooms/warps.asm"

	StringDataAsm   = "code/text/stringdata.asm"
	HuffmanDataAsm  = "code/text/huffmandata.asm"
	StringTablesAsm = "code/text/stringtables.asm"
	RegionCheckAsm  = "code/text/regioncheck.asm"
)
