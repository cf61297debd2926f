package datamanager

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/asm"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/entry"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/text"
)

// StringType selects one of the string collections.
type StringType int

const (
	StringMain StringType = iota
	StringCharacterName
	StringItemName
	StringMenu
	StringSystem
)

func (t StringType) String() string {
	switch t {
	case StringMain:
		return "main"
	case StringCharacterName:
		return "character_name"
	case StringItemName:
		return "item_name"
	case StringMenu:
		return "menu"
	case StringSystem:
		return "system"
	default:
		return fmt.Sprintf("string_type(%d)", int(t))
	}
}

// StringTypes lists every string collection.
var StringTypes = []StringType{StringMain, StringCharacterName, StringItemName, StringMenu, StringSystem}

// ParseStringType accepts the names String returns.
func ParseStringType(s string) (StringType, error) {
	for _, t := range StringTypes {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown string type %q", s)
}

const (
	labelMainFont           = "MainFont"
	labelStringBankPtrTable = "StringBankPtrTable"
	labelHuffmanOffsets     = "HuffmanOffsets"
	labelHuffmanTables      = "HuffmanTables"
	labelCharacterNames     = "CharacterNames"
	labelItemNames          = "ItemNames"
	labelMenuStrings        = "MenuStrings"
	stringBankFormat        = "StringBank%02d"

	textDir = "assets_packed/text/"

	mainFontFile       = textDir + "font/main_font.bin"
	huffmanOffsetsFile = textDir + "huffman/offsets.bin"
	huffmanTablesFile  = textDir + "huffman/tables.bin"
	regionCheckFile    = textDir + "region_check.bin"
)

type stringTable struct {
	typ   StringType
	label string
	lea   string
	file  string
}

var stringTables = []stringTable{
	{StringCharacterName, labelCharacterNames, LabelCharNameTableLea, textDir + "tables/character_names.bin"},
	{StringItemName, labelItemNames, LabelItemNameTableLea, textDir + "tables/item_names.bin"},
	{StringMenu, labelMenuStrings, LabelMenuStringTableLea, textDir + "tables/menu_strings.bin"},
}

var regionCheckLeas = []string{LabelRegionErrorLine1, LabelRegionErrorNTSC, LabelRegionErrorPAL, LabelRegionErrorLine3}

// StringData holds the compressed main string pool, its font and Huffman
// trees, the plain string tables and the optional region check text.
type StringData struct {
	Manager
	charset *text.Charset

	font    *Resource
	strings *entry.Sequence[string]
	tables  *entry.Catalog[[]string]
	system  *entry.Entry[[]string]

	// as loaded or last committed
	trees          *text.Trees
	compressed     [][]byte
	huffmanOffsets []byte
	huffmanTables  []byte
}

// StringOption configures a StringData load.
type StringOption func(*StringData)

// WithCharset overrides the charset chosen for the load.
func WithCharset(cs *text.Charset) StringOption {
	return func(s *StringData) {
		if cs != nil {
			s.charset = cs
		}
	}
}

func newStringData(logger hclog.Logger, cs *text.Charset, opts []StringOption) *StringData {
	s := &StringData{
		Manager: newManager("strings", logger),
		charset: cs,
		tables:  entry.NewCatalog[[]string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.impl = s
	return s
}

func (s *StringData) tableEntry(t stringTable, v []string, raw []byte, file string) *entry.Entry[[]string] {
	cs := s.charset
	return entry.New(entry.Indexed(t.label, int(t.typ)), v, raw, entry.Options[[]string]{
		Filename: file,
		Equal:    slices.Equal[[]string],
		Encode:   func(v []string) ([]byte, error) { return text.EncodeLSTable(v, cs) },
		Clone:    slices.Clone[[]string],
	})
}

// EncodeSystemStrings writes NUL-terminated strings, padded with 0xFF to
// an even length.
func EncodeSystemStrings(strs []string) ([]byte, error) {
	var out []byte
	for i, str := range strs {
		for _, r := range str {
			if r == 0 || r > 0x7E {
				return nil, fmt.Errorf("system string %d: %q is not printable ASCII", i, r)
			}
		}
		out = append(append(out, str...), 0)
	}
	if len(out)%2 != 0 {
		out = append(out, 0xFF)
	}
	return out, nil
}

// DecodeSystemStrings splits n NUL-terminated strings.
func DecodeSystemStrings(src []byte, n int) ([]string, error) {
	out := make([]string, 0, n)
	for len(out) < n {
		end := bytes.IndexByte(src, 0)
		if end < 0 {
			return nil, fmt.Errorf("%w: system string %d is unterminated", errs.ErrCodecSizeMismatch, len(out))
		}
		out = append(out, string(src[:end]))
		src = src[end+1:]
	}
	return out, nil
}

func (s *StringData) systemEntry(v []string, raw []byte, file string) *entry.Entry[[]string] {
	return entry.New(entry.Named(LabelRegionCheckStrings), v, raw, entry.Options[[]string]{
		Filename: file,
		Equal:    slices.Equal[[]string],
		Encode:   EncodeSystemStrings,
		Clone:    slices.Clone[[]string],
	})
}

// NewStringDataFromRom decodes the string data of img with the charset of
// its region.
func NewStringDataFromRom(img *rom.Image, logger hclog.Logger, opts ...StringOption) (*StringData, error) {
	s := newStringData(logger, text.ForRegion(string(img.Region())), opts)
	var banks []byte
	stages := []stage{
		{"font", func() (err error) {
			banks, err = s.loadRomFont(img)
			return err
		}},
		{"huffman trees", func() error { return s.loadRomHuffman(img) }},
		{"main strings", func() error { return s.loadStrings(banks) }},
		{"string tables", func() error { return s.loadRomTables(img) }},
		{"system strings", func() error { return s.loadRomSystem(img) }},
	}
	if err := s.load(img.Fingerprint(), stages); err != nil {
		return nil, err
	}
	return s, nil
}

// loadRomFont reads the font and returns the bank data that follows it.
func (s *StringData) loadRomFont(img *rom.Image) ([]byte, error) {
	font, err := img.Read32Label(LabelMainFontPtr)
	if err != nil {
		return nil, err
	}
	ptrs, err := img.Read32Label(LabelStringBankPtrPtr)
	if err != nil {
		return nil, err
	}
	first, err := img.Read32(ptrs)
	if err != nil {
		return nil, err
	}
	if font > first || first > ptrs {
		return nil, fmt.Errorf("%w: font %06X, banks %06X, pointers %06X out of order", errs.ErrOutOfRange, font, first, ptrs)
	}
	raw, err := img.ReadArray(font, int(first-font))
	if err != nil {
		return nil, err
	}
	v, _, err := codec.Decode(codec.KindRaw, raw, codec.Params{})
	if err != nil {
		return nil, fmt.Errorf("font: %w", err)
	}
	s.font = newResource(entry.Named(labelMainFont), v, raw, mainFontFile, ptr(font))
	return img.ReadArray(first, int(ptrs-first))
}

func (s *StringData) loadRomHuffman(img *rom.Image) error {
	offsets, err := img.ReadOffset16(LabelHuffmanOffsetsLea)
	if err != nil {
		return err
	}
	tables, err := img.ReadOffset16(LabelHuffmanTablesLea)
	if err != nil {
		return err
	}
	sec, err := img.Section(LabelHuffmanSection)
	if err != nil {
		return err
	}
	if offsets > tables || tables > sec.End {
		return fmt.Errorf("%w: offsets %06X, tables %06X, section %s", errs.ErrOutOfRange, offsets, tables, sec)
	}
	if s.huffmanOffsets, err = img.ReadArray(offsets, int(tables-offsets)); err != nil {
		return err
	}
	if s.huffmanTables, err = img.ReadArray(tables, int(sec.End-tables)); err != nil {
		return err
	}
	return s.decodeTrees()
}

func (s *StringData) decodeTrees() error {
	trees, err := text.DecodeTrees(s.huffmanOffsets, s.huffmanTables)
	if err != nil {
		return err
	}
	s.trees = trees
	return nil
}

func (s *StringData) loadStrings(banks []byte) error {
	compressed, err := text.ScanStrings(banks)
	if err != nil {
		return err
	}
	decoded, err := text.DecodePool(compressed, s.trees, s.charset)
	if err != nil {
		return err
	}
	s.compressed = compressed
	s.strings = entry.NewSequence(decoded, func(a, b string) bool { return a == b })
	s.logger.Debug("💬 main strings decoded", "count", len(decoded), "banks", len(text.SplitBanks(compressed)))
	return nil
}

func (s *StringData) loadRomTables(img *rom.Image) error {
	sec, err := img.Section(LabelStringTableSection)
	if err != nil {
		return err
	}
	starts := make([]uint32, len(stringTables))
	for i, t := range stringTables {
		if starts[i], err = img.ReadOffset16(t.lea); err != nil {
			return err
		}
		if !sec.Contains(starts[i]) {
			return fmt.Errorf("%w: %s at %06X outside %s", errs.ErrOutOfRange, t.label, starts[i], sec)
		}
	}
	bounds := append(slices.Clone(starts), sec.End)
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })
	for i, t := range stringTables {
		end := bounds[sort.Search(len(bounds), func(j int) bool { return bounds[j] > starts[i] })]
		raw, err := img.ReadArray(starts[i], int(end-starts[i]))
		if err != nil {
			return err
		}
		strs, used := text.ScanLSTable(raw, s.charset)
		if err := s.tables.Add(s.tableEntry(t, strs, raw[:used], t.file)); err != nil {
			return err
		}
	}
	return nil
}

func (s *StringData) loadRomSystem(img *rom.Image) error {
	for _, lea := range regionCheckLeas {
		if !img.HasAddress(lea) {
			s.logger.Debug("⏭️ no region check strings", "missing", lea)
			return nil
		}
	}
	strs := make([]string, len(regionCheckLeas))
	for i, lea := range regionCheckLeas {
		addr, err := img.ReadOffset16(lea)
		if err != nil {
			return err
		}
		if strs[i], err = img.ReadString(addr); err != nil {
			return err
		}
	}
	raw, err := EncodeSystemStrings(strs)
	if err != nil {
		return err
	}
	s.system = s.systemEntry(strs, raw, regionCheckFile)
	return nil
}

// NewStringDataFromAsm loads the text index files of the project at base.
// The charset defaults to English.
func NewStringDataFromAsm(base string, logger hclog.Logger, opts ...StringOption) (*StringData, error) {
	s := newStringData(logger, text.DefaultEnglish(), opts)
	var banks []byte
	stages := []stage{
		{"huffman trees", func() error { return s.loadAsmHuffman(base) }},
		{"font", func() (err error) {
			banks, err = s.loadAsmStringData(base)
			return err
		}},
		{"main strings", func() error { return s.loadStrings(banks) }},
		{"string tables", func() error { return s.loadAsmTables(base) }},
		{"system strings", func() error { return s.loadAsmSystem(base) }},
	}
	if err := s.load(base, stages); err != nil {
		return nil, err
	}
	s.basePath = base
	return s, nil
}

func (s *StringData) loadAsmHuffman(base string) error {
	f, err := s.openIndex(base, HuffmanDataAsm)
	if err != nil {
		return err
	}
	for _, part := range []struct {
		label string
		dst   *[]byte
	}{
		{labelHuffmanOffsets, &s.huffmanOffsets},
		{labelHuffmanTables, &s.huffmanTables},
	} {
		file, err := includeAt(f, part.label)
		if err != nil {
			return err
		}
		if *part.dst, err = readProjectFile(base, file); err != nil {
			return err
		}
	}
	return s.decodeTrees()
}

// loadAsmStringData reads the font and returns the banks concatenated.
func (s *StringData) loadAsmStringData(base string) ([]byte, error) {
	f, err := s.openIndex(base, StringDataAsm)
	if err != nil {
		return nil, err
	}
	file, err := includeAt(f, labelMainFont)
	if err != nil {
		return nil, err
	}
	v, raw, err := readFile(base, file, codec.KindRaw, codec.Params{})
	if err != nil {
		return nil, err
	}
	s.font = newResource(entry.Named(labelMainFont), v, raw, file, nil)

	names, err := readSymbolTable(f, labelStringBankPtrTable)
	if err != nil {
		return nil, err
	}
	var banks []byte
	for _, name := range names {
		file, err := includeAt(f, name)
		if err != nil {
			return nil, err
		}
		data, err := readProjectFile(base, file)
		if err != nil {
			return nil, err
		}
		banks = append(banks, data...)
	}
	return banks, nil
}

func (s *StringData) loadAsmTables(base string) error {
	f, err := s.openIndex(base, StringTablesAsm)
	if err != nil {
		return err
	}
	for _, t := range stringTables {
		file, err := includeAt(f, t.label)
		if err != nil {
			return err
		}
		raw, err := readProjectFile(base, file)
		if err != nil {
			return err
		}
		strs, err := text.DecodeLSTable(raw, s.charset)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if err := s.tables.Add(s.tableEntry(t, strs, raw, file)); err != nil {
			return err
		}
	}
	return nil
}

func (s *StringData) loadAsmSystem(base string) error {
	if _, err := os.Stat(projectPath(base, RegionCheckAsm)); os.IsNotExist(err) {
		s.logger.Debug("⏭️ no region check strings", "missing", RegionCheckAsm)
		return nil
	}
	f, err := s.openIndex(base, RegionCheckAsm)
	if err != nil {
		return err
	}
	if !f.LabelExists(LabelRegionCheckStrings) {
		return nil
	}
	file, err := includeAt(f, LabelRegionCheckStrings)
	if err != nil {
		return err
	}
	raw, err := readProjectFile(base, file)
	if err != nil {
		return err
	}
	strs, err := DecodeSystemStrings(raw, len(regionCheckLeas))
	if err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	s.system = s.systemEntry(strs, raw, file)
	return nil
}

// Charset returns the charset strings are encoded with.
func (s *StringData) Charset() *text.Charset {
	return s.charset
}

// Font returns the main font as raw 1bpp tiles.
func (s *StringData) Font() []byte {
	return append([]byte(nil), (*s.font.Decoded()).(codec.Raw)...)
}

// HasSystemStrings reports whether the region check text was loaded.
func (s *StringData) HasSystemStrings() bool {
	return s.system != nil
}

func (s *StringData) table(t StringType) (*entry.Entry[[]string], error) {
	for _, st := range stringTables {
		if st.typ == t {
			return s.tables.Get(st.label)
		}
	}
	return nil, fmt.Errorf("%w: string type %s", errs.ErrOutOfRange, t)
}

func (s *StringData) list(t StringType) ([]string, error) {
	switch t {
	case StringMain:
		return s.strings.Items(), nil
	case StringSystem:
		if s.system == nil {
			return nil, nil
		}
		return *s.system.Decoded(), nil
	}
	e, err := s.table(t)
	if err != nil {
		return nil, err
	}
	return *e.Decoded(), nil
}

// GetStringCount returns how many strings of type t exist.
func (s *StringData) GetStringCount(t StringType) int {
	l, err := s.list(t)
	if err != nil {
		return 0
	}
	return len(l)
}

func (s *StringData) GetString(t StringType, i int) (string, error) {
	l, err := s.list(t)
	if err != nil {
		return "", err
	}
	if i < 0 || i >= len(l) {
		return "", fmt.Errorf("%w: %s string %d of %d", errs.ErrOutOfRange, t, i, len(l))
	}
	return l[i], nil
}

// SetString replaces string i of type t. Main and table strings must be
// encodable in the charset.
func (s *StringData) SetString(t StringType, i int, str string) error {
	switch t {
	case StringMain:
		if _, err := s.charset.Encode(str); err != nil {
			return err
		}
		return s.strings.Set(i, str)
	case StringSystem:
		return s.SetSystemString(i, str)
	}
	e, err := s.table(t)
	if err != nil {
		return err
	}
	strs := slices.Clone(*e.Decoded())
	if i < 0 || i >= len(strs) {
		return fmt.Errorf("%w: %s string %d of %d", errs.ErrOutOfRange, t, i, len(strs))
	}
	if _, err := text.EncodeLSString(str, s.charset); err != nil {
		return err
	}
	strs[i] = str
	e.Set(strs)
	return nil
}

// SetSystemString replaces one region check line.
func (s *StringData) SetSystemString(i int, str string) error {
	if s.system == nil {
		return fmt.Errorf("%w: no region check strings loaded", errs.ErrNotLoaded)
	}
	strs := slices.Clone(*s.system.Decoded())
	if i < 0 || i >= len(strs) {
		return fmt.Errorf("%w: system string %d of %d", errs.ErrOutOfRange, i, len(strs))
	}
	strs[i] = str
	if _, err := EncodeSystemStrings(strs); err != nil {
		return err
	}
	s.system.Set(strs)
	return nil
}

// InsertString adds a main string before index i.
func (s *StringData) InsertString(i int, str string) error {
	if _, err := s.charset.Encode(str); err != nil {
		return err
	}
	return s.strings.Insert(i, str)
}

// DeleteString removes main string i.
func (s *StringData) DeleteString(i int) error {
	return s.strings.Delete(i)
}

// encodedPool returns the compressed strings and trees, re-encoding the
// whole pool only when it changed.
func (s *StringData) encodedPool() (compressed [][]byte, offsets, tables []byte, trees *text.Trees, err error) {
	if !s.strings.HasChanged() {
		return s.compressed, s.huffmanOffsets, s.huffmanTables, s.trees, nil
	}
	trees, compressed, err = text.EncodePool(s.strings.Items(), s.charset)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	offsets, tables, err = trees.EncodeTrees()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	s.logger.Debug("🌳 re-encoded string pool", "strings", len(compressed), "table bytes", len(tables))
	return compressed, offsets, tables, trees, nil
}

func (s *StringData) hasBeenModified() bool {
	return s.strings.HasChanged() || s.font.HasDataChanged() || s.tables.AnyChanged() ||
		(s.system != nil && s.system.HasDataChanged())
}

func (s *StringData) commitAllChanges() error {
	compressed, offsets, tables, trees, err := s.encodedPool()
	if err != nil {
		return err
	}
	s.compressed, s.huffmanOffsets, s.huffmanTables, s.trees = compressed, offsets, tables, trees
	s.strings.Commit()
	if err := s.font.Commit(); err != nil {
		return err
	}
	if err := s.tables.CommitAll(); err != nil {
		return err
	}
	if s.system != nil {
		return s.system.Commit()
	}
	return nil
}

func (s *StringData) abandonAllChanges() {
	s.strings.Abandon()
	s.font.AbandonChanges()
	s.tables.AbandonAll()
	if s.system != nil {
		s.system.AbandonChanges()
	}
}

func (s *StringData) refreshPendingWrites(img *rom.Image, set *patch.Set) error {
	compressed, offsets, tables, _, err := s.encodedPool()
	if err != nil {
		return err
	}
	font, err := s.font.Bytes()
	if err != nil {
		return err
	}
	sec, err := img.Section(LabelStringSection)
	if err != nil {
		return err
	}
	layout := text.LayoutBanks(font, text.SplitBanks(compressed))
	layout.SetBase(sec.Begin)
	set.AddSection(LabelStringSection, layout.Data)
	set.Add(rom.WriteAddress32(LabelMainFontPtr, sec.Begin))
	set.Add(rom.WriteAddress32(LabelStringBankPtrPtr, sec.Begin+uint32(layout.PointerTable)))

	huff, err := img.Section(LabelHuffmanSection)
	if err != nil {
		return err
	}
	set.AddSection(LabelHuffmanSection, append(slices.Clone(offsets), tables...))
	for _, lea := range []struct {
		label string
		addr  uint32
	}{
		{LabelHuffmanOffsetsLea, huff.Begin},
		{LabelHuffmanTablesLea, huff.Begin + uint32(len(offsets))},
	} {
		w, err := img.WriteOffset16(lea.label, lea.addr)
		if err != nil {
			return err
		}
		set.Add(w)
	}

	tsec, err := img.Section(LabelStringTableSection)
	if err != nil {
		return err
	}
	var data []byte
	for _, t := range stringTables {
		e, err := s.tables.Get(t.label)
		if err != nil {
			return err
		}
		b, err := e.Bytes()
		if err != nil {
			return err
		}
		w, err := img.WriteOffset16(t.lea, tsec.Begin+uint32(len(data)))
		if err != nil {
			return err
		}
		set.Add(w)
		data = append(data, b...)
	}
	if len(data) < int(tsec.Size()) {
		data = append(data, 0xFF)
	}
	set.AddSection(LabelStringTableSection, data)

	if s.system == nil {
		return nil
	}
	rsec, err := img.Section(LabelRegionCheckStrings)
	if err != nil {
		return err
	}
	sys, err := s.system.Bytes()
	if err != nil {
		return err
	}
	set.AddSection(LabelRegionCheckStrings, sys)
	addr := rsec.Begin
	for i, lea := range regionCheckLeas {
		w, err := img.WriteOffset16(lea, addr)
		if err != nil {
			return err
		}
		set.Add(w)
		addr += uint32(len((*s.system.Decoded())[i])) + 1
	}
	return nil
}

func (s *StringData) bankFile(i int) string {
	return fmt.Sprintf(textDir+"banks/"+stringBankFormat+".huf", i)
}

func (s *StringData) layout() []string {
	files := []string{StringDataAsm, HuffmanDataAsm, StringTablesAsm, s.font.Filename(), huffmanOffsetsFile, huffmanTablesFile}
	for _, e := range s.tables.All() {
		files = append(files, e.Filename())
	}
	if s.system != nil {
		files = append(files, RegionCheckAsm, s.system.Filename())
	}
	return append(files, s.bankFile(0))
}

func writeBinary(dir, rel string, b []byte) error {
	return os.WriteFile(projectPath(dir, rel), b, 0o644)
}

func (s *StringData) saveFiles(dir string) error {
	compressed, offsets, tables, _, err := s.encodedPool()
	if err != nil {
		return err
	}
	if err := s.font.Save(dir); err != nil {
		return err
	}
	if err := writeBinary(dir, huffmanOffsetsFile, offsets); err != nil {
		return err
	}
	if err := writeBinary(dir, huffmanTablesFile, tables); err != nil {
		return err
	}
	banks := text.SplitBanks(compressed)
	for i, bank := range banks {
		if err := writeBinary(dir, s.bankFile(i), bytes.Join(bank, nil)); err != nil {
			return err
		}
	}
	for _, e := range s.tables.All() {
		if err := e.Save(dir); err != nil {
			return err
		}
	}
	if s.system != nil {
		if err := s.system.Save(dir); err != nil {
			return err
		}
	}

	w := asm.NewWriter()
	w.WriteFileHeader(StringDataAsm, "Main font and compressed strings")
	w.Label(labelMainFont)
	w.IncBin(s.font.Filename())
	w.NewLine()
	names := make([]string, len(banks))
	for i := range banks {
		names[i] = fmt.Sprintf(stringBankFormat, i)
	}
	w.Label(labelStringBankPtrTable)
	w.DcSymbols(4, names...)
	w.NewLine()
	for i, name := range names {
		w.Label(name)
		w.IncBin(s.bankFile(i))
	}
	if err := w.WriteFile(projectPath(dir, StringDataAsm)); err != nil {
		return err
	}

	w = asm.NewWriter()
	w.WriteFileHeader(HuffmanDataAsm, "Huffman trees")
	w.Label(labelHuffmanOffsets)
	w.IncBin(huffmanOffsetsFile)
	w.Label(labelHuffmanTables)
	w.IncBin(huffmanTablesFile)
	if err := w.WriteFile(projectPath(dir, HuffmanDataAsm)); err != nil {
		return err
	}

	w = asm.NewWriter()
	w.WriteFileHeader(StringTablesAsm, "Name and menu strings")
	for _, e := range s.tables.All() {
		w.Label(e.Name())
		w.IncBin(e.Filename())
	}
	if err := w.WriteFile(projectPath(dir, StringTablesAsm)); err != nil {
		return err
	}

	if s.system == nil {
		return nil
	}
	w = asm.NewWriter()
	w.WriteFileHeader(RegionCheckAsm, "Region check error text")
	w.Label(LabelRegionCheckStrings)
	w.IncBin(s.system.Filename())
	return w.WriteFile(projectPath(dir, RegionCheckAsm))
}
