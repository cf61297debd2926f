package rom

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: "rom_test", Level: hclog.Trace})
}

func testTables() LabelTables {
	t := NewLabelTable(AnyRegion)
	t.Addresses["PalLea"] = 0x1000
	t.Addresses["PalMoveW"] = 0x1010
	t.Addresses["DataPtr"] = 0x1020
	t.Addresses["Name"] = 0x1030
	t.Sections["Palettes"] = Section{Begin: 0x2000, End: 0x2010}
	return LabelTables{AnyRegion: t}
}

func testImage(t *testing.T, date string) *Image {
	t.Helper()
	data := make([]byte, 0x4000)
	copy(data[BuildDateAddress:], date)
	copy(data[0x1000:], []byte{0x41, 0xFA, 0x00, 0x00}) // lea (pc),a0
	copy(data[0x1010:], []byte{0x32, 0x3B, 0x00, 0x10}) // move.w d8(pc,d0.w),d1
	copy(data[0x1020:], []byte{0x00, 0x00, 0x20, 0x00})
	copy(data[0x1030:], "LANDSTALKER\x00")
	img, err := FromBytes(data, testTables(), testLogger())
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	return img
}

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		date string
		want Region
	}{
		{"92/09/18 14:30", RegionJP},
		{"93/07/13 20:03", RegionUS},
		{"93/07/15 18:08", RegionUK},
		{"93/11/05 13:22", RegionFR},
		{"93/11/05 13:58", RegionDE},
		{"93/02/24 11:55", RegionUSBeta},
		{"99/99/99 99:99", RegionUS},
	}
	for _, tt := range tests {
		t.Run(string(tt.want)+" "+tt.date, func(t *testing.T) {
			img := testImage(t, tt.date)
			if img.Region() != tt.want {
				t.Errorf("Region() = %s, want %s", img.Region(), tt.want)
			}
		})
	}
}

func TestRegionTables(t *testing.T) {
	us := NewLabelTable("US")
	us.ExpectedSize = 0x4000
	tables := LabelTables{"US": us}

	data := make([]byte, 0x4000)
	if _, err := FromBytes(data, tables, testLogger()); err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	if _, err := FromBytes(data[:0x3000], tables, testLogger()); !errors.Is(err, errs.ErrCodecSizeMismatch) {
		t.Errorf("short image error = %v, want ErrCodecSizeMismatch", err)
	}

	img, _ := FromBytes(data, tables, testLogger())
	if err := img.SetRegion(RegionFR); !errors.Is(err, errs.ErrUnknownRegion) {
		t.Errorf("SetRegion(FR) error = %v, want ErrUnknownRegion", err)
	}
	if _, err := ParseRegion("us_beta"); err != nil {
		t.Errorf("ParseRegion(us_beta) error = %v", err)
	}
	if _, err := ParseRegion("AU"); !errors.Is(err, errs.ErrUnknownRegion) {
		t.Errorf("ParseRegion(AU) error = %v", err)
	}
	if _, err := FromBytes(nil, tables, nil); !errors.Is(err, errs.ErrEmpty) {
		t.Errorf("FromBytes(nil) error = %v, want ErrEmpty", err)
	}
}

func TestReads(t *testing.T) {
	img := testImage(t, "93/07/13 20:03")

	if v, _ := img.Read16(0x1000); v != 0x41FA {
		t.Errorf("Read16() = %04X, want 41FA", v)
	}
	if v, _ := img.Read32Label("DataPtr"); v != 0x2000 {
		t.Errorf("Read32Label() = %08X, want 2000", v)
	}
	if s, _ := img.ReadString(0x1030); s != "LANDSTALKER" {
		t.Errorf("ReadString() = %q", s)
	}
	if _, err := img.Read32(0x3FFE); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("Read32(end) error = %v, want ErrOutOfRange", err)
	}
	if _, err := img.ReadArray(0x3F00, 0x200); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("ReadArray() error = %v, want ErrOutOfRange", err)
	}
	if _, err := img.Address("Missing"); !errors.Is(err, errs.ErrLabelNotFound) {
		t.Errorf("Address() error = %v, want ErrLabelNotFound", err)
	}
	if !img.HasSection("Palettes") || img.HasAddress("Missing") {
		t.Errorf("HasSection/HasAddress probes wrong")
	}
	b, err := img.SectionBytes("Palettes")
	if err != nil || len(b) != 0x10 {
		t.Errorf("SectionBytes() = %d bytes, %v", len(b), err)
	}

	clone := img.Clone()
	if err := clone.WriteBytes(0x2000, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteBytes() error = %v", err)
	}
	if v, _ := img.Read8(0x2001); v != 0 {
		t.Errorf("Clone() shares storage")
	}
	if err := clone.WriteBytes(0x3FFF, []byte{1, 2}); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("WriteBytes(end) error = %v, want ErrOutOfRange", err)
	}
}

func TestChecksum(t *testing.T) {
	img := testImage(t, "93/07/13 20:03")
	_ = img.WriteBytes(0x3000, []byte{0x12, 0x34, 0xFF, 0xFF})

	if err := img.ValidateChecksum(); !errors.Is(err, errs.ErrBadChecksum) {
		t.Fatalf("ValidateChecksum() error = %v, want ErrBadChecksum", err)
	}
	sum := img.FixChecksum()
	if err := img.ValidateChecksum(); err != nil {
		t.Errorf("ValidateChecksum() after fix error = %v", err)
	}
	if img.StoredChecksum() != sum {
		t.Errorf("StoredChecksum() = %04X, want %04X", img.StoredChecksum(), sum)
	}

	path := filepath.Join(t.TempDir(), "out.bin")
	_ = img.WriteBytes(0x3010, []byte{0x00, 0x01})
	if err := img.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	back, err := Load(path, testTables(), testLogger())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := back.ValidateChecksum(); err != nil {
		t.Errorf("reloaded checksum error = %v", err)
	}
	if !back.Equal(img) {
		t.Errorf("reloaded image differs")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "none.bin"), testTables(), nil); !errors.Is(err, errs.ErrFileNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrFileNotFound", err)
	}
}

func TestLEA(t *testing.T) {
	img := testImage(t, "93/07/13 20:03")

	if got := PCRel16(0x1000, 0x0FF0); got != 0xFFEE {
		t.Errorf("PCRel16() = %04X, want FFEE", got)
	}

	for _, target := range []uint32{0x2000, 0x0800, 0x1002} {
		w, err := img.WriteOffset16("PalLea", target)
		if err != nil {
			t.Fatalf("WriteOffset16(%X) error = %v", target, err)
		}
		if len(w.Bytes) != 4 || w.Bytes[0] != 0x41 || w.Bytes[1] != 0xFA {
			t.Errorf("WriteOffset16() = % X, opcode not kept", w.Bytes)
		}
		if w.Target.Kind != TargetAddress || w.Target.Name != "PalLea" {
			t.Errorf("Target = %+v", w.Target)
		}
		_ = img.WriteBytes(0x1000, w.Bytes)
		got, err := img.ReadOffset16("PalLea")
		if err != nil {
			t.Fatalf("ReadOffset16() error = %v", err)
		}
		if got != target {
			t.Errorf("ReadOffset16() = %06X, want %06X", got, target)
		}
	}

	if got, _ := img.ReadOffset8("PalMoveW"); got != 0x1022 {
		t.Errorf("ReadOffset8() = %06X, want 1022", got)
	}
	w, err := img.WriteOffset8("PalMoveW", 0x0FF2)
	if err != nil {
		t.Fatalf("WriteOffset8() error = %v", err)
	}
	if want := []byte{0x32, 0x3B, 0x00, 0xE0}; !bytes.Equal(w.Bytes, want) {
		t.Errorf("WriteOffset8() = % X, want % X", w.Bytes, want)
	}
	_ = img.WriteBytes(0x1010, w.Bytes)
	if got, _ := img.ReadOffset8("PalMoveW"); got != 0x0FF2 {
		t.Errorf("ReadOffset8() = %06X, want 0FF2", got)
	}
	if _, err := img.WriteOffset8("PalMoveW", 0x2000); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("WriteOffset8(far) error = %v, want ErrOutOfRange", err)
	}
	if _, err := img.WriteOffset16("PalLea", 0x8000); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("WriteOffset16(beyond image) error = %v, want ErrOutOfRange", err)
	}

	a := WriteAddress32("DataPtr", 0x00123456)
	if a.Bytes[0] != 0x00 || a.Bytes[1] != 0x12 || a.Bytes[2] != 0x34 || a.Bytes[3] != 0x56 {
		t.Errorf("WriteAddress32() = % X", a.Bytes)
	}
}

func TestLoadLabelTables(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "us.yaml")
	jsoncPath := filepath.Join(dir, "us_extra.jsonc")
	if err := os.WriteFile(yamlPath, []byte(`region: us
size: 0x200000
addresses:
  MainFontPtr: 0x00029FF0
  StringBankPtrPtr: "$00038BF4"
sections:
  RoomTable: {begin: 0x0A0A00, end: 0x0A2400}
`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(jsoncPath, []byte(`{
  // extra labels
  "region": "US",
  "addresses": {"HuffmanOffsetsLea": "0x22E80", "CharNameTableLea": 143360,},
  "sections": {"MapData": {"begin": "0x0A2400", "end": "0x11C926"}},
}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadLabelTables(yamlPath, jsoncPath)
	if err != nil {
		t.Fatalf("LoadLabelTables() error = %v", err)
	}
	us, err := tables.For("us")
	if err != nil {
		t.Fatalf("For(us) error = %v", err)
	}
	if us.ExpectedSize != 0x200000 {
		t.Errorf("ExpectedSize = %X, want 200000", us.ExpectedSize)
	}
	tests := []struct {
		name string
		want uint32
	}{
		{"MainFontPtr", 0x29FF0},
		{"StringBankPtrPtr", 0x38BF4},
		{"HuffmanOffsetsLea", 0x22E80},
		{"CharNameTableLea", 143360},
	}
	for _, tt := range tests {
		if got, err := us.Address(tt.name); err != nil || got != tt.want {
			t.Errorf("Address(%s) = %X, %v, want %X", tt.name, got, err, tt.want)
		}
	}
	s, err := us.Section("MapData")
	if err != nil || s.Size() != 0x11C926-0x0A2400 {
		t.Errorf("Section(MapData) = %v, %v", s, err)
	}
	if _, err := tables.For("JP"); !errors.Is(err, errs.ErrUnknownRegion) {
		t.Errorf("For(JP) error = %v, want ErrUnknownRegion", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	_ = os.WriteFile(bad, []byte("addresses:\n  X: zz\n"), 0o644)
	if _, err := LoadLabelTables(bad); err == nil {
		t.Errorf("LoadLabelTables() accepted a bad address")
	}
}

func TestFingerprint(t *testing.T) {
	img := testImage(t, "93/07/13 20:03")
	fp := img.Fingerprint()
	if ok, err := VerifyFingerprint(img.Bytes(), fp); err != nil || !ok {
		t.Errorf("VerifyFingerprint(%s) = %v, %v", fp, ok, err)
	}
	sha := CalculateFingerprint(img.Bytes(), FingerprintSHA256)
	if ok, _ := VerifyFingerprint(img.Bytes(), sha); !ok {
		t.Errorf("sha256 fingerprint did not verify")
	}
	_ = img.WriteBytes(0x3000, []byte{0xAA})
	if ok, _ := VerifyFingerprint(img.Bytes(), fp); ok {
		t.Errorf("fingerprint matched modified image")
	}
	if _, err := VerifyFingerprint(nil, "md5:00"); err == nil {
		t.Errorf("unknown algorithm accepted")
	}
}
