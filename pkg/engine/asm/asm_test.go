package asm

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: "asm_test", Level: hclog.Trace})
}

const sample = `; room list
RoomList:
		dc.l	Map001, Map002   ; maps
		dc.b	$12, @17, %101, 10, -1
Params:	dc.w	$ABCD
		dcb.b	3,$FF
Names:  dc.b "Hi", 0
		Align 2
Palettes:
		incbin	"assets_packed/roomdata/palettes.bin"
Code:	include	"code/rooms/maps.asm"
RoomList:
		dc.b	$00
`

func TestParse(t *testing.T) {
	f, err := Parse("sample.asm", []byte(sample), testLogger())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := f.Goto("RoomList"); err != nil {
		t.Fatalf("Goto() error = %v", err)
	}
	if !f.IsLabel() {
		t.Errorf("IsLabel() = false at RoomList")
	}
	for _, want := range []string{"Map001", "Map002"} {
		got, err := f.ReadSymbol()
		if err != nil || got != want {
			t.Errorf("ReadSymbol() = %q, %v, want %q", got, err, want)
		}
	}
	for _, want := range []byte{0x12, 0o17, 0b101, 10, 0xFF} {
		got, err := f.ReadByte()
		if err != nil || got != want {
			t.Errorf("ReadByte() = %02X, %v, want %02X", got, err, want)
		}
	}
	if l, _ := f.CurrentLabel(); l != "Params" {
		t.Errorf("CurrentLabel() = %q, want Params", l)
	}
	if w, _ := f.ReadWord(); w != 0xABCD {
		t.Errorf("ReadWord() = %04X, want ABCD", w)
	}
	if b, _ := f.ReadBytes(3); string(b) != "\xFF\xFF\xFF" {
		t.Errorf("dcb bytes = % X", b)
	}
	if b, _ := f.ReadBytes(3); string(b) != "Hi\x00" {
		t.Errorf("string bytes = %q", b)
	}

	inc, err := f.ReadInclude()
	if err != nil || !inc.Binary || inc.Path != "assets_packed/roomdata/palettes.bin" {
		t.Errorf("ReadInclude() = %+v, %v", inc, err)
	}
	inc, _ = f.ReadInclude()
	if inc.Binary || inc.Path != "code/rooms/maps.asm" {
		t.Errorf("ReadInclude() = %+v", inc)
	}

	// duplicate label keeps the first definition
	_ = f.Goto("RoomList")
	if _, err := f.ReadSymbol(); err != nil {
		t.Errorf("duplicate label moved: %v", err)
	}

	if f.LabelExists("Missing") {
		t.Errorf("LabelExists(Missing) = true")
	}
	if err := f.Goto("Missing"); !errors.Is(err, errs.ErrLabelNotFound) {
		t.Errorf("Goto(Missing) error = %v, want ErrLabelNotFound", err)
	}
	if got := f.Labels(); len(got) != 5 {
		t.Errorf("Labels() = %v", got)
	}
}

func TestReadPastEnd(t *testing.T) {
	f, err := Parse("x.asm", []byte("A: dc.w $0102\n"), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := f.ReadLong(); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("ReadLong() error = %v, want ErrOutOfRange", err)
	}
	f.Reset()
	if _, err := f.ReadSymbol(); !errors.Is(err, errs.ErrMalformedDirective) {
		t.Errorf("ReadSymbol() on data error = %v, want ErrMalformedDirective", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown instruction", "\tmove.w d0,d1\n"},
		{"bad number", "\tdc.b $GG\n"},
		{"bad width", "\tdc.q 1\n"},
		{"unquoted include", "\tincbin foo.bin\n"},
		{"dcb operands", "\tdcb.b 4\n"},
		{"bad label", "1abc: dc.b 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.asm", []byte("; header\n"+tt.src), testLogger())
			if !errors.Is(err, errs.ErrMalformedDirective) {
				t.Fatalf("Parse() error = %v, want ErrMalformedDirective", err)
			}
			if !strings.Contains(err.Error(), "bad.asm:2") {
				t.Errorf("error %q lacks file:line", err)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"$FF", 255}, {"@10", 8}, {"%1010", 10}, {"42", 42}, {"-$10", -16}, {"-7", -7},
	}
	for _, tt := range tests {
		if got, err := ParseNumber(tt.in); err != nil || got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"", "-", "$", "0x10", "abc"} {
		if _, err := ParseNumber(bad); err == nil {
			t.Errorf("ParseNumber(%q) succeeded", bad)
		}
	}
}

func TestWriterRoundTrip(t *testing.T) {
	w := NewWriter()
	w.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	w.WriteFileHeader("code/rooms/roomlist.asm", "Room list")
	w.Label("RoomList")
	w.DcSymbols(4, "Map001", "Map002")
	w.DcB(make([]byte, 20)...)
	w.NewLine()
	w.Comment("palettes")
	w.Label("Pal")
	w.IncBin(filepath.Join("assets_packed", "pal.bin"))
	w.Label("Words")
	w.DcW(0x1234, 0xFFFF)
	w.DcL(0xDEADBEEF)
	w.Align(2)
	w.Include("code/other.asm")

	text := w.String()
	lines := strings.Split(text, "\n")
	if lines[0] != strings.Repeat(";", 78) {
		t.Errorf("banner rule = %q", lines[0])
	}
	if len(lines[1]) != 78 || !strings.HasPrefix(lines[1], ";; ") || !strings.HasSuffix(lines[1], " ;;") {
		t.Errorf("banner line = %q", lines[1])
	}
	if !strings.Contains(text, "Generated by landforge 2026-01-02 03:04:05") {
		t.Errorf("banner lacks timestamp")
	}
	if !strings.Contains(text, "\n                    dc.l    Map001, Map002\n") {
		t.Errorf("dc.l line not in column layout:\n%s", text)
	}

	path := filepath.Join(t.TempDir(), "code", "rooms", "roomlist.asm")
	if err := w.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	f, err := Open(path, testLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	_ = f.Goto("RoomList")
	if s, _ := f.ReadSymbol(); s != "Map001" {
		t.Errorf("ReadSymbol() = %q", s)
	}
	_ = f.Goto("Words")
	if v, _ := f.ReadWord(); v != 0x1234 {
		t.Errorf("ReadWord() = %04X", v)
	}
	_, _ = f.ReadWord()
	if v, _ := f.ReadLong(); v != 0xDEADBEEF {
		t.Errorf("ReadLong() = %08X", v)
	}

	got, err := GetFilenameFromAsm(path, "Pal")
	if err != nil || got != "assets_packed/pal.bin" {
		t.Errorf("GetFilenameFromAsm() = %q, %v", got, err)
	}
	if _, err := GetFilenameFromAsm(path, "Nope"); !errors.Is(err, errs.ErrLabelNotFound) {
		t.Errorf("GetFilenameFromAsm(Nope) error = %v", err)
	}
	if _, err := GetFilenameFromAsm(filepath.Join(t.TempDir(), "x.asm"), "Pal"); !errors.Is(err, errs.ErrFileNotFound) {
		t.Errorf("GetFilenameFromAsm(missing) error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("written file missing: %v", err)
	}
}
