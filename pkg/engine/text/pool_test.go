package text

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func poolOf(n int) []string {
	out := make([]string, n)
	for i := range out {
		switch i % 3 {
		case 0:
			out[i] = fmt.Sprintf("Welcome to Mercator, {NAME}! Entry %d.", i)
		case 1:
			out[i] = fmt.Sprintf("The shop sells %d apples.\n{YESNO}", i*7)
		default:
			out[i] = ""
		}
	}
	return out
}

func TestPoolRoundTrip(t *testing.T) {
	cs := DefaultEnglish()
	for _, n := range []int{0, 1, 300} {
		t.Run(fmt.Sprintf("%d strings", n), func(t *testing.T) {
			texts := poolOf(n)
			trees, compressed, err := EncodePool(texts, cs)
			if err != nil {
				t.Fatalf("EncodePool() error = %v", err)
			}
			if len(compressed) != n {
				t.Fatalf("len(compressed) = %d, want %d", len(compressed), n)
			}

			offsets, tables, err := trees.EncodeTrees()
			if err != nil {
				t.Fatalf("EncodeTrees() error = %v", err)
			}
			loaded, err := DecodeTrees(offsets, tables)
			if err != nil {
				t.Fatalf("DecodeTrees() error = %v", err)
			}

			got, err := DecodePool(compressed, loaded, cs)
			if err != nil {
				t.Fatalf("DecodePool() error = %v", err)
			}
			for i := range texts {
				if got[i] != texts[i] {
					t.Errorf("string %d = %q, want %q", i, got[i], texts[i])
				}
			}
		})
	}
}

func TestCompressStringFormat(t *testing.T) {
	cs := DefaultEnglish()
	trees, compressed, err := EncodePool([]string{"", "Hi"}, cs)
	if err != nil {
		t.Fatalf("EncodePool() error = %v", err)
	}
	for i, b := range compressed {
		if int(b[0]) != len(b) {
			t.Errorf("string %d length byte = %d, want %d", i, b[0], len(b))
		}
	}

	again, err := CompressString("Hi", cs, trees)
	if err != nil {
		t.Fatalf("CompressString() error = %v", err)
	}
	if !bytes.Equal(again, compressed[1]) {
		t.Errorf("CompressString() = % X, want % X", again, compressed[1])
	}
	if _, err := CompressString("Zebra", cs, trees); !errors.Is(err, errs.ErrHuffmanDecode) {
		t.Errorf("CompressString() with untrained pairs error = %v", err)
	}
}

func TestEncodePoolAllOrNothing(t *testing.T) {
	cs := DefaultEnglish()
	trees, out, err := EncodePool([]string{"fine", "not ~ fine"}, cs)
	if err == nil {
		t.Fatalf("EncodePool() accepted an unmapped character")
	}
	if trees != nil || out != nil {
		t.Errorf("EncodePool() returned partial results")
	}
}

func TestEncodePoolCapacity(t *testing.T) {
	cs := DefaultEnglish()
	rng := rand.New(rand.NewSource(7))
	var sb bytes.Buffer
	for i := 0; i < 2000; i++ {
		sb.WriteByte(byte('a' + rng.Intn(26)))
	}
	_, _, err := EncodePool([]string{sb.String()}, cs)
	if !errors.Is(err, errs.ErrCapacityExceeded) {
		t.Errorf("EncodePool() error = %v, want ErrCapacityExceeded", err)
	}
}

func TestScanStrings(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want int
		err  bool
	}{
		{"two strings", []byte{0x03, 0xAA, 0xBB, 0x02, 0xCC}, 2, false},
		{"zero stop", []byte{0x02, 0xAA, 0x00, 0x05, 0x01}, 1, false},
		{"filler stop", []byte{0x02, 0xAA, 0xFF, 0xFF, 0xFF}, 1, false},
		{"overrun", []byte{0x02, 0xAA, 0x05, 0x01}, 0, true},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanStrings(tt.data)
			if (err != nil) != tt.err {
				t.Fatalf("ScanStrings() error = %v, wantErr %v", err, tt.err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSplitBanks(t *testing.T) {
	tests := []struct {
		n        int
		banks    int
		lastBank int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{256, 1, 256},
		{257, 2, 1},
		{600, 3, 88},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.n), func(t *testing.T) {
			strs := make([][]byte, tt.n)
			banks := SplitBanks(strs)
			if len(banks) != tt.banks {
				t.Fatalf("len(banks) = %d, want %d", len(banks), tt.banks)
			}
			if tt.banks > 0 && len(banks[len(banks)-1]) != tt.lastBank {
				t.Errorf("last bank = %d strings, want %d", len(banks[len(banks)-1]), tt.lastBank)
			}
		})
	}
}

func TestLayoutBanks(t *testing.T) {
	font := []byte{0xF0, 0xF1, 0xF2}
	banks := [][][]byte{
		{{0x02, 0xAA}, {0x01}},
		{{0x03, 0xBB, 0xCC}},
	}
	l := LayoutBanks(font, banks)

	if want := []int{3, 6}; l.BankOffsets[0] != want[0] || l.BankOffsets[1] != want[1] {
		t.Errorf("BankOffsets = %v, want %v", l.BankOffsets, want)
	}
	if l.PointerTable != 12 {
		t.Errorf("PointerTable = %d, want 12", l.PointerTable)
	}
	if len(l.Data) != 20 {
		t.Errorf("len(Data) = %d, want 20", len(l.Data))
	}

	l.SetBase(0x0009_0000)
	want := []byte{0x00, 0x09, 0x00, 0x03, 0x00, 0x09, 0x00, 0x06}
	if !bytes.Equal(l.Data[12:], want) {
		t.Errorf("pointers = % X, want % X", l.Data[12:], want)
	}

	strs, err := ScanStrings(l.Data[l.BankOffsets[0]:l.PointerTable])
	if err != nil {
		t.Fatalf("ScanStrings() error = %v", err)
	}
	if len(strs) != 3 {
		t.Errorf("ScanStrings() found %d strings, want 3", len(strs))
	}
}

func TestLayoutBanksEmptyPool(t *testing.T) {
	font := []byte{0xF0, 0xF1, 0xF2, 0xF3, 0xF4}
	l := LayoutBanks(font, SplitBanks(nil))

	if len(l.BankOffsets) != 1 || l.BankOffsets[0] != len(font) {
		t.Errorf("BankOffsets = %v, want [%d]", l.BankOffsets, len(font))
	}
	if l.PointerTable != 8 || len(l.Data) != 12 {
		t.Errorf("PointerTable = %d, len(Data) = %d, want 8 and 12", l.PointerTable, len(l.Data))
	}
	l.SetBase(0x0004_0000)
	if want := []byte{0x00, 0x04, 0x00, 0x05}; !bytes.Equal(l.Data[8:], want) {
		t.Errorf("pointer = % X, want % X", l.Data[8:], want)
	}
	strs, err := ScanStrings(l.Data[l.BankOffsets[0]:l.PointerTable])
	if err != nil || len(strs) != 0 {
		t.Errorf("ScanStrings() = %d strings, %v, want none", len(strs), err)
	}
}
