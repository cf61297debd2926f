package text

import (
	"errors"
	"testing"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func TestTreeEncodeDecode(t *testing.T) {
	tests := []struct {
		name string
		freq map[byte]int
	}{
		{"single", map[byte]int{0x55: 4}},
		{"pair", map[byte]int{0x01: 1, 0x02: 1}},
		{"skewed", map[byte]int{0x00: 40, 0x0B: 9, 0x25: 7, 0x26: 3, 0x55: 1}},
		{"high symbol", map[byte]int{0xFF: 3, 0x01: 1, 0x80: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := NewTree(tt.freq)
			data, off := tree.encode()
			got, err := decodeTree(data, off)
			if err != nil {
				t.Fatalf("decodeTree() error = %v", err)
			}
			if !got.equal(tree) {
				t.Errorf("decoded tree differs")
			}
			if len(tree.Symbols()) != len(tt.freq) {
				t.Errorf("Symbols() = %v", tree.Symbols())
			}
		})
	}
}

func TestTreeTieBreak(t *testing.T) {
	a := NewTree(map[byte]int{0x03: 1, 0x01: 1, 0x02: 1})
	b := NewTree(map[byte]int{0x02: 1, 0x03: 1, 0x01: 1})
	if !a.equal(b) {
		t.Errorf("equal frequencies built different trees")
	}
	code, _ := a.Code(0x03)
	if len(code) != 1 {
		t.Errorf("len(code 03) = %d, want 1", len(code))
	}
}

func TestSingleSymbolCompress(t *testing.T) {
	ts := NewTrees(0x56)
	ts.RecalculateTrees([][]byte{{DefaultEOS}}, DefaultEOS)

	bits, err := ts.Compress([]byte{DefaultEOS}, DefaultEOS)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if len(bits) != 0 {
		t.Errorf("Compress() = % X, want no bits", bits)
	}
	out, err := ts.Decompress(bits, DefaultEOS)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if len(out) != 1 || out[0] != DefaultEOS {
		t.Errorf("Decompress() = % X", out)
	}
}

func TestTreesTableRoundTrip(t *testing.T) {
	strs := [][]byte{
		{0x0B, 0x25, 0x25, 0x55},
		{0x25, 0x0B, 0x00, 0x01, 0x55},
		{0xFF, 0x55},
	}
	ts := NewTrees(0x56)
	ts.RecalculateTrees(strs, DefaultEOS)

	offsets, tables, err := ts.EncodeTrees()
	if err != nil {
		t.Fatalf("EncodeTrees() error = %v", err)
	}
	if len(offsets) != 0x100*2 {
		t.Errorf("len(offsets) = %d, want %d", len(offsets), 0x100*2)
	}
	if offsets[4] != 0xFF || offsets[5] != 0xFF {
		t.Errorf("unused context offset = %02X%02X, want FFFF", offsets[4], offsets[5])
	}

	dec, err := DecodeTrees(offsets, tables)
	if err != nil {
		t.Fatalf("DecodeTrees() error = %v", err)
	}
	if !dec.Equal(ts) {
		t.Errorf("decoded trees differ")
	}
	for i, s := range strs {
		bits, err := ts.Compress(s, DefaultEOS)
		if err != nil {
			t.Fatalf("Compress(%d) error = %v", i, err)
		}
		out, err := dec.Decompress(bits, DefaultEOS)
		if err != nil {
			t.Fatalf("Decompress(%d) error = %v", i, err)
		}
		if string(out) != string(s) {
			t.Errorf("string %d = % X, want % X", i, out, s)
		}
	}
}

func TestHuffmanErrors(t *testing.T) {
	ts := NewTrees(0x56)
	ts.RecalculateTrees([][]byte{{0x0B, 0x55}, {0x0C, 0x55}}, DefaultEOS)

	if _, err := ts.Compress([]byte{0x0B}, DefaultEOS); !errors.Is(err, errs.ErrHuffmanDecode) {
		t.Errorf("unterminated Compress() error = %v", err)
	}
	if _, err := ts.Compress([]byte{0x0D, 0x55}, DefaultEOS); !errors.Is(err, errs.ErrHuffmanDecode) {
		t.Errorf("unknown symbol Compress() error = %v", err)
	}
	if _, err := ts.Decompress(nil, DefaultEOS); !errors.Is(err, errs.ErrHuffmanDecode) {
		t.Errorf("empty Decompress() error = %v", err)
	}
	if _, err := DecodeTrees([]byte{0x00}, nil); !errors.Is(err, errs.ErrCodecSizeMismatch) {
		t.Errorf("odd offsets error = %v", err)
	}
	if _, err := DecodeTrees([]byte{0x00, 0x09}, []byte{0x01}); !errors.Is(err, errs.ErrHuffmanDecode) {
		t.Errorf("bad offset error = %v", err)
	}
}

func TestHuffmanCapacity(t *testing.T) {
	ts := NewTrees(0x100)
	var strs [][]byte
	for ctx := 0; ctx < 0x100; ctx++ {
		s := []byte{byte(ctx)}
		for c := 0; c < 0x100; c++ {
			if byte(c) != DefaultEOS {
				s = append(s, byte(ctx), byte(c))
			}
		}
		strs = append(strs, append(s, DefaultEOS))
	}
	ts.RecalculateTrees(strs, DefaultEOS)
	_, _, err := ts.EncodeTrees()
	if !errors.Is(err, errs.ErrCapacityExceeded) {
		t.Errorf("EncodeTrees() error = %v, want ErrCapacityExceeded", err)
	}
}
