package bitio

import (
	"bytes"
	"errors"
	"testing"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func TestWriterThenReader(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0x5, 3)
	w.WriteBit(true)
	w.WriteBits(0xABC, 12)
	w.WriteBits(0x1, 1)

	want := []byte{0xBA, 0xBC, 0x80}
	if !bytes.Equal(w.Bytes(), want) {
		t.Fatalf("Bytes() = %x, want %x", w.Bytes(), want)
	}

	r := NewReader(w.Bytes())
	if v, _ := r.ReadBits(3); v != 0x5 {
		t.Errorf("ReadBits(3) = %x, want 5", v)
	}
	if b, _ := r.ReadBit(); !b {
		t.Errorf("ReadBit() = false, want true")
	}
	if v, _ := r.ReadBits(12); v != 0xABC {
		t.Errorf("ReadBits(12) = %x, want abc", v)
	}
	if v, _ := r.ReadBits(1); v != 1 {
		t.Errorf("ReadBits(1) = %d, want 1", v)
	}
	if r.BytePosition() != 3 {
		t.Errorf("BytePosition() = %d, want 3", r.BytePosition())
	}
}

func TestReaderExhausted(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(8); err != nil {
		t.Fatalf("ReadBits(8) error = %v", err)
	}
	if !r.Exhausted() {
		t.Errorf("Exhausted() = false after consuming all bits")
	}
	if _, err := r.ReadBit(); !errors.Is(err, errs.ErrOutOfRange) {
		t.Errorf("ReadBit() error = %v, want ErrOutOfRange", err)
	}
}

func TestAlign(t *testing.T) {
	w := NewWriter()
	w.WriteBit(true)
	w.AlignByte()
	w.WriteBits(0xFF, 8)
	if !bytes.Equal(w.Bytes(), []byte{0x80, 0xFF}) {
		t.Fatalf("Bytes() = %x", w.Bytes())
	}

	r := NewReader(w.Bytes())
	r.ReadBit()
	r.AlignByte()
	if v, _ := r.ReadBits(8); v != 0xFF {
		t.Errorf("ReadBits(8) after align = %x, want ff", v)
	}
	if r.BytePosition() != 2 {
		t.Errorf("BytePosition() = %d, want 2", r.BytePosition())
	}
}
