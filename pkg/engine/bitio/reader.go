// Package bitio reads and writes MSB-first bit streams.
package bitio

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// Reader consumes bits from a byte slice, most significant bit first.
type Reader struct {
	buf []byte
	pos int // byte index of the current byte
	bit int // bits remaining in the current byte
}

// NewReader creates a Reader positioned at the first bit of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, bit: 8}
}

// ReadBit returns the next bit.
func (r *Reader) ReadBit() (bool, error) {
	if r.bit == 0 {
		r.pos++
		r.bit = 8
	}
	if r.pos >= len(r.buf) {
		return false, fmt.Errorf("%w: bit stream exhausted at byte %d", errs.ErrOutOfRange, r.pos)
	}
	r.bit--
	return r.buf[r.pos]&(1<<r.bit) != 0, nil
}

// ReadBits returns the next n bits (n <= 32) as an unsigned value.
func (r *Reader) ReadBits(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, nil
}

// AlignByte skips to the start of the next byte unless already aligned.
func (r *Reader) AlignByte() {
	if r.bit != 8 {
		r.pos++
		r.bit = 8
	}
}

// BytePosition returns the number of bytes touched so far. A partially read
// byte counts as consumed.
func (r *Reader) BytePosition() int {
	if r.bit == 8 {
		return r.pos
	}
	return r.pos + 1
}

// Exhausted reports whether no further bits can be read.
func (r *Reader) Exhausted() bool {
	if r.bit == 0 {
		return r.pos+1 >= len(r.buf)
	}
	return r.pos >= len(r.buf)
}
