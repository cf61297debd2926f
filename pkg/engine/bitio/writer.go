package bitio

// Writer accumulates bits MSB-first into a growing byte slice.
type Writer struct {
	buf []byte
	bit int // next bit position in the last byte, -1 when a new byte is needed
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{bit: -1}
}

// WriteBit appends a single bit.
func (w *Writer) WriteBit(v bool) {
	if w.bit < 0 {
		w.buf = append(w.buf, 0)
		w.bit = 7
	}
	if v {
		w.buf[len(w.buf)-1] |= 1 << w.bit
	}
	w.bit--
}

// WriteBits appends the low n bits of v, most significant first.
func (w *Writer) WriteBits(v uint32, n int) {
	for n > 0 {
		n--
		w.WriteBit(v&(1<<n) != 0)
	}
}

// AlignByte pads the current byte with zero bits.
func (w *Writer) AlignByte() {
	w.bit = -1
}

// Len returns the number of bytes written, counting a partial byte.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}
