package codec

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

const (
	lz77MinRun    = 3
	lz77MaxRun    = 18
	lz77MaxOffset = 4095
)

// DecodeLZ77 expands a Landstalker LZ77 stream. It returns the decoded bytes
// and the number of input bytes consumed, including the terminator.
func DecodeLZ77(src []byte) ([]byte, int, error) {
	if len(src) == 0 {
		return nil, 0, errs.ErrEmpty
	}

	out := make([]byte, 0, len(src)*2)
	pos := 0
	var ctrl byte
	bits := 0

	for pos < len(src) {
		if bits == 0 {
			ctrl = src[pos]
			pos++
			bits = 8
		}
		literal := ctrl&0x80 != 0
		ctrl <<= 1
		bits--

		if literal {
			if pos >= len(src) {
				break
			}
			out = append(out, src[pos])
			pos++
			continue
		}

		if pos+1 >= len(src) {
			break
		}
		offset := int(src[pos]&0xF0)<<4 | int(src[pos+1])
		length := lz77MaxRun - int(src[pos]&0x0F)
		pos += 2

		if offset == 0 {
			return out, pos, nil
		}
		if offset > len(out) {
			return nil, pos, fmt.Errorf("%w: lz77 back-reference %d before start of output (%d bytes)",
				errs.ErrCodecSizeMismatch, offset, len(out))
		}
		for i := 0; i < length; i++ {
			out = append(out, out[len(out)-offset])
		}
	}

	return nil, pos, fmt.Errorf("%w: lz77 stream ended without terminator after %d bytes",
		errs.ErrCodecSizeMismatch, pos)
}

type lz77Token struct {
	literal bool
	end     bool
	value   byte
	length  int
	offset  int
}

// findBestMatch returns the longest run at cur that starts in the previous
// lz77MaxOffset bytes.
func findBestMatch(src []byte, cur int) (length, offset int) {
	if cur <= 0 || len(src) <= lz77MinRun {
		return 0, 0
	}
	maxLen := len(src) - cur
	if maxLen > lz77MaxRun {
		maxLen = lz77MaxRun
	}
	if maxLen < lz77MinRun {
		return 1, 0
	}
	stop := 0
	if cur > lz77MaxOffset {
		stop = cur - lz77MaxOffset
	}
	for i := cur; i > stop; i-- {
		n := 0
		for n < maxLen && src[i-1+n] == src[cur+n] {
			n++
		}
		if n > length {
			length = n
			offset = cur - i + 1
			if length == maxLen {
				break
			}
		}
	}
	return length, offset
}

// EncodeLZ77 compresses src. The encoder is greedy with a single step of
// lookahead: a run is deferred by one literal when the next position yields
// a longer one.
func EncodeLZ77(src []byte) []byte {
	tokens := make([]lz77Token, 0, len(src))
	for i := 0; i < len(src); {
		length, offset := findBestMatch(src, i)
		if length >= lz77MinRun {
			if nlen, noff := findBestMatch(src, i+1); nlen > length {
				tokens = append(tokens, lz77Token{literal: true, value: src[i]})
				i++
				length, offset = nlen, noff
			}
			tokens = append(tokens, lz77Token{length: length, offset: offset})
			i += length
			continue
		}
		tokens = append(tokens, lz77Token{literal: true, value: src[i]})
		i++
	}
	tokens = append(tokens, lz77Token{end: true})

	out := make([]byte, 0, len(src)+len(src)/8+3)
	for start := 0; start < len(tokens); start += 8 {
		end := start + 8
		if end > len(tokens) {
			end = len(tokens)
		}
		var ctrl byte
		for i := start; i < end; i++ {
			if tokens[i].literal {
				ctrl |= 0x80 >> uint(i-start)
			}
		}
		out = append(out, ctrl)
		for _, tok := range tokens[start:end] {
			switch {
			case tok.literal:
				out = append(out, tok.value)
				continue
			case tok.end:
				out = append(out, 0x00, 0x00)
				continue
			}
			out = append(out,
				byte((tok.offset&0xF00)>>4)|byte((lz77MaxRun-tok.length)&0x0F),
				byte(tok.offset&0xFF))
		}
	}
	return out
}
