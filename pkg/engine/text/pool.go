package text

import (
	"fmt"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

const (
	// BankSize is the number of strings addressed by one bank pointer.
	BankSize = 256

	// MaxCompressedString is the largest compressed body a length byte allows.
	MaxCompressedString = 254
)

// CompressString encodes text as [total length][huffman bits], where the
// length byte counts itself.
func CompressString(s string, cs *Charset, trees *Trees) ([]byte, error) {
	codes, err := cs.Encode(s)
	if err != nil {
		return nil, err
	}
	return compressCodes(append(codes, cs.EOS), cs.EOS, trees)
}

func compressCodes(codes []byte, eos byte, trees *Trees) ([]byte, error) {
	bits, err := trees.Compress(codes, eos)
	if err != nil {
		return nil, err
	}
	if len(bits) > MaxCompressedString {
		return nil, fmt.Errorf("%w: compressed string needs %d bytes, limit %d",
			errs.ErrCapacityExceeded, len(bits), MaxCompressedString)
	}
	return append([]byte{byte(len(bits) + 1)}, bits...), nil
}

// DecompressString decodes one length-prefixed compressed string and
// returns it with the number of bytes consumed.
func DecompressString(src []byte, cs *Charset, trees *Trees) (string, int, error) {
	if len(src) == 0 {
		return "", 0, errs.ErrEmpty
	}
	n := int(src[0])
	if n == 0 || len(src) < n {
		return "", len(src), fmt.Errorf("%w: string length byte %d with %d bytes available",
			errs.ErrHuffmanDecode, n, len(src))
	}
	codes, err := trees.Decompress(src[1:n], cs.EOS)
	if err != nil {
		return "", n, err
	}
	return cs.Decode(codes[:len(codes)-1]), n, nil
}

// EncodePool rebuilds the trees from the whole pool and compresses every
// string with them. Nothing is returned unless every string encodes.
func EncodePool(texts []string, cs *Charset) (*Trees, [][]byte, error) {
	all := make([][]byte, len(texts))
	for i, s := range texts {
		codes, err := cs.Encode(s)
		if err != nil {
			return nil, nil, fmt.Errorf("string %d: %w", i, err)
		}
		all[i] = append(codes, cs.EOS)
	}

	trees := NewTrees(cs.Size())
	trees.RecalculateTrees(all, cs.EOS)

	out := make([][]byte, len(all))
	for i, codes := range all {
		b, err := compressCodes(codes, cs.EOS, trees)
		if err != nil {
			return nil, nil, fmt.Errorf("string %d: %w", i, err)
		}
		out[i] = b
	}
	return trees, out, nil
}

// DecodePool decompresses every string of a pool.
func DecodePool(compressed [][]byte, trees *Trees, cs *Charset) ([]string, error) {
	out := make([]string, len(compressed))
	for i, b := range compressed {
		s, _, err := DecompressString(b, cs, trees)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// ScanStrings splits consecutive compressed strings. Scanning stops at the
// end of data, at a 0x00 length byte, or at 0xFF filler that would run past
// the end.
func ScanStrings(data []byte) ([][]byte, error) {
	var out [][]byte
	for pos := 0; pos < len(data); {
		n := int(data[pos])
		if n == 0x00 {
			break
		}
		if pos+n > len(data) {
			if n == 0xFF {
				break
			}
			return nil, fmt.Errorf("%w: string %d overruns bank data", errs.ErrCodecSizeMismatch, len(out))
		}
		out = append(out, data[pos:pos+n])
		pos += n
	}
	return out, nil
}

// SplitBanks groups compressed strings into banks of BankSize.
func SplitBanks(compressed [][]byte) [][][]byte {
	var banks [][][]byte
	for start := 0; start < len(compressed); start += BankSize {
		end := start + BankSize
		if end > len(compressed) {
			end = len(compressed)
		}
		banks = append(banks, compressed[start:end])
	}
	return banks
}

// BankLayout is the arrangement of the string section: font, banks, then a
// long-aligned table of bank pointers.
type BankLayout struct {
	Data         []byte
	BankOffsets  []int
	PointerTable int
}

// LayoutBanks places the font and banks and reserves the pointer table.
// Pointer values are filled by the caller once the section base is known.
// An empty pool still gets one pointer, to an empty bank after the font,
// since the loader finds the end of the font through the first pointer.
func LayoutBanks(font []byte, banks [][][]byte) BankLayout {
	l := BankLayout{Data: append([]byte(nil), font...)}
	if len(banks) == 0 {
		banks = [][][]byte{nil}
	}
	for _, bank := range banks {
		l.BankOffsets = append(l.BankOffsets, len(l.Data))
		for _, s := range bank {
			l.Data = append(l.Data, s...)
		}
	}
	for len(l.Data)%4 != 0 {
		l.Data = append(l.Data, 0x00)
	}
	l.PointerTable = len(l.Data)
	l.Data = append(l.Data, make([]byte, 4*len(banks))...)
	return l
}

// SetBase writes the absolute bank pointers for a section starting at base.
func (l *BankLayout) SetBase(base uint32) {
	for i, off := range l.BankOffsets {
		p := base + uint32(off)
		at := l.PointerTable + i*4
		l.Data[at], l.Data[at+1], l.Data[at+2], l.Data[at+3] = byte(p>>24), byte(p>>16), byte(p>>8), byte(p)
	}
}
