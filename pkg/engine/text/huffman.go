package text

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/bitio"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

const (
	noTree        = 0xFFFF
	maxTreeOffset = 0xFFFE
	maxTableSize  = 0xFFFF

	maxDecodedLength = 4096
)

type huffNode struct {
	leaf        bool
	symbol      byte
	left, right *huffNode

	weight int
	minSym int
	seq    int
}

// Tree is the code for the characters that may follow one context character.
type Tree struct {
	root  *huffNode
	codes map[byte][]bool
}

type nodeHeap []*huffNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	if a.minSym != b.minSym {
		return a.minSym < b.minSym
	}
	return a.seq < b.seq
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(*huffNode)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}

// NewTree builds a Huffman tree from symbol frequencies. Ties are broken by
// the lowest symbol in each subtree, then by creation order.
func NewTree(freq map[byte]int) *Tree {
	if len(freq) == 0 {
		return nil
	}
	symbols := make([]int, 0, len(freq))
	for s := range freq {
		symbols = append(symbols, int(s))
	}
	sort.Ints(symbols)

	h := make(nodeHeap, 0, len(symbols))
	seq := 0
	for _, s := range symbols {
		h = append(h, &huffNode{leaf: true, symbol: byte(s), weight: freq[byte(s)], minSym: s, seq: seq})
		seq++
	}
	heap.Init(&h)
	for h.Len() > 1 {
		l := heap.Pop(&h).(*huffNode)
		r := heap.Pop(&h).(*huffNode)
		minSym := l.minSym
		if r.minSym < minSym {
			minSym = r.minSym
		}
		heap.Push(&h, &huffNode{left: l, right: r, weight: l.weight + r.weight, minSym: minSym, seq: seq})
		seq++
	}
	t := &Tree{root: h[0]}
	t.buildCodes()
	return t
}

func (t *Tree) buildCodes() {
	t.codes = make(map[byte][]bool)
	var walk func(n *huffNode, prefix []bool)
	walk = func(n *huffNode, prefix []bool) {
		if n.leaf {
			t.codes[n.symbol] = append([]bool(nil), prefix...)
			return
		}
		walk(n.left, append(prefix, false))
		walk(n.right, append(prefix, true))
	}
	walk(t.root, nil)
}

// Symbols returns the symbols the tree can encode, in ascending order.
func (t *Tree) Symbols() []byte {
	out := make([]byte, 0, len(t.codes))
	for s := range t.codes {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Code returns the bit string for symbol s.
func (t *Tree) Code(s byte) ([]bool, bool) {
	c, ok := t.codes[s]
	return c, ok
}

// encode returns the serialized tree and the offset of its bitstream: the
// leaf symbols in reverse preorder, then the preorder shape bits.
func (t *Tree) encode() ([]byte, int) {
	var leaves []byte
	w := bitio.NewWriter()
	var walk func(n *huffNode)
	walk = func(n *huffNode) {
		if n.leaf {
			leaves = append(leaves, n.symbol)
			w.WriteBit(true)
			return
		}
		w.WriteBit(false)
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
	w.AlignByte()

	out := make([]byte, 0, len(leaves)+w.Len())
	for i := len(leaves) - 1; i >= 0; i-- {
		out = append(out, leaves[i])
	}
	offset := len(out)
	return append(out, w.Bytes()...), offset
}

// decodeTree reads a tree whose bitstream starts at offset in tables. Leaf
// symbols are taken walking backwards from offset.
func decodeTree(tables []byte, offset int) (*Tree, error) {
	if offset > len(tables) {
		return nil, fmt.Errorf("%w: tree offset %d beyond %d table bytes", errs.ErrHuffmanDecode, offset, len(tables))
	}
	r := bitio.NewReader(tables[offset:])
	symPos := offset
	var parse func(depth int) (*huffNode, error)
	parse = func(depth int) (*huffNode, error) {
		if depth > 256 {
			return nil, fmt.Errorf("%w: tree deeper than 256 levels", errs.ErrHuffmanDecode)
		}
		bit, err := r.ReadBit()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated tree: %v", errs.ErrHuffmanDecode, err)
		}
		if bit {
			symPos--
			if symPos < 0 {
				return nil, fmt.Errorf("%w: leaf symbols run before table start", errs.ErrHuffmanDecode)
			}
			return &huffNode{leaf: true, symbol: tables[symPos]}, nil
		}
		l, err := parse(depth + 1)
		if err != nil {
			return nil, err
		}
		rt, err := parse(depth + 1)
		if err != nil {
			return nil, err
		}
		return &huffNode{left: l, right: rt}, nil
	}
	root, err := parse(0)
	if err != nil {
		return nil, err
	}
	t := &Tree{root: root}
	t.buildCodes()
	return t, nil
}

func (t *Tree) decodeSymbol(r *bitio.Reader) (byte, error) {
	n := t.root
	for !n.leaf {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, fmt.Errorf("%w: ran out of bits", errs.ErrHuffmanDecode)
		}
		if bit {
			n = n.right
		} else {
			n = n.left
		}
	}
	return n.symbol, nil
}

func (t *Tree) equal(o *Tree) bool {
	if len(t.codes) != len(o.codes) {
		return false
	}
	for s, c := range t.codes {
		oc, ok := o.codes[s]
		if !ok || len(oc) != len(c) {
			return false
		}
		for i := range c {
			if c[i] != oc[i] {
				return false
			}
		}
	}
	return true
}

// Trees is the order-1 code set: one tree per preceding character.
type Trees struct {
	NumChars int
	trees    map[byte]*Tree
}

// NewTrees returns an empty tree set with room for numChars contexts.
func NewTrees(numChars int) *Trees {
	return &Trees{NumChars: numChars, trees: make(map[byte]*Tree)}
}

// Tree returns the tree used after context character c.
func (ts *Trees) Tree(c byte) (*Tree, bool) {
	t, ok := ts.trees[c]
	return t, ok
}

// Contexts returns the context characters that have a tree, ascending.
func (ts *Trees) Contexts() []byte {
	out := make([]byte, 0, len(ts.trees))
	for c := range ts.trees {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DecodeTrees reads the offsets table (one big-endian word per context,
// 0xFFFF for none) and the tree data it points into.
func DecodeTrees(offsets, tables []byte) (*Trees, error) {
	if len(offsets)%2 != 0 {
		return nil, &errs.SizeMismatchError{Expected: 2, Actual: len(offsets), Multiple: true}
	}
	ts := NewTrees(len(offsets) / 2)
	for c := 0; c < ts.NumChars; c++ {
		off := int(offsets[c*2])<<8 | int(offsets[c*2+1])
		if off == noTree {
			continue
		}
		t, err := decodeTree(tables, off)
		if err != nil {
			return nil, fmt.Errorf("tree for %02X: %w", c, err)
		}
		ts.trees[byte(c)] = t
	}
	return ts, nil
}

// EncodeTrees serializes every tree and the offsets table that locates them.
func (ts *Trees) EncodeTrees() (offsets, tables []byte, err error) {
	n := ts.NumChars
	for c := range ts.trees {
		if int(c)+1 > n {
			n = int(c) + 1
		}
	}
	offsets = make([]byte, n*2)
	for i := range offsets {
		offsets[i] = 0xFF
	}
	for _, c := range ts.Contexts() {
		data, inner := ts.trees[c].encode()
		off := inner + len(tables)
		tables = append(tables, data...)
		if off > maxTreeOffset || len(tables) > maxTableSize {
			return nil, nil, fmt.Errorf("%w: huffman tables need %d bytes", errs.ErrCapacityExceeded, len(tables))
		}
		offsets[int(c)*2] = byte(off >> 8)
		offsets[int(c)*2+1] = byte(off)
	}
	return offsets, tables, nil
}

// RecalculateTrees rebuilds every tree from the character pairs of the
// given uncompressed strings. Each string must end with eos; the first
// character of each string is counted with eos as its context.
func (ts *Trees) RecalculateTrees(strs [][]byte, eos byte) {
	freq := make(map[byte]map[byte]int)
	for _, s := range strs {
		last := eos
		for _, c := range s {
			if freq[last] == nil {
				freq[last] = make(map[byte]int)
			}
			freq[last][c]++
			last = c
		}
	}
	ts.trees = make(map[byte]*Tree, len(freq))
	for ctx, f := range freq {
		ts.trees[ctx] = NewTree(f)
	}
}

// Compress encodes s, which must end with eos.
func (ts *Trees) Compress(s []byte, eos byte) ([]byte, error) {
	if len(s) == 0 || s[len(s)-1] != eos {
		return nil, fmt.Errorf("%w: string is not terminated by %02X", errs.ErrHuffmanDecode, eos)
	}
	w := bitio.NewWriter()
	last := eos
	for _, c := range s {
		t, ok := ts.trees[last]
		if !ok {
			return nil, fmt.Errorf("%w: no tree for context %02X", errs.ErrHuffmanDecode, last)
		}
		code, ok := t.codes[c]
		if !ok {
			return nil, fmt.Errorf("%w: tree %02X has no code for %02X", errs.ErrHuffmanDecode, last, c)
		}
		for _, b := range code {
			w.WriteBit(b)
		}
		last = c
	}
	w.AlignByte()
	return w.Bytes(), nil
}

// Decompress decodes characters until eos, which is included in the result.
func (ts *Trees) Decompress(bits []byte, eos byte) ([]byte, error) {
	r := bitio.NewReader(bits)
	var out []byte
	last := eos
	for {
		t, ok := ts.trees[last]
		if !ok {
			return nil, fmt.Errorf("%w: no tree for context %02X", errs.ErrHuffmanDecode, last)
		}
		c, err := t.decodeSymbol(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		if c == eos {
			return out, nil
		}
		if len(out) > maxDecodedLength {
			return nil, fmt.Errorf("%w: no terminator within %d characters", errs.ErrHuffmanDecode, maxDecodedLength)
		}
		last = c
	}
}

// Equal reports whether both sets assign the same codes in every context.
func (ts *Trees) Equal(o *Trees) bool {
	if ts == nil || o == nil {
		return ts == o
	}
	if len(ts.trees) != len(o.trees) {
		return false
	}
	for c, t := range ts.trees {
		ot, ok := o.trees[c]
		if !ok || !t.equal(ot) {
			return false
		}
	}
	return true
}
