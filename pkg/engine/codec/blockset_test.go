package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/bitio"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

func randomBlockset(rng *rand.Rand, n int) Blockset {
	bs := make(Blockset, n)
	for i := range bs {
		for t := 0; t < 4; t += 2 {
			left := NewTile(uint16(rng.Intn(64)), rng.Intn(3) == 0, rng.Intn(5) == 0, rng.Intn(4) == 0)
			right := left.WithIndex(pairSuccessor(left))
			if rng.Intn(3) == 0 {
				right = NewTile(uint16(rng.Intn(0x7FF)), rng.Intn(2) == 0, false, rng.Intn(2) == 0)
			}
			bs[i][t], bs[i][t+1] = left, right
		}
	}
	return bs
}

func TestBlocksetRoundTrip(t *testing.T) {
	logger := testLogger()
	rng := rand.New(rand.NewSource(11))

	tests := []struct {
		name string
		bs   Blockset
	}{
		{"empty", Blockset{}},
		{"single plain", Blockset{{NewTile(1, false, false, false), NewTile(2, false, false, false), NewTile(3, false, false, false), NewTile(4, false, false, false)}}},
		{"all attributes set", Blockset{{NewTile(9, true, true, true), NewTile(8, true, true, true), NewTile(7, true, true, true), NewTile(6, true, true, true)}}},
		{"random", randomBlockset(rng, 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncodeBlockset(tt.bs)
			if err != nil {
				t.Fatalf("EncodeBlockset() error = %v", err)
			}
			logger.Debug("🧱 encoded blockset", "name", tt.name, "blocks", len(tt.bs), "bytes", len(enc))

			dec, consumed, err := DecodeBlockset(append(enc, 0xFF, 0xFF))
			if err != nil {
				t.Fatalf("DecodeBlockset() error = %v", err)
			}
			if consumed != len(enc) {
				t.Errorf("consumed = %d, want %d", consumed, len(enc))
			}
			if !dec.Equal(tt.bs) {
				t.Errorf("decoded blockset differs")
			}
			again, _ := EncodeBlockset(dec)
			if !bytes.Equal(again, enc) {
				t.Errorf("re-encoded bytes differ")
			}
		})
	}
}

func TestRunNumbers(t *testing.T) {
	for _, v := range []int{1, 2, 3, 4, 7, 8, 100, 4096} {
		w := bitio.NewWriter()
		writeRun(w, v)
		r := bitio.NewReader(w.Bytes())
		got, err := readRun(r)
		if err != nil {
			t.Fatalf("readRun() error = %v", err)
		}
		if got != v-1 {
			t.Errorf("readRun(writeRun(%d)) = %d, want %d", v, got, v-1)
		}
	}
}

func TestTileQueue(t *testing.T) {
	var q tileQueue
	for _, v := range []uint16{5, 6, 7} {
		q.push(v)
	}
	if q[0] != 7 || q[1] != 6 || q[2] != 5 {
		t.Fatalf("queue = %v", q[:4])
	}
	q.moveToFront(2)
	if q[0] != 5 || q[1] != 7 || q[2] != 6 {
		t.Errorf("after moveToFront(2) queue = %v", q[:4])
	}
	if q.find(6) != 2 || q.find(99) != -1 {
		t.Errorf("find() mismatch")
	}
}

func TestBlocksetTruncated(t *testing.T) {
	enc, _ := EncodeBlockset(randomBlockset(rand.New(rand.NewSource(3)), 10))
	if _, _, err := DecodeBlockset(enc[:len(enc)/2]); err == nil {
		t.Errorf("DecodeBlockset(truncated) succeeded")
	}
	if _, _, err := DecodeBlockset(nil); !errors.Is(err, errs.ErrEmpty) {
		t.Errorf("DecodeBlockset(nil) error = %v, want ErrEmpty", err)
	}
}
