package compress

import (
	"bytes"
	"testing"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
)

func TestCompressionRoundTrip(t *testing.T) {
	input := bytes.Repeat([]byte("landstalker rom resources "), 200)

	for _, id := range []uint8{operations.OP_GZIP, operations.OP_BZIP2, operations.OP_LZ4, operations.OP_ZSTD} {
		op, err := operations.Get(id)
		if err != nil {
			t.Fatalf("Get(%d) error = %v", id, err)
		}
		t.Run(op.Name(), func(t *testing.T) {
			packed, err := op.Apply(input)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if len(packed) >= len(input) {
				t.Errorf("Apply() gave %d bytes for %d", len(packed), len(input))
			}
			out, err := op.Reverse(packed)
			if err != nil {
				t.Fatalf("Reverse() error = %v", err)
			}
			if !bytes.Equal(out, input) {
				t.Errorf("Reverse(Apply()) differs from input")
			}

			var stream, back bytes.Buffer
			if err := op.ApplyStream(bytes.NewReader(input), &stream); err != nil {
				t.Fatalf("ApplyStream() error = %v", err)
			}
			if err := op.ReverseStream(&stream, &back); err != nil {
				t.Fatalf("ReverseStream() error = %v", err)
			}
			if !bytes.Equal(back.Bytes(), input) {
				t.Errorf("stream round trip differs from input")
			}
		})
	}
}
