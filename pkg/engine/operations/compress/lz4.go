package compress

import (
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
)

func init() {
	operations.Register(NewLZ4Operation(lz4.Level9))
}

// NewLZ4Operation returns the LZ4 operation. Frames carry a content
// checksum.
func NewLZ4Operation(level lz4.CompressionLevel) operations.Operation {
	return &streamOperation{
		BaseOperation: operations.BaseOperation{OpID: operations.OP_LZ4, OpName: "LZ4", OpExt: "lz4"},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			lw := lz4.NewWriter(w)
			if err := lw.Apply(lz4.ChecksumOption(true), lz4.CompressionLevelOption(level)); err != nil {
				return nil, err
			}
			return lw, nil
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(lz4.NewReader(r)), nil
		},
	}
}
