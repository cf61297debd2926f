package compress

import (
	"io"

	"github.com/dsnet/compress/bzip2"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
)

func init() {
	operations.Register(NewBzip2Operation(bzip2.BestCompression))
}

// NewBzip2Operation returns the BZIP2 operation writing at level.
func NewBzip2Operation(level int) operations.Operation {
	return &streamOperation{
		BaseOperation: operations.BaseOperation{OpID: operations.OP_BZIP2, OpName: "BZIP2", OpExt: "bz2"},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return bzip2.NewWriter(w, &bzip2.WriterConfig{Level: level})
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return bzip2.NewReader(r, &bzip2.ReaderConfig{})
		},
	}
}
