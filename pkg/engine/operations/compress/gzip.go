package compress

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
)

func init() {
	operations.Register(NewGzipOperation(gzip.BestCompression))
}

// NewGzipOperation returns the GZIP operation writing at level.
func NewGzipOperation(level int) operations.Operation {
	return &streamOperation{
		BaseOperation: operations.BaseOperation{OpID: operations.OP_GZIP, OpName: "GZIP", OpExt: "gz"},
		newWriter: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, level)
		},
		newReader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
	}
}
