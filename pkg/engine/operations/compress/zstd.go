package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
)

func init() {
	operations.Register(NewZstdOperation())
}

// ZstdOperation implements Zstandard compression.
type ZstdOperation struct {
	operations.BaseOperation
	Level zstd.EncoderLevel
}

// NewZstdOperation creates a new ZSTD operation
func NewZstdOperation() *ZstdOperation {
	return &ZstdOperation{
		BaseOperation: operations.BaseOperation{
			OpID:   operations.OP_ZSTD,
			OpName: "ZSTD",
			OpExt:  "zst",
		},
		Level: zstd.SpeedBetterCompression,
	}
}

// Apply compresses data using ZSTD
func (o *ZstdOperation) Apply(input []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(o.Level))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(input, nil), nil
}

// ApplyStream compresses a stream using ZSTD
func (o *ZstdOperation) ApplyStream(input io.Reader, output io.Writer) error {
	enc, err := zstd.NewWriter(output, zstd.WithEncoderLevel(o.Level))
	if err != nil {
		return fmt.Errorf("creating zstd encoder: %w", err)
	}
	if _, err := io.Copy(enc, input); err != nil {
		enc.Close()
		return fmt.Errorf("compressing stream: %w", err)
	}
	return enc.Close()
}

// Reverse decompresses ZSTD data
func (o *ZstdOperation) Reverse(input []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("reading zstd data: %w", err)
	}
	return out, nil
}

// ReverseStream decompresses a ZSTD stream
func (o *ZstdOperation) ReverseStream(input io.Reader, output io.Writer) error {
	dec, err := zstd.NewReader(input)
	if err != nil {
		return fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	if _, err := io.Copy(output, dec); err != nil {
		return fmt.Errorf("decompressing stream: %w", err)
	}
	return nil
}
