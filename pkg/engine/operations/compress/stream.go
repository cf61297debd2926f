// Package compress holds the compression operations.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
)

// streamOperation adapts a writer/reader pair from a compression library
// into an operation. The byte forms run through the stream forms.
type streamOperation struct {
	operations.BaseOperation
	newWriter func(w io.Writer) (io.WriteCloser, error)
	newReader func(r io.Reader) (io.ReadCloser, error)
}

func (o *streamOperation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ApplyStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *streamOperation) ApplyStream(input io.Reader, output io.Writer) error {
	w, err := o.newWriter(output)
	if err != nil {
		return fmt.Errorf("creating %s writer: %w", o.OpName, err)
	}
	if _, err := io.Copy(w, input); err != nil {
		w.Close()
		return fmt.Errorf("compressing stream: %w", err)
	}
	return w.Close()
}

func (o *streamOperation) Reverse(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ReverseStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o *streamOperation) ReverseStream(input io.Reader, output io.Writer) error {
	r, err := o.newReader(input)
	if err != nil {
		return fmt.Errorf("creating %s reader: %w", o.OpName, err)
	}
	defer r.Close()

	if _, err := io.Copy(output, r); err != nil {
		return fmt.Errorf("decompressing %s stream: %w", o.OpName, err)
	}
	return nil
}
