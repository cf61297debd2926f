// Package bundle holds archive operations.
package bundle

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations"
)

// EntryName is the name of the single member written by the TAR operation.
const EntryName = "rom.bin"

// maxEntrySize bounds the member read back from an archive. Genesis
// images top out at 4 MiB, project archives stay far below this.
const maxEntrySize = 64 << 20

func init() {
	operations.Register(NewTarOperation())
}

// TarOperation wraps data as the single member EntryName of a TAR archive.
type TarOperation struct {
	operations.BaseOperation
	ModTime time.Time
}

// NewTarOperation creates the TAR operation.
func NewTarOperation() *TarOperation {
	return &TarOperation{
		BaseOperation: operations.BaseOperation{
			OpID:   operations.OP_TAR,
			OpName: "TAR",
			OpExt:  "tar",
		},
	}
}

func (o *TarOperation) header(size int64) *tar.Header {
	mt := o.ModTime
	if mt.IsZero() {
		mt = time.Now()
	}
	return &tar.Header{
		Name:     EntryName,
		Mode:     0o644,
		Size:     size,
		ModTime:  mt.UTC().Truncate(time.Second),
		Typeflag: tar.TypeReg,
		Format:   tar.FormatPAX,
	}
}

// Apply archives input.
func (o *TarOperation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ApplyStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyStream archives the whole input stream.
func (o *TarOperation) ApplyStream(input io.Reader, output io.Writer) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	tw := tar.NewWriter(output)
	if err := tw.WriteHeader(o.header(int64(len(data)))); err != nil {
		return fmt.Errorf("writing tar header: %w", err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing tar data: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar writer: %w", err)
	}
	return nil
}

// Reverse extracts the EntryName member.
func (o *TarOperation) Reverse(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ReverseStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReverseStream copies the EntryName member to output. Other members are
// skipped.
func (o *TarOperation) ReverseStream(input io.Reader, output io.Writer) error {
	tr := tar.NewReader(input)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("tar archive has no %s member", EntryName)
		}
		if err != nil {
			return fmt.Errorf("reading tar header: %w", err)
		}
		if hdr.Name != EntryName {
			continue
		}
		if hdr.Size < 0 || hdr.Size > maxEntrySize {
			return fmt.Errorf("invalid member size: %d", hdr.Size)
		}
		if _, err := io.CopyN(output, tr, hdr.Size); err != nil {
			return fmt.Errorf("extracting tar data: %w", err)
		}
		return nil
	}
}
