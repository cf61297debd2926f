package patch

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

// FileVersion is the current patch file layout.
const FileVersion = 1

// Record is one resolved write in a patch file.
type Record struct {
	Label   string `cbor:"label"`
	Kind    string `cbor:"kind"`
	Address uint32 `cbor:"address"`
	Bytes   []byte `cbor:"bytes"`
}

// File is a portable set of writes bound to the image they were made
// against.
type File struct {
	Version         int      `cbor:"version"`
	Region          string   `cbor:"region"`
	BaseFingerprint string   `cbor:"base_fingerprint"`
	Created         int64    `cbor:"created"`
	Writes          []Record `cbor:"writes"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("patch: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("patch: CBOR decoder initialization failed: " + err.Error())
	}
}

// Build resolves every write against img.
func (s *Set) Build(img *rom.Image) (*File, error) {
	pf := &File{
		Version:         FileVersion,
		Region:          string(img.Region()),
		BaseFingerprint: img.Fingerprint(),
		Created:         time.Now().UTC().Unix(),
	}
	for _, w := range s.writes {
		addr, _, err := resolve(img, w.Target)
		if err != nil {
			return nil, err
		}
		pf.Writes = append(pf.Writes, Record{
			Label:   w.Target.Name,
			Kind:    w.Target.Kind.String(),
			Address: addr,
			Bytes:   append([]byte(nil), w.Bytes...),
		})
	}
	return pf, nil
}

// Export writes the set as a CBOR patch file made against img.
func (s *Set) Export(w io.Writer, img *rom.Image) error {
	pf, err := s.Build(img)
	if err != nil {
		return err
	}
	return encMode.NewEncoder(w).Encode(pf)
}

// Import reads a CBOR patch file.
func Import(r io.Reader) (*File, error) {
	var pf File
	if err := decMode.NewDecoder(r).Decode(&pf); err != nil {
		return nil, fmt.Errorf("read patch: %w", err)
	}
	if pf.Version != FileVersion {
		return nil, fmt.Errorf("unsupported patch version %d", pf.Version)
	}
	return &pf, nil
}

// Size returns the number of bytes the patch writes.
func (pf *File) Size() int {
	n := 0
	for _, w := range pf.Writes {
		n += len(w.Bytes)
	}
	return n
}

// ApplyPatchFile writes pf into img. Unless force is set the image must
// match the fingerprint the patch was made against.
func ApplyPatchFile(img *rom.Image, pf *File, force bool) (int, error) {
	if !force {
		ok, err := rom.VerifyFingerprint(img.Bytes(), pf.BaseFingerprint)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("%w: image is not the patch base %s", errs.ErrBadChecksum, pf.BaseFingerprint)
		}
	}
	total := 0
	for _, w := range pf.Writes {
		if err := img.WriteBytes(w.Address, w.Bytes); err != nil {
			return total, fmt.Errorf("apply %s: %w", w.Label, err)
		}
		total += len(w.Bytes)
	}
	return total, nil
}
