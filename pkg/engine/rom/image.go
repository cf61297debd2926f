// Package rom reads and patches Landstalker ROM images.
package rom

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

// Header locations.
const (
	ChecksumAddress  = 0x18E
	ChecksumBegin    = 0x200
	BuildDateAddress = 0x202
	BuildDateLength  = 14
)

// Region identifies a game release.
type Region string

const (
	RegionJP     Region = "JP"
	RegionUS     Region = "US"
	RegionUK     Region = "UK"
	RegionFR     Region = "FR"
	RegionDE     Region = "DE"
	RegionUSBeta Region = "US_BETA"
)

// releases maps the build date stamped after the checksum area to a region.
var releases = map[string]Region{
	"92/09/18 14:30": RegionJP,
	"93/07/13 20:03": RegionUS,
	"93/07/15 18:08": RegionUK,
	"93/11/05 13:22": RegionFR,
	"93/11/05 13:58": RegionDE,
	"93/02/24 11:55": RegionUSBeta,
}

// ParseRegion validates a region name.
func ParseRegion(s string) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range releases {
		if known == r {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", errs.ErrUnknownRegion, s)
}

// Image is a ROM held in memory with the label table of its release.
type Image struct {
	data   []byte
	region Region
	labels *LabelTable
	tables LabelTables
	logger hclog.Logger
}

// Load reads a ROM file.
func Load(path string, tables LabelTables, logger hclog.Logger) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errs.ErrFileNotFound, path)
		}
		return nil, err
	}
	img, err := FromBytes(data, tables, logger)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return img, nil
}

// FromBytes wraps a copy of data, detects the region and binds its labels.
func FromBytes(data []byte, tables LabelTables, logger hclog.Logger) (*Image, error) {
	if len(data) == 0 {
		return nil, errs.ErrEmpty
	}
	img := &Image{
		data:   append([]byte(nil), data...),
		tables: tables,
		logger: logging.OrNull(logger).Named("rom"),
	}
	region := img.DetectRegion()
	if err := img.SetRegion(region); err != nil {
		return nil, err
	}
	img.logger.Debug("💾 loaded image", "size", len(img.data), "region", img.region)
	if err := img.ValidateChecksum(); err != nil {
		img.logger.Warn("⚠️ checksum mismatch", "stored", fmt.Sprintf("%04X", img.StoredChecksum()),
			"calculated", fmt.Sprintf("%04X", img.CalculateChecksum()))
	}
	return img, nil
}

// BuildDate returns the build date string from the header.
func (img *Image) BuildDate() string {
	if len(img.data) < BuildDateAddress+BuildDateLength {
		return ""
	}
	return string(img.data[BuildDateAddress : BuildDateAddress+BuildDateLength])
}

// DetectRegion looks the build date up in the release table. Unknown
// dates are treated as US.
func (img *Image) DetectRegion() Region {
	if r, ok := releases[img.BuildDate()]; ok {
		return r
	}
	img.logger.Debug("🔍 unknown build date, assuming US", "date", img.BuildDate())
	return RegionUS
}

// SetRegion overrides the detected region and rebinds the label table.
func (img *Image) SetRegion(r Region) error {
	t, err := img.tables.For(string(r))
	if err != nil {
		return err
	}
	if t.ExpectedSize != 0 && t.ExpectedSize != len(img.data) {
		return &errs.SizeMismatchError{Expected: t.ExpectedSize, Actual: len(img.data)}
	}
	img.region = r
	img.labels = t
	return nil
}

func (img *Image) Region() Region {
	return img.region
}

func (img *Image) Labels() *LabelTable {
	return img.labels
}

func (img *Image) Size() int {
	return len(img.data)
}

// Bytes returns a copy of the image.
func (img *Image) Bytes() []byte {
	return append([]byte(nil), img.data...)
}

// Clone returns an independent copy sharing the label tables.
func (img *Image) Clone() *Image {
	c := *img
	c.data = img.Bytes()
	return &c
}

// Equal reports whether both images hold the same bytes.
func (img *Image) Equal(o *Image) bool {
	return bytes.Equal(img.data, o.data)
}

func (img *Image) check(addr uint32, n int) error {
	if n < 0 || uint64(addr)+uint64(n) > uint64(len(img.data)) {
		return fmt.Errorf("%w: %d bytes at %06X in a %X-byte image", errs.ErrOutOfRange, n, addr, len(img.data))
	}
	return nil
}

func (img *Image) Read8(addr uint32) (uint8, error) {
	if err := img.check(addr, 1); err != nil {
		return 0, err
	}
	return img.data[addr], nil
}

func (img *Image) Read16(addr uint32) (uint16, error) {
	if err := img.check(addr, 2); err != nil {
		return 0, err
	}
	return uint16(img.data[addr])<<8 | uint16(img.data[addr+1]), nil
}

func (img *Image) Read32(addr uint32) (uint32, error) {
	if err := img.check(addr, 4); err != nil {
		return 0, err
	}
	d := img.data[addr:]
	return uint32(d[0])<<24 | uint32(d[1])<<16 | uint32(d[2])<<8 | uint32(d[3]), nil
}

// ReadArray returns a copy of n bytes at addr.
func (img *Image) ReadArray(addr uint32, n int) ([]byte, error) {
	if err := img.check(addr, n); err != nil {
		return nil, err
	}
	return append([]byte(nil), img.data[addr:addr+uint32(n)]...), nil
}

// ReadString reads a NUL-terminated string.
func (img *Image) ReadString(addr uint32) (string, error) {
	if err := img.check(addr, 1); err != nil {
		return "", err
	}
	end := bytes.IndexByte(img.data[addr:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at %06X", errs.ErrOutOfRange, addr)
	}
	return string(img.data[addr : addr+uint32(end)]), nil
}

// Read32Label reads the long stored at a labelled address.
func (img *Image) Read32Label(name string) (uint32, error) {
	a, err := img.Address(name)
	if err != nil {
		return 0, err
	}
	return img.Read32(a)
}

func (img *Image) Address(name string) (uint32, error) {
	return img.labels.Address(name)
}

func (img *Image) Section(name string) (Section, error) {
	return img.labels.Section(name)
}

func (img *Image) HasAddress(name string) bool {
	return img.labels.HasAddress(name)
}

func (img *Image) HasSection(name string) bool {
	return img.labels.HasSection(name)
}

// SectionBytes returns a copy of a named section.
func (img *Image) SectionBytes(name string) ([]byte, error) {
	s, err := img.Section(name)
	if err != nil {
		return nil, err
	}
	return img.ReadArray(s.Begin, int(s.Size()))
}

// WriteBytes overwrites the image at addr.
func (img *Image) WriteBytes(addr uint32, b []byte) error {
	if err := img.check(addr, len(b)); err != nil {
		return err
	}
	copy(img.data[addr:], b)
	return nil
}

// CalculateChecksum sums the big-endian words from 0x200 to the end.
func (img *Image) CalculateChecksum() uint16 {
	var sum uint16
	for i := ChecksumBegin; i+1 < len(img.data); i += 2 {
		sum += uint16(img.data[i])<<8 | uint16(img.data[i+1])
	}
	return sum
}

// StoredChecksum returns the checksum word in the header.
func (img *Image) StoredChecksum() uint16 {
	v, err := img.Read16(ChecksumAddress)
	if err != nil {
		return 0
	}
	return v
}

// ValidateChecksum returns ErrBadChecksum when the stored and calculated
// checksums differ.
func (img *Image) ValidateChecksum() error {
	stored, calc := img.StoredChecksum(), img.CalculateChecksum()
	if stored != calc {
		return fmt.Errorf("%w: stored %04X, calculated %04X", errs.ErrBadChecksum, stored, calc)
	}
	return nil
}

// FixChecksum stores the calculated checksum and returns it.
func (img *Image) FixChecksum() uint16 {
	sum := img.CalculateChecksum()
	if err := img.WriteBytes(ChecksumAddress, []byte{byte(sum >> 8), byte(sum)}); err != nil {
		img.logger.Warn("⚠️ image too small for a checksum", "size", len(img.data))
	}
	return sum
}

// WriteFile fixes the checksum and writes the image to path.
func (img *Image) WriteFile(path string) error {
	sum := img.FixChecksum()
	if err := os.WriteFile(path, img.data, 0o644); err != nil {
		return err
	}
	img.logger.Info("💾 wrote image", "path", path, "checksum", fmt.Sprintf("%04X", sum))
	return nil
}

// Fingerprint returns the blake3 fingerprint of the whole image.
func (img *Image) Fingerprint() string {
	return CalculateFingerprint(img.data, FingerprintBlake3)
}
