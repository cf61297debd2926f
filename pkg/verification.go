package pkg

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

// RomInfo summarises an image and the outcome of its checks.
type RomInfo struct {
	Path               string
	Size               int
	Region             rom.Region
	BuildDate          string
	StoredChecksum     uint16
	CalculatedChecksum uint16
	Fingerprint        string
	Problems           []string
}

// ChecksumValid reports whether the stored checksum matches the image.
func (i *RomInfo) ChecksumValid() bool {
	return i.StoredChecksum == i.CalculatedChecksum
}

// InspectRom reads the header facts of the image at path without
// checking its resources.
func InspectRom(path string, o Options) (*RomInfo, *rom.Image, error) {
	img, err := OpenRom(path, o)
	if err != nil {
		return nil, nil, err
	}
	return &RomInfo{
		Path:               path,
		Size:               img.Size(),
		Region:             img.Region(),
		BuildDate:          img.BuildDate(),
		StoredChecksum:     img.StoredChecksum(),
		CalculatedChecksum: img.CalculateChecksum(),
		Fingerprint:        img.Fingerprint(),
	}, img, nil
}

// VerifyRomWithLogger checks the checksum, that every labelled section
// lies inside the image, and that every resource decodes.
func VerifyRomWithLogger(path string, o Options, logger hclog.Logger) (*RomInfo, error) {
	o.Logger = logger
	info, img, err := InspectRom(path, o)
	if err != nil {
		logger.Error("Failed to open rom", "error", err)
		return nil, err
	}

	logger.Info("Verifying rom integrity", "region", info.Region)

	if !info.ChecksumValid() {
		info.Problems = append(info.Problems, fmt.Sprintf("checksum: stored %04X, calculated %04X",
			info.StoredChecksum, info.CalculatedChecksum))
		logger.Error("Checksum mismatch", "stored", fmt.Sprintf("%04X", info.StoredChecksum),
			"calculated", fmt.Sprintf("%04X", info.CalculatedChecksum))
	} else {
		logger.Info("✓ Checksum valid")
	}

	labels := img.Labels()
	names := make([]string, 0, len(labels.Sections))
	for name := range labels.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sec := labels.Sections[name]
		if sec.End < sec.Begin || int(sec.End) > info.Size {
			info.Problems = append(info.Problems, fmt.Sprintf("section %s %s outside image", name, sec))
			logger.Error("Section outside image", "name", name, "section", sec.String())
		}
	}
	for name, addr := range labels.Addresses {
		if int(addr)+4 > info.Size {
			info.Problems = append(info.Problems, fmt.Sprintf("address %s %06X outside image", name, addr))
			logger.Error("Address outside image", "name", name, "address", fmt.Sprintf("%06X", addr))
		}
	}
	if len(info.Problems) == 0 {
		logger.Info("✓ Label table fits image", "sections", len(labels.Sections), "addresses", len(labels.Addresses))
	}

	if _, err := LoadGame(img, o); err != nil {
		info.Problems = append(info.Problems, fmt.Sprintf("resources: %v", err))
		logger.Error("Resource decoding failed", "error", err)
	} else {
		logger.Info("✓ Resources decode")
	}

	if len(info.Problems) == 0 {
		logger.Info("✓ Rom verification passed")
		return info, nil
	}
	logger.Error("✗ Rom verification failed", "error_count", len(info.Problems))
	for _, p := range info.Problems {
		logger.Error("  Verification error", "details", p)
	}
	return info, fmt.Errorf("%w: %d problems", ErrIntegrityCheckFailed, len(info.Problems))
}

// VerifyRom verifies an image using default logger settings
func VerifyRom(path string, o Options) (*RomInfo, error) {
	logger := logging.NewLogger("landforge-verify", logging.GetLogLevel(), nil)
	return VerifyRomWithLogger(path, o, logger)
}
