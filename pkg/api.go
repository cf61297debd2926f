// Package pkg is the entry point used by the landforge commands. It ties
// configuration, label tables, ROM images and the resource managers
// together.
package pkg

import (
	"bytes"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/internal/config"
	"github.com/provide-io/landforge/go/landforge/internal/workenv"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/datamanager"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations/backup"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/text"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

// Options carries what every call needs. Labels and Region, when set,
// take precedence over the configuration.
type Options struct {
	Config *config.Config
	Labels []string
	Region string
	Logger hclog.Logger
}

func (o Options) config() *config.Config {
	if o.Config == nil {
		return config.Default()
	}
	return o.Config
}

func (o Options) logger() hclog.Logger {
	return logging.OrNull(o.Logger)
}

func (o Options) region() string {
	if o.Region != "" {
		return o.Region
	}
	return o.config().Region
}

// LoadLabelTables reads the label tables named by the options.
func LoadLabelTables(o Options) (rom.LabelTables, error) {
	paths := o.Labels
	if len(paths) == 0 {
		paths = o.config().LabelTables
	}
	if len(paths) == 0 {
		return nil, ErrNoLabelTables
	}
	return rom.LoadLabelTables(paths...)
}

// OpenRom loads the image at path and binds the label table of its
// region.
func OpenRom(path string, o Options) (*rom.Image, error) {
	tables, err := LoadLabelTables(o)
	if err != nil {
		return nil, err
	}
	img, err := rom.Load(path, tables, o.logger())
	if err != nil {
		return nil, err
	}
	if r := o.region(); r != "" {
		region, err := rom.ParseRegion(r)
		if err != nil {
			return nil, err
		}
		if err := img.SetRegion(region); err != nil {
			return nil, err
		}
		o.logger().Debug("🌍 region overridden", "region", region)
	}
	return img, nil
}

func stringOptions(o Options) ([]datamanager.StringOption, error) {
	path := o.config().Charset
	if path == "" {
		return nil, nil
	}
	cs, err := text.LoadCharset(path)
	if err != nil {
		return nil, err
	}
	return []datamanager.StringOption{datamanager.WithCharset(cs)}, nil
}

// LoadGame decodes every resource of img.
func LoadGame(img *rom.Image, o Options) (*datamanager.Game, error) {
	opts, err := stringOptions(o)
	if err != nil {
		return nil, err
	}
	if len(opts) == 0 {
		opts = append(opts, datamanager.WithCharset(text.ForRegion(string(img.Region()))))
	}
	return datamanager.FromRom(img, o.logger(), opts...)
}

// LoadProject decodes the assembly project under dir.
func LoadProject(dir string, o Options) (*datamanager.Game, error) {
	opts, err := stringOptions(o)
	if err != nil {
		return nil, err
	}
	if r := o.region(); r != "" && len(opts) == 0 {
		opts = append(opts, datamanager.WithCharset(text.ForRegion(r)))
	}
	return datamanager.FromAsm(dir, o.logger(), opts...)
}

// Extract turns the ROM at romPath into an assembly project under outDir.
// A non-empty archive also packs the project into that file.
func Extract(romPath, outDir, archive string, o Options) (*datamanager.Game, error) {
	img, err := OpenRom(romPath, o)
	if err != nil {
		return nil, err
	}
	g, err := LoadGame(img, o)
	if err != nil {
		return nil, err
	}
	if err := g.Save(outDir); err != nil {
		return nil, err
	}
	o.logger().Info("📤 extracted project", "rom", romPath, "dir", outDir)
	if archive != "" {
		if err := backup.ArchiveDir(outDir, archive, o.logger()); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Plan is a project prepared for injection into a base image.
type Plan struct {
	Game   *datamanager.Game
	Base   *rom.Image
	Writes *patch.Set
	Report patch.CapacityReport
}

// Fits reports whether every pending write fits its destination.
func (p *Plan) Fits() bool {
	return p.Report.Fits()
}

// PlanBuild loads the project under dir and prepares its writes against
// the base image at basePath. Nothing is written.
func PlanBuild(dir, basePath string, o Options) (*Plan, error) {
	base, err := OpenRom(basePath, o)
	if err != nil {
		return nil, err
	}
	if !workenv.IsValid(dir, base.Fingerprint()) {
		o.logger().Warn("⚠️ project was not extracted from this base image", "dir", dir, "base", basePath)
	}
	g, err := LoadProject(dir, o)
	if err != nil {
		return nil, err
	}
	set, err := g.RefreshPendingWrites(base)
	if err != nil {
		return nil, err
	}
	report, err := set.Report(base)
	if err != nil {
		return nil, err
	}
	required, available := report.Totals()
	o.logger().Debug("📋 build planned", "writes", set.Len(), "required", required, "available", available,
		"fits", report.Fits())
	return &Plan{Game: g, Base: base, Writes: set, Report: report}, nil
}

// BuildOptions controls Build.
type BuildOptions struct {
	// Force injects even when some write does not fit.
	Force bool
	// Backup archives an existing output file before it is replaced.
	Backup bool
}

// BuildResult describes a finished build.
type BuildResult struct {
	Plan       *Plan
	Written    int
	Checksum   uint16
	BackupPath string
}

// Build injects the project under dir into a copy of the base image and
// writes it to outPath. When the writes do not fit the returned result
// still carries the plan so the caller can show the report.
func Build(dir, basePath, outPath string, bo BuildOptions, o Options) (*BuildResult, error) {
	logger := o.logger()
	plan, err := PlanBuild(dir, basePath, o)
	if err != nil {
		return nil, err
	}
	res := &BuildResult{Plan: plan}
	if !plan.Fits() {
		if !bo.Force {
			return res, fmt.Errorf("%w: %w", ErrDoesNotFit, plan.Report.CheckFits())
		}
		logger.Warn("⚠️ injecting writes that do not fit", "error", plan.Report.CheckFits())
	}

	if bo.Backup {
		if res.BackupPath, err = BackupFile(outPath, o); err != nil {
			return res, err
		}
	}

	out := plan.Base.Clone()
	if res.Written, err = plan.Game.InjectIntoRom(out); err != nil {
		return res, err
	}
	if err := writeImage(out, outPath, o); err != nil {
		return res, err
	}
	res.Checksum = out.StoredChecksum()
	logger.Info("🏗️ built rom", "out", outPath, "bytes", res.Written, "checksum", fmt.Sprintf("%04X", res.Checksum))
	return res, nil
}

func writeImage(img *rom.Image, path string, o Options) error {
	if err := img.WriteFile(path); err != nil {
		return err
	}
	return os.Chmod(path, o.config().Mode())
}

// BackupFile archives the file at path into the configured backup
// directory. A missing file is not an error and yields an empty path.
func BackupFile(path string, o Options) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	cfg := o.config()
	return backup.Backup(data, cfg.BackupChain(), cfg.Backup.Dir, o.logger())
}

// ExportPatch writes the project's changes against the base image as a
// patch file and returns the plan it was made from.
func ExportPatch(dir, basePath, outPath string, o Options) (*Plan, error) {
	plan, err := PlanBuild(dir, basePath, o)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := plan.Writes.Export(&buf, plan.Base); err != nil {
		return plan, err
	}
	if err := os.WriteFile(outPath, buf.Bytes(), o.config().Mode()); err != nil {
		return plan, err
	}
	o.logger().Info("🩹 exported patch", "out", outPath, "writes", plan.Writes.Len(), "size", buf.Len())
	return plan, nil
}

// ApplyPatch applies the patch file at patchPath to the ROM at romPath
// and writes the result to outPath, which may equal romPath. Unless force
// is set the ROM must be the image the patch was made against.
func ApplyPatch(romPath, patchPath, outPath string, force, keepBackup bool, o Options) (int, error) {
	data, err := os.ReadFile(romPath)
	if err != nil {
		return 0, err
	}
	// patched images carry their own checksum; no label table is needed
	img, err := rom.FromBytes(data, rom.LabelTables{rom.AnyRegion: rom.NewLabelTable(rom.AnyRegion)}, o.logger())
	if err != nil {
		return 0, err
	}

	f, err := os.Open(patchPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	pf, err := patch.Import(f)
	if err != nil {
		return 0, err
	}
	if len(pf.Writes) == 0 {
		return 0, ErrNoChanges
	}

	n, err := patch.ApplyPatchFile(img, pf, force)
	if err != nil {
		return n, err
	}
	if keepBackup {
		if _, err := BackupFile(outPath, o); err != nil {
			return n, err
		}
	}
	if err := writeImage(img, outPath, o); err != nil {
		return n, err
	}
	o.logger().Info("🩹 applied patch", "patch", patchPath, "out", outPath, "bytes", n)
	return n, nil
}
