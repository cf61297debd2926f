package pkg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/landforge/go/landforge/internal/config"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
)

const testLabels = `region: "*"
sections:
  Scratch: {begin: 0x300, end: 0x310}
addresses:
  Pointer: 0x310
`

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{Name: "pkg_test", Level: hclog.Trace})
}

// workspace writes a small US image and its label table.
func workspace(t *testing.T, labels string) (romPath string, o Options) {
	t.Helper()
	dir := t.TempDir()
	data := make([]byte, 0x400)
	copy(data[rom.BuildDateAddress:], "93/07/13 20:03")
	for i := 0x320; i < 0x400; i++ {
		data[i] = byte(i)
	}
	romPath = filepath.Join(dir, "base.bin")
	require.NoError(t, os.WriteFile(romPath, data, 0o644))
	labelPath := filepath.Join(dir, "labels.yaml")
	require.NoError(t, os.WriteFile(labelPath, []byte(labels), 0o644))

	cfg := config.Default()
	cfg.Backup.Dir = filepath.Join(dir, "backups")
	return romPath, Options{Config: cfg, Labels: []string{labelPath}, Logger: testLogger()}
}

func TestLoadLabelTablesNeedsPaths(t *testing.T) {
	_, err := LoadLabelTables(Options{})
	assert.ErrorIs(t, err, ErrNoLabelTables)

	_, err = OpenRom("missing.bin", Options{Labels: []string{"missing.yaml"}})
	assert.ErrorIs(t, err, errs.ErrFileNotFound)
}

func TestOpenRomRegion(t *testing.T) {
	romPath, o := workspace(t, testLabels)

	img, err := OpenRom(romPath, o)
	require.NoError(t, err)
	assert.Equal(t, rom.RegionUS, img.Region())

	o.Region = "fr"
	img, err = OpenRom(romPath, o)
	require.NoError(t, err)
	assert.Equal(t, rom.RegionFR, img.Region())

	o.Region = "atlantis"
	_, err = OpenRom(romPath, o)
	assert.ErrorIs(t, err, errs.ErrUnknownRegion)
}

func TestApplyPatch(t *testing.T) {
	romPath, o := workspace(t, testLabels)
	base, err := OpenRom(romPath, o)
	require.NoError(t, err)

	payload := []byte("LANDSTALKER!")
	set := patch.NewSet()
	set.AddSection("Scratch", payload)
	set.Add(rom.WriteAddress32("Pointer", 0x00012345))
	var buf bytes.Buffer
	require.NoError(t, set.Export(&buf, base))
	patchPath := filepath.Join(t.TempDir(), "change.lfpatch")
	require.NoError(t, os.WriteFile(patchPath, buf.Bytes(), 0o644))

	outPath := filepath.Join(t.TempDir(), "out.bin")
	n, err := ApplyPatch(romPath, patchPath, outPath, false, false, o)
	require.NoError(t, err)
	assert.Equal(t, len(payload)+4, n)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, payload, out[0x300:0x300+len(payload)])
	assert.Equal(t, []byte{0x00, 0x01, 0x23, 0x45}, out[0x310:0x314])
	patched, err := rom.FromBytes(out, rom.LabelTables{rom.AnyRegion: rom.NewLabelTable(rom.AnyRegion)}, nil)
	require.NoError(t, err)
	assert.NoError(t, patched.ValidateChecksum())

	// the output is no longer the patch base
	_, err = ApplyPatch(outPath, patchPath, outPath, false, false, o)
	assert.ErrorIs(t, err, errs.ErrBadChecksum)
	_, err = ApplyPatch(outPath, patchPath, outPath, true, true, o)
	require.NoError(t, err)
	backups, err := os.ReadDir(o.Config.Backup.Dir)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestApplyEmptyPatch(t *testing.T) {
	romPath, o := workspace(t, testLabels)
	base, err := OpenRom(romPath, o)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, patch.NewSet().Export(&buf, base))
	patchPath := filepath.Join(t.TempDir(), "empty.lfpatch")
	require.NoError(t, os.WriteFile(patchPath, buf.Bytes(), 0o644))

	_, err = ApplyPatch(romPath, patchPath, filepath.Join(t.TempDir(), "out.bin"), false, false, o)
	assert.ErrorIs(t, err, ErrNoChanges)
}

func TestBackupFile(t *testing.T) {
	romPath, o := workspace(t, testLabels)

	path, err := BackupFile(filepath.Join(t.TempDir(), "absent.bin"), o)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = BackupFile(romPath, o)
	require.NoError(t, err)
	assert.Equal(t, o.Config.Backup.Dir, filepath.Dir(path))
	assert.FileExists(t, path)
}

func TestVerifyRom(t *testing.T) {
	romPath, o := workspace(t, testLabels+`  Outside: 0x3FE
`)

	info, err := VerifyRomWithLogger(romPath, o, testLogger())
	assert.ErrorIs(t, err, ErrIntegrityCheckFailed)
	require.NotNil(t, info)
	assert.Equal(t, rom.RegionUS, info.Region)
	assert.Equal(t, "93/07/13 20:03", info.BuildDate)
	assert.False(t, info.ChecksumValid())
	assert.Contains(t, info.Fingerprint, "blake3:")

	var outside, resources bool
	for _, p := range info.Problems {
		outside = outside || bytes.Contains([]byte(p), []byte("Outside"))
		resources = resources || bytes.HasPrefix([]byte(p), []byte("resources:"))
	}
	assert.True(t, outside, "problems = %v", info.Problems)
	assert.True(t, resources, "problems = %v", info.Problems)
}
