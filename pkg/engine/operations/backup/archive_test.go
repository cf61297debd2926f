package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArchiveRestoreDir(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"code/rooms/roomlist.asm":           "RoomTable:\n",
		"assets_packed/roomdata/map000.cmp": "\x12\x34\x56",
	}
	for name, body := range files {
		p := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	for _, ext := range []string{"tar", "tar.gz", "tar.bz2", "tar.lz4", "tar.zst"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "project."+ext)
			if err := ArchiveDir(src, path, testLogger()); err != nil {
				t.Fatalf("ArchiveDir() error = %v", err)
			}
			dest := t.TempDir()
			if err := RestoreDir(path, dest); err != nil {
				t.Fatalf("RestoreDir() error = %v", err)
			}
			for name, want := range files {
				got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(name)))
				if err != nil {
					t.Fatalf("read %s: %v", name, err)
				}
				if string(got) != want {
					t.Errorf("%s = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestArchiveNeedsTar(t *testing.T) {
	if err := ArchiveDir(t.TempDir(), filepath.Join(t.TempDir(), "project.zst"), nil); err == nil {
		t.Errorf("ArchiveDir() accepted a chain without tar")
	}
	if err := RestoreDir(filepath.Join(t.TempDir(), "project"), t.TempDir()); err == nil {
		t.Errorf("RestoreDir() accepted a name without extension")
	}
}
