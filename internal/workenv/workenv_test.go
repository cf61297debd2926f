package workenv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetCacheRootEnv(t *testing.T) {
	t.Setenv("LANDFORGE_CACHE_DIR", "/tmp/lf-cache")
	if got := GetCacheRoot(); got != "/tmp/lf-cache" {
		t.Errorf("GetCacheRoot() = %s, want /tmp/lf-cache", got)
	}
	if got := GetBackupDir(); got != filepath.Join("/tmp/lf-cache", "backups") {
		t.Errorf("GetBackupDir() = %s", got)
	}
}

func TestDirsFor(t *testing.T) {
	dirs := DirsFor([]string{
		"code/rooms/roomlist.asm",
		"assets_packed/roomdata/maps/Map001.cmp",
		"top.asm",
	})
	want := []string{"assets_packed", "assets_packed/roomdata", "assets_packed/roomdata/maps", "code", "code/rooms"}
	if len(dirs) != len(want) {
		t.Fatalf("DirsFor() = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i].Path != filepath.FromSlash(want[i]) {
			t.Errorf("dirs[%d] = %s, want %s", i, dirs[i].Path, want[i])
		}
	}
}

func TestCreateLayoutAndMarker(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	if err := CreateLayout(root, []DirectorySpec{{Path: "code"}, {Path: "assets_packed", Mode: 0o700}}); err != nil {
		t.Fatalf("CreateLayout() error = %v", err)
	}
	if IsValid(root, "") {
		t.Errorf("IsValid() before MarkComplete = true")
	}
	if err := MarkComplete(root, "US", "blake3:abcd"); err != nil {
		t.Fatalf("MarkComplete() error = %v", err)
	}
	if !IsValid(root, "blake3:abcd") {
		t.Errorf("IsValid() after MarkComplete = false")
	}
	if IsValid(root, "blake3:ffff") {
		t.Errorf("IsValid() accepted a different fingerprint")
	}
	m, err := ReadMarker(root)
	if err != nil {
		t.Fatalf("ReadMarker() error = %v", err)
	}
	if m.Region != "US" {
		t.Errorf("Region = %s, want US", m.Region)
	}
	if err := Clean(root); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, MarkerFile)); !os.IsNotExist(err) {
		t.Errorf("marker still present after Clean()")
	}
	if err := Clean(root); err != nil {
		t.Errorf("second Clean() error = %v", err)
	}
}
