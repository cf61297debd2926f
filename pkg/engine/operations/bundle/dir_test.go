package bundle

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPackUnpackDir(t *testing.T) {
	files := map[string]string{
		"code/graphics/graphics_data.asm": "SystemFont: incbin \"x\"\n",
		"assets_packed/graphics/font.bin": "\x00\x01\x02",
		".landforge.json":                 "{}",
	}
	src := t.TempDir()
	writeTree(t, src, files)

	var buf bytes.Buffer
	if err := PackDir(src, &buf); err != nil {
		t.Fatalf("PackDir() error = %v", err)
	}

	dest := filepath.Join(t.TempDir(), "out")
	if err := UnpackDir(bytes.NewReader(buf.Bytes()), dest); err != nil {
		t.Fatalf("UnpackDir() error = %v", err)
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
}

func TestUnpackDirRejectsEscape(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	body := []byte("boom")
	if err := tw.WriteHeader(&tar.Header{Name: "../evil.bin", Mode: 0o644, Size: int64(len(body)),
		Typeflag: tar.TypeReg, ModTime: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(body); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	parent := t.TempDir()
	if err := UnpackDir(&buf, filepath.Join(parent, "dest")); err == nil {
		t.Fatal("UnpackDir() accepted a member outside dest")
	}
	if _, err := os.Stat(filepath.Join(parent, "evil.bin")); !os.IsNotExist(err) {
		t.Errorf("escaped member was written")
	}
}

func TestTarSingleEntry(t *testing.T) {
	op := NewTarOperation()
	data := bytes.Repeat([]byte{0x4E, 0x75}, 512)
	packed, err := op.Apply(data)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	got, err := op.Reverse(packed)
	if err != nil {
		t.Fatalf("Reverse() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Reverse() returned %d bytes, want %d", len(got), len(data))
	}

	var dirTar bytes.Buffer
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.bin": "x"})
	if err := PackDir(src, &dirTar); err != nil {
		t.Fatal(err)
	}
	if _, err := op.Reverse(dirTar.Bytes()); err == nil {
		t.Errorf("Reverse() found %s in a project archive", EntryName)
	}
}
