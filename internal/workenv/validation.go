package workenv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// MarkerFile is written into a project once an extraction finishes.
const MarkerFile = ".landforge.json"

// ProjectMarker records where an extracted project came from.
type ProjectMarker struct {
	Timestamp   time.Time `json:"timestamp"`
	Region      string    `json:"region"`
	Fingerprint string    `json:"fingerprint"`
	Tool        string    `json:"tool"`
}

// ReadMarker loads the marker of a project directory.
func ReadMarker(path string) (*ProjectMarker, error) {
	data, err := os.ReadFile(filepath.Join(path, MarkerFile))
	if err != nil {
		return nil, err
	}
	var m ProjectMarker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// IsValid reports whether path holds a completed extraction. When
// fingerprint is not empty it must match the recorded source ROM.
func IsValid(path, fingerprint string) bool {
	m, err := ReadMarker(path)
	if err != nil {
		return false
	}
	if fingerprint != "" && m.Fingerprint != fingerprint {
		return false
	}
	for _, dir := range []string{"code", "assets_packed"} {
		if info, err := os.Stat(filepath.Join(path, dir)); err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// MarkComplete writes the marker for a finished extraction.
func MarkComplete(path, region, fingerprint string) error {
	marker := ProjectMarker{
		Timestamp:   time.Now().UTC(),
		Region:      region,
		Fingerprint: fingerprint,
		Tool:        "landforge",
	}

	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(path, MarkerFile), data, 0o644)
}

// Clean removes the marker so the directory no longer counts as complete.
func Clean(path string) error {
	err := os.Remove(filepath.Join(path, MarkerFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
