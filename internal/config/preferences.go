package config

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	keyDefault     = "default_palette"
	keyRecommended = "recommended_palettes"
	keyAll         = "all_palettes"
)

// Preferences stores per-resource palette choices in an INI file, one
// section per resource.
type Preferences struct {
	path string
	file *ini.File
}

// LoadPreferences reads path. A missing file yields empty preferences.
func LoadPreferences(path string) (*Preferences, error) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	return &Preferences{path: path, file: f}, nil
}

// NewPreferences returns empty in-memory preferences.
func NewPreferences() *Preferences {
	return &Preferences{file: ini.Empty()}
}

func split(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// DefaultPalette returns the palette a resource is shown with, or "" when
// none is set.
func (p *Preferences) DefaultPalette(resource string) string {
	if !p.file.HasSection(resource) {
		return ""
	}
	return p.file.Section(resource).Key(keyDefault).String()
}

// SetDefaultPalette records the palette for resource.
func (p *Preferences) SetDefaultPalette(resource, palette string) {
	p.file.Section(resource).Key(keyDefault).SetValue(palette)
}

// Recommended returns the recommended palettes of resource.
func (p *Preferences) Recommended(resource string) []string {
	if !p.file.HasSection(resource) {
		return nil
	}
	return split(p.file.Section(resource).Key(keyRecommended).String())
}

// SetRecommended replaces the recommended list. With setDefault the first
// entry becomes the default palette.
func (p *Preferences) SetRecommended(resource string, palettes []string, setDefault bool) {
	p.file.Section(resource).Key(keyRecommended).SetValue(strings.Join(palettes, ","))
	if setDefault && len(palettes) > 0 {
		p.SetDefaultPalette(resource, palettes[0])
	}
}

// AllPalettes returns every palette the resource may be shown with.
func (p *Preferences) AllPalettes(resource string) []string {
	if !p.file.HasSection(resource) {
		return nil
	}
	return split(p.file.Section(resource).Key(keyAll).String())
}

// SetAllPalettes replaces the full list, optionally cascading it to the
// recommended list and the default.
func (p *Preferences) SetAllPalettes(resource string, palettes []string, setRecommended, setDefault bool) {
	p.file.Section(resource).Key(keyAll).SetValue(strings.Join(palettes, ","))
	if setRecommended {
		p.SetRecommended(resource, palettes, setDefault)
	}
}

// ResetDefault picks the first recommended palette, or fallback when none
// is recommended.
func (p *Preferences) ResetDefault(resource, fallback string) {
	if rec := p.Recommended(resource); len(rec) > 0 {
		p.SetDefaultPalette(resource, rec[0])
		return
	}
	p.SetDefaultPalette(resource, fallback)
}

// Resources lists the resources with stored preferences.
func (p *Preferences) Resources() []string {
	var out []string
	for _, name := range p.file.SectionStrings() {
		if name != ini.DefaultSection {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Save writes the preferences back to the file they were loaded from, or
// to path when given.
func (p *Preferences) Save(path string) error {
	if path == "" {
		path = p.path
	}
	if path == "" {
		return fmt.Errorf("preferences have no file")
	}
	return p.file.SaveTo(path)
}
