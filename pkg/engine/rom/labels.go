package rom

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
)

// AnyRegion keys a label table that applies to every release.
const AnyRegion = "*"

// Section is a half-open address range [Begin, End).
type Section struct {
	Begin uint32 `yaml:"begin" json:"begin"`
	End   uint32 `yaml:"end" json:"end"`
}

// Size returns End-Begin.
func (s Section) Size() uint32 {
	if s.End < s.Begin {
		return 0
	}
	return s.End - s.Begin
}

// Contains reports whether addr lies inside the section.
func (s Section) Contains(addr uint32) bool {
	return addr >= s.Begin && addr < s.End
}

func (s Section) String() string {
	return fmt.Sprintf("[%06X, %06X)", s.Begin, s.End)
}

// LabelTable holds the named addresses and sections of one release.
type LabelTable struct {
	Region       string
	ExpectedSize int
	Addresses    map[string]uint32
	Sections     map[string]Section
}

// NewLabelTable returns an empty table for region.
func NewLabelTable(region string) *LabelTable {
	return &LabelTable{
		Region:    region,
		Addresses: make(map[string]uint32),
		Sections:  make(map[string]Section),
	}
}

// Address looks up a named address.
func (t *LabelTable) Address(name string) (uint32, error) {
	a, ok := t.Addresses[name]
	if !ok {
		return 0, fmt.Errorf("%w: address %q in %s table", errs.ErrLabelNotFound, name, t.Region)
	}
	return a, nil
}

// Section looks up a named section.
func (t *LabelTable) Section(name string) (Section, error) {
	s, ok := t.Sections[name]
	if !ok {
		return Section{}, fmt.Errorf("%w: section %q in %s table", errs.ErrLabelNotFound, name, t.Region)
	}
	return s, nil
}

func (t *LabelTable) HasAddress(name string) bool {
	_, ok := t.Addresses[name]
	return ok
}

func (t *LabelTable) HasSection(name string) bool {
	_, ok := t.Sections[name]
	return ok
}

// addr accepts 1234, 0x4D2, "0x4D2" and "$4D2".
type addr uint32

func parseAddr(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(v), nil
}

func (a *addr) UnmarshalYAML(n *yaml.Node) error {
	v, err := parseAddr(n.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*a = addr(v)
	return nil
}

func (a *addr) UnmarshalJSON(b []byte) error {
	s := string(b)
	if uq, err := strconv.Unquote(s); err == nil {
		s = uq
	}
	v, err := parseAddr(s)
	if err != nil {
		return err
	}
	*a = addr(v)
	return nil
}

type sectionFile struct {
	Begin addr `yaml:"begin" json:"begin"`
	End   addr `yaml:"end" json:"end"`
}

type labelFile struct {
	Region    string                 `yaml:"region" json:"region"`
	Size      addr                   `yaml:"size" json:"size"`
	Addresses map[string]addr        `yaml:"addresses" json:"addresses"`
	Sections  map[string]sectionFile `yaml:"sections" json:"sections"`
}

// ParseLabelTable decodes a table. format is "yaml" or "json"; JSON input
// may carry comments and trailing commas.
func ParseLabelTable(data []byte, format string) (*LabelTable, error) {
	var f labelFile
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
	case "json", "jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported label table format %q", format)
	}

	region := strings.ToUpper(strings.TrimSpace(f.Region))
	if region == "" {
		region = AnyRegion
	}
	t := NewLabelTable(region)
	t.ExpectedSize = int(f.Size)
	for name, a := range f.Addresses {
		t.Addresses[name] = uint32(a)
	}
	for name, s := range f.Sections {
		if s.End < s.Begin {
			return nil, fmt.Errorf("section %q ends before it begins", name)
		}
		t.Sections[name] = Section{Begin: uint32(s.Begin), End: uint32(s.End)}
	}
	return t, nil
}

// LabelTables indexes tables by region.
type LabelTables map[string]*LabelTable

// LoadLabelTables reads .yaml, .yml, .json and .jsonc tables. A later file
// for the same region adds to and overrides the earlier ones.
func LoadLabelTables(paths ...string) (LabelTables, error) {
	tables := make(LabelTables)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: label table %s", errs.ErrFileNotFound, p)
			}
			return nil, err
		}
		t, err := ParseLabelTable(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(p)), "."))
		if err != nil {
			return nil, fmt.Errorf("label table %s: %w", p, err)
		}
		tables.Add(t)
	}
	return tables, nil
}

// Add merges t into the set.
func (ts LabelTables) Add(t *LabelTable) {
	cur, ok := ts[t.Region]
	if !ok {
		ts[t.Region] = t
		return
	}
	if t.ExpectedSize != 0 {
		cur.ExpectedSize = t.ExpectedSize
	}
	for k, v := range t.Addresses {
		cur.Addresses[k] = v
	}
	for k, v := range t.Sections {
		cur.Sections[k] = v
	}
}

// For returns the table for region, falling back to the AnyRegion table.
func (ts LabelTables) For(region string) (*LabelTable, error) {
	if t, ok := ts[strings.ToUpper(region)]; ok {
		return t, nil
	}
	if t, ok := ts[AnyRegion]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: no label table for %s (have %s)", errs.ErrUnknownRegion, region, strings.Join(ts.Regions(), ", "))
}

// Regions lists the regions with a table, sorted.
func (ts LabelTables) Regions() []string {
	out := make([]string, 0, len(ts))
	for r := range ts {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
