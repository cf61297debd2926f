package datamanager

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/internal/workenv"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/text"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

// Game is every resource domain of one ROM or project.
type Game struct {
	Graphics *GraphicsData
	Rooms    *RoomData
	Strings  *StringData

	// Region and Fingerprint identify the source ROM when known.
	Region      string
	Fingerprint string

	logger hclog.Logger
}

// FromRom loads all domains from img, stopping at the first failure.
func FromRom(img *rom.Image, logger hclog.Logger, opts ...StringOption) (*Game, error) {
	logger = logging.OrNull(logger)
	g := &Game{Region: string(img.Region()), Fingerprint: img.Fingerprint(), logger: logger}
	var err error
	if g.Graphics, err = NewGraphicsDataFromRom(img, logger); err != nil {
		return nil, err
	}
	if g.Rooms, err = NewRoomDataFromRom(img, logger); err != nil {
		return nil, err
	}
	if g.Strings, err = NewStringDataFromRom(img, logger, opts...); err != nil {
		return nil, err
	}
	logger.Info("🎮 game loaded from rom", "region", g.Region, "fingerprint", g.Fingerprint)
	return g, nil
}

// FromAsm loads all domains from the project at base. Without a charset
// option the project marker's region picks one.
func FromAsm(base string, logger hclog.Logger, opts ...StringOption) (*Game, error) {
	logger = logging.OrNull(logger)
	g := &Game{logger: logger}
	if m, err := workenv.ReadMarker(base); err == nil {
		g.Region, g.Fingerprint = m.Region, m.Fingerprint
		opts = append([]StringOption{WithCharset(text.ForRegion(m.Region))}, opts...)
	}
	var err error
	if g.Graphics, err = NewGraphicsDataFromAsm(base, logger); err != nil {
		return nil, err
	}
	if g.Rooms, err = NewRoomDataFromAsm(base, logger); err != nil {
		return nil, err
	}
	if g.Strings, err = NewStringDataFromAsm(base, logger, opts...); err != nil {
		return nil, err
	}
	logger.Info("🎮 game loaded from project", "dir", base)
	return g, nil
}

// Managers returns the domains in load order.
func (g *Game) Managers() []*Manager {
	return []*Manager{&g.Graphics.Manager, &g.Rooms.Manager, &g.Strings.Manager}
}

// HasBeenModified reports whether any domain holds uncommitted edits.
func (g *Game) HasBeenModified() bool {
	for _, m := range g.Managers() {
		if m.HasBeenModified() {
			return true
		}
	}
	return false
}

// Save writes every domain under dir and marks the project complete.
func (g *Game) Save(dir string) error {
	if err := workenv.Clean(dir); err != nil {
		return err
	}
	for _, m := range g.Managers() {
		if err := m.Save(dir); err != nil {
			return err
		}
	}
	return workenv.MarkComplete(dir, g.Region, g.Fingerprint)
}

// RefreshPendingWrites prepares every domain's writes against img and
// returns them merged.
func (g *Game) RefreshPendingWrites(img *rom.Image) (*patch.Set, error) {
	set := patch.NewSet()
	for _, m := range g.Managers() {
		if err := m.RefreshPendingWrites(img); err != nil {
			return nil, err
		}
		set.Merge(m.Pending())
	}
	return set, nil
}

// Report checks the merged pending writes against img.
func (g *Game) Report(img *rom.Image) (patch.CapacityReport, error) {
	set := patch.NewSet()
	for _, m := range g.Managers() {
		set.Merge(m.Pending())
	}
	return set.Report(img)
}

// InjectIntoRom writes every domain's pending writes into img.
func (g *Game) InjectIntoRom(img *rom.Image) (int, error) {
	total := 0
	for _, m := range g.Managers() {
		n, err := m.InjectIntoRom(img)
		total += n
		if err != nil {
			return total, fmt.Errorf("%s: %w", m.Name(), err)
		}
	}
	return total, nil
}

// AbandonAllChanges restores every domain to its baseline.
func (g *Game) AbandonAllChanges() {
	for _, m := range g.Managers() {
		m.AbandonAllChanges()
		m.AbandonRomInjection()
	}
}
