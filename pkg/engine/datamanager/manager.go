// Package datamanager loads the game's resource domains from a ROM image
// or an assembly project, tracks edits and produces the writes that put
// them back.
package datamanager

import (
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/landforge/go/landforge/internal/workenv"
	errs "github.com/provide-io/landforge/go/landforge/pkg/engine/errors"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/rom"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

// State is the lifecycle position of a manager.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateModified
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateModified:
		return "modified"
	case StateSaving:
		return "saving"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Progress is the current stage of a long operation and how far through
// the stages it is.
type Progress struct {
	Stage    string
	Fraction float64
}

// domain is what a concrete manager supplies to the shared lifecycle.
type domain interface {
	hasBeenModified() bool
	refreshPendingWrites(img *rom.Image, set *patch.Set) error
	commitAllChanges() error
	abandonAllChanges()
	// saveFiles writes every side-file and index file under dir, in
	// that order.
	saveFiles(dir string) error
	// layout lists the project-relative files saveFiles produces.
	layout() []string
}

// Manager is the lifecycle shared by every resource domain.
type Manager struct {
	name     string
	state    State
	progress Progress
	basePath string
	logger   hclog.Logger
	pending  *patch.Set
	impl     domain
}

func newManager(name string, logger hclog.Logger) Manager {
	return Manager{
		name:    name,
		logger:  logging.OrNull(logger).Named(name),
		pending: patch.NewSet(),
	}
}

// Name returns the domain name.
func (m *Manager) Name() string {
	return m.name
}

// State reports Modified when a ready manager holds uncommitted edits.
func (m *Manager) State() State {
	if m.state == StateReady && m.impl != nil && m.impl.hasBeenModified() {
		return StateModified
	}
	return m.state
}

// Progress returns the last stage reported.
func (m *Manager) Progress() Progress {
	return m.progress
}

// BasePath is the project directory the manager was loaded from or last
// saved to. It is empty for ROM loads.
func (m *Manager) BasePath() string {
	return m.basePath
}

func (m *Manager) setProgress(stage string, fraction float64) {
	m.progress = Progress{Stage: stage, Fraction: fraction}
	m.logger.Debug("⏳ "+stage, "progress", fmt.Sprintf("%.0f%%", fraction*100))
}

// stage is one step of a load.
type stage struct {
	name string
	run  func() error
}

// load runs stages in order and stops at the first failure, which is
// wrapped with the domain and stage names.
func (m *Manager) load(source string, stages []stage) error {
	m.state = StateLoading
	for i, s := range stages {
		m.setProgress(s.name, float64(i)/float64(len(stages)))
		if err := s.run(); err != nil {
			m.state = StateUnloaded
			m.logger.Error("❌ load failed", "stage", s.name, "source", source, "error", err)
			return errs.Wrap("load", m.name+"/"+s.name, err)
		}
	}
	m.setProgress("ready", 1)
	m.state = StateReady
	m.logger.Info("✅ loaded", "source", source)
	return nil
}

func (m *Manager) ready() error {
	if m.state != StateReady {
		return fmt.Errorf("%w: %s is %s", errs.ErrNotLoaded, m.name, m.state)
	}
	return nil
}

// HasBeenModified reports whether any entry or sequence differs from its
// baseline.
func (m *Manager) HasBeenModified() bool {
	return m.impl.hasBeenModified()
}

// RefreshPendingWrites replaces the pending writes with the current data
// laid out against img.
func (m *Manager) RefreshPendingWrites(img *rom.Image) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.pending.Clear()
	if err := m.impl.refreshPendingWrites(img, m.pending); err != nil {
		m.pending.Clear()
		return errs.Wrap("prepare", m.name, err)
	}
	m.logger.Debug("📝 pending writes", "count", m.pending.Len())
	return nil
}

// PendingWrites returns the writes prepared by RefreshPendingWrites.
func (m *Manager) PendingWrites() []patch.PendingWrite {
	return m.pending.All()
}

// Pending exposes the pending write set for merging.
func (m *Manager) Pending() *patch.Set {
	return m.pending
}

// Report checks the pending writes against img.
func (m *Manager) Report(img *rom.Image) (patch.CapacityReport, error) {
	return m.pending.Report(img)
}

// WillFitInRom reports whether every pending write fits its destination.
func (m *Manager) WillFitInRom(img *rom.Image) (bool, error) {
	return m.pending.WillFitInRom(img)
}

// InjectIntoRom writes the pending writes into img, commits every change
// and clears the pending set. Capacity is not checked.
func (m *Manager) InjectIntoRom(img *rom.Image) (int, error) {
	if err := m.ready(); err != nil {
		return 0, err
	}
	n, err := m.pending.InjectIntoRom(img)
	if err != nil {
		return n, errs.Wrap("inject", m.name, err)
	}
	for _, w := range m.pending.All() {
		m.logger.Trace("💉 rom write", "target", w.Target.Name, "bytes", len(w.Bytes))
	}
	if err := m.CommitAllChanges(); err != nil {
		return n, err
	}
	m.pending.Clear()
	m.logger.Info("💉 injected", "bytes", n)
	return n, nil
}

// AbandonRomInjection drops the pending writes.
func (m *Manager) AbandonRomInjection() {
	m.pending.Clear()
}

// CommitAllChanges makes the current data the new baseline.
func (m *Manager) CommitAllChanges() error {
	return errs.Wrap("commit", m.name, m.impl.commitAllChanges())
}

// AbandonAllChanges restores every entry and sequence to its baseline.
func (m *Manager) AbandonAllChanges() {
	m.impl.abandonAllChanges()
}

// Save writes the domain as an assembly project under dir and commits.
// An empty dir saves to BasePath. A failure leaves already written files
// in place.
func (m *Manager) Save(dir string) error {
	if err := m.ready(); err != nil {
		return err
	}
	if dir == "" {
		dir = m.basePath
	}
	if dir == "" {
		return fmt.Errorf("%s has no project directory", m.name)
	}

	m.state = StateSaving
	defer func() { m.state = StateReady }()

	m.setProgress("create layout", 0)
	if err := workenv.CreateLayout(dir, workenv.DirsFor(m.impl.layout())); err != nil {
		return errs.Wrap("save", m.name, err)
	}
	m.setProgress("write files", 0.5)
	if err := m.impl.saveFiles(dir); err != nil {
		return errs.Wrap("save", m.name, err)
	}
	if err := m.impl.commitAllChanges(); err != nil {
		return errs.Wrap("save", m.name, err)
	}
	m.basePath = dir
	m.setProgress("saved", 1)
	m.logger.Info("💾 saved project", "dir", dir)
	return nil
}

func projectPath(base, rel string) string {
	return filepath.Join(base, filepath.FromSlash(rel))
}
