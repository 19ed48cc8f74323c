// Package autosave persists session images on a month cadence driven
// by the calendar boundary.
package autosave

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"ironhaul/server/internal/clock"
	"ironhaul/server/internal/save"
	"ironhaul/server/internal/scene"
)

const filePrefix = "autosave_"

// CaptureFunc builds the session image to persist.
type CaptureFunc func() save.Game

// ManagerConfig wires a Manager. Zero fields fall back to defaults.
type ManagerConfig struct {
	// Directory receives the autosave files.
	Directory string
	// FrequencyMonths is the saving cadence; zero or negative disables
	// saving while still counting months.
	FrequencyMonths int
	// Retention is how many autosaves survive pruning, at least one.
	Retention int
	Writer    save.Writer
	Clock     clock.Clock
	Logger    *zap.Logger
	Scene     *scene.Manager
	Capture   CaptureFunc
}

// Manager counts completed in-game months and writes an autosave every
// FrequencyMonths of gameplay. A failed write keeps the month counter,
// so the next boundary retries.
type Manager struct {
	cfg     ManagerConfig
	writer  save.Writer
	clock   clock.Clock
	logger  *zap.Logger
	scene   *scene.Manager
	capture CaptureFunc

	monthsSinceSave int
}

// NewManager builds a Manager from cfg.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Directory == "" {
		cfg.Directory = "autosave"
	}
	writer := cfg.Writer
	if writer == nil {
		writer = save.FileWriter{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg:     cfg,
		writer:  writer,
		clock:   clk,
		logger:  logger,
		scene:   cfg.Scene,
		capture: cfg.Capture,
	}
}

// Reset rewinds the month counter for a scenario (re)start.
func (m *Manager) Reset() {
	m.monthsSinceSave = 0
}

// OnMonthElapsed is the calendar boundary hook. Every call counts one
// completed month; a save happens once the configured cadence is
// reached during gameplay.
func (m *Manager) OnMonthElapsed() {
	m.monthsSinceSave++
	if m.cfg.FrequencyMonths <= 0 || m.capture == nil {
		return
	}
	if m.scene != nil && !m.scene.Gameplay() {
		return
	}
	if m.monthsSinceSave < m.cfg.FrequencyMonths {
		return
	}
	if err := m.saveNow(); err != nil {
		m.logger.Error("autosave failed", zap.Error(err))
		return
	}
	m.monthsSinceSave = 0
}

func (m *Manager) saveNow() error {
	now := m.clock.Now()
	game := m.capture()
	game.SavedAt = now

	name := fmt.Sprintf("%s%s%s", filePrefix, now.Format("2006-01-02_15-04-05"), save.Extension)
	path := filepath.Join(m.cfg.Directory, name)
	if err := m.writer.Write(path, game); err != nil {
		return err
	}
	m.logger.Info("autosave written", zap.String("path", path))

	if err := m.prune(); err != nil {
		m.logger.Warn("autosave prune failed", zap.Error(err))
	}
	return nil
}

// prune removes the oldest autosaves beyond the retention count. The
// timestamped names sort chronologically.
func (m *Manager) prune() error {
	keep := m.cfg.Retention
	if keep < 1 {
		keep = 1
	}
	entries, err := os.ReadDir(m.cfg.Directory)
	if err != nil {
		return err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, save.Extension) {
			continue
		}
		names = append(names, name)
	}
	if len(names) <= keep {
		return nil
	}
	sort.Strings(names)
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(m.cfg.Directory, name)); err != nil {
			return err
		}
	}
	return nil
}
