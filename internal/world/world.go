// Package world implements the concrete simulation subsystems the tick
// executor drives: terrain, settlements, industry, the vehicle fleet
// and the finance passes hanging off the calendar boundaries. Every
// subsystem draws from the shared state generator in a fixed sequence,
// so two peers that start from the same seed and apply the same
// command batches hold bit-identical worlds.
package world

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"go.uber.org/zap"

	"ironhaul/server/internal/gamestate"
	"ironhaul/server/internal/sim"
)

// posScale is the fixed-point map scale: one tile is 256 units.
const posScale = 256

// World owns the subsystem graph for one loaded scenario.
type World struct {
	cfg    Config
	logger *zap.Logger

	tiles      *Tiles
	waves      *Waves
	towns      *Towns
	industries *Industries
	stations   *Stations
	effects    *Effects
	companies  *Companies
	vehicles   *Vehicles
	economy    *Economy
	animations *Animations
	ambience   *Ambience
	title      *Title
	bulletin   *Bulletin
	dates      *DateWatcher

	pendingScenario string
}

// New wires the subsystem graph. Populate must run before the first
// tick touches the world.
func New(cfg Config, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	industries := newIndustries()
	stations := newStations(industries)
	companies := newCompanies()
	effects := newEffects()
	towns := newTowns()
	return &World{
		cfg:        cfg,
		logger:     logger,
		tiles:      newTiles(cfg.TileWidth, cfg.TileHeight),
		waves:      &Waves{},
		towns:      towns,
		industries: industries,
		stations:   stations,
		effects:    effects,
		companies:  companies,
		vehicles:   newVehicles(stations, companies, effects),
		economy:    newEconomy(),
		animations: &Animations{},
		ambience:   &Ambience{},
		title:      &Title{},
		bulletin:   newBulletin(towns),
		dates:      newDateWatcher(logger),
	}
}

// Populate generates the starting world from the state generator. The
// generation order is fixed; peers that populate from the same seed
// produce identical worlds.
func (w *World) Populate(state *gamestate.State) {
	prng := state.Rng()
	w.tiles.reset()
	w.waves.reset()
	w.towns.generate(w.cfg, prng)
	w.industries.generate(w.cfg, prng)
	w.stations.generate(w.cfg, w.towns, prng)
	w.companies.generate(w.cfg, prng)
	w.vehicles.generate(w.cfg, prng)
	w.economy.reset()
	w.effects.reset()
	w.bulletin.reset()
	w.animations.frame = 0
	w.ambience.cues = nil

	w.logger.Info("world populated",
		zap.Int("towns", w.towns.count()),
		zap.Int("industries", w.industries.count()),
		zap.Int("stations", w.stations.count()),
		zap.Int("vehicles", w.vehicles.count()),
		zap.Int("companies", w.companies.count()))
}

// Updaters returns the per-tick subsystem sequence. The order is fixed
// for the life of the process; peers diverge if it changes.
func (w *World) Updaters() []sim.Updater {
	return []sim.Updater{
		w.tiles,
		w.waves,
		w.towns,
		w.industries,
		w.vehicles,
		w.stations,
		w.effects,
		w.companies,
		w.animations,
		w.ambience,
		w.title,
	}
}

// Boundary assembles the calendar boundary wiring around the world's
// subsystems.
func (w *World) Boundary(autosave sim.MonthObserver) sim.Boundary {
	return sim.Boundary{
		Daily: []sim.DayUpdater{
			w.stations,
			w.vehicles,
			w.industries,
			w.bulletin,
			w.dates,
		},
		CompanyDaily: w.companies,
		Monthly: []sim.MonthUpdater{
			w.towns,
			w.industries,
			w.companies.Finance(),
			w.companies.Headquarters(),
			w.vehicles,
		},
		Economy: w.economy,
		Quarterly: []sim.QuarterUpdater{
			w.companies,
		},
		Yearly: []sim.YearUpdater{
			w.companies,
			w.tiles,
		},
		Autosave: autosave,
	}
}

// Transforms exposes the fleet poses for render interpolation.
func (w *World) Transforms() map[uint64]sim.Transform {
	return w.vehicles.Transforms()
}

// Vehicles returns the fleet subsystem.
func (w *World) Vehicles() *Vehicles { return w.vehicles }

// Companies returns the finance subsystem.
func (w *World) Companies() *Companies { return w.companies }

// Stations returns the station subsystem.
func (w *World) Stations() *Stations { return w.stations }

// Bulletin returns the news feed.
func (w *World) Bulletin() *Bulletin { return w.bulletin }

// Effects returns the visual cue list.
func (w *World) Effects() *Effects { return w.effects }

// Ambience returns the ambient cue queue.
func (w *World) Ambience() *Ambience { return w.ambience }

// stageScenario records a scenario change requested by a confirmed
// command. The loop performs the actual load between passes.
func (w *World) stageScenario(path string) {
	w.pendingScenario = path
	w.logger.Info("scenario change staged", zap.String("path", path))
}

// TakePendingScenario returns the staged scenario path, if any, and
// clears it.
func (w *World) TakePendingScenario() (string, bool) {
	if w.pendingScenario == "" {
		return "", false
	}
	path := w.pendingScenario
	w.pendingScenario = ""
	return path, true
}

// Snapshot is the serializable image of the world used by saves and
// desync fingerprints.
type Snapshot struct {
	Tiles      TilesSnapshot        `json:"tiles"`
	Waves      WavesSnapshot        `json:"waves"`
	Towns      []Town               `json:"towns"`
	Industries []Industry           `json:"industries"`
	Stations   []Station            `json:"stations"`
	Vehicles   []Vehicle            `json:"vehicles"`
	Companies  []Company            `json:"companies"`
	Pending    []PendingTransaction `json:"pending,omitempty"`
	Economy    Economy              `json:"economy"`
	Notices    []Notice             `json:"notices,omitempty"`
}

// Snapshot captures the current world. The copy shares no memory with
// the live subsystems.
func (w *World) Snapshot() Snapshot {
	return Snapshot{
		Tiles:      w.tiles.snapshot(),
		Waves:      w.waves.snapshot(),
		Towns:      w.towns.snapshot(),
		Industries: w.industries.snapshot(),
		Stations:   w.stations.snapshot(),
		Vehicles:   w.vehicles.snapshot(),
		Companies:  w.companies.snapshot(),
		Pending:    w.companies.snapshotPending(),
		Economy:    *w.economy,
		Notices:    w.bulletin.Items(),
	}
}

// Restore replaces the world contents with a previously captured
// snapshot.
func (w *World) Restore(snap Snapshot) {
	w.tiles.restore(snap.Tiles)
	w.waves.restore(snap.Waves)
	w.towns.towns = append([]Town(nil), snap.Towns...)
	w.industries.industries = append([]Industry(nil), snap.Industries...)
	w.stations.stations = append([]Station(nil), snap.Stations...)
	w.vehicles.restore(snap.Vehicles)
	w.companies.restore(snap.Companies, snap.Pending)
	*w.economy = snap.Economy
	if w.economy.PriceLevel == 0 {
		w.economy.PriceLevel = basePriceLevel
	}
	w.bulletin.restore(snap.Notices)
	w.effects.reset()
}

// Fingerprint digests the snapshot for desync comparison between
// peers.
func (w *World) Fingerprint() (string, error) {
	blob, err := json.Marshal(w.Snapshot())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
