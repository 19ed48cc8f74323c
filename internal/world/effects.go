package world

import (
	"ironhaul/server/internal/sim"
)

const effectsMax = 64

// Effect is one short-lived visual cue on the map.
type Effect struct {
	ID   uint64  `json:"id"`
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	TTL  uint32  `json:"ttl"`
}

// Effects keeps the active cues in a bounded list and expires them as
// ticks pass. Subsystems spawn into it during their own update slots,
// which keeps the list contents identical across peers.
type Effects struct {
	nextID uint64
	active []Effect
}

func newEffects() *Effects { return &Effects{} }

func (e *Effects) Name() string { return "effects" }

func (e *Effects) Update(ctx *sim.Context) sim.Status {
	kept := e.active[:0]
	for _, fx := range e.active {
		if fx.TTL <= 1 {
			continue
		}
		fx.TTL--
		kept = append(kept, fx)
	}
	e.active = kept
	return sim.Continue
}

// Spawn adds a cue. The oldest cue is dropped once the list is full.
func (e *Effects) Spawn(kind string, x, y float64, ttl uint32) {
	e.nextID++
	e.active = append(e.active, Effect{ID: e.nextID, Kind: kind, X: x, Y: y, TTL: ttl})
	if len(e.active) > effectsMax {
		e.active = e.active[1:]
	}
}

// Active returns a copy of the live cues.
func (e *Effects) Active() []Effect {
	out := make([]Effect, len(e.active))
	copy(out, e.active)
	return out
}

func (e *Effects) reset() {
	e.nextID = 0
	e.active = nil
}
