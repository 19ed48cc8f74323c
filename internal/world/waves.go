package world

import (
	"ironhaul/server/internal/sim"
)

const (
	waveFoamInterval = 8
	waveFoamWindow   = 16
)

// Waves animates the shoreline. The phase counter drives the swell and
// a bounded ring of foam bursts spawns on a fixed cadence.
type Waves struct {
	phase uint32
	foam  []uint32
}

// WavesSnapshot is the serializable wave state.
type WavesSnapshot struct {
	Phase uint32   `json:"phase"`
	Foam  []uint32 `json:"foam,omitempty"`
}

func (w *Waves) Name() string { return "waves" }

func (w *Waves) Update(ctx *sim.Context) sim.Status {
	w.phase++
	if w.phase%waveFoamInterval == 0 {
		w.foam = append(w.foam, ctx.State.Rng().Next())
		if len(w.foam) > waveFoamWindow {
			w.foam = w.foam[1:]
		}
	}
	return sim.Continue
}

func (w *Waves) snapshot() WavesSnapshot {
	foam := make([]uint32, len(w.foam))
	copy(foam, w.foam)
	return WavesSnapshot{Phase: w.phase, Foam: foam}
}

func (w *Waves) restore(snap WavesSnapshot) {
	w.phase = snap.Phase
	w.foam = append([]uint32(nil), snap.Foam...)
}

func (w *Waves) reset() {
	w.phase = 0
	w.foam = nil
}
