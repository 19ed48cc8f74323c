package world

import (
	"ironhaul/server/internal/scene"
	"ironhaul/server/internal/sim"
)

const (
	ambienceInterval = 256
	ambienceQueueMax = 8
)

// Animations advances the global frame clock driving sprite animation.
type Animations struct {
	frame uint32
}

func (a *Animations) Name() string { return "animations" }

func (a *Animations) Update(ctx *sim.Context) sim.Status {
	a.frame++
	return sim.Continue
}

// Frame returns the current animation frame counter.
func (a *Animations) Frame() uint32 { return a.frame }

// Ambience queues ambient audio cues for the presentation layer. The
// cue draw happens every interval regardless of mode so the generator
// stream stays identical across peers; only the enqueue is gated on
// gameplay.
type Ambience struct {
	cues []string
}

var ambienceCues = []string{"wind", "gulls", "rail_clatter", "harbor_bell"}

func (a *Ambience) Name() string { return "ambience" }

func (a *Ambience) Update(ctx *sim.Context) sim.Status {
	if ctx.State.Ticks()%ambienceInterval != 0 {
		return sim.Continue
	}
	cue := ambienceCues[ctx.State.Rng().NextN(uint32(len(ambienceCues)))]
	if !ctx.Scene.Gameplay() {
		return sim.Continue
	}
	a.cues = append(a.cues, cue)
	if len(a.cues) > ambienceQueueMax {
		a.cues = a.cues[1:]
	}
	return sim.Continue
}

// Drain returns the queued cues and empties the queue.
func (a *Ambience) Drain() []string {
	out := a.cues
	a.cues = nil
	return out
}

// Title runs the menu backdrop housekeeping. It only works while the
// title screen is showing.
type Title struct {
	sweep uint32
}

func (t *Title) Name() string { return "title" }

func (t *Title) Update(ctx *sim.Context) sim.Status {
	if ctx.Scene.Mode() == scene.ModeTitle {
		t.sweep++
	}
	return sim.Continue
}
