package world

import (
	"ironhaul/server/internal/sim"
)

const maxTileWear = 255

// Tiles is the terrain wear layer. Traffic scuffs one generator-chosen
// tile per tick and the yearly pass relaxes the whole grid by one step.
type Tiles struct {
	width  int
	height int
	wear   []uint8
}

// TilesSnapshot carries the wear grid; the byte slice serializes as
// base64 to keep saves compact.
type TilesSnapshot struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Wear   []byte `json:"wear"`
}

func newTiles(width, height int) *Tiles {
	return &Tiles{
		width:  width,
		height: height,
		wear:   make([]uint8, width*height),
	}
}

func (t *Tiles) Name() string { return "tiles" }

func (t *Tiles) Update(ctx *sim.Context) sim.Status {
	idx := ctx.State.Rng().NextN(uint32(len(t.wear)))
	if t.wear[idx] < maxTileWear {
		t.wear[idx]++
	}
	return sim.Continue
}

func (t *Tiles) UpdateYearly(ctx *sim.Context) sim.Status {
	for i, w := range t.wear {
		if w > 0 {
			t.wear[i] = w - 1
		}
	}
	return sim.Continue
}

// WearAt reports the accumulated wear of one tile.
func (t *Tiles) WearAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= t.width || y >= t.height {
		return 0
	}
	return t.wear[y*t.width+x]
}

func (t *Tiles) reset() {
	t.wear = make([]uint8, t.width*t.height)
}

func (t *Tiles) restore(snap TilesSnapshot) {
	if snap.Width <= 0 || snap.Height <= 0 || len(snap.Wear) != snap.Width*snap.Height {
		t.reset()
		return
	}
	t.width = snap.Width
	t.height = snap.Height
	t.wear = append([]uint8(nil), snap.Wear...)
}

func (t *Tiles) snapshot() TilesSnapshot {
	wear := make([]byte, len(t.wear))
	copy(wear, t.wear)
	return TilesSnapshot{Width: t.width, Height: t.height, Wear: wear}
}
