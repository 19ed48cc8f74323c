package sim

// Transform is an interpolatable entity pose.
type Transform struct {
	X        float64
	Y        float64
	Rotation float64
}

// TransformSource supplies the current pose of every renderable
// entity, keyed by entity id.
type TransformSource interface {
	Transforms() map[uint64]Transform
}

// Tweener keeps the previous and current tick snapshots and blends
// them for rendering. When several ticks run in one scheduler pass
// only the final pair survives; intermediate visual states are
// deliberately dropped.
type Tweener struct {
	source TransformSource
	prev   map[uint64]Transform
	curr   map[uint64]Transform
	out    map[uint64]Transform
}

// NewTweener builds a tweener reading poses from source. A nil source
// yields an inert tweener, which keeps the scheduler free of nil
// checks.
func NewTweener(source TransformSource) *Tweener {
	return &Tweener{source: source, out: make(map[uint64]Transform)}
}

// PreTick captures the pose snapshot a tick starts from.
func (t *Tweener) PreTick() {
	if t == nil || t.source == nil {
		return
	}
	t.prev = t.source.Transforms()
}

// PostTick captures the pose snapshot a tick produced.
func (t *Tweener) PostTick() {
	if t == nil || t.source == nil {
		return
	}
	t.curr = t.source.Transforms()
}

// Tween blends the captured snapshots at alpha into the output set.
// Entities without a previous pose snap to their current one.
func (t *Tweener) Tween(alpha float64) {
	if t == nil {
		return
	}
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	clear(t.out)
	for id, curr := range t.curr {
		prev, ok := t.prev[id]
		if !ok {
			t.out[id] = curr
			continue
		}
		t.out[id] = Transform{
			X:        prev.X + (curr.X-prev.X)*alpha,
			Y:        prev.Y + (curr.Y-prev.Y)*alpha,
			Rotation: prev.Rotation + (curr.Rotation-prev.Rotation)*alpha,
		}
	}
}

// Reset discards every snapshot, including any half-built pair left by
// an interrupted tick.
func (t *Tweener) Reset() {
	if t == nil {
		return
	}
	t.prev = nil
	t.curr = nil
	clear(t.out)
}

// Output returns the blended poses from the last Tween call. The map
// is reused between calls; renderers must not retain it.
func (t *Tweener) Output() map[uint64]Transform {
	if t == nil {
		return nil
	}
	return t.out
}
