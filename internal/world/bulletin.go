package world

import (
	"fmt"

	"go.uber.org/zap"

	"ironhaul/server/internal/date"
	"ironhaul/server/internal/sim"
)

const (
	noticeRetentionDays = 90
	bulletinMax         = 32
	noticeChance        = 8
)

// Notice is one bulletin story.
type Notice struct {
	ID   uint32 `json:"id"`
	Day  uint32 `json:"day"`
	Text string `json:"text"`
}

// Bulletin is the in-game news feed. The daily pass expires stale
// stories and occasionally posts a new one about a settlement.
type Bulletin struct {
	towns  *Towns
	nextID uint32
	items  []Notice
}

var noticeTemplates = []string{
	"Trade picks up in %s",
	"%s celebrates a record harvest",
	"New warehouse opens in %s",
	"Storm delays shipments around %s",
}

func newBulletin(towns *Towns) *Bulletin {
	return &Bulletin{towns: towns}
}

func (b *Bulletin) UpdateDaily(ctx *sim.Context) sim.Status {
	today := ctx.State.DayNumber()
	kept := b.items[:0]
	for _, item := range b.items {
		if today-item.Day <= noticeRetentionDays {
			kept = append(kept, item)
		}
	}
	b.items = kept

	if b.towns.count() == 0 || ctx.State.Rng().NextN(noticeChance) != 0 {
		return sim.Continue
	}
	town := b.towns.towns[ctx.State.Rng().NextN(uint32(b.towns.count()))]
	tmpl := noticeTemplates[ctx.State.Rng().NextN(uint32(len(noticeTemplates)))]
	b.post(today, fmt.Sprintf(tmpl, town.Name))
	return sim.Continue
}

func (b *Bulletin) post(day uint32, text string) {
	b.nextID++
	b.items = append(b.items, Notice{ID: b.nextID, Day: day, Text: text})
	if len(b.items) > bulletinMax {
		b.items = b.items[1:]
	}
}

// Items returns a copy of the live stories.
func (b *Bulletin) Items() []Notice {
	out := make([]Notice, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Bulletin) reset() {
	b.nextID = 0
	b.items = nil
}

func (b *Bulletin) restore(items []Notice) {
	b.items = append([]Notice(nil), items...)
	b.nextID = 0
	for _, item := range items {
		if item.ID > b.nextID {
			b.nextID = item.ID
		}
	}
}

// DateWatcher announces calendar progress: the daily pass records the
// closed day and emits a debug line for it.
type DateWatcher struct {
	logger *zap.Logger
	last   date.Date
}

func newDateWatcher(logger *zap.Logger) *DateWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DateWatcher{logger: logger}
}

func (d *DateWatcher) UpdateDaily(ctx *sim.Context) sim.Status {
	d.last = ctx.State.Today()
	d.logger.Debug("day closed", zap.Stringer("date", d.last))
	return sim.Continue
}

// LastClosed returns the most recently closed calendar day.
func (d *DateWatcher) LastClosed() date.Date { return d.last }
