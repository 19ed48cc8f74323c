package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"ironhaul/server/internal/save"
)

// SaveCollector counts save artifact write outcomes so autosave
// health is visible without scraping logs.
type SaveCollector struct {
	gatherer prometheus.Gatherer

	Writes *prometheus.CounterVec
}

// NewSaveCollector registers the save metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSaveCollector(reg prometheus.Registerer) (*SaveCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "autosave_writes_total",
		Help: "Completed autosave write attempts, labeled by result.",
	}, []string{"result"})
	writes, err := registerCounterVec(reg, writes, "autosave_writes_total")
	if err != nil {
		return nil, err
	}

	return &SaveCollector{gatherer: gatherer, Writes: writes}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SaveCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// RecordWrite counts one completed write attempt.
func (c *SaveCollector) RecordWrite(err error) {
	if c == nil || c.Writes == nil {
		return
	}
	if err != nil {
		c.Writes.WithLabelValues("error").Inc()
		return
	}
	c.Writes.WithLabelValues("ok").Inc()
}

// InstrumentWriter decorates next so every write reports its outcome
// to the collector.
func (c *SaveCollector) InstrumentWriter(next save.Writer) save.Writer {
	return instrumentedWriter{next: next, collector: c}
}

type instrumentedWriter struct {
	next      save.Writer
	collector *SaveCollector
}

func (w instrumentedWriter) Write(path string, game save.Game) error {
	err := w.next.Write(path, game)
	w.collector.RecordWrite(err)
	return err
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
