// Package observability exposes the loop's Prometheus metrics and the
// HTTP diagnostics surface.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ironhaul/server/internal/sim"
)

// LoopCollector bundles the Prometheus metrics published by the
// simulation loop.
type LoopCollector struct {
	gatherer prometheus.Gatherer

	TicksExecuted      prometheus.Counter
	PassDuration       prometheus.Histogram
	AccumulatorBacklog prometheus.Gauge
	GateRefusals       prometheus.Counter
	Interruptions      prometheus.Counter
	CatchupBursts      prometheus.Histogram
}

var _ sim.Metrics = (*LoopCollector)(nil)

// NewLoopCollector registers the loop metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// Registering twice against the same registry hands back the existing
// collectors.
func NewLoopCollector(reg prometheus.Registerer) (*LoopCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_ticks_total",
		Help: "Cumulative simulation ticks executed.",
	})
	ticks, err := registerCounter(reg, ticks, "sim_ticks_total")
	if err != nil {
		return nil, err
	}

	passes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_pass_duration_seconds",
		Help:    "Wall-clock duration of one scheduler pass.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})
	passes, err = registerHistogram(reg, passes, "sim_pass_duration_seconds")
	if err != nil {
		return nil, err
	}

	backlog := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_accumulator_backlog_seconds",
		Help: "Simulated time left in the accumulator after the last pass.",
	})
	backlog, err = registerGauge(reg, backlog, "sim_accumulator_backlog_seconds")
	if err != nil {
		return nil, err
	}

	refusals := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_gate_refusals_total",
		Help: "Ticks refused by the lockstep confirmation gate.",
	})
	refusals, err = registerCounter(reg, refusals, "sim_gate_refusals_total")
	if err != nil {
		return nil, err
	}

	interruptions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_interruptions_total",
		Help: "Tick executions cut short by a session command.",
	})
	interruptions, err = registerCounter(reg, interruptions, "sim_interruptions_total")
	if err != nil {
		return nil, err
	}

	bursts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_catchup_burst_ticks",
		Help:    "Ticks executed in one catch-up pass.",
		Buckets: []float64{1, 2, 4, 8, 16},
	})
	bursts, err = registerHistogram(reg, bursts, "sim_catchup_burst_ticks")
	if err != nil {
		return nil, err
	}

	return &LoopCollector{
		gatherer:           gatherer,
		TicksExecuted:      ticks,
		PassDuration:       passes,
		AccumulatorBacklog: backlog,
		GateRefusals:       refusals,
		Interruptions:      interruptions,
		CatchupBursts:      bursts,
	}, nil
}

// Handler exposes a ready-to-use metrics handler.
func (c *LoopCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveTicks adds the ticks executed by one pass.
func (c *LoopCollector) ObserveTicks(n int) {
	if c == nil || c.TicksExecuted == nil || n <= 0 {
		return
	}
	c.TicksExecuted.Add(float64(n))
}

// ObservePassDuration records one pass duration measurement.
func (c *LoopCollector) ObservePassDuration(d time.Duration) {
	if c == nil || c.PassDuration == nil {
		return
	}
	c.PassDuration.Observe(d.Seconds())
}

// ObserveAccumulator tracks the unconsumed simulated-time backlog.
func (c *LoopCollector) ObserveAccumulator(seconds float64) {
	if c == nil || c.AccumulatorBacklog == nil {
		return
	}
	c.AccumulatorBacklog.Set(seconds)
}

// RecordGateRefusal counts one tick the confirmation gate refused.
func (c *LoopCollector) RecordGateRefusal() {
	if c == nil || c.GateRefusals == nil {
		return
	}
	c.GateRefusals.Inc()
}

// RecordInterruption counts one tick cut short by a session command.
func (c *LoopCollector) RecordInterruption() {
	if c == nil || c.Interruptions == nil {
		return
	}
	c.Interruptions.Inc()
}

// RecordCatchupBurst records the ticks executed by one catch-up pass.
func (c *LoopCollector) RecordCatchupBurst(ticks int) {
	if c == nil || c.CatchupBursts == nil {
		return
	}
	c.CatchupBursts.Observe(float64(ticks))
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
