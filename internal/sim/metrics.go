package sim

import "time"

// Metrics receives loop telemetry. Implementations must tolerate
// being called from the simulation goroutine only.
type Metrics interface {
	ObserveTicks(n int)
	ObservePassDuration(d time.Duration)
	ObserveAccumulator(seconds float64)
	RecordGateRefusal()
	RecordInterruption()
	RecordCatchupBurst(ticks int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveTicks(int)                  {}
func (nopMetrics) ObservePassDuration(time.Duration) {}
func (nopMetrics) ObserveAccumulator(float64)        {}
func (nopMetrics) RecordGateRefusal()                {}
func (nopMetrics) RecordInterruption()               {}
func (nopMetrics) RecordCatchupBurst(int)            {}
