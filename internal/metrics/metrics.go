// Package metrics holds engine-wide diagnostic counters that are cheap
// enough for the render path to touch directly: total underrun callbacks
// and total underrun samples substituted with silence. These mirror the
// reference implementation's xrun counters; they are diagnostics, not
// part of the audio data path's correctness contract.
package metrics

import "sync/atomic"

type Metrics struct {
	underrunCallbacks atomic.Uint64
	underrunSamples   atomic.Uint64
}

func (m *Metrics) RecordUnderrun(samples uint64) {
	m.underrunCallbacks.Add(1)
	m.underrunSamples.Add(samples)
}

func (m *Metrics) UnderrunCallbacks() uint64 { return m.underrunCallbacks.Load() }
func (m *Metrics) UnderrunSamples() uint64   { return m.underrunSamples.Load() }

func (m *Metrics) Reset() {
	m.underrunCallbacks.Store(0)
	m.underrunSamples.Store(0)
}
