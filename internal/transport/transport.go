// Package transport holds the global playhead and output sample rate.
package transport

import "sync/atomic"

// Transport is the source of truth for "current time". All fields are
// independently atomic; callers never take a lock to read or mutate them.
// Advancing the playhead while playing is solely Render's responsibility.
type Transport struct {
	playing          atomic.Bool
	playheadFrames   atomic.Uint64
	outputSampleRate atomic.Uint32
}

// New creates a Transport stopped at frame 0 with the given output sample rate.
func New(outputSampleRate uint32) *Transport {
	t := &Transport{}
	t.outputSampleRate.Store(outputSampleRate)
	return t
}

func (t *Transport) Start() { t.playing.Store(true) }
func (t *Transport) Stop()  { t.playing.Store(false) }

func (t *Transport) IsPlaying() bool { return t.playing.Load() }

func (t *Transport) PlayheadFrames() uint64 { return t.playheadFrames.Load() }

// SeekFrames sets the playhead directly. Only the control surface calls this.
func (t *Transport) SeekFrames(frames uint64) { t.playheadFrames.Store(frames) }

// AdvanceFrames moves the playhead forward by n frames. Only Render calls this.
func (t *Transport) AdvanceFrames(n uint64) { t.playheadFrames.Add(n) }

func (t *Transport) OutputSampleRate() uint32 { return t.outputSampleRate.Load() }

func (t *Transport) SetOutputSampleRate(sr uint32) { t.outputSampleRate.Store(sr) }
