// Package render implements the host audio callback's consumer side: it
// pops from per-track ring buffers and mixes per-track gains into the
// interleaved output buffer. It must be wait-free with respect to decode
// workers (spec.md §4.6, §5): the only synchronization with them is a
// non-blocking try-acquire of the seek lock, and ring buffer pops are
// themselves lock-free (internal/ring). The pad mixer input takes its own
// short-held mutex, which decode workers never hold.
package render

import (
	"sync"

	"github.com/ryuichi-daw/engine/internal/metrics"
	"github.com/ryuichi-daw/engine/internal/paramstore"
	"github.com/ryuichi-daw/engine/internal/ring"
	"github.com/ryuichi-daw/engine/internal/transport"
)

// resumeRampFrames is how many samples after an underrun are faded in
// linearly rather than played at full gain, avoiding an audible click when
// a track recovers from backpressure. Spec.md §4.6 calls this optional;
// this module applies it, per SPEC_FULL.md §4.
const resumeRampFrames = 256

// PadMixer is an independent mixer input, orthogonal to timeline
// playback (spec.md §4.9). internal/pad.Player implements this.
type PadMixer interface {
	// Mix adds up to frames stereo frames into out (interleaved L,R,...),
	// advancing its own internal cursor. Must not allocate, and may hold a
	// lock only for a short, bounded critical section.
	Mix(out []float32, frames int)
}

// TrackInput is one track's render-side handle: its ring buffer consumer
// end and its atomic parameter set.
type TrackInput struct {
	Ring   *ring.Buffer
	Params *paramstore.TrackParams
}

// Mixer renders the mixed stereo output for one engine.
type Mixer struct {
	transport  *transport.Transport
	seekLock   *sync.Mutex
	tracks     []TrackInput
	metrics    *metrics.Metrics
	onUnderrun func()
	pad        PadMixer

	rampRemaining []int // per-track, counted down from resumeRampFrames
	wasUnderrun   []bool
}

// New builds a Mixer. seekLock is shared with the engine's control
// surface: control operations hold it for the duration of a destructive
// edit, and Render only ever tries to acquire it.
func New(t *transport.Transport, seekLock *sync.Mutex, tracks []TrackInput, m *metrics.Metrics, onUnderrun func(), pad PadMixer) *Mixer {
	return &Mixer{
		transport:     t,
		seekLock:      seekLock,
		tracks:        tracks,
		metrics:       m,
		onUnderrun:    onUnderrun,
		pad:           pad,
		rampRemaining: make([]int, len(tracks)),
		wasUnderrun:   make([]bool, len(tracks)),
	}
}

// RenderInterleaved fills out (length >= frames*channels) with the mixed
// stereo signal. Returns the number of frames written; 0 if channels != 2,
// in which case out is zero-filled rather than left holding whatever the
// caller handed in.
func (m *Mixer) RenderInterleaved(out []float32, frames, channels int) int {
	if channels != 2 {
		zero(out)
		return 0
	}
	need := frames * channels
	if len(out) < need {
		frames = len(out) / channels
		need = frames * channels
	}

	if !m.transport.IsPlaying() {
		zero(out[:need])
		return frames
	}

	if !m.seekLock.TryLock() {
		// Silence is preferable to contention with a seek in progress.
		zero(out[:need])
		return frames
	}
	defer m.seekLock.Unlock()

	zero(out[:need])

	for i := range m.tracks {
		m.renderTrack(i, out, frames)
	}

	if m.pad != nil {
		m.pad.Mix(out[:need], frames)
	}

	m.transport.AdvanceFrames(uint64(frames))
	return frames
}

func (m *Mixer) renderTrack(i int, out []float32, frames int) {
	tr := m.tracks[i]
	vol := tr.Params.Volume()
	if tr.Params.Muted() || vol == 0 {
		// Skip without draining: the ring's contents remain valid for
		// resumed playback.
		return
	}
	pan := tr.Params.Pan()
	gL := vol * (1 - pan) * 0.5
	gR := vol * (1 + pan) * 0.5

	underrunCount := 0
	for f := 0; f < frames; f++ {
		l, r, ok := tr.Ring.Pop()
		if !ok {
			underrunCount++
			m.wasUnderrun[i] = true
		} else if m.wasUnderrun[i] {
			// Recovering from underrun on this very sample: arm the ramp
			// so it starts fading in immediately rather than one render
			// call late.
			m.wasUnderrun[i] = false
			m.rampRemaining[i] = resumeRampFrames
		}
		gain := m.resumeGain(i)
		idx := f * 2
		out[idx] += l * gL * gain
		out[idx+1] += r * gR * gain
	}

	if underrunCount > 0 {
		m.metrics.RecordUnderrun(uint64(underrunCount))
		if m.onUnderrun != nil {
			m.onUnderrun()
		}
	}
}

// resumeGain returns the linear fade-in multiplier for the current sample
// and advances the per-track ramp counter.
func (m *Mixer) resumeGain(track int) float32 {
	remaining := m.rampRemaining[track]
	if remaining <= 0 {
		return 1
	}
	gain := float32(resumeRampFrames-remaining+1) / float32(resumeRampFrames)
	m.rampRemaining[track] = remaining - 1
	return gain
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}
