// Package pad implements the one-shot pad sample trigger: a pre-decoded,
// in-memory stereo sample retriggerable for UI feedback, orthogonal to
// timeline playback (spec.md §4.9). Per SPEC_FULL.md §5's resolution of
// the reference implementation's open question, the pad mixes into the
// same output buffer the timeline render produces, as an independent
// mixer input applied after tracks are mixed and before the playhead
// advances.
package pad

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ryuichi-daw/engine/internal/decode"
)

const (
	// padSampleRate is fixed regardless of the engine's output sample
	// rate; spec.md §4.9 and §3 fix the pad at 48kHz stereo.
	padSampleRate = 48000
	padSeconds    = 1
	padFrames     = padSampleRate * padSeconds
)

// Sample is an immutable, reference-counted stereo buffer. Replacing the
// active sample is a pointer swap, never a mutation in place.
type Sample struct {
	// Interleaved L,R,L,R,... at 48kHz stereo.
	Data       []float32
	FrameCount int
}

type padState struct {
	sample *Sample
	cursor int
}

// Player owns the current pad sample and its playback cursor. Load
// replaces the sample atomically; NoteOn/NoteOff mutate the small
// padState behind a short-held mutex, matching spec.md §3's "PadState
// protected by a short-held lock" and §5's "pointer-swap-length
// operations" guidance.
type Player struct {
	sample atomic.Pointer[Sample]

	mu    sync.Mutex
	state *padState // nil when nothing is triggered
}

// NewPlayer creates a Player with no sample loaded.
func NewPlayer() *Player {
	return &Player{}
}

// Load decodes the first second of path to 48kHz stereo via ffmpeg
// (nearest-neighbor resampling, matching the reference implementation's
// decode_head_1s_to_48k2ch_interleaved_arc) and stores it as the active
// pad sample.
func Load(p *Player, ffmpegPath, path string) error {
	sample, err := decodeFirstSecond(ffmpegPath, path)
	if err != nil {
		return fmt.Errorf("pad: load %s: %w", path, err)
	}
	p.sample.Store(sample)
	return nil
}

// NoteOn retriggers the pad: replaces the pad state with {sample,
// cursor=0}. No-op (but not an error) if no sample is loaded.
func (p *Player) NoteOn() {
	s := p.sample.Load()
	if s == nil {
		return
	}
	p.mu.Lock()
	p.state = &padState{sample: s, cursor: 0}
	p.mu.Unlock()
}

// NoteOff clears the pad state; subsequent Mix calls contribute silence.
func (p *Player) NoteOff() {
	p.mu.Lock()
	p.state = nil
	p.mu.Unlock()
}

// Mix adds the pad's current contribution into out (interleaved L,R,...,
// length >= frames*2), at unity gain with no pan, consuming up to frames
// samples from the active trigger. Never allocates; it takes the player's
// mutex only to snapshot and then store the trigger state.
func (p *Player) Mix(out []float32, frames int) {
	p.mu.Lock()
	st := p.state
	p.mu.Unlock()
	if st == nil {
		return
	}

	data := st.sample.Data
	n := st.sample.FrameCount
	cursor := st.cursor
	limit := frames
	if n-cursor < limit {
		limit = n - cursor
	}
	for f := 0; f < limit; f++ {
		out[f*2] += data[(cursor+f)*2]
		out[f*2+1] += data[(cursor+f)*2+1]
	}
	cursor += limit

	p.mu.Lock()
	if p.state == st { // still the same trigger; nobody retriggered meanwhile
		if cursor >= n {
			p.state = nil
		} else {
			p.state.cursor = cursor
		}
	}
	p.mu.Unlock()
}

// decodeFirstSecond decodes up to the first padFrames output frames of
// path into 48kHz stereo using nearest-neighbor resampling, per spec.md
// §4.9. It tolerates files shorter than one second: the sample's
// FrameCount reflects however much audio was actually decoded.
func decodeFirstSecond(ffmpegPath, path string) (*Sample, error) {
	srcSR, _, err := decode.Probe(ffmpegPath, path)
	if err != nil {
		return nil, err
	}

	dec, err := decode.Open(ffmpegPath, path, srcSR, 0)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	step := float64(srcSR) / float64(padSampleRate)

	// Read enough source frames to cover one output second.
	wantSrcFrames := int(float64(padFrames)*step) + 2
	src := make([][2]float32, 0, wantSrcFrames)
	for len(src) < wantSrcFrames {
		l, r, ok := dec.NextFrame()
		if !ok {
			break
		}
		src = append(src, [2]float32{l, r})
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("no decodable audio")
	}

	out := make([]float32, padFrames*2)
	frameCount := 0
	for n := 0; n < padFrames; n++ {
		pos := int(float64(n) * step)
		if pos >= len(src) {
			break
		}
		out[n*2] = src[pos][0]
		out[n*2+1] = src[pos][1]
		frameCount = n + 1
	}

	return &Sample{Data: out, FrameCount: frameCount}, nil
}
