// Package paramstore holds the lock-free per-track and global playback
// parameters that the render path reads every callback: volume, pan, mute,
// and the global tempo in BPM. Floats are stored as their 32-bit bit
// pattern in an atomic.Uint32 so they can be updated and snapshotted
// without a lock; round-tripping through the bit pattern preserves the
// value exactly.
package paramstore

import (
	"math"
	"sync/atomic"
)

const (
	MinBPM = 20.0
	MaxBPM = 300.0

	MinTempoRatio = 0.25
	MaxTempoRatio = 4.0

	baseBPM = 60.0
)

// TrackParams is the atomic parameter set for a single track.
type TrackParams struct {
	volume atomic.Uint32
	pan    atomic.Uint32
	muted  atomic.Bool
}

func newTrackParams() *TrackParams {
	tp := &TrackParams{}
	tp.volume.Store(math.Float32bits(0.5))
	tp.pan.Store(math.Float32bits(0.0))
	return tp
}

func (tp *TrackParams) Volume() float32 { return math.Float32frombits(tp.volume.Load()) }
func (tp *TrackParams) Pan() float32    { return math.Float32frombits(tp.pan.Load()) }
func (tp *TrackParams) Muted() bool     { return tp.muted.Load() }

// SetVolume clamps to [0,1].
func (tp *TrackParams) SetVolume(v float32) {
	tp.volume.Store(math.Float32bits(clamp(v, 0, 1)))
}

// SetPan clamps to [-1,+1]; non-finite values become 0.
func (tp *TrackParams) SetPan(p float32) {
	if !isFinite(p) {
		p = 0
	}
	tp.pan.Store(math.Float32bits(clamp(p, -1, 1)))
}

func (tp *TrackParams) SetMuted(m bool) { tp.muted.Store(m) }

// Store holds per-track parameters plus the global BPM.
type Store struct {
	tracks []*TrackParams
	bpm    atomic.Uint32
}

// NewStore builds a Store for n tracks, each defaulting to volume=0.5,
// pan=0.0, muted=false, with a global BPM of 60.
func NewStore(n int) *Store {
	s := &Store{tracks: make([]*TrackParams, n)}
	for i := range s.tracks {
		s.tracks[i] = newTrackParams()
	}
	s.bpm.Store(math.Float32bits(baseBPM))
	return s
}

func (s *Store) Track(i int) *TrackParams { return s.tracks[i] }

func (s *Store) NumTracks() int { return len(s.tracks) }

func (s *Store) BPM() float32 { return math.Float32frombits(s.bpm.Load()) }

// SetBPM clamps to [MinBPM, MaxBPM].
func (s *Store) SetBPM(bpm float32) {
	s.bpm.Store(math.Float32bits(clamp(bpm, MinBPM, MaxBPM)))
}

// TempoRatio returns bpm/60, clamped to [MinTempoRatio, MaxTempoRatio].
func (s *Store) TempoRatio() float32 {
	return clamp(s.BPM()/baseBPM, MinTempoRatio, MaxTempoRatio)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
