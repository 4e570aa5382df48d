package engine

import "time"

// Tuning constants named per spec.md §4.7/§4.8/§9 and restored from the
// reference implementation's unit.rs (RB1_FRAMES, CHUNK_DECODE,
// PREFILL_ON_START, PREFILL_ON_SEEK) rather than left as inline literals.
const (
	// DefaultNumTracks matches the reference engine's 4-track default.
	DefaultNumTracks = 4

	// DefaultOutputSampleRate is the engine's output rate absent explicit
	// configuration (spec.md §6).
	DefaultOutputSampleRate = 48000

	// DefaultNumWorkers is within spec.md §4.7's suggested 4-6 range.
	DefaultNumWorkers = 4

	// RingCapacityFrames is each track's SPSC ring capacity in stereo
	// frames, rounded to a power of two by internal/ring. ~2.7s at 48kHz.
	RingCapacityFrames = 1 << 17

	// ChunkFrames is the default fill chunk size (spec.md §4.7).
	ChunkFrames = 65536

	// PrefillOnStartFrames is "a large value near ring capacity" (spec.md
	// §4.8 step 8) — filling until the ring reports full naturally caps
	// this at RingCapacityFrames.
	PrefillOnStartFrames = RingCapacityFrames

	// PrefillOnSeekFrames is half ring capacity (spec.md §4.8 step 8),
	// also used for a BPM change's rebuffer per this module's choice to
	// treat a tempo change like an in-place seek.
	PrefillOnSeekFrames = RingCapacityFrames / 2

	// WorkerParkDuration is the brief park applied when a round-robin
	// sweep produces nothing, avoiding busy spin (spec.md §4.7 step 3c).
	WorkerParkDuration = 200 * time.Microsecond

	// BudgetCeiling bounds the saturating in-flight-frame counter so a
	// runaway producer can't overflow it.
	BudgetCeiling = 1 << 40
)
