package pad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteOn_NoSampleLoaded_IsNoop(t *testing.T) {
	p := NewPlayer()
	p.NoteOn()

	out := make([]float32, 4)
	p.Mix(out, 2)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestMix_AddsSampleAndAdvancesCursor(t *testing.T) {
	p := NewPlayer()
	sample := &Sample{
		Data:       []float32{0.5, 0.25, 0.6, 0.3, 0.7, 0.35},
		FrameCount: 3,
	}
	p.sample.Store(sample)
	p.NoteOn()

	out := make([]float32, 4) // 2 frames
	out[0], out[1] = 1.0, 1.0 // pre-existing mix content must be additive
	p.Mix(out, 2)

	assert.InDelta(t, 1.5, out[0], 1e-6)
	assert.InDelta(t, 1.25, out[1], 1e-6)
	assert.InDelta(t, 0.6, out[2], 1e-6)
	assert.InDelta(t, 0.3, out[3], 1e-6)

	// One frame left in the sample.
	out2 := make([]float32, 4)
	p.Mix(out2, 2)
	assert.InDelta(t, 0.7, out2[0], 1e-6)
	assert.InDelta(t, 0.35, out2[1], 1e-6)
	assert.Equal(t, float32(0), out2[2], "sample exhausted after its 3 frames")
}

func TestMix_ClearsTriggerOnExhaustion(t *testing.T) {
	p := NewPlayer()
	sample := &Sample{Data: []float32{1, 1}, FrameCount: 1}
	p.sample.Store(sample)
	p.NoteOn()

	out := make([]float32, 8)
	p.Mix(out, 4)
	assert.Nil(t, p.state, "consuming the last frame must clear the trigger")

	// Triggering again should be a fresh retrigger, not a continuation.
	p.NoteOn()
	out2 := make([]float32, 2)
	p.Mix(out2, 1)
	assert.Equal(t, float32(1), out2[0])
}

func TestNoteOff_SilencesImmediately(t *testing.T) {
	p := NewPlayer()
	sample := &Sample{Data: []float32{1, 1, 1, 1}, FrameCount: 2}
	p.sample.Store(sample)
	p.NoteOn()
	p.NoteOff()

	out := make([]float32, 4)
	p.Mix(out, 2)
	for _, v := range out {
		assert.Equal(t, float32(0), v)
	}
}

func TestNoteOn_Retrigger_ResetsCursor(t *testing.T) {
	p := NewPlayer()
	sample := &Sample{Data: []float32{1, 1, 0, 0}, FrameCount: 2}
	p.sample.Store(sample)
	p.NoteOn()

	out := make([]float32, 2)
	p.Mix(out, 1) // consume the first (loud) frame
	require.InDelta(t, 1.0, out[0], 1e-6)

	p.NoteOn() // retrigger from the top
	out2 := make([]float32, 2)
	p.Mix(out2, 1)
	assert.InDelta(t, 1.0, out2[0], 1e-6)
}
