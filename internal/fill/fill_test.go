package fill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryuichi-daw/engine/internal/ring"
	"github.com/ryuichi-daw/engine/internal/timeline"
)

func TestClampTempoRatio(t *testing.T) {
	assert.Equal(t, float32(minTempoRatio), ClampTempoRatio(0.01))
	assert.Equal(t, float32(maxTempoRatio), ClampTempoRatio(100))
	assert.Equal(t, float32(1.0), ClampTempoRatio(1.0))
}

func TestTrackOnce_GapCase_ProducesSilence(t *testing.T) {
	tl := timeline.New(1)
	track := tl.Track(0)
	producer := ring.NewBuffer(64)
	slot := &Slot{}

	produced := TrackOnce(track, slot, producer, 10, 48000, 1.0, 0, "")

	assert.Equal(t, 10, produced)
	for i := 0; i < 10; i++ {
		l, r, ok := producer.Pop()
		require.True(t, ok)
		assert.Equal(t, float32(0), l)
		assert.Equal(t, float32(0), r)
	}
	assert.Equal(t, uint64(10), track.WriteCursor())
}

func TestTrackOnce_GapBoundedByNextClipStart(t *testing.T) {
	tl := timeline.New(1)
	track := tl.Track(0)
	require.True(t, tl.AddClip(0, "/nonexistent/missing.wav", 48000, 5, 100))
	producer := ring.NewBuffer(64)
	slot := &Slot{}

	// Ask for more silence than the gap before the clip; the gap run must
	// stop at the clip's tl_start rather than overrunning into it.
	produced := TrackOnce(track, slot, producer, 20, 48000, 1.0, 0, "")

	assert.True(t, produced >= 5, "at least the gap region must be produced")
	assert.True(t, track.WriteCursor() >= 5)
}

func TestTrackOnce_BackwardDriftSnapsForward(t *testing.T) {
	tl := timeline.New(1)
	track := tl.Track(0)
	track.SetWriteCursor(0)
	producer := ring.NewBuffer(64)
	slot := &Slot{}

	TrackOnce(track, slot, producer, 5, 48000, 1.0, 100, "")

	assert.True(t, track.WriteCursor() >= 100, "write cursor must never end up behind transport_pos")
}

func TestTrackOnce_DecoderOpenFailure_FillsSilenceOverClip(t *testing.T) {
	tl := timeline.New(1)
	track := tl.Track(0)
	require.True(t, tl.AddClip(0, "/nonexistent/does-not-exist.wav", 48000, 0, 10))
	producer := ring.NewBuffer(64)
	slot := &Slot{}

	produced := TrackOnce(track, slot, producer, 10, 48000, 1.0, 0, "/nonexistent/not-ffmpeg-either")

	assert.Equal(t, 10, produced)
	assert.Nil(t, slot.Decoder(), "a failed open must leave the slot without a decoder")
	for i := 0; i < 10; i++ {
		l, r, ok := producer.Pop()
		require.True(t, ok)
		assert.Equal(t, float32(0), l)
		assert.Equal(t, float32(0), r)
	}
}

func TestTrackOnce_StopsWhenProducerFull(t *testing.T) {
	tl := timeline.New(1)
	track := tl.Track(0)
	producer := ring.NewBuffer(4) // rounds to 4
	slot := &Slot{}

	produced := TrackOnce(track, slot, producer, 100, 48000, 1.0, 0, "")

	assert.Equal(t, 4, produced, "must stop once the ring reports full")
	assert.True(t, producer.IsFull())
}

func TestSourceStep(t *testing.T) {
	assert.InDelta(t, 1.0, sourceStep(48000, 48000, 1.0), 1e-9)
	assert.InDelta(t, 0.5, sourceStep(24000, 48000, 1.0), 1e-9)
	assert.InDelta(t, 2.0, sourceStep(48000, 48000, 2.0), 1e-9)
}

func TestPushSilence_StopsAtProducerFull(t *testing.T) {
	producer := ring.NewBuffer(4)
	n := pushSilence(producer, 100)
	assert.Equal(t, uint64(4), n)
}

func TestClampSample(t *testing.T) {
	assert.Equal(t, float32(1.0), clampSample(5.0))
	assert.Equal(t, float32(-1.0), clampSample(-5.0))
	assert.Equal(t, float32(0.3), clampSample(0.3))

	var nan float32
	nan = nan / nan
	assert.Equal(t, float32(0), clampSample(nan))
}
