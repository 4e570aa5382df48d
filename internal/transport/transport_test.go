package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_StartsStoppedAtZero(t *testing.T) {
	tr := New(48000)
	assert.False(t, tr.IsPlaying())
	assert.Equal(t, uint64(0), tr.PlayheadFrames())
	assert.Equal(t, uint32(48000), tr.OutputSampleRate())
}

func TestStartStop(t *testing.T) {
	tr := New(48000)
	tr.Start()
	assert.True(t, tr.IsPlaying())
	tr.Stop()
	assert.False(t, tr.IsPlaying())
}

func TestAdvanceFrames_Monotonic(t *testing.T) {
	tr := New(48000)
	tr.AdvanceFrames(100)
	tr.AdvanceFrames(50)
	assert.Equal(t, uint64(150), tr.PlayheadFrames())
}

func TestSeekFrames_SetsDirectly(t *testing.T) {
	tr := New(48000)
	tr.AdvanceFrames(1000)
	tr.SeekFrames(10)
	assert.Equal(t, uint64(10), tr.PlayheadFrames())
}

func TestSetOutputSampleRate(t *testing.T) {
	tr := New(48000)
	tr.SetOutputSampleRate(44100)
	assert.Equal(t, uint32(44100), tr.OutputSampleRate())
}
