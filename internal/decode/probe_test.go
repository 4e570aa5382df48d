package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProbeAudioStream_PicksFirstAudioTrack(t *testing.T) {
	j := `{
		"streams": [
			{"codec_type": "video", "sample_rate": "", "channels": 0},
			{"codec_type": "audio", "sample_rate": "44100", "channels": 2}
		]
	}`
	sr, ch, err := parseProbeAudioStream(j)
	require.NoError(t, err)
	assert.Equal(t, uint32(44100), sr)
	assert.Equal(t, 2, ch)
}

func TestParseProbeAudioStream_SkipsUnusableAudioStreams(t *testing.T) {
	j := `{
		"streams": [
			{"codec_type": "audio", "sample_rate": "", "channels": 2},
			{"codec_type": "audio", "sample_rate": "48000", "channels": 1}
		]
	}`
	sr, ch, err := parseProbeAudioStream(j)
	require.NoError(t, err)
	assert.Equal(t, uint32(48000), sr)
	assert.Equal(t, 1, ch)
}

func TestParseProbeAudioStream_NoAudioTrack(t *testing.T) {
	j := `{"streams": [{"codec_type": "video", "sample_rate": "30", "channels": 0}]}`
	_, _, err := parseProbeAudioStream(j)
	assert.Error(t, err)
}

func TestParseProbeAudioStream_MalformedJSON(t *testing.T) {
	_, _, err := parseProbeAudioStream("not json")
	assert.Error(t, err)
}
