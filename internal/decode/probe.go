package decode

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type probeResult struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// parseProbeAudioStream extracts the sample rate and channel count of the
// first stream with codec_type "audio" that advertises a positive channel
// count and a non-zero sample rate; audio streams lacking either are
// skipped. Fails if no audio stream has both.
func parseProbeAudioStream(probeJSON string) (sampleRate uint32, channels int, err error) {
	var res probeResult
	if err := json.Unmarshal([]byte(probeJSON), &res); err != nil {
		return 0, 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	for _, s := range res.Streams {
		if s.CodecType != "audio" {
			continue
		}
		if s.Channels <= 0 || s.SampleRate == "" {
			continue
		}
		sr, err := strconv.ParseUint(s.SampleRate, 10, 32)
		if err != nil || sr == 0 {
			continue
		}
		return uint32(sr), s.Channels, nil
	}
	return 0, 0, fmt.Errorf("no audio track with known channel count and sample rate")
}
