package fill

import (
	"math"

	"github.com/ryuichi-daw/engine/internal/ring"
)

// decodeResamplePush performs linear interpolation between consecutive
// source stereo frames at fractional step = (src_sr/out_sr)*tempo_ratio,
// pushing up to framesWanted output frames into producer. It returns the
// number of frames actually pushed and whether the source was exhausted
// (end of stream or a mid-stream decode failure, both observed as
// Decoder.NextFrame returning ok=false). A false return for "exhausted"
// with produced < framesWanted means the producer filled up instead.
func decodeResamplePush(slot *Slot, producer *ring.Buffer, framesWanted int, step float64) (produced int, exhausted bool) {
	dec := slot.decoder
	for produced < framesWanted {
		if !slot.haveS0 {
			l, r, ok := dec.NextFrame()
			if !ok {
				return produced, true
			}
			slot.s0 = [2]float32{l, r}
			slot.haveS0 = true
		}
		if !slot.haveS1 {
			l, r, ok := dec.NextFrame()
			if !ok {
				return produced, true
			}
			slot.s1 = [2]float32{l, r}
			slot.haveS1 = true
		}

		frac := float32(slot.frac)
		outL := clampSample(slot.s0[0] + (slot.s1[0]-slot.s0[0])*frac)
		outR := clampSample(slot.s0[1] + (slot.s1[1]-slot.s0[1])*frac)

		if !producer.Push(outL, outR) {
			return produced, false
		}
		produced++

		slot.frac += step
		for slot.frac >= 1.0 {
			slot.s0 = slot.s1
			l, r, ok := dec.NextFrame()
			if !ok {
				slot.haveS1 = false
				return produced, true
			}
			slot.s1 = [2]float32{l, r}
			slot.frac -= 1.0
		}
	}
	return produced, false
}

// clampSample clamps to [-1,+1] and replaces non-finite values with 0, per
// the spec's render-path safety requirement on decoded/resampled audio.
func clampSample(v float32) float32 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// pushSilence pushes up to n (0.0, 0.0) frames into producer, stopping
// early if the producer fills up. Returns the number actually pushed.
func pushSilence(producer *ring.Buffer, n uint64) uint64 {
	var i uint64
	for i = 0; i < n; i++ {
		if !producer.Push(0, 0) {
			break
		}
	}
	return i
}
