// Package fill implements the timeline->decode->resample->ring-buffer
// hot path: the pure procedure that advances one track's write cursor by
// decoding and resampling clip audio (or emitting silence over gaps) into
// that track's SPSC ring buffer. It is the core described in spec.md
// §4.4-§4.5, called repeatedly by the decode worker pool (internal/engine)
// and synchronously during prefill (internal/engine's seek protocol).
package fill

import (
	"log"
	"math"

	"github.com/ryuichi-daw/engine/internal/decode"
	"github.com/ryuichi-daw/engine/internal/ring"
	"github.com/ryuichi-daw/engine/internal/timeline"
)

const (
	minTempoRatio = 0.25
	maxTempoRatio = 4.0
)

// ClampTempoRatio enforces the spec's [0.25, 4.0] bound on a fill call's
// tempo ratio.
func ClampTempoRatio(ratio float32) float32 {
	if ratio < minTempoRatio {
		return minTempoRatio
	}
	if ratio > maxTempoRatio {
		return maxTempoRatio
	}
	return ratio
}

// TrackOnce advances t's write cursor and pushes decoded/resampled audio
// (or silence) into producer until framesNeeded is exhausted or producer
// is full. It returns the number of frames actually produced.
//
// Preconditions: producer is SPSC and owned by the caller for the
// duration of this call. tempoRatio is clamped internally. ffmpegPath may
// be empty to use the ffmpeg found on PATH.
func TrackOnce(
	t *timeline.Track,
	slot *Slot,
	producer *ring.Buffer,
	framesNeeded int,
	outSR uint32,
	tempoRatio float32,
	transportPos uint64,
	ffmpegPath string,
) int {
	tempoRatio = ClampTempoRatio(tempoRatio)

	wc := t.WriteCursor()
	if wc < transportPos {
		// Backward drift is forbidden: a stale worker must never emit
		// audio behind the playhead after a seek.
		wc = transportPos
	}

	total := 0
	for framesNeeded > 0 && !producer.IsFull() {
		clip, ok := t.ClipAt(wc)
		if !ok {
			nextStart, hasNext := t.NextClipStart(wc)
			run := uint64(framesNeeded)
			if hasNext && nextStart-wc < run {
				run = nextStart - wc
			}
			if run == 0 {
				break
			}
			produced := pushSilence(producer, run)
			wc += produced
			framesNeeded -= int(produced)
			total += int(produced)
			if produced < run {
				break // producer full
			}
			continue
		}

		canWrite := clip.End() - wc
		if canWrite > uint64(framesNeeded) {
			canWrite = uint64(framesNeeded)
		}

		ensureDecoder(slot, clip, outSR, tempoRatio, wc, ffmpegPath)
		if slot.Decoder() == nil {
			produced := pushSilence(producer, canWrite)
			wc += produced
			framesNeeded -= int(produced)
			total += int(produced)
			if produced < canWrite {
				break
			}
			continue
		}

		step := sourceStep(clip.SourceSampleRate, outSR, tempoRatio)
		produced, exhausted := decodeResamplePush(slot, producer, int(canWrite), step)
		wc += uint64(produced)
		framesNeeded -= produced
		total += produced

		if exhausted {
			slot.Clear()
			remaining := canWrite - uint64(produced)
			padded := pushSilence(producer, remaining)
			wc += padded
			framesNeeded -= int(padded)
			total += int(padded)
			if padded < remaining {
				break
			}
			continue
		}
		if producer.IsFull() {
			break
		}
	}

	t.SetWriteCursor(wc)
	return total
}

func sourceStep(srcSR, outSR uint32, tempoRatio float32) float64 {
	return (float64(srcSR) / float64(outSR)) * float64(tempoRatio)
}

// ensureDecoder makes slot reference clip's file at the source sample
// corresponding to timeline frame wc, opening a fresh decoder if empty or
// if the active clip's path/sample-rate differ, or performing an accurate
// seek if the decoder's current source position doesn't match. Any
// failure discards the decoder, leaving slot.Decoder() nil so the caller
// falls back to silence.
func ensureDecoder(slot *Slot, clip timeline.Clip, outSR uint32, tempoRatio float32, wc uint64, ffmpegPath string) {
	rel := wc - clip.TimelineStart
	step := sourceStep(clip.SourceSampleRate, outSR, tempoRatio)
	srcBegin := uint64(math.Floor(float64(rel) * step))

	needsOpen := slot.Decoder() == nil ||
		slot.Decoder().FilePath() != clip.FilePath ||
		slot.Decoder().SourceSampleRate() != clip.SourceSampleRate

	if needsOpen {
		slot.Clear()
		dec, err := decode.Open(ffmpegPath, clip.FilePath, clip.SourceSampleRate, srcBegin)
		if err != nil {
			log.Printf("fill: decoder open failed for %s: %v", clip.FilePath, err)
			return
		}
		slot.decoder = dec
		slot.resetResample()
		return
	}

	// The resample state reads ahead of the interpolation position: s0
	// and s1 have already been taken from the decoder, so the source frame
	// s0 stands for is the decoder's read position minus those frames.
	pos := slot.Decoder().SourcePositionSamples()
	if slot.haveS0 {
		pos--
	}
	if slot.haveS1 {
		pos--
	}
	if pos != srcBegin {
		if err := slot.Decoder().Seek(srcBegin); err != nil {
			log.Printf("fill: decoder seek failed for %s: %v", clip.FilePath, err)
			slot.Clear()
			return
		}
		slot.resetResample()
	}
}
