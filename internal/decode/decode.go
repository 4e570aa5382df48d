// Package decode wraps one ffmpeg subprocess per open audio decoder. It
// probes the container/codec via ffprobe, then drives ffmpeg to emit
// interleaved float32 stereo PCM at the source's native sample rate over
// a pipe, matching the "lazily-opened decoder, packet refill step,
// accurate seek-to-source-sample step" contract the fill procedure
// depends on. Channel collapse is delegated to ffmpeg's "-ac 2" remix so
// this package never has to branch on source channel count: mono is
// spread to L and R, and sources with more than two channels are
// downmixed by ffmpeg's default matrix; they are not reduced to their
// first two channels.
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os/exec"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// chunkFrames is the number of stereo frames read from the ffmpeg pipe in
// one refill; small enough to keep Decoder.NextFrame's worst-case latency
// bounded, large enough to amortize the read syscall.
const chunkFrames = 4096

// bytesPerFrame is 2 channels * 4 bytes/float32.
const bytesPerFrame = 2 * 4

// Decoder owns one ffmpeg subprocess decoding a single file. It is not
// safe for concurrent use; the fill procedure holds it exclusively for
// the duration of one call.
type Decoder struct {
	ffmpegPath string

	filePath         string
	sourceSampleRate uint32

	cmd        *exec.Cmd
	pipeReader io.ReadCloser

	scratch    []float32 // interleaved L,R
	scratchPos int       // index of next unread sample in scratch

	sourcePositionSamples uint64

	closeOnce sync.Once
}

// Probe reports the source sample rate and whether path has a readable
// audio track, via ffprobe. Failures here are the decoder-open errors the
// spec says the caller treats as "emit silence over this clip".
func Probe(ffmpegPath, path string) (sampleRate uint32, channels int, err error) {
	data, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", path, err)
	}
	sr, ch, err := parseProbeAudioStream(data)
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", path, err)
	}
	return sr, ch, nil
}

// Open spawns an ffmpeg process decoding path starting at startSample
// (measured in the clip's declared source sample rate srcSR) and
// transcoding to f32le/stereo PCM on stdout. srcSR is trusted as declared
// by the clip (it drives the -ss seek math); this package does not
// re-probe on every Open, only when the caller explicitly asks via Probe.
func Open(ffmpegPath, path string, srcSR uint32, startSample uint64) (*Decoder, error) {
	d := &Decoder{
		ffmpegPath:            ffmpegPath,
		filePath:              path,
		sourceSampleRate:      srcSR,
		sourcePositionSamples: startSample,
	}
	if err := d.spawn(startSample); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) spawn(startSample uint64) error {
	seconds := float64(startSample) / float64(d.sourceSampleRate)

	inputArgs := ffmpeg.KwArgs{}
	if seconds > 0 {
		inputArgs["ss"] = fmt.Sprintf("%.6f", seconds)
	}
	outputArgs := ffmpeg.KwArgs{
		"f":   "f32le",
		"c:a": "pcm_f32le",
		"ac":  "2",
	}

	pipeReader, pipeWriter := io.Pipe()

	node := ffmpeg.Input(d.filePath, inputArgs)
	cmd := node.Output("pipe:", outputArgs).WithOutput(pipeWriter).ErrorToStdOut()
	if d.ffmpegPath != "" {
		cmd.SetFfmpegPath(d.ffmpegPath)
	}

	c := cmd.Compile()
	if err := c.Start(); err != nil {
		pipeWriter.Close()
		return fmt.Errorf("start ffmpeg for %s: %w", d.filePath, err)
	}

	go func() {
		if err := c.Wait(); err != nil {
			log.Printf("decode: ffmpeg exited for %s: %v", d.filePath, err)
		}
		pipeWriter.Close()
	}()

	d.cmd = c
	d.pipeReader = pipeReader
	d.scratch = d.scratch[:0]
	d.scratchPos = 0
	return nil
}

// Seek performs an accurate seek to sampleIdx (in the decoder's source
// sample rate) by respawning the ffmpeg subprocess at the new offset and
// resetting the scratch buffer, matching the spec's "map to time, accurate
// container-level seek, reset codec decoder state, clear scratch" step.
// The caller is expected to call Seek only when the decoder's current
// source-sample position differs from the requested one (see
// internal/fill).
func (d *Decoder) Seek(sampleIdx uint64) error {
	d.closeProcessLocked()
	if err := d.spawn(sampleIdx); err != nil {
		return err
	}
	d.sourcePositionSamples = sampleIdx
	return nil
}

// NextFrame returns the next decoded (L,R) stereo frame, refilling the
// scratch buffer from the ffmpeg pipe as needed. ok is false at end of
// stream or on a mid-stream decode/demux failure, which the caller treats
// as "silence fills remaining frames" per spec §4.3/§7.
func (d *Decoder) NextFrame() (l, r float32, ok bool) {
	if d.scratchPos >= len(d.scratch) {
		if !d.refill() {
			return 0, 0, false
		}
	}
	l = d.scratch[d.scratchPos]
	r = d.scratch[d.scratchPos+1]
	d.scratchPos += 2
	d.sourcePositionSamples++
	return l, r, true
}

func (d *Decoder) refill() bool {
	if d.pipeReader == nil {
		return false
	}
	buf := make([]byte, chunkFrames*bytesPerFrame)
	n, err := io.ReadFull(d.pipeReader, buf)
	if n == 0 {
		return false
	}
	// A short read (including io.ErrUnexpectedEOF) still yields the
	// trailing partial chunk; anything beyond n bytes is garbage and
	// must be discarded by truncating to a whole-frame boundary.
	usable := (n / bytesPerFrame) * bytesPerFrame
	if usable == 0 {
		return false
	}
	samples := make([]float32, usable/4)
	if rerr := binary.Read(bytes.NewReader(buf[:usable]), binary.LittleEndian, &samples); rerr != nil {
		log.Printf("decode: malformed PCM from ffmpeg for %s: %v", d.filePath, rerr)
		return false
	}
	d.scratch = samples
	d.scratchPos = 0
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		log.Printf("decode: pipe read error for %s: %v", d.filePath, err)
	}
	return true
}

// SourceSampleRate is the declared sample rate this decoder was opened
// with (the clip's src_sr).
func (d *Decoder) SourceSampleRate() uint32 { return d.sourceSampleRate }

// SourcePositionSamples is the current read position, in source samples.
func (d *Decoder) SourcePositionSamples() uint64 { return d.sourcePositionSamples }

// FilePath is the file this decoder is currently open on.
func (d *Decoder) FilePath() string { return d.filePath }

// Close terminates the ffmpeg subprocess and releases the pipe. Safe to
// call more than once.
func (d *Decoder) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.closeProcessLocked()
	})
	return err
}

func (d *Decoder) closeProcessLocked() error {
	if d.pipeReader != nil {
		d.pipeReader.Close()
		d.pipeReader = nil
	}
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Kill()
		_ = d.cmd.Wait()
	}
	d.cmd = nil
	return nil
}
