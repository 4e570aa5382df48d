// Package engine ties together the transport, timeline, parameter store,
// per-track ring buffers, decode worker pool, and render mixer into the
// control surface spec.md §6 describes. It owns the pause gate and
// seek-lock protocol (spec.md §4.7, §4.8) that every destructive control
// operation runs, grounded on the reference implementation's
// spawn_copy_thread worker loop and rust_sound_play/stop/seek's
// pause→flush→prefill→resume sequencing.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ryuichi-daw/engine/internal/fill"
	"github.com/ryuichi-daw/engine/internal/metrics"
	"github.com/ryuichi-daw/engine/internal/pad"
	"github.com/ryuichi-daw/engine/internal/paramstore"
	"github.com/ryuichi-daw/engine/internal/render"
	"github.com/ryuichi-daw/engine/internal/ring"
	"github.com/ryuichi-daw/engine/internal/timeline"
	"github.com/ryuichi-daw/engine/internal/transport"
)

// Engine is the top-level handle a host constructs once and drives via
// its control surface and RenderInterleaved.
type Engine struct {
	ffmpegPath string

	transport *transport.Transport
	params    *paramstore.Store
	timeline  *timeline.Timeline
	pad       *pad.Player
	metrics   *metrics.Metrics
	budget    Budget

	rings      []*ring.Buffer
	slots      []*fill.Slot
	trackLocks []sync.Mutex // serializes fill access to a track across workers

	mixer *render.Mixer

	seekLock  sync.Mutex
	seekEpoch atomic.Uint64

	pauseMu sync.Mutex
	pauseCv *sync.Cond
	paused  bool
	stopped atomic.Bool

	wg sync.WaitGroup
}

// Config configures a new Engine. Zero values fall back to the defaults
// named in tuning.go.
type Config struct {
	NumTracks        int
	OutputSampleRate uint32
	NumWorkers       int
	FfmpegPath       string
}

// New constructs an Engine with cfg's tracks, each with the default
// parameters spec.md §6's new_track names (volume=0.5, pan=0.0,
// muted=false), and starts its decode worker pool. The engine is
// constructed stopped; call Start to begin playback.
func New(cfg Config) *Engine {
	numTracks := cfg.NumTracks
	if numTracks <= 0 {
		numTracks = DefaultNumTracks
	}
	outSR := cfg.OutputSampleRate
	if outSR == 0 {
		outSR = DefaultOutputSampleRate
	}
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = DefaultNumWorkers
	}

	e := &Engine{
		ffmpegPath: cfg.FfmpegPath,
		transport:  transport.New(outSR),
		params:     paramstore.NewStore(numTracks),
		timeline:   timeline.New(numTracks),
		pad:        pad.NewPlayer(),
		metrics:    &metrics.Metrics{},
		rings:      make([]*ring.Buffer, numTracks),
		slots:      make([]*fill.Slot, numTracks),
		trackLocks: make([]sync.Mutex, numTracks),
	}
	e.pauseCv = sync.NewCond(&e.pauseMu)

	trackInputs := make([]render.TrackInput, numTracks)
	for i := 0; i < numTracks; i++ {
		e.rings[i] = ring.NewBuffer(RingCapacityFrames)
		e.slots[i] = &fill.Slot{}
		trackInputs[i] = render.TrackInput{Ring: e.rings[i], Params: e.params.Track(i)}
	}

	e.mixer = render.New(e.transport, &e.seekLock, trackInputs, e.metrics, e.onUnderrun, e.pad)

	for w := 0; w < numWorkers; w++ {
		e.wg.Add(1)
		go e.workerLoop(w)
	}

	return e
}

func (e *Engine) onUnderrun() {
	e.pauseMu.Lock()
	e.pauseCv.Broadcast()
	e.pauseMu.Unlock()
}

// NumTracks reports how many tracks this engine was constructed with.
func (e *Engine) NumTracks() int { return e.timeline.NumTracks() }

// --- Timeline control surface (spec.md §4.2, §6) ---

func (e *Engine) AddClip(track int, path string, srcSR uint32, tlStart, tlLen uint64) bool {
	return e.timeline.AddClip(track, path, srcSR, tlStart, tlLen)
}

func (e *Engine) MoveClip(oldTrack int, oldStart uint64, newTrack int, newStart uint64) bool {
	return e.timeline.MoveClip(oldTrack, oldStart, newTrack, newStart)
}

func (e *Engine) DeleteClip(track int, start uint64) bool {
	return e.timeline.DeleteClip(track, start)
}

func (e *Engine) ProjectLengthFrames() uint64 { return e.timeline.ProjectEndFrames() }

func (e *Engine) ProjectLengthSeconds() float64 {
	sr := e.transport.OutputSampleRate()
	if sr == 0 {
		return 0
	}
	return float64(e.ProjectLengthFrames()) / float64(sr)
}

// --- Parameter control surface (spec.md §6) ---

func (e *Engine) SetVolume(track int, v float32) bool {
	if track < 0 || track >= e.params.NumTracks() {
		return false
	}
	e.params.Track(track).SetVolume(v)
	return true
}

func (e *Engine) SetMute(track int, muted bool) bool {
	if track < 0 || track >= e.params.NumTracks() {
		return false
	}
	e.params.Track(track).SetMuted(muted)
	return true
}

func (e *Engine) SetPan(track int, pan float32) bool {
	if track < 0 || track >= e.params.NumTracks() {
		return false
	}
	e.params.Track(track).SetPan(pan)
	return true
}

// SetBPM clamps to [paramstore.MinBPM, paramstore.MaxBPM] and runs the
// same pause→flush→prefill→resume protocol a seek does, since a tempo
// change invalidates every track's timeline→source mapping (spec.md
// §4.8 step 6).
func (e *Engine) SetBPM(bpm float32) bool {
	e.controlOp(PrefillOnSeekFrames, func() {
		e.params.SetBPM(bpm)
	})
	return true
}

// --- Transport control surface (spec.md §4.8) ---

// Start runs the control protocol with no playhead change, then marks the
// transport playing. Equivalent to a seek to the current position
// followed by play, which is exactly what spec.md §4.8 step 9's "if this
// was a start, set transport.playing = true" describes.
func (e *Engine) Start() {
	e.controlOp(PrefillOnStartFrames, nil)
	e.transport.Start()
}

// Seek runs the control protocol, updating the playhead to frames before
// resetting decoders and prefilling (spec.md §4.8).
func (e *Engine) Seek(frames uint64) bool {
	e.controlOp(PrefillOnSeekFrames, func() {
		e.transport.SeekFrames(frames)
	})
	return true
}

// Stop marks the transport not-playing and pauses/drains without
// prefilling; workers stay paused until the next control operation
// (Start, Seek or SetBPM) resumes them (spec.md §4.8).
func (e *Engine) Stop() {
	e.seekLock.Lock()
	defer e.seekLock.Unlock()
	e.transport.Stop()
	e.setPaused(true)

	// Wait for any worker mid-sweep on each track to finish its current
	// fill call before draining, so a worker can't push into a ring this
	// call just emptied.
	for i := range e.trackLocks {
		e.trackLocks[i].Lock()
		e.trackLocks[i].Unlock()
	}
	for _, r := range e.rings {
		r.Drain()
	}
	e.budget.Reset()
}

func (e *Engine) IsPlaying() bool { return e.transport.IsPlaying() }

func (e *Engine) PlayheadFrames() uint64 { return e.transport.PlayheadFrames() }

// controlOp runs the shared destructive-edit protocol under the
// seek-lock: pause workers, apply the operation's state change (if any),
// bump the seek epoch, snap every track's write cursor to the resulting
// playhead and discard its decoder (both under that track's lock, so a
// worker finishing a fill call cannot store its older cursor over the
// snapped one), drain rings, prefill synchronously, and resume. Spec.md §4.8 lists "snap write cursor" (step 3) before "update
// playhead" (step 5); this implementation applies the state change first
// so the snap target is always the operation's final playhead, which is
// the only ordering that is correct for backward seeks as well as
// forward ones.
func (e *Engine) controlOp(prefillFrames uint64, apply func()) {
	e.seekLock.Lock()
	defer e.seekLock.Unlock()

	e.setPaused(true)

	if apply != nil {
		apply()
	}

	playhead := e.transport.PlayheadFrames()
	n := e.timeline.NumTracks()

	e.seekEpoch.Add(1)

	for i := 0; i < n; i++ {
		e.trackLocks[i].Lock()
		e.timeline.Track(i).SetWriteCursor(playhead)
		e.slots[i].Clear()
		e.trackLocks[i].Unlock()
	}
	for _, r := range e.rings {
		r.Drain()
	}
	e.budget.Reset()

	e.prefillSync(prefillFrames)

	e.setPaused(false)
}

// prefillSync synchronously fills every track up to targetFrames (or
// until the ring is full, or until a track makes no progress), called
// while workers are paused and the seek-lock is held. It takes each
// track's trackLocks[t] for the duration of that track's fill loop, the
// same lock fillTrackChunkSweep takes, so a worker that has not yet
// observed the pause flag can't call fill.TrackOnce on the same *fill.Slot
// or push into the same ring concurrently with this call (spec.md §5:
// "Workers acquire (timeline, decoder, producer) together in a fixed
// order... control paths do the same").
func (e *Engine) prefillSync(targetFrames uint64) {
	n := e.timeline.NumTracks()
	outSR := e.transport.OutputSampleRate()
	tempoRatio := e.params.TempoRatio()
	playhead := e.transport.PlayheadFrames()

	for t := 0; t < n; t++ {
		e.trackLocks[t].Lock()
		for e.rings[t].Len() < targetFrames && !e.rings[t].IsFull() {
			produced := fill.TrackOnce(
				e.timeline.Track(t), e.slots[t], e.rings[t],
				ChunkFrames, outSR, tempoRatio, playhead, e.ffmpegPath,
			)
			e.budget.Add(int64(produced))
			if produced == 0 {
				break
			}
		}
		e.trackLocks[t].Unlock()
	}
}

func (e *Engine) setPaused(v bool) {
	e.pauseMu.Lock()
	e.paused = v
	e.pauseMu.Unlock()
	e.pauseCv.Broadcast()
}

func (e *Engine) waitWhilePaused() {
	e.pauseMu.Lock()
	for e.paused && !e.stopped.Load() {
		e.pauseCv.Wait()
	}
	e.pauseMu.Unlock()
}

// workerLoop implements spec.md §4.7's decode worker loop: a private
// round-robin start index advancing by one per outer cycle, a pause-gate
// wait, a full sweep of tracks filling each non-full ring by chunk, and a
// brief park if a sweep produced nothing.
func (e *Engine) workerLoop(workerIndex int) {
	defer e.wg.Done()
	bestEffortPin(workerIndex)

	n := e.timeline.NumTracks()
	if n == 0 {
		return
	}
	rrStart := workerIndex % n

	for {
		if e.stopped.Load() {
			return
		}
		e.waitWhilePaused()
		if e.stopped.Load() {
			return
		}

		progressed := false
		for k := 0; k < n; k++ {
			if e.stopped.Load() {
				return
			}
			t := (rrStart + k) % n
			if e.rings[t].IsFull() {
				continue
			}
			if e.fillTrackChunkSweep(t) {
				progressed = true
			}
		}
		rrStart = (rrStart + 1) % n

		if !progressed {
			time.Sleep(WorkerParkDuration)
		}
	}
}

// fillTrackChunkSweep repeatedly fills track t by ChunkFrames until its
// ring is full, no progress is made, or stop is signaled. It yields
// (returns false) without blocking if another worker already holds t's
// track lock, since a concurrent sweep is already making progress there.
// It also returns false without filling once the pause gate is closed, so
// a worker still partway through its sweep cannot push into a ring that a
// control operation has already drained.
func (e *Engine) fillTrackChunkSweep(t int) bool {
	if !e.trackLocks[t].TryLock() {
		return false
	}
	defer e.trackLocks[t].Unlock()

	e.pauseMu.Lock()
	paused := e.paused
	e.pauseMu.Unlock()
	if paused {
		return false
	}

	outSR := e.transport.OutputSampleRate()
	tempoRatio := e.params.TempoRatio()
	playhead := e.transport.PlayheadFrames()

	anyProgress := false
	for !e.rings[t].IsFull() {
		if e.stopped.Load() {
			break
		}
		produced := fill.TrackOnce(
			e.timeline.Track(t), e.slots[t], e.rings[t],
			ChunkFrames, outSR, tempoRatio, playhead, e.ffmpegPath,
		)
		e.budget.Add(int64(produced))
		if produced == 0 {
			break
		}
		anyProgress = true
	}
	return anyProgress
}

// --- Render + diagnostics ---

func (e *Engine) RenderInterleaved(out []float32, frames, channels int) int {
	n := e.mixer.RenderInterleaved(out, frames, channels)
	e.budget.Sub(int64(n))
	return n
}

func (e *Engine) BufferedFrames() uint64 {
	v := e.budget.Value()
	if v < 0 {
		return 0
	}
	return uint64(v)
}

func (e *Engine) UnderrunCallbacks() uint64 { return e.metrics.UnderrunCallbacks() }
func (e *Engine) UnderrunSamples() uint64   { return e.metrics.UnderrunSamples() }
func (e *Engine) ResetMetrics()             { e.metrics.Reset() }

// --- Pad control surface (spec.md §4.9, §6) ---

func (e *Engine) LoadPad(path string) error {
	if err := pad.Load(e.pad, e.ffmpegPath, path); err != nil {
		return fmt.Errorf("engine: load pad: %w", err)
	}
	return nil
}

func (e *Engine) PadNoteOn()  { e.pad.NoteOn() }
func (e *Engine) PadNoteOff() { e.pad.NoteOff() }

// --- Lifecycle ---

// Close signals every decode worker to stop, wakes any paused worker so
// it observes the stop flag, joins them, and releases per-track decoder
// resources. Matches spec.md §6's free_engine.
func (e *Engine) Close() error {
	e.stopped.Store(true)
	e.setPaused(false)
	e.wg.Wait()

	for i, s := range e.slots {
		e.trackLocks[i].Lock()
		s.Clear()
		e.trackLocks[i].Unlock()
	}
	return nil
}
