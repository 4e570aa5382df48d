// Package timeline holds each track's ordered set of clips and the
// per-track write cursor the fill procedure advances. Keys are unique per
// track; clip order within a track is strictly increasing by start frame.
//
// add_clip only rejects an exact tl_start collision (per spec). It does
// not forbid a later clip's range starting inside an earlier clip's
// range. The fill procedure resolves any such overlap by picking the
// clip with the greatest tl_start <= write_cursor, so a later-starting
// clip takes precedence over an earlier one it overlaps. Callers that
// want strict non-overlap must enforce it themselves before calling
// AddClip.
package timeline

import (
	"sort"
	"sync"
)

// Clip places an audio file on a track's timeline. Immutable once
// inserted except by Move/Delete.
type Clip struct {
	FilePath          string
	SourceSampleRate  uint32
	TimelineStart     uint64
	TimelineLength    uint64
}

// End returns the clip's exclusive end frame on the timeline.
func (c Clip) End() uint64 { return c.TimelineStart + c.TimelineLength }

// Track is one track's clip map plus its write cursor. Guarded by mu;
// critical sections are kept short (a handful of map operations at most).
type Track struct {
	mu          sync.RWMutex
	clips       map[uint64]Clip
	sortedStart []uint64 // kept sorted ascending; updated in place on insert/remove
	writeCursor uint64
}

func newTrack() *Track {
	return &Track{clips: make(map[uint64]Clip)}
}

// WriteCursor returns the next timeline frame the fill procedure will
// emit for this track.
func (t *Track) WriteCursor() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.writeCursor
}

// SetWriteCursor stores the new write cursor.
func (t *Track) SetWriteCursor(frame uint64) {
	t.mu.Lock()
	t.writeCursor = frame
	t.mu.Unlock()
}

// ClipAt returns the clip whose [start, start+len) contains frame, i.e.
// the greatest start <= frame accepted only if frame < start+len.
func (t *Track) ClipAt(frame uint64) (Clip, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.clipAtLocked(frame)
}

func (t *Track) clipAtLocked(frame uint64) (Clip, bool) {
	// sortedStart is ascending; find the rightmost start <= frame.
	idx := sort.Search(len(t.sortedStart), func(i int) bool {
		return t.sortedStart[i] > frame
	})
	if idx == 0 {
		return Clip{}, false
	}
	start := t.sortedStart[idx-1]
	c := t.clips[start]
	if frame < c.End() {
		return c, true
	}
	return Clip{}, false
}

// NextClipStart returns the smallest clip start strictly greater than
// frame, used by the fill procedure to bound a run of gap silence.
func (t *Track) NextClipStart(frame uint64) (uint64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := sort.Search(len(t.sortedStart), func(i int) bool {
		return t.sortedStart[i] > frame
	})
	if idx >= len(t.sortedStart) {
		return 0, false
	}
	return t.sortedStart[idx], true
}

// addLocked inserts into clips and keeps sortedStart in order. Caller
// holds t.mu for writing.
func (t *Track) addLocked(c Clip) {
	t.clips[c.TimelineStart] = c
	idx := sort.Search(len(t.sortedStart), func(i int) bool { return t.sortedStart[i] >= c.TimelineStart })
	t.sortedStart = append(t.sortedStart, 0)
	copy(t.sortedStart[idx+1:], t.sortedStart[idx:])
	t.sortedStart[idx] = c.TimelineStart
}

func (t *Track) removeLocked(start uint64) {
	delete(t.clips, start)
	idx := sort.Search(len(t.sortedStart), func(i int) bool { return t.sortedStart[i] >= start })
	if idx < len(t.sortedStart) && t.sortedStart[idx] == start {
		t.sortedStart = append(t.sortedStart[:idx], t.sortedStart[idx+1:]...)
	}
}

// Timeline owns one Track per track index.
type Timeline struct {
	tracks []*Track
}

// New creates a Timeline with n empty tracks.
func New(n int) *Timeline {
	tl := &Timeline{tracks: make([]*Track, n)}
	for i := range tl.tracks {
		tl.tracks[i] = newTrack()
	}
	return tl
}

func (tl *Timeline) NumTracks() int { return len(tl.tracks) }

// Track returns the Track for index i, or nil if out of range.
func (tl *Timeline) Track(i int) *Track {
	if i < 0 || i >= len(tl.tracks) {
		return nil
	}
	return tl.tracks[i]
}

// AddClip inserts a clip on track. Fails (false) if tlLen==0, track is out
// of range, or a clip already exists at tlStart. Does not mutate other
// clips.
func (tl *Timeline) AddClip(track int, path string, srcSR uint32, tlStart, tlLen uint64) bool {
	if tlLen == 0 {
		return false
	}
	t := tl.Track(track)
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.clips[tlStart]; exists {
		return false
	}
	t.addLocked(Clip{
		FilePath:         path,
		SourceSampleRate: srcSR,
		TimelineStart:    tlStart,
		TimelineLength:   tlLen,
	})
	return true
}

// DeleteClip removes the clip at (track, start). Returns false if absent
// or track out of range.
func (tl *Timeline) DeleteClip(track int, start uint64) bool {
	t := tl.Track(track)
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.clips[start]; !ok {
		return false
	}
	t.removeLocked(start)
	return true
}

// MoveClip relocates a clip from (oldTrack, oldStart) to (newTrack,
// newStart). Same-track moves are atomic under a single lock.
// Cross-track moves lock both tracks in ascending index order to avoid
// deadlock with a concurrent move in the other direction; on a
// destination collision the source is restored.
func (tl *Timeline) MoveClip(oldTrack int, oldStart uint64, newTrack int, newStart uint64) bool {
	src := tl.Track(oldTrack)
	dst := tl.Track(newTrack)
	if src == nil || dst == nil {
		return false
	}
	if oldTrack == newTrack && oldStart == newStart {
		return true
	}

	if oldTrack == newTrack {
		src.mu.Lock()
		defer src.mu.Unlock()
		c, ok := src.clips[oldStart]
		if !ok {
			return false
		}
		if _, collide := src.clips[newStart]; collide {
			return false
		}
		src.removeLocked(oldStart)
		c.TimelineStart = newStart
		src.addLocked(c)
		return true
	}

	first, second := src, dst
	if oldTrack > newTrack {
		first, second = dst, src
	}
	first.mu.Lock()
	defer first.mu.Unlock()
	second.mu.Lock()
	defer second.mu.Unlock()

	c, ok := src.clips[oldStart]
	if !ok {
		return false
	}
	if _, collide := dst.clips[newStart]; collide {
		return false // rollback is implicit: src was never mutated
	}
	src.removeLocked(oldStart)
	c.TimelineStart = newStart
	dst.addLocked(c)
	return true
}

// ProjectEndFrames returns max(tl_start+tl_len) across every clip on every
// track, or 0 if the project is empty.
func (tl *Timeline) ProjectEndFrames() uint64 {
	var end uint64
	for _, t := range tl.tracks {
		t.mu.RLock()
		for _, c := range t.clips {
			if e := c.End(); e > end {
				end = e
			}
		}
		t.mu.RUnlock()
	}
	return end
}
