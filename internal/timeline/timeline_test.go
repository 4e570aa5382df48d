package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddClip_RejectsZeroLenAndDuplicateStart(t *testing.T) {
	tl := New(2)
	require.True(t, tl.AddClip(0, "a.wav", 44100, 100, 200))
	assert.False(t, tl.AddClip(0, "b.wav", 44100, 0, 0), "zero-length clip must be rejected")
	assert.False(t, tl.AddClip(0, "b.wav", 44100, 100, 50), "duplicate tl_start must be rejected")
	assert.False(t, tl.AddClip(5, "c.wav", 44100, 0, 10), "out-of-range track must be rejected")
}

func TestAddClip_DoesNotMutateOtherClips(t *testing.T) {
	tl := New(1)
	require.True(t, tl.AddClip(0, "a.wav", 44100, 0, 100))
	require.True(t, tl.AddClip(0, "b.wav", 44100, 200, 100))

	c, ok := tl.Track(0).ClipAt(50)
	require.True(t, ok)
	assert.Equal(t, "a.wav", c.FilePath)

	c2, ok := tl.Track(0).ClipAt(250)
	require.True(t, ok)
	assert.Equal(t, "b.wav", c2.FilePath)
}

func TestClipAt_GapReturnsFalse(t *testing.T) {
	tl := New(1)
	require.True(t, tl.AddClip(0, "a.wav", 44100, 0, 100))
	require.True(t, tl.AddClip(0, "b.wav", 44100, 200, 100))

	_, ok := tl.Track(0).ClipAt(150)
	assert.False(t, ok)

	next, ok := tl.Track(0).NextClipStart(150)
	require.True(t, ok)
	assert.Equal(t, uint64(200), next)
}

func TestOverlapPrecedence_LaterStartWins(t *testing.T) {
	// spec.md §9 leaves overlap precedence to the implementer; this module
	// documents that the clip with the greatest tl_start <= frame wins.
	tl := New(1)
	require.True(t, tl.AddClip(0, "early.wav", 44100, 0, 500))
	require.True(t, tl.AddClip(0, "late.wav", 44100, 100, 500))

	c, ok := tl.Track(0).ClipAt(300)
	require.True(t, ok)
	assert.Equal(t, "late.wav", c.FilePath, "later-starting clip must take precedence in its overlap region")

	c, ok = tl.Track(0).ClipAt(50)
	require.True(t, ok)
	assert.Equal(t, "early.wav", c.FilePath, "before the overlap, the earlier clip still governs")
}

func TestDeleteClip(t *testing.T) {
	tl := New(1)
	require.True(t, tl.AddClip(0, "a.wav", 44100, 0, 100))
	assert.True(t, tl.DeleteClip(0, 0))
	assert.False(t, tl.DeleteClip(0, 0), "deleting twice must fail")
	_, ok := tl.Track(0).ClipAt(0)
	assert.False(t, ok)
}

func TestMoveClip_SameTrack(t *testing.T) {
	tl := New(1)
	require.True(t, tl.AddClip(0, "a.wav", 44100, 0, 100))
	require.True(t, tl.MoveClip(0, 0, 0, 500))

	_, ok := tl.Track(0).ClipAt(0)
	assert.False(t, ok)
	c, ok := tl.Track(0).ClipAt(500)
	require.True(t, ok)
	assert.Equal(t, "a.wav", c.FilePath)
}

func TestMoveClip_CrossTrackRollbackOnCollision(t *testing.T) {
	tl := New(2)
	require.True(t, tl.AddClip(0, "a.wav", 44100, 0, 100))
	require.True(t, tl.AddClip(1, "b.wav", 44100, 500, 100))

	ok := tl.MoveClip(0, 0, 1, 500)
	assert.False(t, ok, "destination collision must fail the move")

	c, stillThere := tl.Track(0).ClipAt(0)
	require.True(t, stillThere, "source clip must be restored on rollback")
	assert.Equal(t, "a.wav", c.FilePath)
}

func TestMoveClip_CrossTrackDescendingIndexOrder(t *testing.T) {
	// Exercises the path where the source index is higher than the
	// destination's, so the destination's lock is taken first.
	tl := New(3)
	require.True(t, tl.AddClip(2, "a.wav", 44100, 0, 100))
	require.True(t, tl.MoveClip(2, 0, 0, 10))

	c, ok := tl.Track(0).ClipAt(10)
	require.True(t, ok)
	assert.Equal(t, "a.wav", c.FilePath)
}

func TestProjectEndFrames(t *testing.T) {
	tl := New(2)
	assert.Equal(t, uint64(0), tl.ProjectEndFrames())

	require.True(t, tl.AddClip(0, "a.wav", 44100, 0, 100))
	require.True(t, tl.AddClip(1, "b.wav", 44100, 50, 500))

	assert.Equal(t, uint64(550), tl.ProjectEndFrames())
}

func TestWriteCursor(t *testing.T) {
	tl := New(1)
	track := tl.Track(0)
	assert.Equal(t, uint64(0), track.WriteCursor())
	track.SetWriteCursor(42)
	assert.Equal(t, uint64(42), track.WriteCursor())
}
