package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer_RoundsCapacityToPowerOfTwo(t *testing.T) {
	b := NewBuffer(10)
	assert.Equal(t, uint64(16), b.CapacityFrames())
}

func TestPushPop_FIFOOrder(t *testing.T) {
	b := NewBuffer(4)
	require.True(t, b.Push(1, -1))
	require.True(t, b.Push(2, -2))

	l, r, ok := b.Pop()
	require.True(t, ok)
	assert.Equal(t, float32(1), l)
	assert.Equal(t, float32(-1), r)

	l, r, ok = b.Pop()
	require.True(t, ok)
	assert.Equal(t, float32(2), l)
	assert.Equal(t, float32(-2), r)
}

func TestPop_EmptyReturnsZeroAndFalse(t *testing.T) {
	b := NewBuffer(4)
	l, r, ok := b.Pop()
	assert.False(t, ok)
	assert.Equal(t, float32(0), l)
	assert.Equal(t, float32(0), r)
}

func TestPush_FullReturnsFalse(t *testing.T) {
	b := NewBuffer(2) // rounds to 2
	require.True(t, b.Push(0, 0))
	require.True(t, b.Push(0, 0))
	assert.False(t, b.Push(0, 0), "ring at capacity must reject further pushes")
}

func TestDrain(t *testing.T) {
	b := NewBuffer(4)
	b.Push(1, 1)
	b.Push(2, 2)
	b.Drain()
	assert.True(t, b.IsEmpty())
	_, _, ok := b.Pop()
	assert.False(t, ok)
}

func TestSPSC_ConcurrentProducerConsumer(t *testing.T) {
	b := NewBuffer(64)
	const total = 10000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			for !b.Push(float32(i), float32(-i)) {
				// backpressure: spin until the consumer drains a slot
			}
		}
	}()

	go func() {
		defer wg.Done()
		expected := 0
		for expected < total {
			l, r, ok := b.Pop()
			if !ok {
				continue
			}
			assert.Equal(t, float32(expected), l)
			assert.Equal(t, float32(-expected), r)
			expected++
		}
	}()

	wg.Wait()
}
