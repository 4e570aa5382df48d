// Package ring implements a fixed-capacity single-producer/single-consumer
// FIFO of interleaved stereo (L,R) float32 frames. It is the handoff
// between exactly one decode worker (producer) and the render path
// (consumer): the producer side is written under the track's decoder
// lock, the consumer side is read wait-free from the audio callback.
package ring

import "sync/atomic"

// Buffer is an SPSC ring sized in frames (stereo pairs); its backing store
// holds frames*2 float32 samples. Capacity is rounded up to a power of two
// so index wrapping is a mask instead of a modulo.
type Buffer struct {
	data     []float32 // len == capacityFrames*2
	capMask  uint64     // capacityFrames-1
	capFrames uint64
	writePos atomic.Uint64 // frames written, monotonic
	readPos  atomic.Uint64 // frames read, monotonic
}

// NewBuffer creates a ring able to hold at least capacityFrames stereo
// frames (rounded up to the next power of two).
func NewBuffer(capacityFrames int) *Buffer {
	if capacityFrames <= 0 {
		capacityFrames = 1
	}
	cap := nextPowerOfTwo(uint64(capacityFrames))
	return &Buffer{
		data:      make([]float32, cap*2),
		capMask:   cap - 1,
		capFrames: cap,
	}
}

func nextPowerOfTwo(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// CapacityFrames returns the ring's usable capacity in stereo frames.
func (b *Buffer) CapacityFrames() uint64 { return b.capFrames }

// Len reports the number of frames currently buffered.
func (b *Buffer) Len() uint64 {
	return b.writePos.Load() - b.readPos.Load()
}

// IsFull reports whether the ring cannot accept another frame right now.
func (b *Buffer) IsFull() bool {
	return b.Len() >= b.capFrames
}

// IsEmpty reports whether the ring has no frames to pop.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// Push writes one (l,r) frame. Returns false if the ring is full (caller
// backs off; this is normal backpressure, not an error).
func (b *Buffer) Push(l, r float32) bool {
	if b.IsFull() {
		return false
	}
	pos := b.writePos.Load() & b.capMask
	b.data[pos*2] = l
	b.data[pos*2+1] = r
	b.writePos.Add(1)
	return true
}

// Pop reads one (l,r) frame. Returns false (with l=r=0) on underrun.
func (b *Buffer) Pop() (l, r float32, ok bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}
	pos := b.readPos.Load() & b.capMask
	l, r = b.data[pos*2], b.data[pos*2+1]
	b.readPos.Add(1)
	return l, r, true
}

// Drain pops every buffered frame and discards it, used to flush the ring
// before a prefill following a seek/stop.
func (b *Buffer) Drain() {
	for {
		if _, _, ok := b.Pop(); !ok {
			return
		}
	}
}
