// Package ring implements a lock-free single-producer/single-consumer
// sample queue. It is the handoff point between the capture callback and
// the disk-writer worker: the producer side is wait-free and
// allocation-free, which is what lets it run on a real-time audio thread.
package ring

import "sync/atomic"

// Buffer is an SPSC float32 ring with a power-of-two capacity. Exactly one
// goroutine may call Write (the capture callback) and exactly one goroutine
// may call Read (the sink worker); calling either from more than one
// goroutine concurrently is undefined.
type Buffer struct {
	data []float32
	mask uint64

	// write is only ever written by the producer and read by the consumer;
	// read is the reverse. Keeping them as separate atomics (rather than a
	// shared mutex) is what makes Write wait-free.
	write atomic.Uint64
	read  atomic.Uint64
}

// New creates a Buffer whose capacity is rounded up to the next power of
// two at or above capacity. A capacity of 0 is treated as 1.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	n := nextPowerOfTwo(capacity)
	return &Buffer{
		data: make([]float32, n),
		mask: uint64(n - 1),
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Capacity returns the ring's total slot count.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Len returns the number of samples currently available to read.
func (b *Buffer) Len() int {
	w := b.write.Load()
	r := b.read.Load()
	return int(w - r)
}

// Write copies as many samples from src as fit without overtaking the
// reader, dropping the rest. It returns the number of samples actually
// written. Called only from the producer goroutine.
func (b *Buffer) Write(src []float32) int {
	w := b.write.Load()
	r := b.read.Load()

	available := int(uint64(len(b.data)) - (w - r))
	n := len(src)
	if n > available {
		n = available
	}
	for i := 0; i < n; i++ {
		b.data[(w+uint64(i))&b.mask] = src[i]
	}
	b.write.Store(w + uint64(n))
	return n
}

// Read copies as many samples into dst as are available, returning the
// count actually read. Called only from the consumer goroutine.
func (b *Buffer) Read(dst []float32) int {
	w := b.write.Load()
	r := b.read.Load()

	available := int(w - r)
	n := len(dst)
	if n > available {
		n = available
	}
	for i := 0; i < n; i++ {
		dst[i] = b.data[(r+uint64(i))&b.mask]
	}
	b.read.Store(r + uint64(n))
	return n
}
