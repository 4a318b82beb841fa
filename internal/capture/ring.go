package capture

import "sync"

// RingBuffer is a fixed-capacity FIFO store of encoded frames. When full,
// appending evicts the oldest frame. It supports one writer and any number
// of concurrent Snapshot readers; both operations hold the lock only for a
// bounded copy, so the writer is never starved and readers never observe a
// view that mutates after return.
type RingBuffer struct {
	mu    sync.Mutex
	buf   []Frame
	head  int // index of the oldest frame
	count int
}

// NewRingBuffer creates a buffer holding at most capacity frames.
// Panics if capacity is not positive; capacity is static deployment
// configuration, so a bad value is a programming error.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		panic("capture: ring buffer capacity must be positive")
	}
	return &RingBuffer{buf: make([]Frame, capacity)}
}

// Capacity returns the fixed capacity of the buffer.
func (r *RingBuffer) Capacity() int {
	return len(r.buf)
}

// Len returns the current number of buffered frames.
func (r *RingBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Append adds a frame, evicting the oldest one if the buffer is at
// capacity. O(1).
func (r *RingBuffer) Append(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = f
		r.count++
		return
	}
	// Full: overwrite the oldest slot and advance head.
	r.buf[r.head] = f
	r.head = (r.head + 1) % len(r.buf)
}

// Snapshot returns the buffered frames in temporal order (oldest first) as
// an independent slice. The returned slice is a point-in-time copy: later
// appends never mutate it. Safe to call from multiple goroutines while the
// writer keeps appending.
func (r *RingBuffer) Snapshot() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Frame, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}
