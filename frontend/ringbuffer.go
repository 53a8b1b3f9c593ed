package frontend

import (
	"io"
	"sync"
)

// ringBuffer is the byte FIFO between the core thread and the audio device.
// Writes never block; when full the oldest bytes are dropped. Reads block
// until data arrives or the buffer is closed.
type ringBuffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []byte
	readPos  int
	writePos int
	count    int
	closed   bool
	underrun bool
}

func newRingBuffer(capacity int) *ringBuffer {
	rb := &ringBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write queues p, overwriting the oldest data on overflow. Writes after
// Close are dropped.
func (rb *ringBuffer) Write(p []byte) {
	rb.mu.Lock()
	if rb.closed || len(p) == 0 {
		rb.mu.Unlock()
		return
	}
	capacity := len(rb.buf)
	if len(p) >= capacity {
		p = p[len(p)-capacity:]
		rb.readPos, rb.writePos, rb.count = 0, 0, 0
	}
	if overflow := rb.count + len(p) - capacity; overflow > 0 {
		rb.readPos = (rb.readPos + overflow) % capacity
		rb.count -= overflow
	}
	for len(p) > 0 {
		n := copy(rb.buf[rb.writePos:], p)
		rb.writePos = (rb.writePos + n) % capacity
		rb.count += n
		p = p[n:]
	}
	rb.mu.Unlock()
	rb.cond.Broadcast()
}

// Read implements io.Reader for the audio device. It returns io.EOF once the
// buffer is closed and drained.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.count == 0 && !rb.closed {
		rb.underrun = true
	}
	for rb.count == 0 && !rb.closed {
		rb.cond.Wait()
	}
	if rb.count == 0 {
		return 0, io.EOF
	}

	n := min(len(p), rb.count)
	first := copy(p[:n], rb.buf[rb.readPos:])
	if first < n {
		copy(p[first:n], rb.buf[:n-first])
	}
	rb.readPos = (rb.readPos + n) % len(rb.buf)
	rb.count -= n
	return n, nil
}

// Buffered returns the number of queued bytes.
func (rb *ringBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Clear drops all queued data.
func (rb *ringBuffer) Clear() {
	rb.mu.Lock()
	rb.readPos, rb.writePos, rb.count = 0, 0, 0
	rb.mu.Unlock()
}

// Close wakes blocked readers. Data still queued can be read.
func (rb *ringBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.mu.Unlock()
	rb.cond.Broadcast()
}

// takeUnderrun reports whether a read found the buffer empty since the last
// call.
func (rb *ringBuffer) takeUnderrun() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	u := rb.underrun
	rb.underrun = false
	return u
}
