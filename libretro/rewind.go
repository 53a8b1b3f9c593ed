package libretro

import (
	hostapi "github.com/user-none/retrohost/api"
)

// rewindBuffer stores serialized states in a ring buffer. States are
// captured every frameStep frames and popped in reverse order to step
// backwards.
type rewindBuffer struct {
	buffer    [][]byte // Ring buffer slots
	head      int      // Next write position
	count     int      // Number of valid entries
	capacity  int      // Max entries
	frameStep int      // Capture every N frames
	frameTick int      // Frame counter for step timing
	active    bool     // A rewind ran this frame
}

// newRewindBuffer sizes a ring to fit bufferSizeMB of states of stateSize
// bytes each. It returns nil when nothing fits.
func newRewindBuffer(bufferSizeMB, frameStep, stateSize int) *rewindBuffer {
	if stateSize <= 0 || bufferSizeMB <= 0 || frameStep <= 0 {
		return nil
	}
	capacity := (bufferSizeMB * 1024 * 1024) / stateSize
	if capacity == 0 {
		return nil
	}
	return &rewindBuffer{
		buffer:    make([][]byte, capacity),
		capacity:  capacity,
		frameStep: frameStep,
	}
}

// due advances the frame counter and reports whether this frame is
// captured.
func (rb *rewindBuffer) due() bool {
	rb.frameTick++
	if rb.frameTick < rb.frameStep {
		return false
	}
	rb.frameTick = 0
	return true
}

// push stores a state, overwriting the oldest when full. The slot's previous
// slice is reused when it is large enough.
func (rb *rewindBuffer) push(state []byte) {
	slot := rb.buffer[rb.head]
	if cap(slot) >= len(state) {
		slot = slot[:len(state)]
	} else {
		slot = make([]byte, len(state))
	}
	copy(slot, state)
	rb.buffer[rb.head] = slot
	rb.head = (rb.head + 1) % rb.capacity
	if rb.count < rb.capacity {
		rb.count++
	}
}

// pop drops count entries and returns the newest remaining one. Asking for
// more than is stored stops at the oldest entry, which stays in the ring.
func (rb *rewindBuffer) pop(count int) []byte {
	if rb.count == 0 || count <= 0 {
		return nil
	}
	if count >= rb.count {
		count = rb.count - 1
	}
	rb.head = (rb.head - count + rb.capacity) % rb.capacity
	rb.count -= count
	return rb.buffer[(rb.head-1+rb.capacity)%rb.capacity]
}

// reset clears the buffer. Called on reset and state loads.
func (rb *rewindBuffer) reset() {
	rb.head = 0
	rb.count = 0
	rb.frameTick = 0
	for i := range rb.buffer {
		rb.buffer[i] = nil
	}
}

// setupRewind allocates the ring from the configured budget.
func (s *Session) setupRewind() {
	n, err := s.StateSize()
	if err != nil || n == 0 {
		s.logf(hostapi.LogInfo, "rewind unavailable: core does not support save states")
		return
	}
	rc := s.cfg.Rewind
	s.rewind = newRewindBuffer(rc.BufferSizeMB, rc.FrameStep, n)
	if s.rewind == nil {
		s.logf(hostapi.LogWarn, "rewind disabled: a %d byte state does not fit in %d MB", n, rc.BufferSizeMB)
		return
	}
	s.logf(hostapi.LogDebug, "rewind buffer holds %d states", s.rewind.capacity)
}

func (s *Session) captureRewind() {
	if s.rewind.active {
		s.rewind.active = false
		return
	}
	if !s.rewind.due() {
		return
	}
	state, err := s.SerializeState()
	if err != nil {
		s.logf(hostapi.LogWarn, "rewind capture: %v", err)
		return
	}
	s.rewind.push(state)
}

// Rewind steps back count captured states and restores the newest
// remaining one. It reports false when rewind is off or nothing was
// captured.
func (s *Session) Rewind(count int) bool {
	if !s.running || s.rewind == nil {
		return false
	}
	state := s.rewind.pop(count)
	if state == nil {
		return false
	}
	if err := s.UnserializeState(state); err != nil {
		s.logf(hostapi.LogWarn, "rewind: %v", err)
		return false
	}
	s.rewind.active = true
	s.clearAudioQueue()
	return true
}

// RewindDepth is the number of states available to Rewind.
func (s *Session) RewindDepth() int {
	if s.rewind == nil {
		return 0
	}
	return s.rewind.count
}
