package libretro

import (
	"testing"

	hostapi "github.com/user-none/retrohost/api"
	"github.com/user-none/retrohost/storage"
)

func TestNewRewindBuffer(t *testing.T) {
	// 1MB buffer, 100 bytes per state = 10485 entries
	rb := newRewindBuffer(1, 1, 100)
	if rb == nil {
		t.Fatal("expected non-nil buffer")
	}
	if rb.capacity != (1*1024*1024)/100 {
		t.Errorf("capacity = %d, want %d", rb.capacity, (1*1024*1024)/100)
	}
	if rb.count != 0 {
		t.Errorf("count = %d, want 0", rb.count)
	}
}

func TestNewRewindBufferInvalidArgs(t *testing.T) {
	tests := []struct {
		name      string
		sizeMB    int
		frameStep int
		stateSize int
	}{
		{"zero state size", 1, 1, 0},
		{"negative state size", 1, 1, -1},
		{"zero buffer size", 0, 1, 100},
		{"zero frame step", 1, 0, 100},
		{"state larger than buffer", 1, 1, 2 * 1024 * 1024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rb := newRewindBuffer(tt.sizeMB, tt.frameStep, tt.stateSize); rb != nil {
				t.Error("expected nil buffer for invalid args")
			}
		})
	}
}

func TestRewindBufferPopEmpty(t *testing.T) {
	rb := newRewindBuffer(1, 1, 100)
	if rb.pop(1) != nil {
		t.Error("expected pop on empty buffer to return nil")
	}
}

func TestRewindBufferPushPop(t *testing.T) {
	rb := newRewindBuffer(1, 1, (1*1024*1024)/10)
	for i := range 5 {
		rb.push([]byte{byte(i)})
	}

	got := rb.pop(2)
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("pop(2) = %v, want [2]", got)
	}
	if rb.count != 3 {
		t.Errorf("count = %d, want 3", rb.count)
	}

	got = rb.pop(100)
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("pop(100) = %v, want the oldest entry [0]", got)
	}
	if rb.count != 1 {
		t.Errorf("count = %d, want 1", rb.count)
	}
	if rb.pop(0) != nil {
		t.Error("pop(0) returned a state")
	}
}

func TestRewindBufferCountNeverExceedsCapacity(t *testing.T) {
	rb := newRewindBuffer(1, 1, (1*1024*1024)/10)
	if rb.capacity != 10 {
		t.Fatalf("capacity = %d, want 10", rb.capacity)
	}
	for i := range 20 {
		rb.push([]byte{byte(i)})
	}
	if rb.count != 10 {
		t.Errorf("count = %d, want 10", rb.count)
	}
	// The oldest surviving entry is the 11th push.
	if got := rb.pop(100); got[0] != 10 {
		t.Errorf("oldest = %d, want 10", got[0])
	}
}

func TestRewindBufferReusesSlots(t *testing.T) {
	rb := newRewindBuffer(1, 1, (1*1024*1024)/2)
	rb.push([]byte{1, 2, 3})
	rb.push([]byte{4, 5, 6})
	first := &rb.buffer[0][0]
	rb.push([]byte{7, 8})
	if &rb.buffer[0][0] != first {
		t.Error("slot reallocated for a smaller state")
	}
	if len(rb.buffer[0]) != 2 || rb.buffer[0][1] != 8 {
		t.Errorf("slot = %v, want [7 8]", rb.buffer[0])
	}
}

func TestRewindBufferReset(t *testing.T) {
	rb := newRewindBuffer(1, 1, 100)
	rb.push([]byte{1, 2, 3})
	rb.push([]byte{4, 5, 6})
	rb.frameTick = 3

	rb.reset()

	if rb.head != 0 {
		t.Errorf("head = %d, want 0", rb.head)
	}
	if rb.count != 0 {
		t.Errorf("count = %d, want 0", rb.count)
	}
	if rb.frameTick != 0 {
		t.Errorf("frameTick = %d, want 0", rb.frameTick)
	}
	if rb.buffer[0] != nil || rb.buffer[1] != nil {
		t.Error("slots should be nil after reset")
	}
}

func TestRewindBufferFrameStep(t *testing.T) {
	rb := newRewindBuffer(1, 3, 100)
	var due []bool
	for range 6 {
		due = append(due, rb.due())
	}
	want := []bool{false, false, true, false, false, true}
	for i := range want {
		if due[i] != want[i] {
			t.Errorf("due = %v, want %v", due, want)
			break
		}
	}
}

func startRewindSession(t *testing.T, fc *fakeCore, frameStep int) (*Session, *testSinks) {
	t.Helper()
	s, ts := newTestSession(t, fc)
	s.cfg.Rewind = storage.RewindConfig{Enabled: true, BufferSizeMB: 1, FrameStep: frameStep}
	startWithContent(t, s)
	return s, ts
}

func TestSessionRewind(t *testing.T) {
	fc := newFakeCore()
	s, _ := startRewindSession(t, fc, 1)
	defer s.Stop()

	for range 5 {
		s.RunFrame()
	}
	if s.RewindDepth() != 5 {
		t.Fatalf("depth = %d, want 5", s.RewindDepth())
	}

	if !s.Rewind(2) {
		t.Fatal("Rewind(2) failed")
	}
	if fc.counter != 3 {
		t.Errorf("counter = %d, want 3", fc.counter)
	}
	if s.RewindDepth() != 3 {
		t.Errorf("depth = %d, want 3", s.RewindDepth())
	}

	// The frame after a rewind is not captured.
	s.RunFrame()
	if s.RewindDepth() != 3 {
		t.Errorf("depth = %d after the rewound frame, want 3", s.RewindDepth())
	}

	if !s.Rewind(100) {
		t.Fatal("Rewind(100) failed")
	}
	if fc.counter != 1 {
		t.Errorf("counter = %d, want the oldest state 1", fc.counter)
	}
	if s.RewindDepth() != 1 {
		t.Errorf("depth = %d, want 1", s.RewindDepth())
	}
}

func TestSessionRewindClearedByReset(t *testing.T) {
	fc := newFakeCore()
	s, _ := startRewindSession(t, fc, 2)
	defer s.Stop()

	for range 4 {
		s.RunFrame()
	}
	if s.RewindDepth() != 2 {
		t.Fatalf("depth = %d with frame step 2, want 2", s.RewindDepth())
	}
	s.Reset()
	if s.RewindDepth() != 0 {
		t.Errorf("depth = %d after reset, want 0", s.RewindDepth())
	}
	if s.Rewind(1) {
		t.Error("Rewind succeeded on an empty buffer")
	}
}

func TestSessionRewindDisabled(t *testing.T) {
	fc := newFakeCore()
	s, _ := newTestSession(t, fc)
	startWithContent(t, s)
	defer s.Stop()

	s.RunFrame()
	if s.Rewind(1) {
		t.Error("Rewind succeeded with rewind disabled")
	}
	if s.RewindDepth() != 0 {
		t.Errorf("depth = %d, want 0", s.RewindDepth())
	}
}

func TestSessionRewindWithoutStates(t *testing.T) {
	fc := newFakeCore()
	fc.stateSize = 0
	s, ts := startRewindSession(t, fc, 1)
	defer s.Stop()

	if s.rewind != nil {
		t.Error("rewind buffer allocated for a core without save states")
	}
	if !ts.log.Contains(hostapi.LogInfo, "rewind unavailable") {
		t.Error("missing rewind notice")
	}
}
