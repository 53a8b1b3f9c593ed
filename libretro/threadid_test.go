//go:build darwin || freebsd || linux || windows

package libretro

import (
	"runtime"
	"testing"
)

func TestCurrentThreadIDDistinct(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	self := currentThreadID()
	if self == 0 {
		t.Fatal("thread id is zero")
	}
	if again := currentThreadID(); again != self {
		t.Errorf("thread id changed on the same thread: %d != %d", again, self)
	}

	other := make(chan uint64)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		other <- currentThreadID()
	}()
	if id := <-other; id == self {
		t.Errorf("two OS threads share id %d", id)
	}
}
