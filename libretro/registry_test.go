package libretro

import (
	"errors"
	"runtime"
	"testing"
)

func TestThreadRegistry(t *testing.T) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	r := &threadRegistry{sessions: make(map[uint64]*Session)}
	a, b := &Session{}, &Session{}

	tid, err := r.register(a)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if r.lookup() != a {
		t.Error("lookup did not find the registered session")
	}
	if _, err := r.register(a); err != nil {
		t.Errorf("registering the same session again = %v", err)
	}
	if _, err := r.register(b); !errors.Is(err, ErrThreadBusy) {
		t.Errorf("second session = %v, want ErrThreadBusy", err)
	}

	r.unregister(tid, b)
	if r.lookup() != a {
		t.Error("unregister of another session removed the binding")
	}
	r.unregister(tid, a)
	if r.lookup() != nil || r.count() != 0 {
		t.Error("binding survived unregister")
	}
}

func TestThreadRegistryPerThread(t *testing.T) {
	r := &threadRegistry{sessions: make(map[uint64]*Session)}
	const n = 4
	found := make(chan bool, n)
	release := make(chan struct{})
	for range n {
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			s := &Session{}
			tid, err := r.register(s)
			if err != nil {
				found <- false
				return
			}
			found <- r.lookup() == s
			<-release
			r.unregister(tid, s)
		}()
	}
	for range n {
		if !<-found {
			t.Error("session not isolated to its thread")
		}
	}
	if r.count() != n {
		t.Errorf("count = %d, want %d", r.count(), n)
	}
	close(release)
}
