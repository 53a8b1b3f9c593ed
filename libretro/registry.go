package libretro

import "sync"

// threadRegistry maps OS threads to the session they host. Core callbacks
// carry no user data, so each trampoline finds its session by asking which
// thread it runs on.
type threadRegistry struct {
	mu       sync.Mutex
	sessions map[uint64]*Session
}

var registry = &threadRegistry{sessions: make(map[uint64]*Session)}

// register binds s to the calling thread.
func (r *threadRegistry) register(s *Session) (uint64, error) {
	tid := currentThreadID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if other, ok := r.sessions[tid]; ok && other != s {
		return 0, ErrThreadBusy
	}
	r.sessions[tid] = s
	return tid, nil
}

// unregister removes the binding of tid if it still points at s.
func (r *threadRegistry) unregister(tid uint64, s *Session) {
	r.mu.Lock()
	if r.sessions[tid] == s {
		delete(r.sessions, tid)
	}
	r.mu.Unlock()
}

// lookup returns the session hosted by the calling thread, or nil.
func (r *threadRegistry) lookup() *Session {
	tid := currentThreadID()
	r.mu.Lock()
	s := r.sessions[tid]
	r.mu.Unlock()
	return s
}

// count reports the number of registered sessions.
func (r *threadRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
