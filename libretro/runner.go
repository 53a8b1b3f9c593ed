package libretro

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	hostapi "github.com/user-none/retrohost/api"
)

// Audio buffer levels (percent) outside which frame pacing adapts.
const (
	adtMinBuffer = 25
	adtMaxBuffer = 75
)

const commandQueueSize = 16

// resetEvent is the pause gate of the core thread. While set, the thread
// waits until the event is reset or woken for a queued command.
type resetEvent struct {
	mu   sync.Mutex
	cond *sync.Cond
	set  bool
	gen  uint64
}

func newResetEvent() *resetEvent {
	e := &resetEvent{}
	e.cond = sync.NewCond(&e.mu)
	return e
}

func (e *resetEvent) Set() {
	e.mu.Lock()
	e.set = true
	e.mu.Unlock()
}

func (e *resetEvent) Reset() {
	e.mu.Lock()
	e.set = false
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *resetEvent) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Wake releases waiters without changing the state.
func (e *resetEvent) Wake() {
	e.mu.Lock()
	e.gen++
	e.mu.Unlock()
	e.cond.Broadcast()
}

func (e *resetEvent) generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

// waitFrom blocks while the event is set and no Wake happened since gen.
func (e *resetEvent) waitFrom(gen uint64) {
	e.mu.Lock()
	for e.set && e.gen == gen {
		e.cond.Wait()
	}
	e.mu.Unlock()
}

type command struct {
	fn    func(*Session) error
	reply chan error
}

// Runner drives a Session on one OS thread. Start, every frame, every
// command and teardown run on that thread.
type Runner struct {
	session *Session

	// OnFrame, when set, runs on the core thread after every frame.
	OnFrame func(*Session)

	cmds    chan command
	pause   *resetEvent
	running atomic.Bool
	ff      atomic.Bool
	done    chan struct{}
	err     error
}

// NewRunner wraps s. The session must not be started.
func NewRunner(s *Session) *Runner {
	return &Runner{
		session: s,
		cmds:    make(chan command, commandQueueSize),
		pause:   newResetEvent(),
		done:    make(chan struct{}),
	}
}

// Start starts the session on a new goroutine locked to its own OS thread
// and returns once the core is loaded. On error the thread has already
// exited.
func (r *Runner) Start(corePath, contentDir, contentName string) error {
	started := make(chan error, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		r.run(corePath, contentDir, contentName, started)
	}()
	return <-started
}

// RunOnCurrentThread starts the session on the calling goroutine and runs
// frames until Stop or a core shutdown. The goroutine stays locked to its OS
// thread for the duration. It returns the Start error, if any.
func (r *Runner) RunOnCurrentThread(corePath, contentDir, contentName string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	started := make(chan error, 1)
	r.run(corePath, contentDir, contentName, started)
	return r.err
}

func (r *Runner) run(corePath, contentDir, contentName string, started chan<- error) {
	defer close(r.done)
	s := r.session
	if err := s.Start(corePath, contentDir, contentName); err != nil {
		r.err = err
		r.failPending()
		started <- err
		return
	}
	r.running.Store(true)
	started <- nil

	r.loop()

	r.running.Store(false)
	s.Stop()
	r.failPending()
}

func (r *Runner) loop() {
	s := r.session
	fps := s.AVInfo().Timing.FPS
	if fps <= 0 {
		fps = 60
	}
	frameTime := time.Duration(float64(time.Second) / fps)
	lastFrameTime := time.Now()

	for r.running.Load() {
		gen := r.pause.generation()
		r.drain()
		if !r.running.Load() {
			return
		}
		if r.pause.IsSet() {
			r.pause.waitFrom(gen)
			lastFrameTime = time.Now()
			continue
		}

		if err := s.RunFrame(); err != nil {
			s.logf(hostapi.LogError, "frame failed: %v", err)
			return
		}
		if r.OnFrame != nil {
			r.OnFrame(s)
		}
		if s.ShutdownRequested() {
			return
		}

		if s.FastForward() {
			lastFrameTime = time.Now()
			continue
		}
		sleepTime := frameTime - time.Since(lastFrameTime)
		if rep, ok := s.sinks.Audio.(hostapi.AudioBufferReporter); ok {
			level, _ := rep.BufferOccupancy()
			if level < adtMinBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 0.9)
			} else if level > adtMaxBuffer {
				sleepTime = time.Duration(float64(sleepTime) * 1.1)
			}
		}
		if sleepTime > time.Millisecond {
			time.Sleep(sleepTime)
		}
		lastFrameTime = time.Now()
	}
}

// drain runs every queued command.
func (r *Runner) drain() {
	for {
		select {
		case c := <-r.cmds:
			c.reply <- c.fn(r.session)
		default:
			return
		}
	}
}

// failPending answers queued commands after the loop has ended.
func (r *Runner) failPending() {
	for {
		select {
		case c := <-r.cmds:
			c.reply <- ErrRunnerStopped
		default:
			return
		}
	}
}

// Do runs fn on the core thread between frames and returns its error.
func (r *Runner) Do(fn func(*Session) error) error {
	c := command{fn: fn, reply: make(chan error, 1)}
	select {
	case r.cmds <- c:
	case <-r.done:
		return ErrRunnerStopped
	}
	r.pause.Wake()
	select {
	case err := <-c.reply:
		return err
	case <-r.done:
		select {
		case err := <-c.reply:
			return err
		default:
			return ErrRunnerStopped
		}
	}
}

// Pause stops running frames. Commands are still served.
func (r *Runner) Pause() { r.pause.Set() }

// Resume continues after Pause.
func (r *Runner) Resume() { r.pause.Reset() }

// Paused reports whether the runner is paused.
func (r *Runner) Paused() bool { return r.pause.IsSet() }

// Running reports whether the frame loop is active.
func (r *Runner) Running() bool { return r.running.Load() }

// Stop asks the loop to end. The session is torn down on the core thread;
// use Wait to block until that finished.
func (r *Runner) Stop() {
	r.running.Store(false)
	r.pause.Wake()
}

// Wait blocks until the core thread exited and returns the Start error,
// if any.
func (r *Runner) Wait() error {
	<-r.done
	return r.err
}

// Done is closed when the core thread exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

// SetFastForward toggles running without frame pacing.
func (r *Runner) SetFastForward(enabled bool) error {
	r.ff.Store(enabled)
	return r.Do(func(s *Session) error {
		s.SetFastForward(enabled)
		return nil
	})
}

// FastForward reports the last value passed to SetFastForward.
func (r *Runner) FastForward() bool { return r.ff.Load() }

// SaveState saves to slot on the core thread.
func (r *Runner) SaveState(slot int) error {
	return r.Do(func(s *Session) error { return s.SaveState(slot) })
}

// LoadState loads slot on the core thread.
func (r *Runner) LoadState(slot int) error {
	return r.Do(func(s *Session) error { return s.LoadState(slot) })
}

// Reset resets the game on the core thread.
func (r *Runner) Reset() error {
	return r.Do((*Session).Reset)
}

// SetDiskIndex swaps disk images on the core thread.
func (r *Runner) SetDiskIndex(index uint) error {
	return r.Do(func(s *Session) error { return s.SetDiskIndex(index) })
}

// SetControllerPortDevice plugs a device into port on the core thread.
func (r *Runner) SetControllerPortDevice(port, device uint) error {
	return r.Do(func(s *Session) error { return s.SetControllerPortDevice(port, device) })
}

// SetInputEnabled toggles input forwarding on the core thread.
func (r *Runner) SetInputEnabled(enabled bool) error {
	return r.Do(func(s *Session) error {
		s.SetInputEnabled(enabled)
		return nil
	})
}

// SetOption changes a core option on the core thread.
func (r *Runner) SetOption(key, value string) error {
	return r.Do(func(s *Session) error { return s.SetOption(key, value) })
}

// Rewind steps back count states on the core thread.
func (r *Runner) Rewind(count int) bool {
	var ok bool
	r.Do(func(s *Session) error {
		ok = s.Rewind(count)
		return nil
	})
	return ok
}
