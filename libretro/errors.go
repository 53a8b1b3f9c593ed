package libretro

import (
	"errors"
	"fmt"
)

var (
	// ErrUnterminatedArray reports a sentinel-terminated array with no
	// terminator within its bound.
	ErrUnterminatedArray = errors.New("array not terminated within bound")

	// ErrArrayTooLarge reports a counted array above its bound.
	ErrArrayTooLarge = errors.New("array count exceeds bound")

	// ErrNotRunning is returned by operations that need a started session.
	ErrNotRunning = errors.New("session not running")

	// ErrAlreadyRunning is returned by Start on a started session.
	ErrAlreadyRunning = errors.New("session already running")

	// ErrNoContent is returned by content-dependent operations when the core
	// runs without content.
	ErrNoContent = errors.New("no content loaded")

	// ErrThreadBusy is returned by Start when the calling OS thread already
	// hosts a session.
	ErrThreadBusy = errors.New("thread already hosts a session")

	// ErrAPIVersion is wrapped in a LoadError when a core reports an
	// unsupported API version.
	ErrAPIVersion = errors.New("unsupported libretro API version")

	// ErrRunnerStopped is returned for commands sent to a stopped runner.
	ErrRunnerStopped = errors.New("runner stopped")
)

// ContentNotFoundError reports that no file or archive matched the
// requested content.
type ContentNotFoundError struct {
	Dir        string
	Name       string
	Extensions []string
}

func (e *ContentNotFoundError) Error() string {
	return fmt.Sprintf("content %q not found in %s (extensions %v)", e.Name, e.Dir, e.Extensions)
}

// SerializationError reports a failed save-state or SRAM operation.
type SerializationError struct {
	Op   string
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Causes wrapped by failed core operations.
var (
	ErrStateUnsupported  = errors.New("core does not support save states")
	ErrStateSizeMismatch = errors.New("state size does not match core")
	ErrCoreRejected      = errors.New("core rejected the operation")
	ErrNoSaveRAM         = errors.New("core exposes no save RAM")
	ErrNoDiskControl     = errors.New("core has no disk control interface")
)

// UnsupportedCommandError reports an environment command the host does not
// implement.
type UnsupportedCommandError struct {
	Cmd  uint32
	Name string
}

func (e *UnsupportedCommandError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported environment command %s (%d)", e.Name, e.Cmd)
	}
	exp := ""
	if e.Cmd&envExperimental != 0 {
		exp = " experimental"
	}
	return fmt.Sprintf("unknown%s environment command %d", exp, e.Cmd&^envExperimental)
}
