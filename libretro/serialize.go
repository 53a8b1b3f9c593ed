package libretro

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/user-none/retrohost/storage"
)

// variableStateSize reports whether the core's state size may change from
// frame to frame.
func (s *Session) variableStateSize() bool {
	return s.quirks&quirkCoreVariableSize != 0
}

// StateSize returns the size of a serialized state. The value is cached
// until the AV info or serialization quirks change, and never cached for
// cores with a variable state size.
func (s *Session) StateSize() (int, error) {
	if !s.gameLoaded {
		return 0, ErrNotRunning
	}
	if s.stateSizeValid && !s.variableStateSize() {
		return s.stateSize, nil
	}
	n := int(s.core.ep.SerializeSize())
	if !s.variableStateSize() {
		s.stateSize = n
		s.stateSizeValid = true
	}
	return n, nil
}

// SerializeState captures the full core state.
func (s *Session) SerializeState() ([]byte, error) {
	n, err := s.StateSize()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, &SerializationError{Op: "serialize", Err: ErrStateUnsupported}
	}
	buf := make([]byte, n)
	if !s.core.ep.Serialize(unsafe.Pointer(&buf[0]), uintptr(n)) {
		return nil, &SerializationError{Op: "serialize", Err: ErrCoreRejected}
	}
	return buf, nil
}

// UnserializeState restores a state captured by SerializeState. Data of the
// wrong size is rejected without calling the core. Cores with a variable
// state size accept anything up to the current size.
func (s *Session) UnserializeState(data []byte) error {
	n, err := s.StateSize()
	if err != nil {
		return err
	}
	if n == 0 {
		return &SerializationError{Op: "unserialize", Err: ErrStateUnsupported}
	}
	if len(data) == 0 || len(data) > n || (len(data) != n && !s.variableStateSize()) {
		return &SerializationError{
			Op:  "unserialize",
			Err: fmt.Errorf("%w: got %d bytes, want %d", ErrStateSizeMismatch, len(data), n),
		}
	}
	if !s.core.ep.Unserialize(unsafe.Pointer(&data[0]), uintptr(len(data))) {
		return &SerializationError{Op: "unserialize", Err: ErrCoreRejected}
	}
	return nil
}

func (s *Session) statePath(slot int) string {
	return s.cfg.Layout.StatePath(s.core.Name, s.contentKey(), slot)
}

// SaveState writes the current state to slot.
func (s *Session) SaveState(slot int) error {
	if !s.running {
		return ErrNotRunning
	}
	data, err := s.SerializeState()
	if err != nil {
		return err
	}
	path := s.statePath(slot)
	if err := storage.AtomicWriteFile(path, data); err != nil {
		return &SerializationError{Op: "save state", Path: path, Err: err}
	}
	return nil
}

// LoadState restores the state saved in slot.
func (s *Session) LoadState(slot int) error {
	if !s.running {
		return ErrNotRunning
	}
	path := s.statePath(slot)
	data, err := os.ReadFile(path)
	if err != nil {
		return &SerializationError{Op: "load state", Path: path, Err: err}
	}
	if err := s.UnserializeState(data); err != nil {
		var se *SerializationError
		if errors.As(err, &se) {
			se.Op = "load state"
			se.Path = path
		}
		return err
	}
	if s.rewind != nil {
		s.rewind.reset()
	}
	s.clearAudioQueue()
	return nil
}

// saveRAM returns the core's battery-backed memory, or nil when it has none.
func (s *Session) saveRAM() []byte {
	size := s.core.ep.GetMemorySize(memorySaveRAM)
	ptr := s.core.ep.GetMemoryData(memorySaveRAM)
	if size == 0 || ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), size)
}

func (s *Session) sramPath() string {
	return s.cfg.Layout.SRAMPath(s.core.Name, s.contentKey())
}

// SaveSRAM writes the core's save RAM next to the other saves of the core.
func (s *Session) SaveSRAM() error {
	if !s.gameLoaded {
		return ErrNotRunning
	}
	ram := s.saveRAM()
	if ram == nil {
		return &SerializationError{Op: "save SRAM", Err: ErrNoSaveRAM}
	}
	path := s.sramPath()
	if err := storage.AtomicWriteFile(path, ram); err != nil {
		return &SerializationError{Op: "save SRAM", Path: path, Err: err}
	}
	return nil
}

// LoadSRAM copies the saved SRAM file into the core's save RAM. A file of a
// different size fills what fits.
func (s *Session) LoadSRAM() error {
	if !s.gameLoaded {
		return ErrNotRunning
	}
	ram := s.saveRAM()
	if ram == nil {
		return &SerializationError{Op: "load SRAM", Err: ErrNoSaveRAM}
	}
	path := s.sramPath()
	data, err := os.ReadFile(path)
	if err != nil {
		return &SerializationError{Op: "load SRAM", Path: path, Err: err}
	}
	copy(ram, data)
	return nil
}
