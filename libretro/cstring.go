package libretro

import (
	"runtime"
	"sync"
	"unsafe"
)

// maxCStringLen bounds reads of core-owned strings.
const maxCStringLen = 1 << 20

// stringTable owns NUL-terminated copies of Go strings and other host memory
// handed to the core. Everything stays pinned until release.
type stringTable struct {
	mu      sync.Mutex
	pinner  runtime.Pinner
	strings map[string]*byte
}

// cstr returns a pinned C string for s. Equal strings share one copy.
func (t *stringTable) cstr(s string) *byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.strings[s]; ok {
		return p
	}
	if t.strings == nil {
		t.strings = make(map[string]*byte)
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	p := &buf[0]
	t.pinner.Pin(p)
	t.strings[s] = p
	return p
}

// pin keeps a host object at a fixed address until release.
func (t *stringTable) pin(p any) {
	t.mu.Lock()
	t.pinner.Pin(p)
	t.mu.Unlock()
}

// release unpins everything. Pointers handed out earlier become invalid.
func (t *stringTable) release() {
	t.mu.Lock()
	t.pinner.Unpin()
	t.strings = nil
	t.mu.Unlock()
}

// size reports the number of interned strings.
func (t *stringTable) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.strings)
}

// goString copies a core-owned C string. A nil pointer gives "".
func goString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for n < maxCStringLen && *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// scanSentinel views a core-owned array terminated by an entry for which end
// returns true. The terminator is excluded. Arrays without a terminator
// within limit entries are rejected.
func scanSentinel[T any](first *T, limit int, end func(*T) bool) ([]T, error) {
	if first == nil {
		return nil, nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	for i := 0; i < limit; i++ {
		e := (*T)(unsafe.Add(unsafe.Pointer(first), uintptr(i)*size))
		if end(e) {
			return unsafe.Slice(first, i), nil
		}
	}
	return nil, ErrUnterminatedArray
}

// countedSlice views a core-owned array of n entries, rejecting counts above
// limit.
func countedSlice[T any](first *T, n uint32, limit int) ([]T, error) {
	if first == nil || n == 0 {
		return nil, nil
	}
	if int(n) > limit {
		return nil, ErrArrayTooLarge
	}
	return unsafe.Slice(first, n), nil
}
