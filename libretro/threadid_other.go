//go:build !darwin && !freebsd && !linux && !windows

package libretro

// Without a thread id source every session shares one slot, so only one
// session can run at a time.
func currentThreadID() uint64 {
	return 1
}
