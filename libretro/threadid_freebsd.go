//go:build freebsd

package libretro

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

func currentThreadID() uint64 {
	var id int64
	if _, _, errno := unix.RawSyscall(unix.SYS_THR_SELF, uintptr(unsafe.Pointer(&id)), 0, 0); errno != 0 {
		panic("libretro: thr_self: " + errno.Error())
	}
	return uint64(id)
}
