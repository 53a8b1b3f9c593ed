//go:build darwin

package libretro

import (
	"sync"

	"github.com/ebitengine/purego"
)

var (
	pthreadSelfOnce sync.Once
	pthreadSelf     func() uintptr
)

func currentThreadID() uint64 {
	pthreadSelfOnce.Do(func() {
		lib, err := purego.Dlopen("/usr/lib/libSystem.B.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			panic("libretro: cannot open libSystem: " + err.Error())
		}
		purego.RegisterLibFunc(&pthreadSelf, lib, "pthread_self")
	})
	return uint64(pthreadSelf())
}
