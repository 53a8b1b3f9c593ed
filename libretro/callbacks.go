package libretro

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	hostapi "github.com/user-none/retrohost/api"
)

// hostCallbacks holds the native function pointers handed to cores. They are
// created once per process; every pointer resolves its session through the
// thread registry.
type hostCallbacks struct {
	environment      uintptr
	videoRefresh     uintptr
	audioSample      uintptr
	audioSampleBatch uintptr
	inputPoll        uintptr
	inputState       uintptr

	logPrintf uintptr
	rumble    uintptr
	led       uintptr

	perfGetTimeUsec    uintptr
	perfGetCPUFeatures uintptr
	perfGetCounter     uintptr
	perfRegister       uintptr
	perfStart          uintptr
	perfStop           uintptr
	perfLog            uintptr

	hwGetCurrentFramebuffer uintptr
	hwGetProcAddress        uintptr
}

var (
	nativeOnce sync.Once
	native     *hostCallbacks
)

// variadicInRegisters reports whether C variadic arguments arrive in the
// same registers as named ones. Apple arm64 passes them on the stack.
var variadicInRegisters = !((runtime.GOOS == "darwin" || runtime.GOOS == "ios") && runtime.GOARCH == "arm64")

func b2u(v bool) uintptr {
	if v {
		return 1
	}
	return 0
}

// nativeCallbacks returns the process-wide trampolines, creating them on
// first use.
func nativeCallbacks() *hostCallbacks {
	nativeOnce.Do(func() {
		native = &hostCallbacks{
			environment: purego.NewCallback(func(cmd, data uintptr) uintptr {
				return b2u(hostEnvironment(uint32(cmd), unsafe.Pointer(data)))
			}),
			videoRefresh: purego.NewCallback(func(data, width, height, pitch uintptr) uintptr {
				hostVideoRefresh(unsafe.Pointer(data), uint32(width), uint32(height), pitch)
				return 0
			}),
			audioSample: purego.NewCallback(func(left, right uintptr) uintptr {
				hostAudioSample(int16(uint16(left)), int16(uint16(right)))
				return 0
			}),
			audioSampleBatch: purego.NewCallback(func(data, frames uintptr) uintptr {
				return hostAudioSampleBatch((*int16)(unsafe.Pointer(data)), frames)
			}),
			inputPoll: purego.NewCallback(func() uintptr {
				hostInputPoll()
				return 0
			}),
			inputState: purego.NewCallback(func(port, device, index, id uintptr) uintptr {
				return uintptr(uint16(hostInputState(uint32(port), uint32(device), uint32(index), uint32(id))))
			}),
			logPrintf: purego.NewCallback(func(level, format, a0, a1, a2, a3, a4, a5 uintptr) uintptr {
				var args []uintptr
				if variadicInRegisters {
					args = []uintptr{a0, a1, a2, a3, a4, a5}
				}
				hostLog(uint32(level), (*byte)(unsafe.Pointer(format)), args)
				return 0
			}),
			rumble: purego.NewCallback(func(port, effect, strength uintptr) uintptr {
				return b2u(hostRumble(uint32(port), uint32(effect), uint16(strength)))
			}),
			led: purego.NewCallback(func(led, state uintptr) uintptr {
				hostLED(int32(led), int32(state))
				return 0
			}),
			perfGetTimeUsec: purego.NewCallback(func() uintptr {
				return uintptr(hostPerfTimeUsec())
			}),
			perfGetCPUFeatures: purego.NewCallback(func() uintptr {
				return uintptr(hostCPUFeatures())
			}),
			perfGetCounter: purego.NewCallback(func() uintptr {
				return uintptr(hostPerfCounter())
			}),
			perfRegister: purego.NewCallback(func(counter uintptr) uintptr {
				hostPerfRegister((*perfCounter)(unsafe.Pointer(counter)))
				return 0
			}),
			perfStart: purego.NewCallback(func(counter uintptr) uintptr {
				hostPerfStart((*perfCounter)(unsafe.Pointer(counter)))
				return 0
			}),
			perfStop: purego.NewCallback(func(counter uintptr) uintptr {
				hostPerfStop((*perfCounter)(unsafe.Pointer(counter)))
				return 0
			}),
			perfLog: purego.NewCallback(func() uintptr {
				hostPerfLog()
				return 0
			}),
			hwGetCurrentFramebuffer: purego.NewCallback(func() uintptr {
				return hostCurrentFramebuffer()
			}),
			hwGetProcAddress: purego.NewCallback(func(sym uintptr) uintptr {
				return hostProcAddress((*byte)(unsafe.Pointer(sym)))
			}),
		}
	})
	return native
}

// The host* functions are the Go side of each trampoline. A call from a
// thread without a session is a no-op returning zero.

func hostEnvironment(cmd uint32, data unsafe.Pointer) bool {
	s := registry.lookup()
	if s == nil {
		return false
	}
	return s.dispatch(cmd, data)
}

func hostVideoRefresh(data unsafe.Pointer, width, height uint32, pitch uintptr) {
	if s := registry.lookup(); s != nil {
		s.videoRefresh(data, int(width), int(height), int(pitch))
	}
}

func hostAudioSample(left, right int16) {
	if s := registry.lookup(); s != nil {
		s.audioSample(left, right)
	}
}

func hostAudioSampleBatch(data *int16, frames uintptr) uintptr {
	s := registry.lookup()
	if s == nil || data == nil {
		return 0
	}
	return uintptr(s.audioSampleBatch(unsafe.Slice(data, frames*2)))
}

func hostInputPoll() {
	if s := registry.lookup(); s != nil {
		s.inputPoll()
	}
}

func hostInputState(port, device, index, id uint32) int16 {
	s := registry.lookup()
	if s == nil {
		return 0
	}
	return s.inputState(uint(port), uint(device), uint(index), uint(id))
}

func hostLog(level uint32, format *byte, args []uintptr) {
	s := registry.lookup()
	if s == nil || format == nil {
		return
	}
	s.coreLog(level, goString(format), args)
}

func hostRumble(port, effect uint32, strength uint16) bool {
	s := registry.lookup()
	if s == nil {
		return false
	}
	return s.setRumble(port, effect, strength)
}

func hostLED(led, state int32) {
	if s := registry.lookup(); s != nil {
		s.logf(hostapi.LogDebug, "core LED %d -> %d", led, state)
	}
}

func hostCurrentFramebuffer() uintptr {
	s := registry.lookup()
	if s == nil || s.hw == nil {
		return 0
	}
	return s.hw.renderer.CurrentFramebuffer()
}

func hostProcAddress(sym *byte) uintptr {
	s := registry.lookup()
	if s == nil || s.hw == nil || sym == nil {
		return 0
	}
	return s.hw.renderer.ProcAddress(goString(sym))
}
