package libretro

import (
	"runtime"
	"time"

	hostapi "github.com/user-none/retrohost/api"
	"golang.org/x/sys/cpu"
)

// SIMD feature bits (RETRO_SIMD_*).
const (
	simdSSE    = 1 << 0
	simdSSE2   = 1 << 1
	simdAVX    = 1 << 4
	simdNEON   = 1 << 5
	simdSSE3   = 1 << 6
	simdSSSE3  = 1 << 7
	simdSSE4   = 1 << 10
	simdSSE42  = 1 << 11
	simdAVX2   = 1 << 12
	simdAES    = 1 << 15
	simdPOPCNT = 1 << 18
	simdCMOV   = 1 << 20
	simdASIMD  = 1 << 21
)

var perfEpoch = time.Now()

func hostPerfTimeUsec() int64 {
	return time.Now().UnixMicro()
}

func hostPerfCounter() uint64 {
	return uint64(time.Since(perfEpoch).Nanoseconds())
}

// hostCPUFeatures reports the SIMD capabilities of the running CPU.
func hostCPUFeatures() uint64 {
	var f uint64
	switch runtime.GOARCH {
	case "amd64", "386":
		// SSE and CMOV are baseline on every CPU Go supports here.
		f |= simdSSE | simdCMOV
		if cpu.X86.HasSSE2 {
			f |= simdSSE2
		}
		if cpu.X86.HasSSE3 {
			f |= simdSSE3
		}
		if cpu.X86.HasSSSE3 {
			f |= simdSSSE3
		}
		if cpu.X86.HasSSE41 {
			f |= simdSSE4
		}
		if cpu.X86.HasSSE42 {
			f |= simdSSE42
		}
		if cpu.X86.HasAVX {
			f |= simdAVX
		}
		if cpu.X86.HasAVX2 {
			f |= simdAVX2
		}
		if cpu.X86.HasAES {
			f |= simdAES
		}
		if cpu.X86.HasPOPCNT {
			f |= simdPOPCNT
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			f |= simdNEON | simdASIMD
		}
		if cpu.ARM64.HasAES {
			f |= simdAES
		}
	case "arm":
		if cpu.ARM.HasNEON {
			f |= simdNEON
		}
	}
	return f
}

func hostPerfRegister(c *perfCounter) {
	s := registry.lookup()
	if s == nil || c == nil || c.registered {
		return
	}
	c.registered = true
	s.perfCounters = append(s.perfCounters, c)
}

func hostPerfStart(c *perfCounter) {
	if c == nil {
		return
	}
	c.callCnt++
	c.start = hostPerfCounter()
}

func hostPerfStop(c *perfCounter) {
	if c == nil {
		return
	}
	c.total += hostPerfCounter() - c.start
}

func hostPerfLog() {
	s := registry.lookup()
	if s == nil {
		return
	}
	for _, c := range s.perfCounters {
		var avg uint64
		if c.callCnt > 0 {
			avg = c.total / c.callCnt
		}
		s.logf(hostapi.LogInfo, "perf %s: %d calls, %d ns total, %d ns avg", goString(c.ident), c.callCnt, c.total, avg)
	}
}
