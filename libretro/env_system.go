package libretro

import (
	"os"
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
)

func (s *Session) handleSetMessage(data unsafe.Pointer) bool {
	m := (*message)(data)
	s.logf(hostapi.LogInfo, "[%s] %s", s.coreLabel(), goString(m.msg))
	return true
}

func (s *Session) handleSetMessageExt(data unsafe.Pointer) bool {
	m := (*messageExt)(data)
	level := hostapi.LogLevel(m.level)
	if level < hostapi.LogDebug || level > hostapi.LogError {
		level = hostapi.LogInfo
	}
	s.logf(level, "[%s] %s", s.coreLabel(), goString(m.msg))
	return true
}

func (s *Session) handleGetMessageInterfaceVersion(data unsafe.Pointer) bool {
	*(*uint32)(data) = 1
	return true
}

func (s *Session) handleShutdown(unsafe.Pointer) bool {
	s.logf(hostapi.LogInfo, "%s requested shutdown", s.coreLabel())
	s.shutdown = true
	return true
}

func (s *Session) handleSetPerformanceLevel(data unsafe.Pointer) bool {
	s.performanceLevel = *(*uint32)(data)
	return true
}

// writeDir creates dir and hands its path to the core.
func (s *Session) writeDir(data unsafe.Pointer, dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logf(hostapi.LogWarn, "Failed to create %s: %v", dir, err)
	}
	*(**byte)(data) = s.strings.cstr(dir)
	return true
}

func (s *Session) handleGetSystemDirectory(data unsafe.Pointer) bool {
	return s.writeDir(data, s.cfg.Layout.SystemDir())
}

func (s *Session) handleGetCoreAssetsDirectory(data unsafe.Pointer) bool {
	return s.writeDir(data, s.cfg.Layout.AssetsDir(s.core.Name))
}

func (s *Session) handleGetSaveDirectory(data unsafe.Pointer) bool {
	return s.writeDir(data, s.cfg.Layout.SaveDir(s.core.Name))
}

func (s *Session) handleGetLibretroPath(data unsafe.Pointer) bool {
	*(**byte)(data) = s.strings.cstr(s.core.Path)
	return true
}

func (s *Session) handleGetUsername(data unsafe.Pointer) bool {
	if s.cfg.Username == "" {
		return false
	}
	*(**byte)(data) = s.strings.cstr(s.cfg.Username)
	return true
}

func (s *Session) handleGetLanguage(data unsafe.Pointer) bool {
	*(*uint32)(data) = s.cfg.Language
	return true
}

func (s *Session) handleSetSupportNoGame(data unsafe.Pointer) bool {
	s.supportNoGame = *(*bool)(data)
	return true
}

func (s *Session) handleSetSupportAchievements(data unsafe.Pointer) bool {
	s.achievements = *(*bool)(data)
	return true
}

// handleSetSerializationQuirks stores the core's quirks and, for cores with
// variable state sizes, reports that the host copes with them.
func (s *Session) handleSetSerializationQuirks(data unsafe.Pointer) bool {
	q := (*uint64)(data)
	s.quirks = *q
	if s.quirks&quirkCoreVariableSize != 0 {
		*q |= quirkFrontVariableSize
	}
	s.stateSizeValid = false
	return true
}

func (s *Session) handleGetSavestateContext(data unsafe.Pointer) bool {
	*(*int32)(data) = savestateContextNormal
	return true
}

func (s *Session) handleGetJITCapable(data unsafe.Pointer) bool {
	*(*bool)(data) = true
	return true
}

func (s *Session) handleGetFastforwarding(data unsafe.Pointer) bool {
	*(*bool)(data) = s.FastForward()
	return true
}

func (s *Session) handleSetFastforwardingOverride(data unsafe.Pointer) bool {
	o := *(*fastforwardingOverride)(data)
	s.ffOverride = &o
	return true
}

func (s *Session) handleGetThrottleState(data unsafe.Pointer) bool {
	ts := (*throttleState)(data)
	switch {
	case s.FastForward():
		ts.mode = throttleFastForward
		ts.rate = 0
		if s.ffOverride != nil && s.ffOverride.ratio > 0 {
			ts.rate = float32(s.avInfo.Timing.FPS) * s.ffOverride.ratio
		}
	case s.rewind != nil && s.rewind.active:
		ts.mode = throttleRewinding
		ts.rate = float32(s.avInfo.Timing.FPS)
	default:
		// NONE is normal operation paced at the core's own rate.
		ts.mode = throttleNone
		ts.rate = float32(s.avInfo.Timing.FPS)
	}
	return true
}
