package libretro

import (
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
)

func (s *Session) handleSetRotation(data unsafe.Pointer) bool {
	v := *(*uint32)(data)
	if v > 3 {
		return false
	}
	s.rotation = int(v) * 90
	if s.sinks.Graphics != nil {
		s.sinks.Graphics.SetGeometry(s.avInfo.Geometry, s.rotation)
	}
	return true
}

func (s *Session) handleGetOverscan(data unsafe.Pointer) bool {
	*(*bool)(data) = false
	return true
}

func (s *Session) handleGetCanDupe(data unsafe.Pointer) bool {
	*(*bool)(data) = true
	return true
}

func (s *Session) handleSetPixelFormat(data unsafe.Pointer) bool {
	f := hostapi.PixelFormat(*(*int32)(data))
	if !f.Valid() {
		s.logf(hostapi.LogWarn, "core requested unknown pixel format %d", int(f))
		return false
	}
	s.pixelFormat = f
	return true
}

func (s *Session) handleSetSystemAVInfo(data unsafe.Pointer) bool {
	s.applyAVInfo(avInfoFromC((*systemAVInfo)(data)), true)
	return true
}

func (s *Session) handleSetGeometry(data unsafe.Pointer) bool {
	av := s.avInfo
	av.Geometry = geometryFromC((*gameGeometry)(data))
	s.applyAVInfo(av, false)
	return true
}

// handleSetHWRender accepts OpenGL family contexts when the graphics sink
// can host one. The context exists when the call returns; the core's
// context_reset runs once the game is loaded.
func (s *Session) handleSetHWRender(data unsafe.Pointer) bool {
	cb := (*hwRenderCallback)(data)
	typ := hostapi.HardwareContextType(cb.contextType)
	if !typ.IsOpenGL() {
		s.logf(hostapi.LogWarn, "core requested unsupported hardware context %d", cb.contextType)
		return false
	}
	r, ok := s.sinks.Graphics.(hostapi.HardwareRenderer)
	if !ok {
		s.logf(hostapi.LogWarn, "graphics sink cannot host a hardware context")
		return false
	}

	if s.hw != nil {
		s.hw.renderer.DestroyContext()
		s.hw = nil
	}
	err := r.CreateContext(hostapi.HardwareContext{
		Type:             typ,
		VersionMajor:     int(cb.versionMajor),
		VersionMinor:     int(cb.versionMinor),
		Depth:            cb.depth,
		Stencil:          cb.stencil,
		BottomLeftOrigin: cb.bottomLeftOrigin,
		Debug:            cb.debugContext,
		Width:            s.avInfo.Geometry.MaxWidth,
		Height:           s.avInfo.Geometry.MaxHeight,
	})
	if err != nil {
		s.logf(hostapi.LogError, "Failed to create hardware context: %v", err)
		return false
	}

	cb.getCurrentFramebuffer = s.core.callbacks.hwGetCurrentFramebuffer
	cb.getProcAddress = s.core.callbacks.hwGetProcAddress
	s.hw = &hwState{cb: *cb, renderer: r}
	return true
}

func (s *Session) handleSetHWSharedContext(unsafe.Pointer) bool {
	s.sharedContext = true
	return true
}

func (s *Session) handleGetPreferredHWRender(data unsafe.Pointer) bool {
	if _, ok := s.sinks.Graphics.(hostapi.HardwareRenderer); !ok {
		return false
	}
	*(*uint32)(data) = uint32(hostapi.HardwareContextOpenGL)
	return true
}

func (s *Session) handleGetAudioVideoEnable(data unsafe.Pointer) bool {
	// bit 0 video, bit 1 audio
	*(*int32)(data) = 3
	return true
}

func (s *Session) handleGetTargetRefreshRate(data unsafe.Pointer) bool {
	fps := s.avInfo.Timing.FPS
	if fps <= 0 {
		fps = 60
	}
	*(*float32)(data) = float32(fps)
	return true
}

func (s *Session) handleSetProcAddressCallback(data unsafe.Pointer) bool {
	s.procAddress = *(*uintptr)(data)
	return true
}

// CoreProcAddress resolves an extension function exported by the core
// through its SET_PROC_ADDRESS_CALLBACK registration.
func (s *Session) CoreProcAddress(symbol string) uintptr {
	if s.core == nil || s.procAddress == 0 {
		return 0
	}
	var tmp stringTable
	defer tmp.release()
	return s.core.invoke(s.procAddress, uintptr(unsafe.Pointer(tmp.cstr(symbol))))
}
