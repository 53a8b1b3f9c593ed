package libretro

import (
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
)

func (s *Session) handleGetLogInterface(data unsafe.Pointer) bool {
	(*logCallback)(data).log = s.core.callbacks.logPrintf
	return true
}

func (s *Session) handleGetPerfInterface(data unsafe.Pointer) bool {
	cb := s.core.callbacks
	*(*perfCallback)(data) = perfCallback{
		getTimeUsec:    cb.perfGetTimeUsec,
		getCPUFeatures: cb.perfGetCPUFeatures,
		getPerfCounter: cb.perfGetCounter,
		perfRegister:   cb.perfRegister,
		perfStart:      cb.perfStart,
		perfStop:       cb.perfStop,
		perfLog:        cb.perfLog,
	}
	return true
}

func (s *Session) handleGetLEDInterface(data unsafe.Pointer) bool {
	(*ledInterface)(data).setLEDState = s.core.callbacks.led
	return true
}

func (s *Session) handleSetFrameTimeCallback(data unsafe.Pointer) bool {
	s.frameTime = *(*frameTimeCallback)(data)
	return true
}

func (s *Session) handleSetAudioCallback(data unsafe.Pointer) bool {
	s.audioCB = *(*audioCallback)(data)
	return true
}

func (s *Session) handleSetAudioBufferStatusCallback(data unsafe.Pointer) bool {
	if data == nil {
		s.audioStatus = audioBufferStatusCallback{}
		return true
	}
	s.audioStatus = *(*audioBufferStatusCallback)(data)
	return true
}

func (s *Session) handleSetMinimumAudioLatency(data unsafe.Pointer) bool {
	s.minAudioLatency = *(*uint32)(data)
	return true
}

func (s *Session) handleSetMemoryMaps(data unsafe.Pointer) bool {
	mm := (*memoryMap)(data)
	descs, err := countedSlice(mm.descriptors, mm.numDescriptors, maxMemoryDescriptors)
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_MEMORY_MAPS: %v", err)
		return false
	}
	out := make([]MemoryDescriptor, 0, len(descs))
	for _, d := range descs {
		out = append(out, MemoryDescriptor{
			Flags:      d.flags,
			Ptr:        uintptr(d.ptr),
			Offset:     d.offset,
			Start:      d.start,
			Select:     d.selectMask,
			Disconnect: d.disconnect,
			Length:     d.length,
			AddrSpace:  goString(d.addrspace),
		})
	}
	s.memoryMaps = out
	return true
}

func (s *Session) handleSetSubsystemInfo(data unsafe.Pointer) bool {
	infos, err := scanSentinel((*subsystemInfo)(data), maxSubsystems,
		func(i *subsystemInfo) bool { return i.ident == nil })
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_SUBSYSTEM_INFO: %v", err)
		return false
	}
	out := make([]Subsystem, 0, len(infos))
	for _, info := range infos {
		sub := Subsystem{
			Description: goString(info.desc),
			Ident:       goString(info.ident),
			ID:          uint(info.id),
		}
		roms, err := countedSlice(info.roms, info.numROMs, maxSubsystemROMs)
		if err != nil {
			s.logf(hostapi.LogWarn, "SET_SUBSYSTEM_INFO %s: %v", sub.Ident, err)
			return false
		}
		for _, rom := range roms {
			r := SubsystemROM{
				Description:     goString(rom.desc),
				ValidExtensions: splitExtensions(goString(rom.validExtensions)),
				NeedFullpath:    rom.needFullpath,
				BlockExtract:    rom.blockExtract,
				Required:        rom.required,
			}
			mems, err := countedSlice(rom.memory, rom.numMemory, maxSubsystemROMs)
			if err != nil {
				s.logf(hostapi.LogWarn, "SET_SUBSYSTEM_INFO %s: %v", sub.Ident, err)
				return false
			}
			for _, m := range mems {
				r.Memory = append(r.Memory, SubsystemMemory{Extension: goString(m.extension), Type: uint(m.typ)})
			}
			sub.ROMs = append(sub.ROMs, r)
		}
		out = append(out, sub)
	}
	s.subsystems = out
	return true
}

func (s *Session) handleSetContentInfoOverride(data unsafe.Pointer) bool {
	entries, err := scanSentinel((*contentInfoOverride)(data), maxContentOverrides,
		func(o *contentInfoOverride) bool { return o.extensions == nil })
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CONTENT_INFO_OVERRIDE: %v", err)
		return false
	}
	out := make([]contentOverride, 0, len(entries))
	for _, e := range entries {
		out = append(out, contentOverride{
			extensions:     splitExtensions(goString(e.extensions)),
			needFullpath:   e.needFullpath,
			persistentData: e.persistentData,
		})
	}
	s.contentOverrides = out
	return true
}

// handleGetGameInfoExt hands out the extended game info. It only exists
// while retro_load_game runs.
func (s *Session) handleGetGameInfoExt(data unsafe.Pointer) bool {
	if s.loadingGame == nil {
		return false
	}
	*(**gameInfoExt)(data) = s.loadingGame
	return true
}
