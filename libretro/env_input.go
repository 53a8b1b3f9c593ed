package libretro

import (
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
)

func (s *Session) handleSetInputDescriptors(data unsafe.Pointer) bool {
	descs, err := scanSentinel((*inputDescriptor)(data), maxInputDescriptors,
		func(d *inputDescriptor) bool { return d.description == nil })
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_INPUT_DESCRIPTORS: %v", err)
		return false
	}
	out := make([]InputDescriptor, 0, len(descs))
	for _, d := range descs {
		out = append(out, InputDescriptor{
			Port:        uint(d.port),
			Device:      uint(d.device),
			Index:       uint(d.index),
			ID:          uint(d.id),
			Description: goString(d.description),
		})
	}
	s.inputDescriptors = out
	return true
}

func (s *Session) handleSetControllerInfo(data unsafe.Pointer) bool {
	ports, err := scanSentinel((*controllerInfo)(data), maxControllerPorts,
		func(c *controllerInfo) bool { return c.types == nil })
	if err != nil {
		s.logf(hostapi.LogWarn, "SET_CONTROLLER_INFO: %v", err)
		return false
	}
	out := make([]ControllerPort, 0, len(ports))
	for _, p := range ports {
		types, err := countedSlice(p.types, p.numTypes, maxControllerTypes)
		if err != nil {
			s.logf(hostapi.LogWarn, "SET_CONTROLLER_INFO: %v", err)
			return false
		}
		port := ControllerPort{Types: make([]ControllerType, 0, len(types))}
		for _, t := range types {
			port.Types = append(port.Types, ControllerType{Description: goString(t.desc), Device: uint(t.id)})
		}
		out = append(out, port)
	}
	s.controllers = out
	return true
}

func (s *Session) handleGetInputDeviceCapabilities(data unsafe.Pointer) bool {
	*(*uint64)(data) = 1<<hostapi.DeviceJoypad | 1<<hostapi.DeviceAnalog |
		1<<hostapi.DeviceMouse | 1<<hostapi.DeviceKeyboard
	return true
}

func (s *Session) handleGetInputMaxUsers(data unsafe.Pointer) bool {
	*(*uint32)(data) = s.cfg.MaxUsers
	return true
}

// handleGetInputBitmasks reports bitmask support but answers false, so cores
// keep querying buttons one at a time. Queries for JoypadMask are still
// answered.
func (s *Session) handleGetInputBitmasks(data unsafe.Pointer) bool {
	*(*bool)(data) = true
	return false
}

func (s *Session) handleGetRumbleInterface(data unsafe.Pointer) bool {
	(*rumbleInterface)(data).setRumbleState = s.core.callbacks.rumble
	return true
}

func (s *Session) handleSetKeyboardCallback(data unsafe.Pointer) bool {
	s.keyboard = *(*keyboardCallback)(data)
	return true
}

// KeyboardEvent forwards a key press or release to a core that registered
// a keyboard callback. keycode is a RETROK value, character the UTF-32
// character produced and mods a RETROKMOD mask.
func (s *Session) KeyboardEvent(down bool, keycode, character uint32, mods uint16) {
	if s.core == nil || s.keyboard.callback == 0 || !s.inputEnabled {
		return
	}
	s.core.invoke(s.keyboard.callback, b2u(down), uintptr(keycode), uintptr(character), uintptr(mods))
}

func (s *Session) handleSetDiskControlInterface(data unsafe.Pointer) bool {
	s.disk = &diskControlExtCallback{diskControlCallback: *(*diskControlCallback)(data)}
	return true
}

func (s *Session) handleSetDiskControlExtInterface(data unsafe.Pointer) bool {
	cb := *(*diskControlExtCallback)(data)
	s.disk = &cb
	return true
}

func (s *Session) handleGetDiskControlInterfaceVersion(data unsafe.Pointer) bool {
	*(*uint32)(data) = 1
	return true
}
