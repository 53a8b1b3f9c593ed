package libretro

import (
	"unsafe"

	hostapi "github.com/user-none/retrohost/api"
)

// nullPolicy says what a NULL payload means for a command.
type nullPolicy int

const (
	// nullReject fails the command.
	nullReject nullPolicy = iota
	// nullQuery asks whether the command is supported; nothing is written.
	nullQuery
	// nullPass hands NULL to the handler, for commands without a payload
	// or where NULL clears a registration.
	nullPass
)

// envCommand is one entry of the environment table. A nil handler marks a
// command the host knows but does not implement.
type envCommand struct {
	name    string
	null    nullPolicy
	handler func(*Session, unsafe.Pointer) bool
}

func getter(name string, h func(*Session, unsafe.Pointer) bool) envCommand {
	return envCommand{name: name, null: nullQuery, handler: h}
}

func setter(name string, h func(*Session, unsafe.Pointer) bool) envCommand {
	return envCommand{name: name, null: nullReject, handler: h}
}

func unsupported(name string) envCommand {
	return envCommand{name: name}
}

// environmentCommands builds the command table of one session.
func environmentCommands() map[uint32]envCommand {
	return map[uint32]envCommand{
		envSetRotation:                       setter("SET_ROTATION", (*Session).handleSetRotation),
		envGetOverscan:                       getter("GET_OVERSCAN", (*Session).handleGetOverscan),
		envGetCanDupe:                        getter("GET_CAN_DUPE", (*Session).handleGetCanDupe),
		envSetMessage:                        setter("SET_MESSAGE", (*Session).handleSetMessage),
		envShutdown:                          {name: "SHUTDOWN", null: nullPass, handler: (*Session).handleShutdown},
		envSetPerformanceLevel:               setter("SET_PERFORMANCE_LEVEL", (*Session).handleSetPerformanceLevel),
		envGetSystemDirectory:                getter("GET_SYSTEM_DIRECTORY", (*Session).handleGetSystemDirectory),
		envSetPixelFormat:                    setter("SET_PIXEL_FORMAT", (*Session).handleSetPixelFormat),
		envSetInputDescriptors:               setter("SET_INPUT_DESCRIPTORS", (*Session).handleSetInputDescriptors),
		envSetKeyboardCallback:               setter("SET_KEYBOARD_CALLBACK", (*Session).handleSetKeyboardCallback),
		envSetDiskControlInterface:           setter("SET_DISK_CONTROL_INTERFACE", (*Session).handleSetDiskControlInterface),
		envSetHWRender:                       setter("SET_HW_RENDER", (*Session).handleSetHWRender),
		envGetVariable:                       getter("GET_VARIABLE", (*Session).handleGetVariable),
		envSetVariables:                      setter("SET_VARIABLES", (*Session).handleSetVariables),
		envGetVariableUpdate:                 getter("GET_VARIABLE_UPDATE", (*Session).handleGetVariableUpdate),
		envSetSupportNoGame:                  setter("SET_SUPPORT_NO_GAME", (*Session).handleSetSupportNoGame),
		envGetLibretroPath:                   getter("GET_LIBRETRO_PATH", (*Session).handleGetLibretroPath),
		envSetFrameTimeCallback:              setter("SET_FRAME_TIME_CALLBACK", (*Session).handleSetFrameTimeCallback),
		envSetAudioCallback:                  setter("SET_AUDIO_CALLBACK", (*Session).handleSetAudioCallback),
		envGetRumbleInterface:                getter("GET_RUMBLE_INTERFACE", (*Session).handleGetRumbleInterface),
		envGetInputDeviceCapabilities:        getter("GET_INPUT_DEVICE_CAPABILITIES", (*Session).handleGetInputDeviceCapabilities),
		envGetSensorInterface:                unsupported("GET_SENSOR_INTERFACE"),
		envGetCameraInterface:                unsupported("GET_CAMERA_INTERFACE"),
		envGetLogInterface:                   getter("GET_LOG_INTERFACE", (*Session).handleGetLogInterface),
		envGetPerfInterface:                  getter("GET_PERF_INTERFACE", (*Session).handleGetPerfInterface),
		envGetLocationInterface:              unsupported("GET_LOCATION_INTERFACE"),
		envGetCoreAssetsDirectory:            getter("GET_CORE_ASSETS_DIRECTORY", (*Session).handleGetCoreAssetsDirectory),
		envGetSaveDirectory:                  getter("GET_SAVE_DIRECTORY", (*Session).handleGetSaveDirectory),
		envSetSystemAVInfo:                   setter("SET_SYSTEM_AV_INFO", (*Session).handleSetSystemAVInfo),
		envSetProcAddressCallback:            setter("SET_PROC_ADDRESS_CALLBACK", (*Session).handleSetProcAddressCallback),
		envSetSubsystemInfo:                  setter("SET_SUBSYSTEM_INFO", (*Session).handleSetSubsystemInfo),
		envSetControllerInfo:                 setter("SET_CONTROLLER_INFO", (*Session).handleSetControllerInfo),
		envSetMemoryMaps:                     setter("SET_MEMORY_MAPS", (*Session).handleSetMemoryMaps),
		envSetGeometry:                       setter("SET_GEOMETRY", (*Session).handleSetGeometry),
		envGetUsername:                       getter("GET_USERNAME", (*Session).handleGetUsername),
		envGetLanguage:                       getter("GET_LANGUAGE", (*Session).handleGetLanguage),
		envGetCurrentSoftwareFramebuffer:     unsupported("GET_CURRENT_SOFTWARE_FRAMEBUFFER"),
		envGetHWRenderInterface:              unsupported("GET_HW_RENDER_INTERFACE"),
		envSetSupportAchievements:            setter("SET_SUPPORT_ACHIEVEMENTS", (*Session).handleSetSupportAchievements),
		envSetHWRenderContextNegotiation:     unsupported("SET_HW_RENDER_CONTEXT_NEGOTIATION_INTERFACE"),
		envSetSerializationQuirks:            setter("SET_SERIALIZATION_QUIRKS", (*Session).handleSetSerializationQuirks),
		envSetHWSharedContext:                {name: "SET_HW_SHARED_CONTEXT", null: nullPass, handler: (*Session).handleSetHWSharedContext},
		envGetVFSInterface:                   unsupported("GET_VFS_INTERFACE"),
		envGetLEDInterface:                   getter("GET_LED_INTERFACE", (*Session).handleGetLEDInterface),
		envGetAudioVideoEnable:               getter("GET_AUDIO_VIDEO_ENABLE", (*Session).handleGetAudioVideoEnable),
		envGetMIDIInterface:                  unsupported("GET_MIDI_INTERFACE"),
		envGetFastforwarding:                 getter("GET_FASTFORWARDING", (*Session).handleGetFastforwarding),
		envGetTargetRefreshRate:              getter("GET_TARGET_REFRESH_RATE", (*Session).handleGetTargetRefreshRate),
		envGetInputBitmasks:                  getter("GET_INPUT_BITMASKS", (*Session).handleGetInputBitmasks),
		envGetCoreOptionsVersion:             getter("GET_CORE_OPTIONS_VERSION", (*Session).handleGetCoreOptionsVersion),
		envSetCoreOptions:                    setter("SET_CORE_OPTIONS", (*Session).handleSetCoreOptions),
		envSetCoreOptionsIntl:                setter("SET_CORE_OPTIONS_INTL", (*Session).handleSetCoreOptionsIntl),
		envSetCoreOptionsDisplay:             setter("SET_CORE_OPTIONS_DISPLAY", (*Session).handleSetCoreOptionsDisplay),
		envGetPreferredHWRender:              getter("GET_PREFERRED_HW_RENDER", (*Session).handleGetPreferredHWRender),
		envGetDiskControlInterfaceVersion:    getter("GET_DISK_CONTROL_INTERFACE_VERSION", (*Session).handleGetDiskControlInterfaceVersion),
		envSetDiskControlExtInterface:        setter("SET_DISK_CONTROL_EXT_INTERFACE", (*Session).handleSetDiskControlExtInterface),
		envGetMessageInterfaceVersion:        getter("GET_MESSAGE_INTERFACE_VERSION", (*Session).handleGetMessageInterfaceVersion),
		envSetMessageExt:                     setter("SET_MESSAGE_EXT", (*Session).handleSetMessageExt),
		envGetInputMaxUsers:                  getter("GET_INPUT_MAX_USERS", (*Session).handleGetInputMaxUsers),
		envSetAudioBufferStatusCallback:      {name: "SET_AUDIO_BUFFER_STATUS_CALLBACK", null: nullPass, handler: (*Session).handleSetAudioBufferStatusCallback},
		envSetMinimumAudioLatency:            setter("SET_MINIMUM_AUDIO_LATENCY", (*Session).handleSetMinimumAudioLatency),
		envSetFastforwardingOverride:         {name: "SET_FASTFORWARDING_OVERRIDE", null: nullQuery, handler: (*Session).handleSetFastforwardingOverride},
		envSetContentInfoOverride:            {name: "SET_CONTENT_INFO_OVERRIDE", null: nullQuery, handler: (*Session).handleSetContentInfoOverride},
		envGetGameInfoExt:                    getter("GET_GAME_INFO_EXT", (*Session).handleGetGameInfoExt),
		envSetCoreOptionsV2:                  setter("SET_CORE_OPTIONS_V2", (*Session).handleSetCoreOptionsV2),
		envSetCoreOptionsV2Intl:              setter("SET_CORE_OPTIONS_V2_INTL", (*Session).handleSetCoreOptionsV2Intl),
		envSetCoreOptionsUpdateDisplayCB:     {name: "SET_CORE_OPTIONS_UPDATE_DISPLAY_CALLBACK", null: nullPass, handler: (*Session).handleSetCoreOptionsUpdateDisplayCallback},
		envSetVariable:                       {name: "SET_VARIABLE", null: nullQuery, handler: (*Session).handleSetVariable},
		envGetThrottleState:                  getter("GET_THROTTLE_STATE", (*Session).handleGetThrottleState),
		envGetSavestateContext:               getter("GET_SAVESTATE_CONTEXT", (*Session).handleGetSavestateContext),
		envGetHWRenderContextNegotiationSupp: unsupported("GET_HW_RENDER_CONTEXT_NEGOTIATION_INTERFACE_SUPPORT"),
		envGetJITCapable:                     getter("GET_JIT_CAPABLE", (*Session).handleGetJITCapable),
		envGetMicrophoneInterface:            unsupported("GET_MICROPHONE_INTERFACE"),
	}
}

// dispatch answers one environment call. Unknown commands, NULL payloads
// the command cannot take and panics inside a handler all give false.
func (s *Session) dispatch(cmd uint32, data unsafe.Pointer) (ok bool) {
	c, found := s.commands[cmd]
	if !found || c.handler == nil {
		err := &UnsupportedCommandError{Cmd: cmd, Name: c.name}
		if found {
			s.logf(hostapi.LogDebug, "%v", err)
		} else {
			s.logf(hostapi.LogWarn, "%v", err)
		}
		return false
	}

	if data == nil {
		switch c.null {
		case nullReject:
			s.logf(hostapi.LogWarn, "environment %s called without data", c.name)
			return false
		case nullQuery:
			return true
		}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logf(hostapi.LogError, "environment %s failed: %v", c.name, r)
			ok = false
		}
	}()
	return c.handler(s, data)
}
