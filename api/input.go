package hostapi

// Input device types (RETRO_DEVICE_*).
const (
	DeviceNone     = 0
	DeviceJoypad   = 1
	DeviceMouse    = 2
	DeviceKeyboard = 3
	DeviceLightgun = 4
	DeviceAnalog   = 5
	DevicePointer  = 6
)

// Joypad button IDs (RETRO_DEVICE_ID_JOYPAD_*).
const (
	JoypadB      = 0
	JoypadY      = 1
	JoypadSelect = 2
	JoypadStart  = 3
	JoypadUp     = 4
	JoypadDown   = 5
	JoypadLeft   = 6
	JoypadRight  = 7
	JoypadA      = 8
	JoypadX      = 9
	JoypadL      = 10
	JoypadR      = 11
	JoypadL2     = 12
	JoypadR2     = 13
	JoypadL3     = 14
	JoypadR3     = 15

	// JoypadMask asks for all buttons of a port as one bitmask.
	JoypadMask = 256
)

// JoypadButtons is the number of digital RetroPad buttons.
const JoypadButtons = 16

// Analog stick indexes and axes.
const (
	AnalogLeft   = 0
	AnalogRight  = 1
	AnalogButton = 2

	AnalogX = 0
	AnalogY = 1
)

// DeviceSubclass builds a subclassed device id (RETRO_DEVICE_SUBCLASS).
func DeviceSubclass(base, id uint) uint {
	return ((id + 1) << 8) | base
}

// DeviceBase strips a subclass from a device id.
func DeviceBase(device uint) uint {
	return device & 0xFF
}
