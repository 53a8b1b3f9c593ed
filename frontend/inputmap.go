package frontend

import (
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	hostapi "github.com/user-none/retrohost/api"
)

// InputMapping maps RetroPad button IDs to ebiten inputs.
type InputMapping struct {
	Keys    map[int]ebiten.Key                   // button ID -> keyboard key
	Gamepad map[int]ebiten.StandardGamepadButton // button ID -> gamepad button
}

// keyNameMap maps short key name strings to ebiten.Key values.
var keyNameMap = map[string]ebiten.Key{
	"A":          ebiten.KeyA,
	"B":          ebiten.KeyB,
	"C":          ebiten.KeyC,
	"D":          ebiten.KeyD,
	"E":          ebiten.KeyE,
	"F":          ebiten.KeyF,
	"G":          ebiten.KeyG,
	"H":          ebiten.KeyH,
	"I":          ebiten.KeyI,
	"J":          ebiten.KeyJ,
	"K":          ebiten.KeyK,
	"L":          ebiten.KeyL,
	"M":          ebiten.KeyM,
	"N":          ebiten.KeyN,
	"O":          ebiten.KeyO,
	"P":          ebiten.KeyP,
	"Q":          ebiten.KeyQ,
	"R":          ebiten.KeyR,
	"S":          ebiten.KeyS,
	"T":          ebiten.KeyT,
	"U":          ebiten.KeyU,
	"V":          ebiten.KeyV,
	"W":          ebiten.KeyW,
	"X":          ebiten.KeyX,
	"Y":          ebiten.KeyY,
	"Z":          ebiten.KeyZ,
	"0":          ebiten.Key0,
	"1":          ebiten.Key1,
	"2":          ebiten.Key2,
	"3":          ebiten.Key3,
	"4":          ebiten.Key4,
	"5":          ebiten.Key5,
	"6":          ebiten.Key6,
	"7":          ebiten.Key7,
	"8":          ebiten.Key8,
	"9":          ebiten.Key9,
	"Enter":      ebiten.KeyEnter,
	"Backspace":  ebiten.KeyBackspace,
	"Space":      ebiten.KeySpace,
	"Semicolon":  ebiten.KeySemicolon,
	"Comma":      ebiten.KeyComma,
	"Period":     ebiten.KeyPeriod,
	"Slash":      ebiten.KeySlash,
	"Tab":        ebiten.KeyTab,
	"Escape":     ebiten.KeyEscape,
	"Shift":      ebiten.KeyShift,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"[":          ebiten.KeyLeftBracket,
	"]":          ebiten.KeyRightBracket,
	"-":          ebiten.KeyMinus,
	"=":          ebiten.KeyEqual,
	"'":          ebiten.KeyApostrophe,
	"F1":         ebiten.KeyF1,
	"F2":         ebiten.KeyF2,
	"F3":         ebiten.KeyF3,
	"F4":         ebiten.KeyF4,
	"F5":         ebiten.KeyF5,
	"F6":         ebiten.KeyF6,
	"F7":         ebiten.KeyF7,
	"F8":         ebiten.KeyF8,
	"F9":         ebiten.KeyF9,
	"F10":        ebiten.KeyF10,
	"F11":        ebiten.KeyF11,
	"F12":        ebiten.KeyF12,
}

// padNameMap maps gamepad button names to ebiten StandardGamepadButton values.
var padNameMap = map[string]ebiten.StandardGamepadButton{
	"A":         ebiten.StandardGamepadButtonRightBottom,
	"B":         ebiten.StandardGamepadButtonRightRight,
	"X":         ebiten.StandardGamepadButtonRightLeft,
	"Y":         ebiten.StandardGamepadButtonRightTop,
	"L1":        ebiten.StandardGamepadButtonFrontTopLeft,
	"R1":        ebiten.StandardGamepadButtonFrontTopRight,
	"L2":        ebiten.StandardGamepadButtonFrontBottomLeft,
	"R2":        ebiten.StandardGamepadButtonFrontBottomRight,
	"Start":     ebiten.StandardGamepadButtonCenterRight,
	"Select":    ebiten.StandardGamepadButtonCenterLeft,
	"DpadUp":    ebiten.StandardGamepadButtonLeftTop,
	"DpadDown":  ebiten.StandardGamepadButtonLeftBottom,
	"DpadLeft":  ebiten.StandardGamepadButtonLeftLeft,
	"DpadRight": ebiten.StandardGamepadButtonLeftRight,
	"L3":        ebiten.StandardGamepadButtonLeftStick,
	"R3":        ebiten.StandardGamepadButtonRightStick,
}

// reservedKeys are the window's hotkeys. They cannot be bound to buttons.
var reservedKeys = map[ebiten.Key]bool{
	ebiten.KeyEscape: true, // Quit
	ebiten.KeyP:      true, // Pause
	ebiten.KeyTab:    true, // Fast forward
	ebiten.KeyR:      true, // Rewind
	ebiten.KeyF1:     true, // Save state
	ebiten.KeyF2:     true, // Cycle slot
	ebiten.KeyF3:     true, // Load state
	ebiten.KeyF5:     true, // Reset
	ebiten.KeyF11:    true, // Fullscreen
	ebiten.KeyF12:    true, // Screenshot
}

// retroPadButtons lists the RetroPad buttons with their default bindings.
// The (physical) bottom face button is RetroPad B.
var retroPadButtons = []struct {
	Name       string
	ID         int
	DefaultKey string
	DefaultPad string
}{
	{"Up", hostapi.JoypadUp, "W", "DpadUp"},
	{"Down", hostapi.JoypadDown, "S", "DpadDown"},
	{"Left", hostapi.JoypadLeft, "A", "DpadLeft"},
	{"Right", hostapi.JoypadRight, "D", "DpadRight"},
	{"B", hostapi.JoypadB, "J", "A"},
	{"A", hostapi.JoypadA, "K", "B"},
	{"Y", hostapi.JoypadY, "U", "X"},
	{"X", hostapi.JoypadX, "I", "Y"},
	{"L", hostapi.JoypadL, "Q", "L1"},
	{"R", hostapi.JoypadR, "E", "R1"},
	{"L2", hostapi.JoypadL2, "1", "L2"},
	{"R2", hostapi.JoypadR2, "3", "R2"},
	{"L3", hostapi.JoypadL3, "", "L3"},
	{"R3", hostapi.JoypadR3, "", "R3"},
	{"Select", hostapi.JoypadSelect, "Backspace", "Select"},
	{"Start", hostapi.JoypadStart, "Enter", "Start"},
}

// ParseKey converts a key name to an ebiten.Key.
func ParseKey(name string) (ebiten.Key, bool) {
	k, ok := keyNameMap[name]
	return k, ok
}

// ParsePad converts a gamepad button name to an ebiten.StandardGamepadButton.
func ParsePad(name string) (ebiten.StandardGamepadButton, bool) {
	b, ok := padNameMap[name]
	return b, ok
}

// IsReservedKey reports whether k is a window hotkey.
func IsReservedKey(k ebiten.Key) bool {
	return reservedKeys[k]
}

// lookupOverride finds the override for a button. Override maps may come
// from viper, which folds keys to lower case.
func lookupOverride(overrides map[string]string, name string) (string, bool) {
	if v, ok := overrides[name]; ok {
		return v, true
	}
	v, ok := overrides[strings.ToLower(name)]
	return v, ok
}

// BuildMapping creates the RetroPad mapping from the defaults and the
// config overrides. Invalid overrides and reserved keys leave the button
// unbound on that device.
func BuildMapping(kbOverrides, padOverrides map[string]string) InputMapping {
	m := InputMapping{
		Keys:    make(map[int]ebiten.Key),
		Gamepad: make(map[int]ebiten.StandardGamepadButton),
	}

	for _, btn := range retroPadButtons {
		// Keyboard
		if override, ok := lookupOverride(kbOverrides, btn.Name); ok {
			if k, ok := ParseKey(override); ok && !reservedKeys[k] {
				m.Keys[btn.ID] = k
			}
		} else if btn.DefaultKey != "" {
			if k, ok := ParseKey(btn.DefaultKey); ok && !reservedKeys[k] {
				m.Keys[btn.ID] = k
			}
		}
		// Controller
		if override, ok := lookupOverride(padOverrides, btn.Name); ok {
			if b, ok := ParsePad(override); ok {
				m.Gamepad[btn.ID] = b
			}
		} else if btn.DefaultPad != "" {
			if b, ok := ParsePad(btn.DefaultPad); ok {
				m.Gamepad[btn.ID] = b
			}
		}
	}
	return m
}

// portState is the latched input of one port.
type portState struct {
	buttons uint16
	analog  [2][2]int16 // [stick][axis]
}

// pollKeyboard adds the keyboard-mapped buttons.
func pollKeyboard(st *portState, mapping InputMapping) {
	for id, key := range mapping.Keys {
		if ebiten.IsKeyPressed(key) {
			st.buttons |= 1 << uint(id)
		}
	}
}

// pollGamepad adds gamepad buttons and, unless disabled, both sticks. The
// left stick also presses whatever the d-pad is mapped to.
func pollGamepad(st *portState, mapping InputMapping, id ebiten.GamepadID, disableAnalog bool) {
	for bit, padBtn := range mapping.Gamepad {
		if ebiten.IsStandardGamepadButtonPressed(id, padBtn) {
			st.buttons |= 1 << uint(bit)
		}
	}
	if disableAnalog {
		return
	}

	axisX := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	axisY := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	st.analog[hostapi.AnalogLeft][hostapi.AnalogX] = axisToInt16(axisX)
	st.analog[hostapi.AnalogLeft][hostapi.AnalogY] = axisToInt16(axisY)
	st.analog[hostapi.AnalogRight][hostapi.AnalogX] = axisToInt16(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickHorizontal))
	st.analog[hostapi.AnalogRight][hostapi.AnalogY] = axisToInt16(ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisRightStickVertical))

	for bit, padBtn := range mapping.Gamepad {
		switch padBtn {
		case ebiten.StandardGamepadButtonLeftLeft:
			if axisX < -0.25 {
				st.buttons |= 1 << uint(bit)
			}
		case ebiten.StandardGamepadButtonLeftRight:
			if axisX > 0.25 {
				st.buttons |= 1 << uint(bit)
			}
		case ebiten.StandardGamepadButtonLeftTop:
			if axisY < -0.25 {
				st.buttons |= 1 << uint(bit)
			}
		case ebiten.StandardGamepadButtonLeftBottom:
			if axisY > 0.25 {
				st.buttons |= 1 << uint(bit)
			}
		}
	}
}

func axisToInt16(v float64) int16 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32767
	}
	return int16(v * 32767)
}

// state answers one core input query from a latched port.
func (st *portState) state(device, index, id uint) int16 {
	switch hostapi.DeviceBase(device) {
	case hostapi.DeviceJoypad:
		if id == hostapi.JoypadMask {
			return int16(st.buttons)
		}
		if id < hostapi.JoypadButtons && st.buttons&(1<<id) != 0 {
			return 1
		}
	case hostapi.DeviceAnalog:
		switch index {
		case hostapi.AnalogLeft, hostapi.AnalogRight:
			if id <= hostapi.AnalogY {
				return st.analog[index][id]
			}
		case hostapi.AnalogButton:
			if id < hostapi.JoypadButtons && st.buttons&(1<<id) != 0 {
				return 32767
			}
		}
	}
	return 0
}
