package frontend

import (
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
)

// Keyboard modifier bits (RETROKMOD_*).
const (
	modShift = 0x01
	modCtrl  = 0x02
	modAlt   = 0x04
	modMeta  = 0x08
)

// KeyEvent is a key press or release for a core's keyboard callback.
// Keycode is a RETROK value and Character the UTF-32 character typed, or
// zero.
type KeyEvent struct {
	Down      bool
	Keycode   uint32
	Character uint32
	Mods      uint16
}

// retroKeycodes maps ebiten keys to RETROK values. Letters and digits are
// filled in by init.
var retroKeycodes = map[ebiten.Key]uint32{
	ebiten.KeyBackspace:    8,
	ebiten.KeyTab:          9,
	ebiten.KeyEnter:        13,
	ebiten.KeyPause:        19,
	ebiten.KeyEscape:       27,
	ebiten.KeySpace:        32,
	ebiten.KeyQuote:        39,
	ebiten.KeyComma:        44,
	ebiten.KeyMinus:        45,
	ebiten.KeyPeriod:       46,
	ebiten.KeySlash:        47,
	ebiten.KeySemicolon:    59,
	ebiten.KeyEqual:        61,
	ebiten.KeyBracketLeft:  91,
	ebiten.KeyBackslash:    92,
	ebiten.KeyBracketRight: 93,
	ebiten.KeyBackquote:    96,
	ebiten.KeyDelete:       127,
	ebiten.KeyArrowUp:      273,
	ebiten.KeyArrowDown:    274,
	ebiten.KeyArrowRight:   275,
	ebiten.KeyArrowLeft:    276,
	ebiten.KeyInsert:       277,
	ebiten.KeyHome:         278,
	ebiten.KeyEnd:          279,
	ebiten.KeyPageUp:       280,
	ebiten.KeyPageDown:     281,
	ebiten.KeyShiftRight:   303,
	ebiten.KeyShiftLeft:    304,
	ebiten.KeyControlRight: 305,
	ebiten.KeyControlLeft:  306,
	ebiten.KeyAltRight:     307,
	ebiten.KeyAltLeft:      308,
	ebiten.KeyMetaRight:    309,
	ebiten.KeyMetaLeft:     310,
}

func init() {
	letters := []ebiten.Key{
		ebiten.KeyA, ebiten.KeyB, ebiten.KeyC, ebiten.KeyD, ebiten.KeyE, ebiten.KeyF, ebiten.KeyG,
		ebiten.KeyH, ebiten.KeyI, ebiten.KeyJ, ebiten.KeyK, ebiten.KeyL, ebiten.KeyM, ebiten.KeyN,
		ebiten.KeyO, ebiten.KeyP, ebiten.KeyQ, ebiten.KeyR, ebiten.KeyS, ebiten.KeyT, ebiten.KeyU,
		ebiten.KeyV, ebiten.KeyW, ebiten.KeyX, ebiten.KeyY, ebiten.KeyZ,
	}
	for i, k := range letters {
		retroKeycodes[k] = uint32('a' + i)
	}
	digits := []ebiten.Key{
		ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
		ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
	}
	for i, k := range digits {
		retroKeycodes[k] = uint32('0' + i)
	}
	fkeys := []ebiten.Key{
		ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3, ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
		ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9, ebiten.KeyF10, ebiten.KeyF11, ebiten.KeyF12,
	}
	for i, k := range fkeys {
		retroKeycodes[k] = uint32(282 + i)
	}
}

// RetroKeycode returns the RETROK value of k, or 0 when it has none.
func RetroKeycode(k ebiten.Key) uint32 {
	return retroKeycodes[k]
}

// keyEvent builds the event for k. Printable keycodes double as the
// character, upper-cased for letters while shift is held.
func keyEvent(k ebiten.Key, down bool, mods uint16) (KeyEvent, bool) {
	code := retroKeycodes[k]
	if code == 0 {
		return KeyEvent{}, false
	}
	ev := KeyEvent{Down: down, Keycode: code, Mods: mods}
	if down && code >= 32 && code < 127 && mods&(modCtrl|modAlt|modMeta) == 0 {
		ch := rune(code)
		if mods&modShift != 0 {
			ch = unicode.ToUpper(ch)
		}
		ev.Character = uint32(ch)
	}
	return ev, true
}

func currentMods() uint16 {
	var mods uint16
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= modShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= modCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= modAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= modMeta
	}
	return mods
}
