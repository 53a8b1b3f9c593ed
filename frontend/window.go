package frontend

import (
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	hostapi "github.com/user-none/retrohost/api"
)

// maxPorts is the number of input ports the window latches.
const maxPorts = 4

// Rumble below these levels is not felt on most gamepads.
const (
	minRumbleMagnitude = 0.40
	rumbleDuration     = 250 * time.Millisecond
)

const stateSlots = 10

// maxKeyEvents bounds the keyboard queue when nothing drains it.
const maxKeyEvents = 64

// Hotkeys receives the window's hotkey presses. Nil fields are ignored.
// They run on the ebiten goroutine.
type Hotkeys struct {
	Quit        func()
	TogglePause func()
	SaveState   func(slot int)
	LoadState   func(slot int)
	Reset       func()
	Screenshot  func()
	FastForward func(on bool)
	Rewind      func()
	SlotChanged func(slot int)
}

// WindowOptions configures a Window.
type WindowOptions struct {
	Title         string
	Scale         int
	Mapping       InputMapping
	DisableAnalog bool
	Hotkeys       Hotkeys

	// Keyboard queues key events for TakeKeyEvents.
	Keyboard bool
}

// Window shows core video in an ebiten window and reads keyboard and
// gamepad input. It implements hostapi.GraphicsSink, hostapi.InputSource
// and hostapi.Rumbler for the core thread and ebiten.Game for the ebiten
// goroutine.
type Window struct {
	opts WindowOptions

	mu       sync.Mutex
	frame    Frame
	dirty    bool
	resize   bool
	latched  [maxPorts]portState
	gamepads []ebiten.GamepadID
	keys     []KeyEvent
	closed   bool

	// core thread only
	current [maxPorts]portState

	// ebiten goroutine only
	offscreen   *ebiten.Image
	drawOpts    ebiten.DrawImageOptions
	fastForward bool
	slot        int
	pressed     []ebiten.Key
}

// NewWindow creates a window. Run shows it.
func NewWindow(opts WindowOptions) *Window {
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	return &Window{opts: opts}
}

// Run opens the window and blocks until it is closed. It must be called
// from the main goroutine.
func (w *Window) Run() error {
	ebiten.SetWindowTitle(w.opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowClosingHandled(true)
	w.mu.Lock()
	width, height := w.windowSize()
	w.mu.Unlock()
	ebiten.SetWindowSize(width, height)
	return ebiten.RunGame(w)
}

// Close ends Run at the next update.
func (w *Window) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

// windowSize returns the scaled display size of the current geometry.
// Callers hold mu.
func (w *Window) windowSize() (int, int) {
	width, height := displaySize(w.frame.Width, w.frame.Height, w.frame.AspectRatio, w.frame.Rotation)
	if width == 0 || height == 0 {
		width, height = 320, 240
	}
	return width * w.opts.Scale, height * w.opts.Scale
}

// DrawFrame implements hostapi.GraphicsSink.
func (w *Window) DrawFrame(pixels []byte, width, height, pitch int, format hostapi.PixelFormat) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.frame.Pix = hostapi.ConvertToRGBA(w.frame.Pix, pixels, width, height, pitch, format)
	if w.frame.Pix == nil {
		return
	}
	if w.frame.Width != width || w.frame.Height != height {
		w.resize = true
	}
	w.frame.Width, w.frame.Height = width, height
	w.dirty = true
}

// DrawHardwareFrame implements hostapi.GraphicsSink. The window does not
// host GL contexts, so cores never render to it.
func (w *Window) DrawHardwareFrame(width, height int) {}

// SetGeometry implements hostapi.GraphicsSink.
func (w *Window) SetGeometry(geom hostapi.Geometry, rotation int) {
	w.mu.Lock()
	w.frame.AspectRatio = geom.EffectiveAspectRatio()
	w.frame.Rotation = rotation
	if w.frame.Width == 0 {
		w.frame.Width, w.frame.Height = geom.BaseWidth, geom.BaseHeight
	}
	w.resize = true
	w.mu.Unlock()
}

// Snapshot returns a copy of the last frame.
func (w *Window) Snapshot() (Frame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frame.clone()
}

// Poll implements hostapi.InputSource.
func (w *Window) Poll() {
	w.mu.Lock()
	w.current = w.latched
	w.mu.Unlock()
}

// State implements hostapi.InputSource.
func (w *Window) State(port, device, index, id uint) int16 {
	if port >= maxPorts {
		return 0
	}
	return w.current[port].state(device, index, id)
}

// SetRumble implements hostapi.Rumbler. Non-zero strengths are raised to
// a perceptible minimum.
func (w *Window) SetRumble(port uint, effect hostapi.RumbleEffect, strength uint16) bool {
	w.mu.Lock()
	if int(port) >= len(w.gamepads) {
		w.mu.Unlock()
		return false
	}
	id := w.gamepads[port]
	w.mu.Unlock()

	mag := float64(strength) / 65535.0
	if mag > 0 && mag < minRumbleMagnitude {
		mag = minRumbleMagnitude
	}
	opts := &ebiten.VibrateGamepadOptions{Duration: rumbleDuration}
	if effect == hostapi.RumbleStrong {
		opts.StrongMagnitude = mag
	} else {
		opts.WeakMagnitude = mag
	}
	ebiten.VibrateGamepad(id, opts)
	return true
}

// Update implements ebiten.Game.
func (w *Window) Update() error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ebiten.Termination
	}
	if ebiten.IsWindowBeingClosed() {
		call(w.opts.Hotkeys.Quit)
		return ebiten.Termination
	}

	w.handleHotkeys()
	if w.opts.Keyboard {
		w.queueKeys()
	}

	var ports [maxPorts]portState
	gamepads := ebiten.AppendGamepadIDs(nil)
	pollKeyboard(&ports[0], w.opts.Mapping)
	for i, id := range gamepads {
		if i >= maxPorts {
			break
		}
		pollGamepad(&ports[i], w.opts.Mapping, id, w.opts.DisableAnalog)
	}

	w.mu.Lock()
	w.latched = ports
	w.gamepads = gamepads
	resize := w.resize
	w.resize = false
	width, height := w.windowSize()
	w.mu.Unlock()

	if resize && !ebiten.IsFullscreen() {
		ebiten.SetWindowSize(width, height)
	}
	return nil
}

func (w *Window) handleHotkeys() {
	hk := w.opts.Hotkeys
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		call(hk.Quit)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		call(hk.TogglePause)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) && hk.SaveState != nil {
		hk.SaveState(w.slot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF2) {
		w.slot = (w.slot + 1) % stateSlots
		if hk.SlotChanged != nil {
			hk.SlotChanged(w.slot)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) && hk.LoadState != nil {
		hk.LoadState(w.slot)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		call(hk.Reset)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		call(hk.Screenshot)
	}
	if ff := ebiten.IsKeyPressed(ebiten.KeyTab); ff != w.fastForward {
		w.fastForward = ff
		if hk.FastForward != nil {
			hk.FastForward(ff)
		}
	}
	if ebiten.IsKeyPressed(ebiten.KeyR) {
		call(hk.Rewind)
	}
}

// queueKeys records this tick's key presses and releases. Hotkeys are not
// forwarded.
func (w *Window) queueKeys() {
	mods := currentMods()
	var events []KeyEvent
	w.pressed = inpututil.AppendJustPressedKeys(w.pressed[:0])
	for _, k := range w.pressed {
		if ev, ok := keyEvent(k, true, mods); ok && !IsReservedKey(k) {
			events = append(events, ev)
		}
	}
	w.pressed = inpututil.AppendJustReleasedKeys(w.pressed[:0])
	for _, k := range w.pressed {
		if ev, ok := keyEvent(k, false, mods); ok && !IsReservedKey(k) {
			events = append(events, ev)
		}
	}
	if len(events) == 0 {
		return
	}
	w.mu.Lock()
	w.keys = append(w.keys, events...)
	if over := len(w.keys) - maxKeyEvents; over > 0 {
		w.keys = append(w.keys[:0], w.keys[over:]...)
	}
	w.mu.Unlock()
}

// TakeKeyEvents returns and clears the queued key events.
func (w *Window) TakeKeyEvents() []KeyEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	keys := w.keys
	w.keys = nil
	return keys
}

// SetTitle changes the window title. Safe from any goroutine.
func (w *Window) SetTitle(title string) {
	ebiten.SetWindowTitle(title)
}

func call(f func()) {
	if f != nil {
		f()
	}
}

// Draw implements ebiten.Game.
func (w *Window) Draw(screen *ebiten.Image) {
	w.mu.Lock()
	f := w.frame
	if f.Pix == nil || f.Width == 0 || f.Height == 0 {
		w.mu.Unlock()
		return
	}
	if w.offscreen == nil || w.offscreen.Bounds().Dx() != f.Width || w.offscreen.Bounds().Dy() != f.Height {
		if w.offscreen != nil {
			w.offscreen.Deallocate()
		}
		w.offscreen = ebiten.NewImage(f.Width, f.Height)
		w.dirty = true
	}
	if w.dirty {
		w.offscreen.WritePixels(f.Pix[:f.Width*f.Height*4])
		w.dirty = false
	}
	w.mu.Unlock()

	screenW, screenH := screen.Bounds().Dx(), screen.Bounds().Dy()
	w.drawOpts = ebiten.DrawImageOptions{}
	w.drawOpts.GeoM = frameTransform(f.Width, f.Height, f.AspectRatio, f.Rotation, screenW, screenH)
	w.drawOpts.Filter = ebiten.FilterNearest
	screen.DrawImage(w.offscreen, &w.drawOpts)
}

// Layout implements ebiten.Game.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// frameTransform scales a width x height frame to the display aspect
// ratio, rotates it by rotation degrees counter-clockwise and centers the
// result in the screen.
func frameTransform(width, height int, aspect float64, rotation, screenW, screenH int) ebiten.GeoM {
	var g ebiten.GeoM
	dispW, dispH := displaySize(width, height, aspect, 0)
	g.Translate(-float64(width)/2, -float64(height)/2)
	g.Scale(float64(dispW)/float64(width), float64(dispH)/float64(height))
	g.Rotate(-float64(rotation) * math.Pi / 180)

	outW, outH := float64(dispW), float64(dispH)
	if rotation%180 != 0 {
		outW, outH = outH, outW
	}
	scale := math.Min(float64(screenW)/outW, float64(screenH)/outH)
	g.Scale(scale, scale)
	g.Translate(float64(screenW)/2, float64(screenH)/2)
	return g
}

// displaySize returns the unscaled display size of a frame: the height is
// kept and the width follows the aspect ratio. Rotations by 90 or 270
// degrees swap the result.
func displaySize(width, height int, aspect float64, rotation int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	dispW := width
	if aspect > 0 {
		dispW = int(math.Round(float64(height) * aspect))
	}
	if rotation%180 != 0 {
		return height, dispW
	}
	return dispW, height
}
