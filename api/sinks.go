package hostapi

// GraphicsSink receives every frame the core presents.
type GraphicsSink interface {
	// DrawFrame receives a software frame. pixels holds height rows of pitch
	// bytes in the given format (the last row may end after width pixels)
	// and is only valid for the duration of the call.
	DrawFrame(pixels []byte, width, height, pitch int, format PixelFormat)

	// DrawHardwareFrame signals that the core rendered into the framebuffer
	// returned by HardwareRenderer.CurrentFramebuffer.
	DrawHardwareFrame(width, height int)

	// SetGeometry is called whenever the core changes its output geometry
	// or rotation (in degrees counter-clockwise).
	SetGeometry(geom Geometry, rotation int)
}

// HardwareRenderer is implemented by graphics sinks that can host an
// OpenGL context for cores requesting accelerated rendering.
type HardwareRenderer interface {
	// CreateContext establishes a context matching cfg. It is called from
	// the core thread while the core negotiates SET_HW_RENDER.
	CreateContext(cfg HardwareContext) error

	// DestroyContext releases the context created by CreateContext.
	DestroyContext()

	// CurrentFramebuffer returns the framebuffer object the core renders to.
	CurrentFramebuffer() uintptr

	// ProcAddress resolves a GL symbol for the core.
	ProcAddress(symbol string) uintptr
}

// HardwareContext describes the GL context a core asked for.
type HardwareContext struct {
	Type             HardwareContextType
	VersionMajor     int
	VersionMinor     int
	Depth            bool
	Stencil          bool
	BottomLeftOrigin bool
	Debug            bool
	Width            int
	Height           int
}

// AudioSink consumes interleaved stereo float samples in [-1, 1].
type AudioSink interface {
	// SetSampleRate is called once the core reports its timing and again
	// whenever it changes.
	SetSampleRate(rate float64)

	// PushSamples queues interleaved L/R samples. The slice is reused after
	// the call returns.
	PushSamples(samples []float32)
}

// InputSource answers the core's input queries.
type InputSource interface {
	// Poll latches the current physical input state. Called once per frame
	// before the core queries State.
	Poll()

	// State returns the value for one port/device/index/id query. Digital
	// inputs return 0 or 1, analog axes return a signed 16-bit value.
	State(port, device, index, id uint) int16
}

// Rumbler is implemented by input sources that drive force feedback.
type Rumbler interface {
	SetRumble(port uint, effect RumbleEffect, strength uint16) bool
}

// Sinks bundles the collaborators a session talks to. Any field may be nil;
// the session then discards that kind of output.
type Sinks struct {
	Graphics GraphicsSink
	Audio    AudioSink
	Input    InputSource
	Log      LogSink
}

// RumbleEffect selects the strong or weak motor.
type RumbleEffect int

const (
	RumbleStrong RumbleEffect = iota
	RumbleWeak
)

// AudioQueueClearer is implemented by audio sinks that buffer ahead of the
// device. The session calls ClearQueue on the core thread after a state
// load, a rewind or a reset.
type AudioQueueClearer interface {
	ClearQueue()
}

// AudioBufferReporter is implemented by audio sinks that can report how full
// their device buffer is. Cores that registered a buffer status callback
// receive it once per frame.
type AudioBufferReporter interface {
	// BufferOccupancy returns the fill level in percent and whether the
	// device ran dry since the last call.
	BufferOccupancy() (percent uint, underrun bool)
}
