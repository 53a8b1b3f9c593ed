package frontend

import (
	"sync"

	hostapi "github.com/user-none/retrohost/api"
)

// HeadlessVideo keeps the last frame without showing it.
type HeadlessVideo struct {
	mu       sync.Mutex
	frame    Frame
	frames   uint64
	hwFrames uint64
}

// DrawFrame implements hostapi.GraphicsSink.
func (h *HeadlessVideo) DrawFrame(pixels []byte, width, height, pitch int, format hostapi.PixelFormat) {
	h.mu.Lock()
	defer h.mu.Unlock()
	pix := hostapi.ConvertToRGBA(h.frame.Pix, pixels, width, height, pitch, format)
	if pix == nil {
		return
	}
	h.frame.Pix = pix
	h.frame.Width, h.frame.Height = width, height
	h.frames++
}

// DrawHardwareFrame implements hostapi.GraphicsSink.
func (h *HeadlessVideo) DrawHardwareFrame(width, height int) {
	h.mu.Lock()
	h.hwFrames++
	h.mu.Unlock()
}

// SetGeometry implements hostapi.GraphicsSink.
func (h *HeadlessVideo) SetGeometry(geom hostapi.Geometry, rotation int) {
	h.mu.Lock()
	h.frame.AspectRatio = geom.EffectiveAspectRatio()
	h.frame.Rotation = rotation
	h.mu.Unlock()
}

// Snapshot returns a copy of the last software frame.
func (h *HeadlessVideo) Snapshot() (Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame.clone()
}

// Frames returns the number of software and hardware frames presented.
func (h *HeadlessVideo) Frames() (software, hardware uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames, h.hwFrames
}

// NullAudio discards samples and reports a half full buffer so
// frame-skipping cores never skip.
type NullAudio struct {
	mu      sync.Mutex
	rate    float64
	samples uint64
}

// SetSampleRate implements hostapi.AudioSink.
func (n *NullAudio) SetSampleRate(rate float64) {
	n.mu.Lock()
	n.rate = rate
	n.mu.Unlock()
}

// PushSamples implements hostapi.AudioSink.
func (n *NullAudio) PushSamples(samples []float32) {
	n.mu.Lock()
	n.samples += uint64(len(samples) / 2)
	n.mu.Unlock()
}

// BufferOccupancy implements hostapi.AudioBufferReporter.
func (n *NullAudio) BufferOccupancy() (uint, bool) {
	return 50, false
}

// Stats returns the last sample rate and the number of stereo frames
// received.
func (n *NullAudio) Stats() (rate float64, frames uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rate, n.samples
}

// NullInput reports nothing pressed.
type NullInput struct{}

// Poll implements hostapi.InputSource.
func (NullInput) Poll() {}

// State implements hostapi.InputSource.
func (NullInput) State(port, device, index, id uint) int16 { return 0 }
