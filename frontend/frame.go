package frontend

// Frame is a copy of the last presented video frame in RGBA.
type Frame struct {
	Pix         []byte
	Width       int
	Height      int
	AspectRatio float64
	Rotation    int
}

// Snapshotter is implemented by graphics sinks that keep the last frame.
type Snapshotter interface {
	Snapshot() (Frame, bool)
}

func (f Frame) clone() (Frame, bool) {
	if f.Pix == nil || f.Width == 0 || f.Height == 0 {
		return Frame{}, false
	}
	out := f
	out.Pix = append([]byte(nil), f.Pix[:f.Width*f.Height*4]...)
	return out, true
}
