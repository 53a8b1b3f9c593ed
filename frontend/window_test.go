package frontend

import (
	"math"
	"testing"

	hostapi "github.com/user-none/retrohost/api"
)

func TestDisplaySize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		aspect        float64
		rotation      int
		wantW, wantH  int
	}{
		{"square pixels", 256, 224, 0, 0, 256, 224},
		{"4:3", 256, 224, 4.0 / 3.0, 0, 299, 224},
		{"rotated", 320, 240, 4.0 / 3.0, 90, 240, 320},
		{"empty", 0, 240, 1, 0, 0, 0},
	}
	for _, tt := range tests {
		w, h := displaySize(tt.width, tt.height, tt.aspect, tt.rotation)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("%s: displaySize = %dx%d, want %dx%d", tt.name, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestFrameTransformFitsScreen(t *testing.T) {
	tests := []struct {
		name     string
		rotation int
		// screen position of the frame's top-left corner
		wantX, wantY float64
	}{
		{"upright", 0, 80, 0},
		{"rotated", 90, 220, 480},
	}
	for _, tt := range tests {
		// 320x240 at 4:3 scales to 640x480 upright and 360x480 rotated.
		g := frameTransform(320, 240, 4.0/3.0, tt.rotation, 800, 480)
		x, y := g.Apply(0, 0)
		if math.Abs(x-tt.wantX) > 0.01 || math.Abs(y-tt.wantY) > 0.01 {
			t.Errorf("%s: corner at (%.2f, %.2f), want (%.2f, %.2f)", tt.name, x, y, tt.wantX, tt.wantY)
		}
	}
}

func TestWindowSinks(t *testing.T) {
	w := NewWindow(WindowOptions{Title: "test", Scale: 2})
	w.SetGeometry(hostapi.Geometry{BaseWidth: 160, BaseHeight: 144}, 0)
	if width, height := w.windowSize(); width != 320 || height != 288 {
		t.Errorf("windowSize = %dx%d, want 320x288", width, height)
	}

	w.DrawFrame([]byte{0, 0, 0xFF, 0, 0xFF, 0, 0, 0}, 2, 1, 8, hostapi.PixelFormatXRGB8888)
	f, ok := w.Snapshot()
	if !ok || f.Width != 2 || f.Pix[0] != 0xFF {
		t.Errorf("Snapshot = %+v, %v", f, ok)
	}

	w.mu.Lock()
	w.latched[1].buttons = 1 << hostapi.JoypadStart
	w.mu.Unlock()
	if w.State(1, hostapi.DeviceJoypad, 0, hostapi.JoypadStart) != 0 {
		t.Error("state visible before Poll")
	}
	w.Poll()
	if w.State(1, hostapi.DeviceJoypad, 0, hostapi.JoypadStart) != 1 {
		t.Error("latched state lost by Poll")
	}
	if w.State(maxPorts, hostapi.DeviceJoypad, 0, hostapi.JoypadStart) != 0 {
		t.Error("state for a port past the last")
	}
	if w.SetRumble(0, hostapi.RumbleStrong, 0xFFFF) {
		t.Error("rumble accepted without a gamepad")
	}
}
