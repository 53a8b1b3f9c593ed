package hostapi

import "fmt"

// PixelFormat is a software framebuffer layout negotiated by the core.
type PixelFormat int

// Values match enum retro_pixel_format.
const (
	PixelFormat0RGB1555 PixelFormat = iota
	PixelFormatXRGB8888
	PixelFormatRGB565
)

// String returns the libretro name of the format.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormat0RGB1555:
		return "0RGB1555"
	case PixelFormatXRGB8888:
		return "XRGB8888"
	case PixelFormatRGB565:
		return "RGB565"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Valid reports whether f is one of the three defined formats.
func (f PixelFormat) Valid() bool {
	return f >= PixelFormat0RGB1555 && f <= PixelFormatRGB565
}

// BytesPerPixel returns the storage size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	if f == PixelFormatXRGB8888 {
		return 4
	}
	return 2
}

// HardwareContextType mirrors enum retro_hw_context_type.
type HardwareContextType int

const (
	HardwareContextNone HardwareContextType = iota
	HardwareContextOpenGL
	HardwareContextOpenGLES2
	HardwareContextOpenGLCore
	HardwareContextOpenGLES3
	HardwareContextOpenGLESVersion
	HardwareContextVulkan
	HardwareContextD3D11
	HardwareContextD3D10
	HardwareContextD3D12
	HardwareContextD3D9
)

// IsOpenGL reports whether t belongs to the OpenGL family.
func (t HardwareContextType) IsOpenGL() bool {
	switch t {
	case HardwareContextOpenGL, HardwareContextOpenGLES2, HardwareContextOpenGLCore,
		HardwareContextOpenGLES3, HardwareContextOpenGLESVersion:
		return true
	}
	return false
}

// Geometry is the output size the core renders at.
type Geometry struct {
	BaseWidth   int
	BaseHeight  int
	MaxWidth    int
	MaxHeight   int
	AspectRatio float64
}

// EffectiveAspectRatio returns the aspect ratio to display with. Cores
// report zero or less when the ratio follows the base size.
func (g Geometry) EffectiveAspectRatio() float64 {
	if g.AspectRatio > 0 {
		return g.AspectRatio
	}
	if g.BaseHeight == 0 {
		return 0
	}
	return float64(g.BaseWidth) / float64(g.BaseHeight)
}

// Timing holds the frame rate and audio sample rate reported by the core.
type Timing struct {
	FPS        float64
	SampleRate float64
}

// AVInfo is the negotiated audio/video description of a loaded game.
type AVInfo struct {
	Geometry Geometry
	Timing   Timing
}

// DisplayAspectRatio computes a display aspect ratio from a pixel size and
// a pixel aspect ratio.
func DisplayAspectRatio(width, height int, par float64) float64 {
	if height == 0 {
		return 0
	}
	return float64(width) / float64(height) * par
}

// Region is the video standard reported by retro_get_region.
type Region int

const (
	RegionNTSC Region = iota
	RegionPAL
)

// String returns the display name of the region.
func (r Region) String() string {
	switch r {
	case RegionNTSC:
		return "NTSC"
	case RegionPAL:
		return "PAL"
	default:
		return "Unknown"
	}
}
