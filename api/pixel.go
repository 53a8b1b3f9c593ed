package hostapi

import "encoding/binary"

// ConvertToRGBA converts a core framebuffer into tightly packed RGBA8888
// (R, G, B, A byte order, alpha forced to 0xFF). dst is reused when large
// enough and the converted slice is returned. Rows shorter than width
// pixels (pitch too small) or a src shorter than height rows yields nil.
func ConvertToRGBA(dst, src []byte, width, height, pitch int, format PixelFormat) []byte {
	if width <= 0 || height <= 0 || !format.Valid() {
		return nil
	}
	bpp := format.BytesPerPixel()
	if pitch < width*bpp || len(src) < pitch*(height-1)+width*bpp {
		return nil
	}

	need := width * height * 4
	if cap(dst) < need {
		dst = make([]byte, need)
	}
	dst = dst[:need]

	for y := 0; y < height; y++ {
		row := src[y*pitch:]
		out := dst[y*width*4:]
		switch format {
		case PixelFormatXRGB8888:
			convertXRGB8888Row(out, row, width)
		case PixelFormatRGB565:
			convertRGB565Row(out, row, width)
		case PixelFormat0RGB1555:
			convert0RGB1555Row(out, row, width)
		}
	}
	return dst
}

// convertXRGB8888Row expands little-endian 0xXXRRGGBB words.
func convertXRGB8888Row(dst, src []byte, width int) {
	for i := 0; i < width; i++ {
		s := i * 4
		dst[s+0] = src[s+2]
		dst[s+1] = src[s+1]
		dst[s+2] = src[s+0]
		dst[s+3] = 0xFF
	}
}

func convertRGB565Row(dst, src []byte, width int) {
	for i := 0; i < width; i++ {
		p := binary.LittleEndian.Uint16(src[i*2:])
		r := uint8(p>>11) & 0x1F
		g := uint8(p>>5) & 0x3F
		b := uint8(p) & 0x1F
		d := i * 4
		dst[d+0] = expand5(r)
		dst[d+1] = expand6(g)
		dst[d+2] = expand5(b)
		dst[d+3] = 0xFF
	}
}

func convert0RGB1555Row(dst, src []byte, width int) {
	for i := 0; i < width; i++ {
		p := binary.LittleEndian.Uint16(src[i*2:])
		r := uint8(p>>10) & 0x1F
		g := uint8(p>>5) & 0x1F
		b := uint8(p) & 0x1F
		d := i * 4
		dst[d+0] = expand5(r)
		dst[d+1] = expand5(g)
		dst[d+2] = expand5(b)
		dst[d+3] = 0xFF
	}
}

// expand5 replicates the high bits so 0x1F maps to 0xFF.
func expand5(v uint8) uint8 { return v<<3 | v>>2 }

func expand6(v uint8) uint8 { return v<<2 | v>>4 }
