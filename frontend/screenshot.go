package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"time"

	"github.com/user-none/retrohost/storage"
	xdraw "golang.org/x/image/draw"
)

// ErrNoFrame is returned when a screenshot is taken before the first frame.
var ErrNoFrame = errors.New("no frame to capture")

// ScreenshotImage renders a frame at its display aspect ratio and
// rotation, scaled by an integer factor.
func ScreenshotImage(f Frame, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	src := &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
	rotated := rotateRGBA(src, f.Rotation)

	dispW, dispH := displaySize(f.Width, f.Height, f.AspectRatio, f.Rotation)
	dst := image.NewRGBA(image.Rect(0, 0, dispW*scale, dispH*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), rotated, rotated.Bounds(), xdraw.Src, nil)
	return dst
}

// rotateRGBA rotates src counter-clockwise by a multiple of 90 degrees.
func rotateRGBA(src *image.RGBA, rotation int) *image.RGBA {
	turns := ((rotation/90)%4 + 4) % 4
	if turns == 0 {
		return src
	}
	w, h := src.Rect.Dx(), src.Rect.Dy()
	outW, outH := w, h
	if turns%2 == 1 {
		outW, outH = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch turns {
			case 1:
				dx, dy = y, w-1-x
			case 2:
				dx, dy = w-1-x, h-1-y
			case 3:
				dx, dy = h-1-y, x
			}
			copy(dst.Pix[dst.PixOffset(dx, dy):][:4], src.Pix[src.PixOffset(x, y):][:4])
		}
	}
	return dst
}

// SaveScreenshot writes the last frame of snap as a PNG below the
// layout's screenshot directory and returns its path.
func SaveScreenshot(snap Snapshotter, layout storage.Layout, core, content string, scale int) (string, error) {
	f, ok := snap.Snapshot()
	if !ok {
		return "", ErrNoFrame
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, ScreenshotImage(f, scale)); err != nil {
		return "", fmt.Errorf("failed to encode screenshot: %w", err)
	}
	stamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	path := layout.ScreenshotPath(core, content, stamp)
	if err := storage.AtomicWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}
