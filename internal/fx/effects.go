package fx

import (
	"image"
	"math"
	"math/rand"

	xdraw "golang.org/x/image/draw"
)

// clone returns an independent copy of a frame with a packed stride.
func clone(src *image.RGBA) *image.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	rowBytes := w * 4
	for y := 0; y < h; y++ {
		srcOff := (src.Rect.Min.Y+y)*src.Stride + src.Rect.Min.X*4
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowBytes], src.Pix[srcOff:srcOff+rowBytes])
	}
	return dst
}

// applyZoom center-crops by the zoom factor and scales back up to the full
// frame size. Factors at or below 1.001 are a no-op.
func applyZoom(frame *image.RGBA, factor float64) *image.RGBA {
	if factor <= 1.001 {
		return frame
	}

	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	cropW := int(float64(w) / factor)
	cropH := int(float64(h) / factor)
	if cropW < 2 || cropH < 2 {
		return frame
	}
	x1 := (w - cropW) / 2
	y1 := (h - cropH) / 2

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), frame, image.Rect(x1, y1, x1+cropW, y1+cropH), xdraw.Src, nil)
	return dst
}

// applyGlitch applies a channel-shift plus a handful of displaced row
// blocks, reading from an unmodified snapshot of the frame.
func applyGlitch(frame *image.RGBA, intensity float64, rng *rand.Rand) {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	shift := int(float64(w) * 0.015 * intensity)
	if shift < 1 {
		shift = 1
	}

	src := clone(frame)

	// Red channel shifts right, blue shifts left.
	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride:]
		srcRow := src.Pix[y*src.Stride:]
		for x := w - 1; x >= shift; x-- {
			row[x*4] = srcRow[(x-shift)*4]
		}
		for x := 0; x < w-shift; x++ {
			row[x*4+2] = srcRow[(x+shift)*4+2]
		}
	}

	numRows := int(float64(h) * 0.05 * intensity)
	if numRows < 1 {
		numRows = 1
	}
	maxBlock := int(4 * intensity)
	if maxBlock < 1 {
		maxBlock = 1
	}

	for i := 0; i < numRows; i++ {
		row := rng.Intn(h)
		blockH := 1 + rng.Intn(maxBlock)
		offset := rng.Intn(shift*8+1) - shift*4
		if offset == 0 {
			continue
		}

		for r := row; r < row+blockH && r < h; r++ {
			dstRow := frame.Pix[r*frame.Stride : r*frame.Stride+w*4]
			srcRow := src.Pix[r*src.Stride : r*src.Stride+w*4]
			if offset > 0 && offset < w {
				copy(dstRow[offset*4:], srcRow[:(w-offset)*4])
			} else if offset < 0 && -offset < w {
				copy(dstRow[:(w+offset)*4], srcRow[-offset*4:])
			}
		}
	}
}

// applyFlash additively brightens the frame, biased toward green.
func applyFlash(frame *image.RGBA, intensity float64) {
	addR := 60 * intensity
	addG := 180 * intensity
	addB := 80 * intensity

	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			p[0] = clampByte(float64(p[0]) + addR)
			p[1] = clampByte(float64(p[1]) + addG)
			p[2] = clampByte(float64(p[2]) + addB)
		}
	}
}

// applyColorGrade multiplies channels for a slight green boost and reduced
// warmth.
func applyColorGrade(frame *image.RGBA, greenBoost, warmth float64) {
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			p[0] = clampByte(float64(p[0]) * warmth)
			p[1] = clampByte(float64(p[1]) * greenBoost)
			p[2] = clampByte(float64(p[2]) * warmth)
		}
	}
}

// applyScanlines darkens alternating rows.
func applyScanlines(frame *image.RGBA, opacity float64) {
	factor := 1.0 - opacity
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	for y := 0; y < h; y += 2 {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			p[0] = byte(float64(p[0]) * factor)
			p[1] = byte(float64(p[1]) * factor)
			p[2] = byte(float64(p[2]) * factor)
		}
	}
}

// vignetteMask precomputes the radial distance field so per-frame vignette
// application is a multiply per pixel.
type vignetteMask struct {
	w, h int
	dist []float32
}

func newVignetteMask(w, h int) *vignetteMask {
	m := &vignetteMask{w: w, h: h, dist: make([]float32, w*h)}
	cx := float64(w) / 2
	cy := float64(h) / 2
	for y := 0; y < h; y++ {
		dy := (float64(y) - cy) / cy
		for x := 0; x < w; x++ {
			dx := (float64(x) - cx) / cx
			m.dist[y*w+x] = float32(math.Sqrt(dx*dx + dy*dy))
		}
	}
	return m
}

// apply darkens the frame toward its edges; louder moments pass a lower
// intensity for a lighter vignette.
func (m *vignetteMask) apply(frame *image.RGBA, intensity float64) {
	if frame.Rect.Dx() != m.w || frame.Rect.Dy() != m.h {
		return
	}
	for y := 0; y < m.h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+m.w*4]
		for x := 0; x < m.w; x++ {
			f := 1.0 - (float64(m.dist[y*m.w+x])-0.6)*intensity*2.5
			if f >= 1 {
				continue
			}
			if f < 0 {
				f = 0
			}
			p := row[x*4 : x*4+4]
			p[0] = byte(float64(p[0]) * f)
			p[1] = byte(float64(p[1]) * f)
			p[2] = byte(float64(p[2]) * f)
		}
	}
}

// Dim scales frame brightness by factor in [0,1], used for edge fades.
func Dim(frame *image.RGBA, factor float64) {
	if factor >= 1 {
		return
	}
	if factor < 0 {
		factor = 0
	}
	w, h := frame.Rect.Dx(), frame.Rect.Dy()
	for y := 0; y < h; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+w*4]
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4]
			p[0] = byte(float64(p[0]) * factor)
			p[1] = byte(float64(p[1]) * factor)
			p[2] = byte(float64(p[2]) * factor)
		}
	}
}

func clampByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
