package fx

import (
	"image"
	"image/color"
)

// drawMask composites a single-color alpha mask over dst at (x0, y0) with
// an extra global opacity. Regions falling outside dst are clipped.
func drawMask(dst *image.RGBA, mask *image.Alpha, x0, y0 int, col color.RGBA, opacity float64) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}

	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	mw, mh := mask.Rect.Dx(), mask.Rect.Dy()

	fr := float64(col.R)
	fg := float64(col.G)
	fb := float64(col.B)

	for y := 0; y < mh; y++ {
		dy := y0 + y
		if dy < 0 || dy >= dh {
			continue
		}
		mrow := mask.Pix[y*mask.Stride : y*mask.Stride+mw]
		drow := dst.Pix[dy*dst.Stride:]
		for x := 0; x < mw; x++ {
			a := float64(mrow[x]) / 255 * opacity
			if a == 0 {
				continue
			}
			dx := x0 + x
			if dx < 0 || dx >= dw {
				continue
			}
			p := drow[dx*4 : dx*4+4]
			p[0] = clampByte(float64(p[0])*(1-a) + fr*a)
			p[1] = clampByte(float64(p[1])*(1-a) + fg*a)
			p[2] = clampByte(float64(p[2])*(1-a) + fb*a)
		}
	}
}
