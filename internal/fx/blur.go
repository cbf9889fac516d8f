package fx

import "image"

// blurAlpha box-blurs an alpha mask with a sliding-window average, run
// horizontally then vertically. Three passes approximate the gaussian
// falloff the glow needs; edges clamp to the nearest pixel.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	if radius < 1 {
		out := image.NewAlpha(src.Rect)
		copy(out.Pix, src.Pix)
		return out
	}

	w, h := src.Rect.Dx(), src.Rect.Dy()
	cur := image.NewAlpha(image.Rect(0, 0, w, h))
	copy(cur.Pix, src.Pix)

	// Box radius per pass so three passes roughly match one gaussian of
	// the requested radius.
	boxR := radius / 2
	if boxR < 1 {
		boxR = 1
	}

	for pass := 0; pass < 3; pass++ {
		cur = boxBlurH(cur, w, h, boxR)
		cur = boxBlurV(cur, w, h, boxR)
	}
	return cur
}

func boxBlurH(src *image.Alpha, w, h, r int) *image.Alpha {
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	win := 2*r + 1
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		sum := 0
		for x := -r; x <= r; x++ {
			sum += int(row[clampIndex(x, w)])
		}
		for x := 0; x < w; x++ {
			out[x] = uint8(sum / win)
			sum += int(row[clampIndex(x+r+1, w)]) - int(row[clampIndex(x-r, w)])
		}
	}
	return dst
}

func boxBlurV(src *image.Alpha, w, h, r int) *image.Alpha {
	dst := image.NewAlpha(image.Rect(0, 0, w, h))
	win := 2*r + 1
	for x := 0; x < w; x++ {
		sum := 0
		for y := -r; y <= r; y++ {
			sum += int(src.Pix[clampIndex(y, h)*src.Stride+x])
		}
		for y := 0; y < h; y++ {
			dst.Pix[y*dst.Stride+x] = uint8(sum / win)
			sum += int(src.Pix[clampIndex(y+r+1, h)*src.Stride+x])
			sum -= int(src.Pix[clampIndex(y-r, h)*src.Stride+x])
		}
	}
	return dst
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
