package analyze

import (
	"context"
	"image"

	"github.com/rs/zerolog"
)

// Minimum viable viewport for a detected region.
const (
	MinRegionWidth  = 320
	MinRegionHeight = 240

	regionPad = 4
)

// FrameSampler decodes single frames at arbitrary timestamps.
type FrameSampler interface {
	FrameAt(ctx context.Context, t float64) (*image.RGBA, error)
}

// DetectRegion finds the rectangle of real on-screen content inside a
// larger captured frame, discarding surrounding chrome and letterboxing.
//
// It averages the grayscale of numSamples frames taken from the middle of
// the clip, then looks for the sharpest brightness edges in the row and
// column profiles. When the gradient scan finds no meaningful border it
// retries against the median brightness, and as a last resort returns the
// full frame. Detection never fails: the result is always a valid
// rectangle inside the frame, at least 320x240 when the frame allows it.
func DetectRegion(ctx context.Context, logger zerolog.Logger, src FrameSampler, width, height int, duration float64, numSamples int) image.Rectangle {
	log := logger.With().Str("component", "region-detector").Logger()

	if numSamples <= 0 {
		numSamples = 8
	}

	rowProfile, colProfile, sampled := brightnessProfiles(ctx, src, width, height, duration, numSamples)
	if sampled == 0 {
		log.Warn().Msg("no frames could be sampled, using full frame")
		return clampRegion(image.Rect(0, 0, width, height), width, height)
	}

	rowGrad := absGradient(rowProfile)
	colGrad := absGradient(colProfile)

	rowThresh := percentile(rowGrad, 90)
	colThresh := percentile(colGrad, 90)

	// Scan inward from each side within the applicable quarter of the
	// frame for the first sharp brightness edge.
	yMin := scanForward(rowGrad, 0, height/4, rowThresh, 0)
	yMax := scanBackward(rowGrad, height-1, height*3/4, rowThresh, height-1)
	xMin := scanForward(colGrad, 0, width/4, colThresh, 0)
	xMax := scanBackward(colGrad, width-1, width*3/4, colThresh, width-1)

	w := xMax - xMin + 1
	h := yMax - yMin + 1

	// Near-full-frame result means the gradient method found no real
	// border; fall back to a median-brightness crossing.
	if float64(w) > float64(width)*0.93 && float64(h) > float64(height)*0.93 {
		log.Debug().Int("w", w).Int("h", h).Msg("gradient detection got near-full frame, trying brightness method")

		rowMedian := percentile(rowProfile, 50)
		colMedian := percentile(colProfile, 50)

		yMin = scanAbove(rowProfile, 0, height/3, rowMedian, 0)
		yMax = scanAboveBackward(rowProfile, height-1, height*2/3, rowMedian, height-1)
		xMin = scanAbove(colProfile, 0, width/3, colMedian, 0)
		xMax = scanAboveBackward(colProfile, width-1, width*2/3, colMedian, width-1)

		w = xMax - xMin + 1
		h = yMax - yMin + 1
	}

	// Inward padding strips border artifacts.
	xMin += regionPad
	yMin += regionPad
	w -= regionPad * 2
	h -= regionPad * 2

	region := clampRegion(image.Rect(xMin, yMin, xMin+w, yMin+h), width, height)

	log.Info().
		Int("x", region.Min.X).Int("y", region.Min.Y).
		Int("w", region.Dx()).Int("h", region.Dy()).
		Int("frame_w", width).Int("frame_h", height).
		Msg("region detected")

	return region
}

// brightnessProfiles samples frames spread through the middle of the clip
// and accumulates mean row/column brightness.
func brightnessProfiles(ctx context.Context, src FrameSampler, width, height int, duration float64, numSamples int) (rows, cols []float64, sampled int) {
	rows = make([]float64, height)
	cols = make([]float64, width)

	for i := 0; i < numSamples; i++ {
		t := duration * float64(i+2) / float64(numSamples+3)

		frame, err := src.FrameAt(ctx, t)
		if err != nil {
			continue
		}
		b := frame.Bounds()
		if b.Dx() != width || b.Dy() != height {
			continue
		}

		for y := 0; y < height; y++ {
			row := frame.Pix[y*frame.Stride : y*frame.Stride+width*4]
			for x := 0; x < width; x++ {
				px := row[x*4 : x*4+3]
				gray := (float64(px[0]) + float64(px[1]) + float64(px[2])) / 3.0
				rows[y] += gray
				cols[x] += gray
			}
		}
		sampled++
	}

	if sampled > 0 {
		for y := range rows {
			rows[y] /= float64(sampled * width)
		}
		for x := range cols {
			cols[x] /= float64(sampled * height)
		}
	}
	return rows, cols, sampled
}

func scanForward(grad []float64, from, to int, thresh float64, def int) int {
	for i := from; i < to; i++ {
		if grad[i] > thresh {
			return i
		}
	}
	return def
}

func scanBackward(grad []float64, from, to int, thresh float64, def int) int {
	for i := from; i > to; i-- {
		if grad[i] > thresh {
			return i
		}
	}
	return def
}

func scanAbove(profile []float64, from, to int, thresh float64, def int) int {
	for i := from; i < to; i++ {
		if profile[i] > thresh {
			return i
		}
	}
	return def
}

func scanAboveBackward(profile []float64, from, to int, thresh float64, def int) int {
	for i := from; i > to; i-- {
		if profile[i] > thresh {
			return i
		}
	}
	return def
}

// clampRegion enforces the minimum viewport and keeps the rectangle inside
// the frame. Frames smaller than the minimum clamp to the full frame.
func clampRegion(r image.Rectangle, frameW, frameH int) image.Rectangle {
	x, y := r.Min.X, r.Min.Y
	w, h := r.Dx(), r.Dy()

	if w < MinRegionWidth {
		w = MinRegionWidth
	}
	if h < MinRegionHeight {
		h = MinRegionHeight
	}
	if w > frameW {
		w = frameW
	}
	if h > frameH {
		h = frameH
	}

	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x+w > frameW {
		x = frameW - w
	}
	if y+h > frameH {
		y = frameH - h
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	return image.Rect(x, y, x+w, y+h)
}
