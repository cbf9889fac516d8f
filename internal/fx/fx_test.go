package fx

import (
	"bytes"
	"image"
	"testing"
)

// testFrame builds a deterministic gradient frame.
func testFrame(w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*frame.Stride + x*4
			frame.Pix[off] = byte((x * 255) / w)
			frame.Pix[off+1] = byte((y * 255) / h)
			frame.Pix[off+2] = byte(((x + y) * 255) / (w + h))
			frame.Pix[off+3] = 255
		}
	}
	return frame
}

func constEnergy(v float64) EnergyFunc {
	return func(t float64) float64 { return v }
}

func TestRenderIsPure(t *testing.T) {
	comp := NewCompositor(160, 120, []float64{1.0}, constEnergy(0.6), 5.0, 47)
	frame := testFrame(160, 120)
	before := append([]byte(nil), frame.Pix...)

	// Inside the glitch window, where the noise generator runs.
	a := comp.Render(frame, 1.02)
	b := comp.Render(frame, 1.02)

	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("repeated renders of the same frame differ")
	}
	if !bytes.Equal(frame.Pix, before) {
		t.Error("Render modified its input frame")
	}
}

func TestRenderSeedChangesGlitch(t *testing.T) {
	frame := testFrame(160, 120)

	a := NewCompositor(160, 120, []float64{1.0}, constEnergy(0.5), 0, 1).Render(frame, 1.0)
	b := NewCompositor(160, 120, []float64{1.0}, constEnergy(0.5), 0, 2).Render(frame, 1.0)

	if bytes.Equal(a.Pix, b.Pix) {
		t.Error("different seeds produced identical glitch output")
	}
}

func TestRenderAppliesGrade(t *testing.T) {
	comp := NewCompositor(160, 120, nil, constEnergy(0), 0, 47)
	frame := testFrame(160, 120)

	out := comp.Render(frame, 10.0)

	if bytes.Equal(out.Pix, frame.Pix) {
		t.Error("render far from any impact should still grade the frame")
	}

	// Center pixel, odd row so scanlines leave it alone: green boosted,
	// red reduced.
	off := 61*out.Stride + 80*4
	inOff := 61*frame.Stride + 80*4
	if out.Pix[off] >= frame.Pix[inOff] && frame.Pix[inOff] > 0 {
		t.Errorf("red %d not reduced from %d", out.Pix[off], frame.Pix[inOff])
	}
	if out.Pix[off+1] <= frame.Pix[inOff+1] && frame.Pix[inOff+1] < 230 {
		t.Errorf("green %d not boosted from %d", out.Pix[off+1], frame.Pix[inOff+1])
	}
}

func TestRenderKeepsDimensions(t *testing.T) {
	comp := NewCompositor(160, 120, []float64{0.5}, constEnergy(1), 0, 47)
	frame := testFrame(160, 120)

	// Approaching the impact the zoom envelope is active.
	out := comp.Render(frame, 0.4)
	if out.Rect.Dx() != 160 || out.Rect.Dy() != 120 {
		t.Errorf("zoomed frame is %dx%d, want 160x120", out.Rect.Dx(), out.Rect.Dy())
	}
}

func TestVignetteDarkensCorners(t *testing.T) {
	mask := newVignetteMask(100, 100)
	frame := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for i := range frame.Pix {
		frame.Pix[i] = 200
	}

	mask.apply(frame, 0.45)

	corner := frame.Pix[0]
	center := frame.Pix[50*frame.Stride+50*4]
	if corner >= center {
		t.Errorf("corner %d not darker than center %d", corner, center)
	}
	if center != 200 {
		t.Errorf("center darkened to %d, vignette should not reach it", center)
	}
}

func TestDim(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range frame.Pix {
		frame.Pix[i] = 100
	}

	Dim(frame, 0.5)
	if frame.Pix[0] != 50 {
		t.Errorf("Dim(0.5) gave %d, want 50", frame.Pix[0])
	}

	Dim(frame, 1.5)
	if frame.Pix[0] != 50 {
		t.Errorf("Dim above 1 should be a no-op, got %d", frame.Pix[0])
	}
}

func TestApplyZoomNoOpBelowThreshold(t *testing.T) {
	frame := testFrame(64, 48)
	out := applyZoom(frame, 1.0005)
	if out != frame {
		t.Error("zoom below threshold should return the input unchanged")
	}
}

func TestCards(t *testing.T) {
	cards, err := NewCards(640, 360, CardText{
		Title:    "TrustOS",
		Subtitle: "A Modern Operating System",
		Outro:    "github.com/trustos",
	})
	if err != nil {
		t.Fatalf("NewCards: %v", err)
	}

	intro := cards.IntroFrame(1.5, 3.0)
	if intro.Rect.Dx() != 640 || intro.Rect.Dy() != 360 {
		t.Fatalf("intro frame is %dx%d", intro.Rect.Dx(), intro.Rect.Dy())
	}

	// Fully faded in, the glowing title must put bright green pixels
	// near the upper center.
	if !hasBrightGreen(intro, image.Rect(160, 60, 480, 210)) {
		t.Error("intro frame has no visible title text")
	}

	// At t=0 the title alpha is zero.
	dark := cards.IntroFrame(0, 3.0)
	if hasBrightGreen(dark, image.Rect(160, 60, 480, 210)) {
		t.Error("title visible before fade-in started")
	}

	outro := cards.OutroFrame(1.0, 2.5)
	if !hasBrightGreen(outro, image.Rect(0, 120, 640, 240)) {
		t.Error("outro frame has no visible text")
	}
}

func hasBrightGreen(frame *image.RGBA, within image.Rectangle) bool {
	for y := within.Min.Y; y < within.Max.Y; y++ {
		for x := within.Min.X; x < within.Max.X; x++ {
			if frame.Pix[y*frame.Stride+x*4+1] > 100 {
				return true
			}
		}
	}
	return false
}

func TestGlowTextSprite(t *testing.T) {
	sprite, err := renderGlowText("FORGE", 48, titleColor)
	if err != nil {
		t.Fatalf("renderGlowText: %v", err)
	}

	var sum int
	for _, a := range sprite.mask.Pix {
		sum += int(a)
	}
	if sum == 0 {
		t.Fatal("rendered sprite is fully transparent")
	}

	// Glow must extend beyond the sharp glyphs: some coverage should be
	// faint rather than solid.
	var faint, solid int
	for _, a := range sprite.mask.Pix {
		switch {
		case a > 0 && a < 80:
			faint++
		case a > 200:
			solid++
		}
	}
	if faint == 0 || solid == 0 {
		t.Errorf("sprite lacks glow structure: %d faint, %d solid pixels", faint, solid)
	}
}
