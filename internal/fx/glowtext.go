package fx

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// glowPad leaves room around the glyphs for the widest glow halo.
const glowPad = 32

// Glow passes, widest and faintest first. The sharp text is drawn last at
// full alpha on top of the halos.
var glowPasses = []struct {
	radius int
	alpha  uint8
}{
	{25, 40},
	{15, 70},
	{8, 100},
}

// textSprite is a pre-rendered glowing string. The color is applied at
// composite time so one sprite serves any opacity ramp.
type textSprite struct {
	mask *image.Alpha
	col  color.RGBA
}

// renderGlowText rasterizes text at the given size with a layered glow
// halo. The bundled monospace face keeps output deterministic across
// systems.
func renderGlowText(text string, size float64, col color.RGBA) (*textSprite, error) {
	parsed, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	adv := font.MeasureString(face, text)
	metrics := face.Metrics()
	w := adv.Ceil() + 2*glowPad
	h := metrics.Ascent.Ceil() + metrics.Descent.Ceil() + 2*glowPad

	sharp := image.NewAlpha(image.Rect(0, 0, w, h))
	drawer := font.Drawer{
		Dst:  sharp,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(glowPad, glowPad+metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)

	combined := image.NewAlpha(image.Rect(0, 0, w, h))
	for _, pass := range glowPasses {
		accumulateAlpha(combined, blurAlpha(sharp, pass.radius), pass.alpha)
	}
	accumulateAlpha(combined, sharp, 255)

	return &textSprite{mask: combined, col: col}, nil
}

// draw composites the sprite centered on (cx, cy) with the given opacity.
func (s *textSprite) draw(dst *image.RGBA, cx, cy int, opacity float64) {
	x0 := cx - s.mask.Rect.Dx()/2
	y0 := cy - s.mask.Rect.Dy()/2
	drawMask(dst, s.mask, x0, y0, s.col, opacity)
}

func (s *textSprite) height() int {
	return s.mask.Rect.Dy()
}

// accumulateAlpha layers src over dst with an extra scale, using the
// standard over operator on coverage.
func accumulateAlpha(dst, src *image.Alpha, scale uint8) {
	k := float64(scale) / 255
	for i := range dst.Pix {
		s := float64(src.Pix[i]) / 255 * k
		d := float64(dst.Pix[i]) / 255
		v := (s + d*(1-s)) * 255
		if v > 255 {
			v = 255
		}
		dst.Pix[i] = uint8(v)
	}
}
