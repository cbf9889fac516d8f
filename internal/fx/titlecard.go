package fx

import (
	"image"
	"image/color"
	"math"
)

// Card text colors and layout.
var (
	titleColor = color.RGBA{R: 0, G: 255, B: 100, A: 255}
	dimColor   = color.RGBA{R: 0, G: 180, B: 60, A: 255}
)

const (
	titleSize    = 80
	subtitleSize = 32
	outroSize    = 36

	gridStep  = 50
	gridSpeed = 30

	cardVignette = 0.5
)

// CardText holds the strings shown on the intro and outro cards.
type CardText struct {
	Title    string
	Subtitle string
	Outro    string
}

// Cards renders the intro and outro title cards. Text sprites are
// rasterized once up front; per-frame work is a grid fill and a couple of
// alpha composites.
type Cards struct {
	width  int
	height int

	title    *textSprite
	subtitle *textSprite
	outro    *textSprite

	mask *vignetteMask
}

// NewCards pre-renders the card text at the output resolution.
func NewCards(width, height int, text CardText) (*Cards, error) {
	title, err := renderGlowText(text.Title, titleSize, titleColor)
	if err != nil {
		return nil, err
	}
	subtitle, err := renderGlowText(text.Subtitle, subtitleSize, dimColor)
	if err != nil {
		return nil, err
	}
	outro, err := renderGlowText(text.Outro, outroSize, dimColor)
	if err != nil {
		return nil, err
	}
	return &Cards{
		width:    width,
		height:   height,
		title:    title,
		subtitle: subtitle,
		outro:    outro,
		mask:     newVignetteMask(width, height),
	}, nil
}

// IntroFrame renders the intro card at t seconds into a card of the given
// duration: an animated grid, the title fading in over the first second,
// and the subtitle trailing it by 0.6s. Both fade out over the last 0.5s.
func (c *Cards) IntroFrame(t, duration float64) *image.RGBA {
	frame := c.gridBackground(t)

	a := 1.0
	switch {
	case t < 1.0:
		a = t
	case t > duration-0.5:
		a = (duration - t) / 0.5
	}
	a = clamp01(a)

	c.title.draw(frame, c.width/2, c.height/2-30, a)

	if t > 0.6 {
		sa := math.Min(1, (t-0.6)/0.6) * a
		subY := (c.height+c.title.height())/2 + c.subtitle.height()/2
		c.subtitle.draw(frame, c.width/2, subY, sa)
	}

	c.mask.apply(frame, cardVignette)
	return frame
}

// OutroFrame renders the outro card at t seconds: the closing text fades
// in over 0.5s and out over the final 0.8s on a black background.
func (c *Cards) OutroFrame(t, duration float64) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	fillOpaqueBlack(frame)

	a := 1.0
	switch {
	case t < 0.5:
		a = t / 0.5
	case t > duration-0.8:
		a = (duration - t) / 0.8
	}

	c.outro.draw(frame, c.width/2, c.height/2, clamp01(a))
	c.mask.apply(frame, cardVignette)
	return frame
}

// gridBackground fills a black frame with dim green grid lines whose
// brightness drifts with a sine over the card phase.
func (c *Cards) gridBackground(t float64) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	fillOpaqueBlack(frame)

	phase := t * gridSpeed
	for gy := 0; gy < c.height; gy += gridStep {
		val := uint8(6 + 3*math.Sin((float64(gy)+phase)*0.04))
		row := frame.Pix[gy*frame.Stride : gy*frame.Stride+c.width*4]
		for x := 0; x < c.width; x++ {
			row[x*4+1] = val
		}
	}
	for gx := 0; gx < c.width; gx += gridStep {
		val := uint8(5 + 2*math.Sin((float64(gx)+phase)*0.03))
		for y := 0; y < c.height; y++ {
			frame.Pix[y*frame.Stride+gx*4+1] = val
		}
	}
	return frame
}

func fillOpaqueBlack(frame *image.RGBA) {
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
