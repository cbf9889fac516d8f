package fx

import (
	"image"
	"math"
	"math/rand"
)

// EnergyFunc answers normalized audio energy in [0,1] at an absolute
// source time.
type EnergyFunc func(t float64) float64

// Effect stack constants. The zoom envelope builds toward each impact and
// releases faster after it; glitch and flash are short impulses around the
// impact instant.
const (
	zoomWindow   = 1.5
	zoomBuildup  = 0.18
	zoomRelease  = 0.22
	zoomReleaseW = 0.8
	zoomEnergy   = 0.04
	zoomMin      = 1.005

	glitchWindow   = 0.12
	glitchStrength = 0.7

	flashWindow   = 0.04
	flashStrength = 0.5

	gradeGreenBoost = 1.08
	gradeWarmth     = 0.94
	scanlineOpacity = 0.04

	vignetteBase   = 0.45
	vignetteEnergy = 0.2
	vignetteFloor  = 0.15
)

// Compositor applies the per-frame effect stack: zoom envelope, glitch and
// flash impulses around impacts, and a persistent grade with scanlines and
// an energy-weighted vignette. Rendering is a pure function of the frame
// and its timestamps; no state survives between calls, so re-rendering the
// same frame produces byte-identical output.
type Compositor struct {
	impacts  []float64 // segment-relative
	energy   EnergyFunc
	segStart float64
	seed     int64
	mask     *vignetteMask
}

// NewCompositor builds a compositor for one segment. impacts are relative
// to the segment start; energy is queried at absolute source time. seed
// fixes the glitch noise for the whole build.
func NewCompositor(width, height int, impacts []float64, energy EnergyFunc, segStart float64, seed int64) *Compositor {
	own := make([]float64, len(impacts))
	copy(own, impacts)
	return &Compositor{
		impacts:  own,
		energy:   energy,
		segStart: segStart,
		seed:     seed,
		mask:     newVignetteMask(width, height),
	}
}

// Render applies the effect stack to raw at output time t (seconds into
// the segment). The input frame is not modified.
func (c *Compositor) Render(raw *image.RGBA, t float64) *image.RGBA {
	frame := clone(raw)
	energy := c.energy(t + c.segStart)

	// Zoom: strongest envelope across all impacts, plus a small
	// continuous term from the current energy.
	zoom := 1.0
	for _, imp := range c.impacts {
		dt := math.Abs(t - imp)
		if dt >= zoomWindow {
			continue
		}
		var add float64
		if t < imp {
			add = (1.0 - dt/zoomWindow) * zoomBuildup
		} else {
			add = math.Max(0, 1.0-dt/zoomReleaseW) * zoomRelease
		}
		if z := 1.0 + add; z > zoom {
			zoom = z
		}
	}
	zoom += energy * zoomEnergy

	if zoom > zoomMin {
		frame = applyZoom(frame, zoom)
	}

	// Glitch and flash impulses around each impact.
	for _, imp := range c.impacts {
		dt := math.Abs(t - imp)
		if dt < glitchWindow {
			intensity := (glitchWindow - dt) / glitchWindow
			applyGlitch(frame, intensity*glitchStrength, c.frameRand(t))
			if dt < flashWindow {
				applyFlash(frame, (flashWindow-dt)/flashWindow*flashStrength)
			}
		}
	}

	// Persistent grade.
	applyColorGrade(frame, gradeGreenBoost, gradeWarmth)
	applyScanlines(frame, scanlineOpacity)

	vig := vignetteBase - energy*vignetteEnergy
	if vig < vignetteFloor {
		vig = vignetteFloor
	}
	c.mask.apply(frame, vig)

	return frame
}

// frameRand derives a generator from the build seed and the frame
// timestamp, so glitch noise varies per frame yet identical inputs render
// identically.
func (c *Compositor) frameRand(t float64) *rand.Rand {
	return rand.New(rand.NewSource(c.seed ^ int64(math.Round(t*1e6))))
}
