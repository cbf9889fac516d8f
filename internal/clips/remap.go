package clips

// Freeze parameters: for a short window after each impact the video's
// source time advances at a fraction of normal speed while the audio plays
// on unmodified.
const (
	FreezeWindow = 0.25
	FreezeRate   = 0.15

	// Source lookups stay this far from the segment's end so the last
	// frame is always decodable.
	endGuard = 0.05
)

// Remap maps output playback time to source playback time for one segment,
// producing an apparent freeze at each impact. It applies to the video
// stream only; the audio for the same interval is never remapped. The
// value is immutable: it owns a private copy of its impact list.
type Remap struct {
	impacts []float64 // relative to segment start, ascending
	length  float64
}

// NewRemap builds a remap for a segment of the given length with the given
// segment-relative impact times.
func NewRemap(impacts []float64, length float64) *Remap {
	own := make([]float64, len(impacts))
	copy(own, impacts)
	return &Remap{impacts: own, length: length}
}

// Empty reports whether the remap has no freeze windows, in which case it
// is the identity (modulo end clamping).
func (r *Remap) Empty() bool {
	return len(r.impacts) == 0
}

// SourceTime maps an output time t in [0, length) to a source time.
// Inside a freeze window the source advances at FreezeRate of normal
// speed; outside, the mapping is identity. Overlapping windows resolve
// first-match-wins in timestamp order. The result is clamped to
// [0, length-endGuard].
func (r *Remap) SourceTime(t float64) float64 {
	for _, imp := range r.impacts {
		if t >= imp && t < imp+FreezeWindow {
			progress := (t - imp) / FreezeWindow
			return r.clamp(imp + progress*FreezeWindow*FreezeRate)
		}
		if imp > t {
			break
		}
	}
	return r.clamp(t)
}

func (r *Remap) clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if max := r.length - endGuard; t > max {
		if max < 0 {
			return 0
		}
		return max
	}
	return t
}
