package clips

// Segment is a chosen continuous sub-interval of a source clip, in seconds.
type Segment struct {
	Start float64
	End   float64
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Contains reports whether t (absolute source time) lies in the segment.
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t <= s.End
}

// RelativeImpacts filters impact timestamps to those inside the segment and
// shifts them to be relative to the segment start. Impacts outside the
// segment are dropped silently.
func (s Segment) RelativeImpacts(impacts []float64) []float64 {
	var rel []float64
	for _, t := range impacts {
		if s.Contains(t) {
			rel = append(rel, t-s.Start)
		}
	}
	return rel
}
