package analyze

import (
	"github.com/rs/zerolog"

	"github.com/kholt/reelforge/internal/clips"
)

// SelectSegment scans candidate start offsets of a fixed-length window over
// the source duration and picks the one that covers the most impacts while
// not opening on a loud moment. The score is a fixed policy:
//
//	score = 2*impacts_in_window - 3*energy_at_start
//
// Candidates advance at 1.0s resolution; ties go to the earliest start.
// The returned segment always satisfies 0 <= start < end <= srcDuration,
// shrinking to fit when the source is shorter than the requested content.
func SelectSegment(logger zerolog.Logger, srcDuration, contentDuration float64, impacts []float64, energy Profile) clips.Segment {
	log := logger.With().Str("component", "segment-selector").Logger()

	bestStart := 0.0
	bestScore := float64(-1 << 30)

	limit := srcDuration - contentDuration - 1
	if limit < 0.1 {
		limit = 0.1
	}

	for start := 0.0; start < limit; start += 1.0 {
		count := 0
		for _, it := range impacts {
			if it >= start && it <= start+contentDuration {
				count++
			}
		}
		score := float64(count)*2 - energy.At(start)*3
		if score > bestScore {
			bestScore = score
			bestStart = start
		}
	}

	// Shift back if the window would overrun the end of the source.
	if bestStart+contentDuration > srcDuration {
		bestStart = srcDuration - contentDuration - 0.5
		if bestStart < 0 {
			bestStart = 0
		}
	}

	end := bestStart + contentDuration
	if max := srcDuration - 0.1; end > max {
		end = max
	}
	if end <= bestStart {
		// Degenerate source shorter than the guard margin; take all of it.
		bestStart = 0
		end = srcDuration
	}

	seg := clips.Segment{Start: bestStart, End: end}

	log.Info().
		Float64("start", seg.Start).
		Float64("end", seg.End).
		Float64("score", bestScore).
		Int("impacts_in_range", len(seg.RelativeImpacts(impacts))).
		Msg("segment selected")

	return seg
}
