package analyze

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestSelectSegmentCoversImpacts(t *testing.T) {
	impacts := []float64{5, 20, 40}
	seg := SelectSegment(zerolog.Nop(), 60, 30, impacts, FlatProfile(0))

	// Two windows tie at two impacts each; the earliest wins.
	if seg.Start != 0 {
		t.Errorf("Start = %v, want 0 (earliest best window)", seg.Start)
	}
	if !seg.Contains(5) || !seg.Contains(20) {
		t.Errorf("segment %+v should contain impacts at 5 and 20", seg)
	}
	if seg.End > 60 {
		t.Errorf("End = %v, exceeds source duration", seg.End)
	}
}

func TestSelectSegmentAvoidsLoudStart(t *testing.T) {
	// Energy is maxed during the first five seconds, which should push
	// the window past the loud opening despite the impact coverage tie.
	times := make([]float64, 60)
	values := make([]float64, 60)
	for i := range times {
		times[i] = float64(i)
		if i < 5 {
			values[i] = 1.0
		}
	}
	energy := Profile{times: times, values: values}

	seg := SelectSegment(zerolog.Nop(), 60, 30, []float64{10, 25}, energy)

	if seg.Start < 5 {
		t.Errorf("Start = %v, expected the loud opening to be skipped", seg.Start)
	}
	if !seg.Contains(10) || !seg.Contains(25) {
		t.Errorf("segment %+v should still contain both impacts", seg)
	}
}

func TestSelectSegmentShortSource(t *testing.T) {
	seg := SelectSegment(zerolog.Nop(), 3, 30, nil, FlatProfile(0))

	if seg.Start != 0 {
		t.Errorf("Start = %v, want 0 for a source shorter than the window", seg.Start)
	}
	if seg.End > 3 {
		t.Errorf("End = %v, exceeds source duration 3", seg.End)
	}
	if seg.Duration() <= 0 {
		t.Errorf("segment %+v has non-positive duration", seg)
	}
}

func TestSelectSegmentDegenerateSource(t *testing.T) {
	seg := SelectSegment(zerolog.Nop(), 0.05, 30, nil, FlatProfile(0))

	if seg.Start != 0 || seg.End != 0.05 {
		t.Errorf("segment %+v, want the whole 0.05s source", seg)
	}
}

func TestSelectSegmentBounds(t *testing.T) {
	durations := []float64{0.5, 2, 10, 35, 120}
	for _, d := range durations {
		seg := SelectSegment(zerolog.Nop(), d, 30, []float64{1, 3, 9}, FlatProfile(0.2))
		if seg.Start < 0 || seg.End > d || seg.Start >= seg.End {
			t.Errorf("duration %v: invalid segment %+v", d, seg)
		}
	}
}
