package analyze

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/kholt/reelforge/internal/ffmpeg"
)

const (
	rmsWindow = 1024
	rmsHop    = 512

	// Impacts closer together than this are collapsed to the first one.
	ImpactSpacing = 2.0

	// Only onsets louder than this percentile of the whole profile count
	// as impacts.
	onsetGatePercentile = 85
)

// Profile is a time-indexed loudness curve normalized to [0,1]. A profile
// with no samples answers every lookup with its fallback value.
type Profile struct {
	times    []float64
	values   []float64
	fallback float64
}

// FlatProfile returns a constant profile, the degraded-audio fallback.
func FlatProfile(v float64) Profile {
	return Profile{fallback: v}
}

// At returns the energy at time t using the nearest sample.
func (p Profile) At(t float64) float64 {
	if len(p.times) == 0 {
		return p.fallback
	}
	i := p.nearest(t)
	return p.values[i]
}

// Interpolated returns the energy at time t, linearly interpolated between
// the bracketing samples.
func (p Profile) Interpolated(t float64) float64 {
	n := len(p.times)
	if n == 0 {
		return p.fallback
	}
	if t <= p.times[0] {
		return p.values[0]
	}
	if t >= p.times[n-1] {
		return p.values[n-1]
	}

	i := p.nearest(t)
	if p.times[i] > t {
		i--
	}
	span := p.times[i+1] - p.times[i]
	if span <= 0 {
		return p.values[i]
	}
	frac := (t - p.times[i]) / span
	return p.values[i]*(1-frac) + p.values[i+1]*frac
}

// Len reports the number of samples in the profile.
func (p Profile) Len() int {
	return len(p.times)
}

func (p Profile) nearest(t float64) int {
	best, bestDist := 0, math.Inf(1)
	// Samples are uniformly spaced; index arithmetic beats scanning.
	if len(p.times) > 1 {
		step := p.times[1] - p.times[0]
		if step > 0 {
			i := int(t/step + 0.5)
			if i < 0 {
				i = 0
			}
			if i >= len(p.times) {
				i = len(p.times) - 1
			}
			return i
		}
	}
	for i, ti := range p.times {
		if d := math.Abs(ti - t); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// AnalyzeAudio computes the normalized RMS energy profile and the impact
// list from decoded mono PCM. A nil pcm means the audio capability is
// unavailable; the analysis degrades to a flat 0.5 profile with no impacts
// rather than failing, and the rest of the pipeline runs on baseline
// effects only.
func AnalyzeAudio(logger zerolog.Logger, pcm *ffmpeg.PCMData) (Profile, []float64) {
	log := logger.With().Str("component", "audio-energy").Logger()

	if pcm == nil || len(pcm.Samples) == 0 || pcm.SampleRate <= 0 {
		log.Warn().Msg("no decoded audio available, using flat energy profile")
		return FlatProfile(0.5), nil
	}

	profile := rmsProfile(pcm)
	onsets := detectOnsets(profile)
	impacts := filterImpacts(profile, onsets)

	log.Info().
		Int("profile_samples", profile.Len()).
		Int("onsets", len(onsets)).
		Int("impacts", len(impacts)).
		Msg("audio analysis complete")

	return profile, impacts
}

// rmsProfile computes short-time RMS energy over overlapping windows,
// normalized by the maximum observed value.
func rmsProfile(pcm *ffmpeg.PCMData) Profile {
	samples := pcm.Samples
	n := (len(samples) + rmsHop - 1) / rmsHop

	times := make([]float64, 0, n)
	values := make([]float64, 0, n)
	maxRMS := 0.0

	for i := 0; i*rmsHop < len(samples); i++ {
		start := i * rmsHop
		end := start + rmsWindow
		if end > len(samples) {
			end = len(samples)
		}

		var sum float64
		for _, s := range samples[start:end] {
			sum += s * s
		}
		rms := math.Sqrt(sum / float64(end-start))

		times = append(times, float64(start)/float64(pcm.SampleRate))
		values = append(values, rms)
		if rms > maxRMS {
			maxRMS = rms
		}
	}

	if maxRMS <= 0 {
		maxRMS = 1
	}
	for i := range values {
		values[i] /= maxRMS
	}

	return Profile{times: times, values: values, fallback: 0}
}

// detectOnsets finds transient peaks in the energy flux envelope.
func detectOnsets(p Profile) []float64 {
	if p.Len() < 3 {
		return nil
	}

	flux := make([]float64, p.Len())
	for i := 1; i < p.Len(); i++ {
		if d := p.values[i] - p.values[i-1]; d > 0 {
			flux[i] = d
		}
	}

	mean, std := meanStd(flux)
	thresh := mean + 1.5*std

	var onsets []float64
	for i := 1; i < len(flux)-1; i++ {
		if flux[i] > thresh && flux[i] > flux[i-1] && flux[i] >= flux[i+1] {
			onsets = append(onsets, p.times[i])
		}
	}
	return onsets
}

// filterImpacts keeps only loud onsets and enforces the minimum spacing
// invariant by greedy selection in time order.
func filterImpacts(p Profile, onsets []float64) []float64 {
	if len(onsets) == 0 {
		return nil
	}

	gate := percentile(p.values, onsetGatePercentile)

	var strong []float64
	for _, t := range onsets {
		if p.Interpolated(t) > gate {
			strong = append(strong, t)
		}
	}

	var impacts []float64
	for _, t := range strong {
		if len(impacts) == 0 || t-impacts[len(impacts)-1] > ImpactSpacing {
			impacts = append(impacts, t)
		}
	}
	return impacts
}
