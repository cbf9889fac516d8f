package pipeline

import (
	"image"

	"github.com/kholt/reelforge/internal/clips"
	"github.com/kholt/reelforge/internal/ffmpeg"
)

// BuildOptions configures a single showcase build.
type BuildOptions struct {
	Input  string
	Output string

	// TargetDuration overrides the configured output length in seconds.
	// Zero means use the config value.
	TargetDuration int
}

// Report summarizes what analysis decided for a source, without rendering
// anything.
type Report struct {
	Info    *ffmpeg.VideoInfo
	Region  image.Rectangle
	Impacts []float64
	Segment clips.Segment

	// AudioOK is false when the source had no decodable audio and the
	// build fell back to a flat energy profile.
	AudioOK bool
}
