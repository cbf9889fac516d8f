package ffmpeg

import (
	"context"
	"fmt"
	"image"

	"github.com/kholt/reelforge/pkg/util"
)

// Source is a handle to a decoded video+audio input. It owns no persistent
// decoder process; individual reads spawn short-lived ffmpeg invocations.
// Temp artifacts produced on its behalf are removed by Close.
type Source struct {
	exec *Executor
	info *VideoInfo
	temp []string
}

// OpenSource probes the input and returns a source handle. A missing,
// unreadable or zero-duration input is a fatal error.
func OpenSource(ctx context.Context, exec *Executor, path string) (*Source, error) {
	info, err := exec.ProbeVideo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("cannot open source: %w", err)
	}
	if info.Duration <= 0 {
		return nil, fmt.Errorf("source %s has zero duration", path)
	}
	return &Source{exec: exec, info: info}, nil
}

// Info returns the probed metadata.
func (s *Source) Info() *VideoInfo {
	return s.info
}

// FrameAt decodes a single frame at time t (seconds) as RGBA.
func (s *Source) FrameAt(ctx context.Context, t float64) (*image.RGBA, error) {
	if t < 0 {
		t = 0
	}
	if max := s.info.Seconds() - 0.1; t > max && max > 0 {
		t = max
	}

	args := []string{
		"-ss", util.FormatSeconds(t),
		"-i", s.info.FilePath,
		"-frames:v", "1",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	}

	data, err := s.exec.RunCapture(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("frame decode at %.2fs: %w", t, err)
	}

	w, h := s.info.Width, s.info.Height
	if len(data) < w*h*4 {
		return nil, fmt.Errorf("short frame read at %.2fs: got %d bytes, want %d", t, len(data), w*h*4)
	}

	img := &image.RGBA{
		Pix:    data[:w*h*4],
		Stride: w * 4,
		Rect:   image.Rect(0, 0, w, h),
	}
	return img, nil
}

// track registers a temp artifact for removal on Close.
func (s *Source) track(path string) {
	s.temp = append(s.temp, path)
}

// Close releases the handle and removes temp artifacts extracted from it.
func (s *Source) Close() error {
	util.CleanupFiles(s.temp...)
	s.temp = nil
	return nil
}
