package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"math"
	"os/exec"
	"strings"

	"github.com/kholt/reelforge/pkg/util"
)

// StreamOptions configures a sequential frame decode of one source interval.
type StreamOptions struct {
	Start    float64
	Duration float64
	Crop     image.Rectangle // zero rectangle = no crop
	Width    int             // output scale
	Height   int
	FPS      float64
}

// FrameStream decodes an interval of a video as a forward-only sequence of
// RGBA frames. Random access is limited to monotonically non-decreasing
// times, which is all a monotonic time-remap needs; memory stays bounded at
// one frame regardless of interval length.
type FrameStream struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	r      *bufio.Reader
	opts   StreamOptions

	frame *image.RGBA
	idx   int
	eof   bool
}

// OpenFrameStream starts a decoder for the given interval of input.
func (e *Executor) OpenFrameStream(ctx context.Context, input string, opts StreamOptions) (*FrameStream, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("stream scale %dx%d is invalid", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("stream fps must be positive")
	}

	var filters []string
	if !opts.Crop.Empty() {
		filters = append(filters, fmt.Sprintf("crop=%d:%d:%d:%d",
			opts.Crop.Dx(), opts.Crop.Dy(), opts.Crop.Min.X, opts.Crop.Min.Y))
	}
	filters = append(filters,
		fmt.Sprintf("scale=%d:%d:flags=lanczos", opts.Width, opts.Height),
		fmt.Sprintf("fps=%g", opts.FPS),
	)

	args := e.baseArgs()
	args = append(args,
		"-ss", util.FormatSeconds(opts.Start),
		"-t", util.FormatSeconds(opts.Duration),
		"-i", input,
		"-vf", strings.Join(filters, ","),
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)

	streamCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(streamCtx, e.ffmpegPath, args...)
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start frame decoder: %w", err)
	}

	e.logger.Debug().
		Float64("start", opts.Start).
		Float64("duration", opts.Duration).
		Msg("frame stream started")

	return &FrameStream{
		cmd:    cmd,
		cancel: cancel,
		r:      bufio.NewReaderSize(stdout, opts.Width*4*64),
		opts:   opts,
		frame: &image.RGBA{
			Pix:    make([]uint8, opts.Width*opts.Height*4),
			Stride: opts.Width * 4,
			Rect:   image.Rect(0, 0, opts.Width, opts.Height),
		},
		idx: -1,
	}, nil
}

// FrameAt returns the decoded frame covering time t (seconds relative to
// the interval start). Requests must not go backward in time; earlier times
// return the current frame. Past the end of the stream the last decoded
// frame is held. The returned image is valid until the next FrameAt call.
func (s *FrameStream) FrameAt(t float64) (*image.RGBA, error) {
	target := frameIndex(t, s.opts.FPS)

	for s.idx < target && !s.eof {
		if _, err := io.ReadFull(s.r, s.frame.Pix); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				if s.idx < 0 {
					return nil, fmt.Errorf("frame stream produced no frames")
				}
				s.eof = true
				break
			}
			return nil, fmt.Errorf("frame read failed at index %d: %w", s.idx+1, err)
		}
		s.idx++
	}

	return s.frame, nil
}

// frameIndex maps a time offset to its frame index. Callers pass times that
// came from index/fps division, so the product can land one ulp below the
// integer; rounding keeps those exact where truncation would fall a frame
// behind.
func frameIndex(t, fps float64) int {
	i := int(math.Round(t * fps))
	if i < 0 {
		return 0
	}
	return i
}

// Close stops the decoder process.
func (s *FrameStream) Close() error {
	s.cancel()
	_ = s.cmd.Wait()
	return nil
}
