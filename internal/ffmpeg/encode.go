package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/kholt/reelforge/pkg/util"
)

// AudioTrack places an unmodified interval of source audio inside the
// encoded output, delayed by Offset with fades at both ends.
type AudioTrack struct {
	Path     string
	Start    float64 // source offset, seconds
	Duration float64
	Offset   float64 // placement in the output timeline
	FadeIn   float64
	FadeOut  float64
}

// EncodeOptions configures the streaming frame encoder.
type EncodeOptions struct {
	Output       string
	Width        int
	Height       int
	FPS          float64
	TotalFrames  int
	Bitrate      string
	Preset       string
	Audio        *AudioTrack // nil renders silent
	ShowProgress bool
}

// RenderFunc produces the RGBA frame for output frame index i.
type RenderFunc func(i int) (*image.RGBA, error)

// EncodeFrames runs a single encode pass, pulling frames one at a time from
// render and feeding them to ffmpeg over stdin as raw RGBA. The output is
// written to a temp sibling path and renamed into place on success, so an
// interrupted build never leaves a corrupt file at the target path.
func (e *Executor) EncodeFrames(ctx context.Context, opts EncodeOptions, render RenderFunc) error {
	if opts.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if opts.TotalFrames <= 0 {
		return fmt.Errorf("nothing to encode: total frames is %d", opts.TotalFrames)
	}

	tempOut := util.TempSibling(opts.Output)
	defer os.Remove(tempOut)

	args := e.encodeArgs(opts, tempOut)

	e.logger.Info().
		Str("output", opts.Output).
		Int("frames", opts.TotalFrames).
		Bool("audio", opts.Audio != nil).
		Msg("starting encode")
	e.logger.Debug().Strs("args", args).Msg("encoder command")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var errBuf strings.Builder
	cmd.Stderr = &limitedWriter{w: &errBuf, n: 8 << 10}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start encoder: %w", err)
	}

	var bar *progressbar.ProgressBar
	if opts.ShowProgress {
		bar = progressbar.NewOptions(opts.TotalFrames,
			progressbar.OptionSetDescription("encoding"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("fps"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	w := bufio.NewWriterSize(stdin, opts.Width*4*64)
	feedErr := e.feedFrames(ctx, w, opts, render, bar)

	if flushErr := w.Flush(); feedErr == nil && flushErr != nil {
		feedErr = fmt.Errorf("flushing frames: %w", flushErr)
	}
	stdin.Close()

	waitErr := cmd.Wait()
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	if feedErr != nil {
		// A broken pipe from the feed loop means the encoder died first;
		// the cause is in its stderr, not in the write error.
		if msg := tail(errBuf.String(), 400); waitErr != nil && msg != "" {
			return fmt.Errorf("%w (encoder: %s)", feedErr, msg)
		}
		return feedErr
	}
	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("encode failed: %w: %s", waitErr, tail(errBuf.String(), 400))
	}

	if err := os.Rename(tempOut, opts.Output); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	e.logger.Info().Str("output", opts.Output).Msg("encode complete")
	return nil
}

func (e *Executor) feedFrames(ctx context.Context, w *bufio.Writer, opts EncodeOptions, render RenderFunc, bar *progressbar.ProgressBar) error {
	rowBytes := opts.Width * 4

	for i := 0; i < opts.TotalFrames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := render(i)
		if err != nil {
			return fmt.Errorf("rendering frame %d: %w", i, err)
		}
		if frame.Rect.Dx() != opts.Width || frame.Rect.Dy() != opts.Height {
			return fmt.Errorf("frame %d is %dx%d, want %dx%d",
				i, frame.Rect.Dx(), frame.Rect.Dy(), opts.Width, opts.Height)
		}

		if frame.Stride == rowBytes {
			if _, err := w.Write(frame.Pix[:rowBytes*opts.Height]); err != nil {
				return fmt.Errorf("writing frame %d: %w", i, err)
			}
		} else {
			for y := 0; y < opts.Height; y++ {
				row := frame.Pix[y*frame.Stride : y*frame.Stride+rowBytes]
				if _, err := w.Write(row); err != nil {
					return fmt.Errorf("writing frame %d: %w", i, err)
				}
			}
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return nil
}

func (e *Executor) encodeArgs(opts EncodeOptions, tempOut string) []string {
	args := e.baseArgs()

	// Raw frame input on stdin.
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-framerate", fmt.Sprintf("%g", opts.FPS),
		"-i", "pipe:0",
	)

	if opts.Audio != nil {
		a := opts.Audio
		args = append(args,
			"-ss", util.FormatSeconds(a.Start),
			"-t", util.FormatSeconds(a.Duration),
			"-i", a.Path,
			"-map", "0:v", "-map", "1:a",
			"-af", audioFilter(a),
			"-c:a", DefaultAudioCodec,
			"-b:a", "192k",
		)
	} else {
		args = append(args, "-map", "0:v", "-an")
	}

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	args = append(args,
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-pix_fmt", DefaultPixFmt,
	)
	if opts.Bitrate != "" {
		args = append(args, "-b:v", opts.Bitrate)
	}
	args = append(args, "-movflags", "+faststart", "-f", "mp4", tempOut)

	return args
}

// audioFilter delays the extracted interval to its output position and
// applies the edge fades. Fade times are in the delayed timeline.
func audioFilter(a *AudioTrack) string {
	var parts []string
	if a.Offset > 0 {
		parts = append(parts, fmt.Sprintf("adelay=delays=%d:all=1", int(a.Offset*1000)))
	}
	if a.FadeIn > 0 {
		parts = append(parts, fmt.Sprintf("afade=t=in:st=%s:d=%s",
			util.FormatSeconds(a.Offset), util.FormatSeconds(a.FadeIn)))
	}
	if a.FadeOut > 0 {
		st := a.Offset + a.Duration - a.FadeOut
		if st < a.Offset {
			st = a.Offset
		}
		parts = append(parts, fmt.Sprintf("afade=t=out:st=%s:d=%s",
			util.FormatSeconds(st), util.FormatSeconds(a.FadeOut)))
	}
	if len(parts) == 0 {
		return "anull"
	}
	return strings.Join(parts, ",")
}

// limitedWriter keeps only the first n bytes, enough for error context.
type limitedWriter struct {
	w *strings.Builder
	n int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if remain := l.n - l.w.Len(); remain > 0 {
		if len(p) > remain {
			l.w.Write(p[:remain])
		} else {
			l.w.Write(p)
		}
	}
	return len(p), nil
}
