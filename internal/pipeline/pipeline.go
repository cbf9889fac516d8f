package pipeline

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog"

	"github.com/kholt/reelforge/internal/analyze"
	"github.com/kholt/reelforge/internal/clips"
	"github.com/kholt/reelforge/internal/config"
	"github.com/kholt/reelforge/internal/ffmpeg"
	"github.com/kholt/reelforge/internal/fx"
)

// Audio placement relative to the rendered timeline.
const (
	audioFadeIn  = 0.3
	audioFadeOut = 1.5

	// Content frames fade from and to black over this long at the
	// segment edges.
	contentFade = 0.5
)

// Pipeline orchestrates the full build: probe, analyze, select, render,
// encode.
type Pipeline struct {
	logger zerolog.Logger
	cfg    *config.Config
	ffmpeg *ffmpeg.Executor
}

// New creates a pipeline using the configured ffmpeg binary.
func New(logger zerolog.Logger, cfg *config.Config) (*Pipeline, error) {
	exec, err := ffmpeg.New(logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.Threads)
	if err != nil {
		return nil, fmt.Errorf("initializing ffmpeg: %w", err)
	}

	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		cfg:    cfg,
		ffmpeg: exec,
	}, nil
}

// Probe returns source metadata without any analysis.
func (p *Pipeline) Probe(ctx context.Context, input string) (*ffmpeg.VideoInfo, error) {
	return p.ffmpeg.ProbeVideo(ctx, input)
}

// analysis is everything the render stage needs to know about a source.
type analysis struct {
	report Report
	energy analyze.Profile
}

// Analyze runs the analysis stages on a source and reports what a build
// with the same settings would do.
func (p *Pipeline) Analyze(ctx context.Context, input string, targetDuration int) (*Report, error) {
	content, err := p.contentDuration(targetDuration)
	if err != nil {
		return nil, err
	}

	src, err := ffmpeg.OpenSource(ctx, p.ffmpeg, input)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	res, err := p.analyzeSource(ctx, src, content)
	if err != nil {
		return nil, err
	}
	return &res.report, nil
}

func (p *Pipeline) analyzeSource(ctx context.Context, src *ffmpeg.Source, contentDuration float64) (*analysis, error) {
	info := src.Info()

	region := analyze.DetectRegion(ctx, p.logger, src,
		info.Width, info.Height, info.Seconds(), p.cfg.Analysis.RegionSamples)

	// A source without decodable audio still builds; analysis degrades
	// to a flat energy profile with no impacts.
	pcm, err := src.DecodePCM(ctx, 0, p.cfg.Analysis.SampleRate)
	audioOK := err == nil
	if err != nil {
		p.logger.Warn().Err(err).Msg("audio unavailable, using flat energy profile")
		pcm = nil
	}
	energy, impacts := analyze.AnalyzeAudio(p.logger, pcm)

	seg := analyze.SelectSegment(p.logger, info.Seconds(), contentDuration, impacts, energy)

	return &analysis{
		report: Report{
			Info:    info,
			Region:  region,
			Impacts: impacts,
			Segment: seg,
			AudioOK: audioOK,
		},
		energy: energy,
	}, nil
}

// Build renders a complete showcase video to opts.Output.
func (p *Pipeline) Build(ctx context.Context, opts BuildOptions) error {
	if opts.Input == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if opts.Output == "" {
		return fmt.Errorf("output path cannot be empty")
	}

	content, err := p.contentDuration(opts.TargetDuration)
	if err != nil {
		return err
	}

	introDur := p.cfg.Intro.Duration
	outroDur := p.cfg.Outro.Duration
	fps := p.cfg.Output.FPS
	width := p.cfg.Output.Width
	height := p.cfg.Output.Height

	p.logger.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Msg("starting build")

	src, err := ffmpeg.OpenSource(ctx, p.ffmpeg, opts.Input)
	if err != nil {
		return err
	}

	res, err := p.analyzeSource(ctx, src, content)
	// Analysis has extracted everything it needs into its own buffers;
	// the source handle and its temp artifacts are not held through the
	// encode.
	src.Close()
	if err != nil {
		return err
	}

	seg := res.report.Segment
	actual := seg.Duration()
	relImpacts := seg.RelativeImpacts(res.report.Impacts)

	// The freeze remap resamples time within the segment without
	// changing its length, so the unmodified audio for the same interval
	// stays aligned.
	remap := clips.NewRemap(relImpacts, actual)

	stream, err := p.ffmpeg.OpenFrameStream(ctx, opts.Input, ffmpeg.StreamOptions{
		Start:    seg.Start,
		Duration: actual,
		Crop:     res.report.Region,
		Width:    width,
		Height:   height,
		FPS:      fps,
	})
	if err != nil {
		return fmt.Errorf("opening content stream: %w", err)
	}
	defer stream.Close()

	// Segment selection and the effect envelopes read the same
	// nearest-sample energy curve; interpolation stays reserved for the
	// impact loudness gate.
	comp := fx.NewCompositor(width, height, relImpacts,
		fx.EnergyFunc(res.energy.At), seg.Start, p.cfg.EffectSeed)

	cards, err := fx.NewCards(width, height, fx.CardText{
		Title:    p.cfg.Intro.Title,
		Subtitle: p.cfg.Intro.Subtitle,
		Outro:    p.cfg.Outro.Text,
	})
	if err != nil {
		return fmt.Errorf("rendering title cards: %w", err)
	}

	introFrames := int(math.Round(introDur * fps))
	contentFrames := int(math.Round(actual * fps))
	outroFrames := int(math.Round(outroDur * fps))
	totalFrames := introFrames + contentFrames + outroFrames

	render := func(i int) (*image.RGBA, error) {
		switch {
		case i < introFrames:
			t := float64(i) / fps
			return cards.IntroFrame(t, introDur), nil

		case i < introFrames+contentFrames:
			t := float64(i-introFrames) / fps
			raw, err := stream.FrameAt(remap.SourceTime(t))
			if err != nil {
				return nil, fmt.Errorf("decoding content frame %d: %w", i, err)
			}
			frame := comp.Render(raw, t)
			if t < contentFade {
				fx.Dim(frame, t/contentFade)
			} else if rem := actual - t; rem < contentFade {
				fx.Dim(frame, rem/contentFade)
			}
			return frame, nil

		default:
			t := float64(i-introFrames-contentFrames) / fps
			return cards.OutroFrame(t, outroDur), nil
		}
	}

	var audio *ffmpeg.AudioTrack
	if res.report.AudioOK {
		audio = &ffmpeg.AudioTrack{
			Path:     opts.Input,
			Start:    seg.Start,
			Duration: actual,
			Offset:   introDur,
			FadeIn:   audioFadeIn,
			FadeOut:  audioFadeOut,
		}
	}

	err = p.ffmpeg.EncodeFrames(ctx, ffmpeg.EncodeOptions{
		Output:       opts.Output,
		Width:        width,
		Height:       height,
		FPS:          fps,
		TotalFrames:  totalFrames,
		Bitrate:      p.cfg.Output.Bitrate,
		Preset:       p.cfg.FFmpeg.Preset,
		Audio:        audio,
		ShowProgress: true,
	}, render)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("output", opts.Output).
		Float64("duration", introDur+actual+outroDur).
		Int("frames", totalFrames).
		Msg("build complete")

	return nil
}

// contentDuration converts a target output length into the content segment
// length, after the intro and outro cards take their share. The config value
// is checked at load time, but a flag override arrives unvalidated and has
// to be rejected here before it reaches segment selection.
func (p *Pipeline) contentDuration(targetOverride int) (float64, error) {
	target := p.cfg.Output.TargetDuration
	if targetOverride > 0 {
		target = targetOverride
	}
	cards := p.cfg.Intro.Duration + p.cfg.Outro.Duration
	if float64(target) <= cards {
		return 0, fmt.Errorf("target duration %ds leaves no room for content after %gs intro and %gs outro",
			target, p.cfg.Intro.Duration, p.cfg.Outro.Duration)
	}
	return float64(target) - cards, nil
}
