package pipeline_test

import (
	"context"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kholt/reelforge/internal/config"
	"github.com/kholt/reelforge/internal/ffmpeg"
	"github.com/kholt/reelforge/internal/pipeline"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

func makeSource(t *testing.T, duration int, withAudio bool) string {
	t.Helper()

	dur := strconv.Itoa(duration)
	path := filepath.Join(t.TempDir(), "source.mp4")
	args := []string{"-y",
		"-f", "lavfi", "-i", "testsrc=duration=" + dur + ":size=320x240:rate=15"}
	if withAudio {
		args = append(args,
			"-f", "lavfi", "-i", "sine=frequency=440:duration="+dur,
			"-c:a", "aac", "-shortest")
	}
	args = append(args, "-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p", path)

	if out, err := exec.Command("ffmpeg", args...).CombinedOutput(); err != nil {
		t.Fatalf("generating source video: %v\n%s", err, out)
	}
	return path
}

func testConfig() *config.Config {
	return &config.Config{
		Output: config.OutputConfig{
			Width:          320,
			Height:         240,
			FPS:            10,
			Bitrate:        "500k",
			TargetDuration: 6,
		},
		Intro: config.IntroConfig{
			Duration: 1.0,
			Title:    "Forge",
			Subtitle: "Test Build",
		},
		Outro: config.OutroConfig{
			Duration: 1.0,
			Text:     "example.com/forge",
		},
		Analysis: config.AnalysisConfig{
			RegionSamples: 4,
			SampleRate:    8000,
		},
		FFmpeg: config.FFmpegConfig{
			BinaryPath: "ffmpeg",
			Threads:    2,
			Preset:     "ultrafast",
		},
		EffectSeed: 1,
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestBuildEndToEnd(t *testing.T) {
	skipIfNoFFmpeg(t)

	src := makeSource(t, 12, true)
	out := filepath.Join(t.TempDir(), "showcase.mp4")

	p, err := pipeline.New(testLogger(), testConfig())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	err = p.Build(context.Background(), pipeline.BuildOptions{
		Input:  src,
		Output: out,
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	e, err := ffmpeg.New(testLogger(), "ffmpeg", 2)
	if err != nil {
		t.Fatalf("ffmpeg.New: %v", err)
	}
	info, err := e.ProbeVideo(context.Background(), out)
	if err != nil {
		t.Fatalf("probing output: %v", err)
	}

	// 1s intro + 4s content + 1s outro.
	if math.Abs(info.Seconds()-6.0) > 0.5 {
		t.Errorf("output duration = %.2fs, want ~6s", info.Seconds())
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("output is %dx%d, want 320x240", info.Width, info.Height)
	}
	if !info.HasAudio {
		t.Error("output missing audio track")
	}
}

func TestBuildSilentSource(t *testing.T) {
	skipIfNoFFmpeg(t)

	src := makeSource(t, 8, false)
	out := filepath.Join(t.TempDir(), "showcase.mp4")

	p, err := pipeline.New(testLogger(), testConfig())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	// No audio track degrades the analysis, it must not fail the build.
	err = p.Build(context.Background(), pipeline.BuildOptions{
		Input:  src,
		Output: out,
	})
	if err != nil {
		t.Fatalf("build of silent source failed: %v", err)
	}

	e, _ := ffmpeg.New(testLogger(), "ffmpeg", 2)
	info, err := e.ProbeVideo(context.Background(), out)
	if err != nil {
		t.Fatalf("probing output: %v", err)
	}
	if info.HasAudio {
		t.Error("silent source produced an output with audio")
	}

	// Without an audio track the container duration is exactly the frame
	// count, so the tolerance can be tight.
	if math.Abs(info.Seconds()-6.0) > 0.15 {
		t.Errorf("output duration = %.2fs, want 6s", info.Seconds())
	}
}

func TestBuildShortSource(t *testing.T) {
	skipIfNoFFmpeg(t)

	// Source shorter than the requested content window; the segment
	// shrinks and the output comes out shorter than the target.
	src := makeSource(t, 3, true)
	out := filepath.Join(t.TempDir(), "showcase.mp4")

	p, err := pipeline.New(testLogger(), testConfig())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	err = p.Build(context.Background(), pipeline.BuildOptions{
		Input:  src,
		Output: out,
	})
	if err != nil {
		t.Fatalf("build of short source failed: %v", err)
	}

	e, _ := ffmpeg.New(testLogger(), "ffmpeg", 2)
	info, err := e.ProbeVideo(context.Background(), out)
	if err != nil {
		t.Fatalf("probing output: %v", err)
	}
	if info.Seconds() > 6.0 {
		t.Errorf("output duration = %.2fs, should be under the 6s target", info.Seconds())
	}
}

func TestBuildValidation(t *testing.T) {
	skipIfNoFFmpeg(t)

	p, err := pipeline.New(testLogger(), testConfig())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	if err := p.Build(context.Background(), pipeline.BuildOptions{Output: "out.mp4"}); err == nil {
		t.Error("expected error for empty input")
	}
	if err := p.Build(context.Background(), pipeline.BuildOptions{Input: "in.mp4"}); err == nil {
		t.Error("expected error for empty output")
	}
}

func TestTargetDurationOverride(t *testing.T) {
	skipIfNoFFmpeg(t)

	p, err := pipeline.New(testLogger(), testConfig())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	// A flag override at or below the 2s of title cards would hand segment
	// selection a non-positive content length and make it fall back to the
	// whole source. It has to be rejected up front, before any probing.
	for _, target := range []int{1, 2} {
		err := p.Build(context.Background(), pipeline.BuildOptions{
			Input:          "in.mp4",
			Output:         "out.mp4",
			TargetDuration: target,
		})
		if err == nil || !strings.Contains(err.Error(), "target duration") {
			t.Errorf("Build with target %ds: got %v, want target duration error", target, err)
		}

		if _, err := p.Analyze(context.Background(), "in.mp4", target); err == nil ||
			!strings.Contains(err.Error(), "target duration") {
			t.Errorf("Analyze with target %ds: got %v, want target duration error", target, err)
		}
	}
}

func TestAnalyze(t *testing.T) {
	skipIfNoFFmpeg(t)

	src := makeSource(t, 8, true)

	p, err := pipeline.New(testLogger(), testConfig())
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}

	report, err := p.Analyze(context.Background(), src, 0)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if report.Info.Width != 320 || report.Info.Height != 240 {
		t.Errorf("info is %dx%d, want 320x240", report.Info.Width, report.Info.Height)
	}
	if report.Segment.Start < 0 || report.Segment.End > report.Info.Seconds() {
		t.Errorf("segment %+v outside source duration %.2f", report.Segment, report.Info.Seconds())
	}
	if !report.AudioOK {
		t.Error("audio should have decoded")
	}
	if report.Region.Empty() {
		t.Error("region is empty")
	}
}
