package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/wav"

	"github.com/kholt/reelforge/pkg/util"
)

// PCMData is decoded mono audio, normalized to [-1, 1].
type PCMData struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length of the decoded audio in seconds.
func (p *PCMData) Duration() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(len(p.Samples)) / float64(p.SampleRate)
}

// DecodePCM extracts the source's audio track to mono PCM at the given
// sample rate, capped at durationCap seconds. The audio goes through a
// temporary WAV file which is cleaned up when the source is closed.
//
// Callers are expected to treat any error here as a degraded condition,
// not a fatal one: a source without a usable audio track is valid input.
func (s *Source) DecodePCM(ctx context.Context, durationCap float64, sampleRate int) (*PCMData, error) {
	if !s.info.HasAudio {
		return nil, fmt.Errorf("source %s has no audio track", s.info.FilePath)
	}
	if sampleRate <= 0 {
		sampleRate = 22050
	}

	wavPath := filepath.Join(os.TempDir(), fmt.Sprintf("reelforge-audio-%d.wav", os.Getpid()))
	s.track(wavPath)

	args := []string{
		"-i", s.info.FilePath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", "1",
	}
	if durationCap > 0 {
		args = append(args, "-t", util.FormatSeconds(durationCap))
	}
	args = append(args, wavPath)

	opts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			s.exec.logger.Debug().Str("ffmpeg", line).Msg("audio extraction")
		},
	}
	if err := s.exec.Run(ctx, opts); err != nil {
		return nil, fmt.Errorf("audio extraction failed: %w", err)
	}

	return decodeWAV(wavPath)
}

// decodeWAV reads a 16-bit PCM WAV file into normalized float samples.
func decodeWAV(path string) (*PCMData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening extracted audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("wav %s contains no samples", path)
	}

	samples := make([]float64, len(buf.Data))
	const scale = 1.0 / 32768.0
	for i, v := range buf.Data {
		samples[i] = float64(v) * scale
	}

	return &PCMData{
		Samples:    samples,
		SampleRate: buf.Format.SampleRate,
	}, nil
}
