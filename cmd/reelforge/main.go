package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kholt/reelforge/internal/config"
	"github.com/kholt/reelforge/internal/logging"
	"github.com/kholt/reelforge/internal/pipeline"
)

var (
	cfgFile string
	verbose bool

	outputPath     string
	targetDuration int
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelforge",
	Short: "reelforge - cinematic showcase video builder",
	Long: "Builds a short promotional video from screen-capture footage: finds the " +
		"content region, picks the most eventful segment by audio energy, and renders " +
		"it with impact-synced effects between glowing title cards.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./reelforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	buildCmd.Flags().StringVarP(&outputPath, "output", "o", "showcase.mp4", "output video path")
	buildCmd.Flags().IntVarP(&targetDuration, "duration", "d", 0, "target output duration in seconds (default from config)")
	analyzeCmd.Flags().IntVarP(&targetDuration, "duration", "d", 0, "target output duration in seconds (default from config)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(probeCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build [input video]",
	Short: "Build a showcase video from a source recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		return pipe.Build(cmd.Context(), pipeline.BuildOptions{
			Input:          args[0],
			Output:         outputPath,
			TargetDuration: targetDuration,
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [input video]",
	Short: "Analyze a source without rendering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		report, err := pipe.Analyze(cmd.Context(), args[0], targetDuration)
		if err != nil {
			return err
		}

		fmt.Printf("source:   %s (%dx%d, %.1fs)\n",
			args[0], report.Info.Width, report.Info.Height, report.Info.Seconds())
		fmt.Printf("region:   %dx%d at (%d,%d)\n",
			report.Region.Dx(), report.Region.Dy(), report.Region.Min.X, report.Region.Min.Y)
		fmt.Printf("segment:  %.1fs - %.1fs\n", report.Segment.Start, report.Segment.End)
		if report.AudioOK {
			fmt.Printf("impacts:  %d", len(report.Impacts))
			for _, t := range report.Impacts {
				fmt.Printf(" %.2f", t)
			}
			fmt.Println()
		} else {
			fmt.Println("impacts:  none (no audio track)")
		}

		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [input video]",
	Short: "Print source metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := pipeline.New(log.Logger, cfg)
		if err != nil {
			return err
		}

		info, err := pipe.Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("duration: %.2fs\n", info.Seconds())
		fmt.Printf("video:    %s %dx%d @ %.3g fps\n", info.VideoCodec, info.Width, info.Height, info.FPS)
		if info.HasAudio {
			fmt.Printf("audio:    %s %d Hz\n", info.AudioCodec, info.AudioSampleRate)
		} else {
			fmt.Println("audio:    none")
		}

		return nil
	},
}
