package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:           "tunegrab",
		Short:         "Grab, cut, merge and transcribe audio from the web",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	root.PersistentFlags().String("out", "", "Output directory (overrides TUNEGRAB_OUTDIR)")
	root.PersistentFlags().String("workdir", "", "Working directory for temporary artifacts (overrides TUNEGRAB_WORKDIR)")

	root.AddCommand(
		&cobra.Command{
			Use:   "fetch <url>",
			Short: "Download a track as mp3",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFetch(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "search <query>",
			Short: "Find the best match for a query and download it",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSearch(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "convert <video>",
			Short: "Extract the audio track of a video as mp3",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConvert(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "cut <audio>",
			Short: "Interactively cut a segment out of an audio file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCut(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "merge <audio> <audio> [audio...]",
			Short: "Concatenate audio files in the given order",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMerge(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "transcribe <audio>",
			Short: "Transcribe speech audio to text",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTranscribe(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "video <url>",
			Short: "Download a short-form video or photo post",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShortVideo(cmd, args[0])
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
