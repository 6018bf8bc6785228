// Command client submits a generation request to a running worker, polls it
// to completion and prints the final result.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"infinitetalk/internal/client"
)

func main() {
	var (
		endpoint     string
		params       client.GenerateParams
		frameNum     int
		maxFrameNum  int
		sampleSteps  int
		cfgScale     float64
		seed         int
		pollInterval time.Duration
		maxWait      time.Duration
	)

	root := &cobra.Command{
		Use:   "client",
		Short: "Submit an InfiniteTalk generation job and wait for the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			params.FrameNum = &frameNum
			params.MaxFrameNum = &maxFrameNum
			params.SampleSteps = &sampleSteps
			params.CFGScale = &cfgScale
			params.Seed = &seed

			c := client.NewClient(client.Options{
				BaseURL:      endpoint,
				PollInterval: pollInterval,
				MaxWait:      maxWait,
			})

			fmt.Fprintf(cmd.OutOrStdout(), "Submitting job to %s\n", endpoint)
			result, err := c.GenerateAndWait(cmd.Context(), params)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			if result.DownloadURL != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "\nDownload URL: %s\n", result.DownloadURL)
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&endpoint, "endpoint", "http://localhost:8080", "worker base URL")
	flags.StringVar(&params.AudioURL, "audio-url", "", "URL to the driving audio file")
	flags.StringVar(&params.ImageURL, "image-url", "", "URL to the conditioning image or video clip")
	flags.StringVar(&params.AudioPath, "audio-path", "", "local path to the driving audio file")
	flags.StringVar(&params.ImagePath, "image-path", "", "local path to the conditioning image or video clip")
	flags.StringVar(&params.Prompt, "prompt", "", "text prompt")
	flags.StringVar(&params.Size, "size", "infinitetalk-480", "resolution preset (infinitetalk-480 or infinitetalk-720)")
	flags.IntVar(&frameNum, "frame-num", 81, "frames per clip")
	flags.IntVar(&maxFrameNum, "max-frame-num", 1000, "max total frames")
	flags.IntVar(&sampleSteps, "sample-steps", 40, "sampling steps")
	flags.Float64Var(&cfgScale, "cfg-scale", 1.1, "audio guidance scale")
	flags.IntVar(&seed, "seed", -1, "random seed (-1 for random)")
	flags.DurationVar(&pollInterval, "poll-interval", 10*time.Second, "status poll interval")
	flags.DurationVar(&maxWait, "max-wait", 30*time.Minute, "maximum time to wait for completion")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
