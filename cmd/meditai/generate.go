package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bleitz/meditai/app"
	"github.com/bleitz/meditai/bootstrap"
	"github.com/bleitz/meditai/meditation"
	"github.com/bleitz/meditai/timing"
)

type generateOptions struct {
	topic   string
	minutes float64
	out     string
	archive bool
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a meditation for a topic and save the audio",
		Example: "meditai generate --topic \"letting go of the day\" --minutes 10 --out evening.mp3",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			a, err := app.NewTask(cfg, bootstrap.WithoutSummary())
			if err != nil {
				return err
			}
			return a.RunTask(cmd.Context(), func(ctx context.Context) error {
				return runGenerate(ctx, cmd.ErrOrStderr(), a.Service(), opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.topic, "topic", "", "what the meditation is about")
	cmd.Flags().Float64Var(&opts.minutes, "minutes", timing.DefaultMinutes, "target length in minutes")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "meditation.mp3", "audio output file")
	cmd.Flags().BoolVar(&opts.archive, "archive", false, "also keep the clip in the configured archive")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runGenerate(ctx context.Context, w io.Writer, svc *meditation.Service, opts *generateOptions) error {
	start := time.Now()
	stream, err := svc.Generate(ctx, opts.topic, opts.minutes, meditation.SynthesisOptions{File: opts.archive})
	if err != nil {
		return err
	}
	defer func() { _ = stream.Close() }()

	if dir := filepath.Dir(opts.out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	n, copyErr := io.Copy(f, stream)
	if err := f.Close(); err != nil && copyErr == nil {
		copyErr = err
	}
	if copyErr != nil {
		_ = os.Remove(opts.out)
		return fmt.Errorf("write audio: %w", copyErr)
	}

	fmt.Fprintf(w, "wrote %s (%s, %d segments) in %s\n",
		opts.out, humanize.Bytes(uint64(n)), stream.Script.Len(), time.Since(start).Round(time.Millisecond))
	if stream.ID != "" {
		fmt.Fprintf(w, "archived as %s\n", stream.ID)
	}
	if warning := stream.Warning(); warning != "" {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}
