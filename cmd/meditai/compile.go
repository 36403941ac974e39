package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bleitz/meditai/logger"
	"github.com/bleitz/meditai/meditation"
	"github.com/bleitz/meditai/script"
	"github.com/bleitz/meditai/timing"
)

type compileOptions struct {
	scriptFile string
	minutes    float64
	out        string
}

func newCompileCmd(root *rootOptions) *cobra.Command {
	opts := &compileOptions{}
	cmd := &cobra.Command{
		Use:     "compile",
		Short:   "Compile a script into timed speech markup without synthesizing it",
		Example: "meditai compile --script calm.json --minutes 10 --out calm.ssml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompile(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.scriptFile, "script", "", "script file: a JSON array of {paragraph, pause} or raw model output (- for stdin)")
	cmd.Flags().Float64Var(&opts.minutes, "minutes", timing.DefaultMinutes, "target length in minutes")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the markup here instead of stdout")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func runCompile(cmd *cobra.Command, root *rootOptions, opts *compileOptions) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := readInput(cmd.InOrStdin(), opts.scriptFile)
	if err != nil {
		return err
	}
	doc, err := script.Extract(string(data))
	if err != nil {
		return err
	}

	compiler, err := timing.NewCompiler(cfg.Timing)
	if err != nil {
		return err
	}
	svc, err := meditation.New(meditation.Deps{Compiler: compiler}, cfg.Pipeline, logger.Nop())
	if err != nil {
		return err
	}
	res, err := svc.Compile(cmd.Context(), doc, opts.minutes)
	if err != nil {
		return err
	}

	if opts.out == "" {
		if _, err := io.WriteString(cmd.OutOrStdout(), res.SSML+"\n"); err != nil {
			return err
		}
	} else if err := os.WriteFile(opts.out, []byte(res.SSML), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("write markup: %w", err)
	}

	writePlan(cmd.ErrOrStderr(), doc, res, opts.out)
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return data, nil
}

// writePlan prints a human summary of a compilation.
func writePlan(w io.Writer, doc script.Document, res *timing.Result, out string) {
	p := res.Plan
	seconds := func(s int) string { return (time.Duration(s) * time.Second).String() }

	fmt.Fprintf(w, "segments   %d (%s words)\n", doc.Len(), humanize.Comma(int64(p.Words)))
	fmt.Fprintf(w, "target     %s\n", seconds(p.DesiredSeconds))
	fmt.Fprintf(w, "spoken     %s\n", seconds(p.SpokenSeconds))
	fmt.Fprintf(w, "lead-in    %s\n", seconds(p.LeadInSeconds))
	fmt.Fprintf(w, "silence    %s in %d breaks (budget %s)\n",
		seconds(p.EmittedSilenceSeconds), res.Markup.Breaks(), seconds(p.SilenceBudget))
	for _, cp := range p.Classes {
		if cp.Occurrences == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-7s  %d x %s\n", cp.Pause, cp.Occurrences, seconds(cp.Seconds))
	}
	fmt.Fprintf(w, "estimated  %s\n", seconds(p.EstimatedSeconds()))
	if res.TooShort() {
		fmt.Fprintf(w, "warning    %s: the script fills the target, no silence added\n", meditation.WarningDurationTooShort)
	}
	if out != "" {
		fmt.Fprintf(w, "markup     %s written to %s\n", humanize.Bytes(uint64(len(res.SSML))), out)
	}
}
