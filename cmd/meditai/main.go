// Command meditai serves the meditation API and runs the pipeline from the
// command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bleitz/meditai/app"
	"github.com/bleitz/meditai/version"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "meditai",
		Short:         "Generate guided meditations as timed speech",
		Long:          "meditai turns a topic into a meditation script, times its pauses to a target length and streams the spoken audio.",
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default ./config.yml or ./cmd/meditai/config.yml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(opts),
		newCompileCmd(opts),
		newGenerateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration and applies flag overrides.
func (o *rootOptions) load() (*app.Config, error) {
	cfg, err := app.Load(o.configFile)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.logLevel)
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
