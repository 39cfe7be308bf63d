package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harness-community/sim2junit/plugin"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		logrus.WithError(err).Error("Conversion failed")
		os.Exit(1)
	}
}

// newCommand builds the root command. Defaults come from the PLUGIN_*
// environment first, so the tool doubles as a CI plugin; flags and the two
// positional paths override them.
func newCommand() *cobra.Command {
	var args plugin.Args
	if err := envconfig.Process("", &args); err != nil {
		logrus.WithError(err).Fatal("Failed to process environment configuration")
	}

	cmd := &cobra.Command{
		Use:   "sim2junit <input-path> <output-path>",
		Short: "Convert hardware-simulation test output to a JUnit XML report",
		Long: `sim2junit reads a testbench directory, a simulator log, or an intermediate
testsuites XML file and writes a normalized, grouped JUnit XML report for CI
dashboards.`,
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			// Argument validation errors still print usage; runtime
			// failures only report the error.
			cmd.SilenceUsage = true
			args.InputPath = positional[0]
			args.OutputPath = positional[1]
			initLogLevel(args.Level)
			if err := plugin.Exec(context.Background(), args); err != nil {
				return err
			}
			fmt.Printf("Converted %s to JUnit report %s\n", args.InputPath, args.OutputPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&args.Mode, "mode", args.Mode,
		"Extraction mode: auto, dir, log, or xml. Auto detects from the input shape.")
	cmd.Flags().StringVar(&args.LogPolicy, "policy", args.LogPolicy,
		"Log interpretation policy: auto, aggregate, or per-line.")
	cmd.Flags().BoolVar(&args.Flat, "flat", args.Flat,
		"Emit the legacy flat report with a single testsuite root.")
	cmd.Flags().BoolVar(&args.StrictRoot, "strict-root", args.StrictRoot,
		"Reject XML inputs whose root element is not testsuites.")
	cmd.Flags().StringVar(&args.Classname, "classname", args.Classname,
		"Classname grouping directory and log results. Defaults per toolchain.")
	cmd.Flags().StringVar(&args.SuiteName, "suite-name", args.SuiteName,
		"Suite name used by the flat report shape. Defaults per toolchain.")
	cmd.Flags().StringVarP(&args.Level, "log-level", "l", args.Level,
		`Log level. Can be any standard log-level ("info", "debug", etc...)`)

	return cmd
}

func initLogLevel(level string) {
	if level == "" {
		return
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("Level", level).Warn("Unknown log level, keeping default")
		return
	}
	logrus.SetLevel(parsed)
}
