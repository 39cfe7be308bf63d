package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Args represents the plugin's configurable arguments. The PLUGIN_* variables
// seed defaults when running as a CI plugin; the CLI overrides them with
// flags and the two positional paths.
type Args struct {
	InputPath  string `envconfig:"PLUGIN_INPUT_PATH"`
	OutputPath string `envconfig:"PLUGIN_OUTPUT_PATH"`
	Mode       string `envconfig:"PLUGIN_MODE" default:"auto"`
	LogPolicy  string `envconfig:"PLUGIN_LOG_POLICY" default:"auto"`
	Flat       bool   `envconfig:"PLUGIN_FLAT_REPORT"`
	StrictRoot bool   `envconfig:"PLUGIN_STRICT_ROOT"`
	Classname  string `envconfig:"PLUGIN_CLASSNAME"`
	SuiteName  string `envconfig:"PLUGIN_SUITE_NAME"`
	Level      string `envconfig:"PLUGIN_LOG_LEVEL"`
}

// ValidateInputs ensures the user inputs meet the converter requirements.
func ValidateInputs(args Args) error {
	if args.InputPath == "" {
		return errors.New("missing required parameter: InputPath. Please specify the simulation log, XML report, or testbench directory to convert")
	}
	if args.OutputPath == "" {
		return errors.New("missing required parameter: OutputPath. Please specify where to write the JUnit XML report")
	}
	switch Mode(args.Mode) {
	case ModeAuto, ModeDir, ModeLog, ModeXML:
	default:
		return fmt.Errorf("invalid Mode value %q. It must be one of auto, dir, log, or xml", args.Mode)
	}
	switch LogPolicy(args.LogPolicy) {
	case PolicyAuto, PolicyAggregate, PolicyPerLine:
	default:
		return fmt.Errorf("invalid LogPolicy value %q. It must be one of auto, aggregate, or per-line", args.LogPolicy)
	}
	return nil
}

// Exec runs the conversion pipeline: extract canonical results from the
// input artifact, group them, and render the JUnit XML report. A malformed
// input degrades to an empty report; a missing input or an unwritable
// destination is fatal.
func Exec(ctx context.Context, args Args) error {
	if err := ValidateInputs(args); err != nil {
		return err
	}

	logger := logrus.
		WithField("InputPath", args.InputPath).
		WithField("OutputPath", args.OutputPath).
		WithField("Mode", args.Mode)
	logger.Info("Starting conversion")

	extractor, err := NewExtractor(args.InputPath, args)
	if err != nil {
		logger.WithError(err).Error("Failed to select extraction strategy")
		return err
	}

	results, err := extractor.Extract(args.InputPath)
	if err != nil {
		if !errors.Is(err, ErrMalformedInput) {
			logger.WithError(err).Error("Failed to extract test results")
			return err
		}
		// Unparseable input still produces a valid, empty report.
		logger.WithError(err).Warn("Input could not be parsed, writing empty report")
		results = nil
	}

	report := Build(results)
	if err := WriteReport(args.OutputPath, report, args.Flat, suiteNameFor(args, extractor)); err != nil {
		logger.WithError(err).Error("Failed to write JUnit report")
		return err
	}

	logger.WithField("Cases", report.Len()).Info("Conversion completed")
	return nil
}

// suiteNameFor resolves the flat-variant suite name: explicit configuration
// wins, then the legacy per-toolchain defaults.
func suiteNameFor(args Args, extractor Extractor) string {
	if args.SuiteName != "" {
		return args.SuiteName
	}
	switch extractor.(type) {
	case *DirExtractor:
		return defaultDirSuiteName
	default:
		return defaultLogSuiteName
	}
}
