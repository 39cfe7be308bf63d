package plugin

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInputNotFound indicates the input path does not exist. Fatal.
	ErrInputNotFound = errors.New("input path not found")
	// ErrMalformedInput indicates the artifact could not be parsed at all.
	// Recovered by Exec with an empty result sequence.
	ErrMalformedInput = errors.New("malformed input")
	// ErrWriteError indicates the report destination could not be written.
	ErrWriteError = errors.New("cannot write report")
)

// Extractor reads one input artifact and produces the ordered sequence of
// canonical test results. Implementations cover the input shapes the
// simulator toolchains produce; all converge on the same model.
type Extractor interface {
	Extract(path string) ([]TestResult, error)
}

// NewExtractor selects the extraction strategy for the given input path.
// ModeAuto detects the strategy from the input shape. The returned extractor
// carries the classname/policy configuration from args.
func NewExtractor(path string, args Args) (Extractor, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat input path %s: %w", path, err)
	}

	mode := Mode(args.Mode)
	if mode == "" || mode == ModeAuto {
		switch {
		case info.IsDir():
			mode = ModeDir
		case strings.EqualFold(filepath.Ext(path), ".xml"):
			mode = ModeXML
		default:
			mode = ModeLog
		}
		logrus.WithField("Mode", string(mode)).Debug("Auto-detected extraction mode")
	}

	switch mode {
	case ModeDir:
		return &DirExtractor{Classname: classnameOr(args.Classname, defaultDirClassname)}, nil
	case ModeLog:
		return &LogExtractor{
			Policy:    logPolicyOr(args.LogPolicy),
			Classname: classnameOr(args.Classname, defaultLogClassname),
		}, nil
	case ModeXML:
		return &XMLExtractor{StrictRoot: args.StrictRoot}, nil
	default:
		return nil, fmt.Errorf("unknown extraction mode %q", args.Mode)
	}
}

func classnameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func logPolicyOr(policy string) LogPolicy {
	if policy == "" {
		return PolicyAuto
	}
	return LogPolicy(policy)
}

// DirExtractor handles a directory of testbench sources. One result is
// produced per .vhd file, named by its base name; a sibling <base>.log file
// supplies the captured output, and its absence marks the case failed.
type DirExtractor struct {
	// Classname groups every produced result.
	Classname string
}

// Extract walks the directory in lexical order.
func (e *DirExtractor) Extract(path string) ([]TestResult, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read testbench directory %s: %w", path, err)
	}

	var results []TestResult
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".vhd") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".vhd")
		if name == "" {
			continue
		}
		result := TestResult{Name: name, Group: e.Classname}

		logPath := filepath.Join(path, name+".log")
		data, err := os.ReadFile(logPath)
		switch {
		case err == nil:
			result.Status = StatusPassed
			result.Detail = string(data)
		case os.IsNotExist(err):
			result.Status = StatusFailed
			result.Message = "Log file not found"
		default:
			logrus.WithError(err).WithField("File", logPath).Warn("Failed to read log file")
			result.Status = StatusFailed
			result.Message = "Log file not readable"
		}
		results = append(results, result)
	}

	logrus.WithField("Cases", len(results)).Debug("Extracted directory results")
	return results, nil
}

// LogExtractor handles a single simulator log file.
type LogExtractor struct {
	// Policy picks per-line scanning, whole-run aggregation, or the
	// per-line-with-fallback default.
	Policy LogPolicy
	// Classname groups every produced result.
	Classname string
}

// Extract reads the whole log and applies the configured policy. With
// PolicyAuto, a log without any per-line match degrades to the aggregate
// summary so the report never comes out empty.
func (e *LogExtractor) Extract(path string) ([]TestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read log file %s: %w", path, err)
	}
	text := string(data)

	switch e.Policy {
	case PolicyAggregate:
		return []TestResult{e.aggregate(text)}, nil
	case PolicyPerLine:
		return e.perLine(text), nil
	default:
		if results := e.perLine(text); len(results) > 0 {
			return results, nil
		}
		logrus.Debug("No per-line matches, falling back to aggregate log summary")
		return []TestResult{e.aggregate(text)}, nil
	}
}

// perLine scans for "TEST <name> <STATUS>" lines. Surrounding quotes are
// stripped from the name; a STATUS of FAILED marks the case failed and any
// other status passes. Non-matching lines are ignored. Lines are split
// directly from the in-memory text so arbitrarily long lines cannot
// truncate the scan.
func (e *LogExtractor) perLine(text string) []TestResult {
	var results []TestResult
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "TEST" {
			continue
		}
		result := TestResult{
			Name:  strings.Trim(fields[1], `'"`),
			Group: e.Classname,
		}
		if fields[2] == "FAILED" {
			result.Status = StatusFailed
			result.Message = "Test reported FAILED"
			result.Detail = line
		}
		results = append(results, result)
	}
	return results
}

// aggregate synthesizes exactly one result summarizing the whole run. The
// line counting is the legacy heuristic: any line containing "Test" counts
// as a test, any line containing "Failure" counts as a failure.
func (e *LogExtractor) aggregate(text string) TestResult {
	tests, failures := 0, 0
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "Test") {
			tests++
		}
		if strings.Contains(line, "Failure") {
			failures++
		}
	}

	result := TestResult{
		Name:   "TestCase",
		Group:  e.Classname,
		Detail: text,
	}
	if failures > 0 {
		result.Status = StatusFailed
		result.Message = fmt.Sprintf("%d failure(s) detected across %d test line(s)", failures, tests)
	}
	logrus.WithFields(logrus.Fields{
		"Tests":    tests,
		"Failures": failures,
	}).Debug("Aggregated log summary")
	return result
}

// XMLExtractor handles an intermediate testsuites-style XML document. It
// collects testcase elements anywhere in the tree, so partial or oddly
// rooted documents still yield results. StrictRoot restores the legacy
// behavior of rejecting documents whose root is not testsuites.
type XMLExtractor struct {
	StrictRoot bool
}

// Extract decodes the document token by token. Invalid XML is
// ErrMalformedInput; per-testcase anomalies never are.
func (e *XMLExtractor) Extract(path string) ([]TestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read XML file %s: %w", path, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	var results []TestResult
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			sawRoot = true
			if e.StrictRoot && start.Name.Local != "testsuites" {
				return nil, fmt.Errorf("%w: expected testsuites root, got %s", ErrMalformedInput, start.Name.Local)
			}
		}
		if start.Name.Local != "testcase" {
			continue
		}

		results = append(results, testResultFromCase(start))
		if err := dec.Skip(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: no XML content in %s", ErrMalformedInput, path)
	}
	return results, nil
}

// testResultFromCase maps one testcase element's attributes onto the
// canonical model, applying the uniform status-mapping policy.
func testResultFromCase(start xml.StartElement) TestResult {
	var name, status, module string
	hasStatus := false
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "name":
			name = attr.Value
		case "status":
			status = attr.Value
			hasStatus = true
		case "module":
			module = attr.Value
		}
	}

	result := TestResult{Name: name, Group: module}
	if result.Group == "" {
		result.Group = inferArchitecture(name)
	}

	switch {
	case !hasStatus:
		result.Status = StatusFailed
		result.Message = "Missing status attribute"
	case status == "PASSED":
		result.Status = StatusPassed
	case status == "SKIPPED":
		result.Status = StatusSkipped
	case status == "FAILED":
		result.Status = StatusFailed
		result.Message = "Test reported FAILED"
	default:
		result.Status = StatusFailed
		result.Message = fmt.Sprintf("Unrecognized status %q", status)
	}
	return result
}

// archPattern matches the VHDL architecture clause "OF <identifier> IS"
// embedded in test names.
var archPattern = regexp.MustCompile(`(?i)\bOF\s+([A-Za-z_][A-Za-z0-9_]*)\s+IS\b`)

// inferArchitecture extracts the architecture/module name from a test name,
// returning GroupUnknown when the pattern does not match.
func inferArchitecture(name string) string {
	m := archPattern.FindStringSubmatch(name)
	if m == nil {
		return GroupUnknown
	}
	return m[1]
}
