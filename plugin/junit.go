package plugin

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// junitSuites is the nested testsuites document root.
type junitSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Tests    int          `xml:"tests,attr"`
	Failures int          `xml:"failures,attr"`
	Suites   []junitSuite `xml:"testsuite"`
}

// junitSuite holds one testsuite element with computed counts.
type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Cases    []junitCase `xml:"testcase"`
}

// junitCase holds one testcase element. Child elements are pointers so only
// the one matching the status is emitted.
type junitCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
	SystemOut *junitOutput  `xml:"system-out,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",chardata"`
}

type junitSkipped struct{}

type junitOutput struct {
	Text string `xml:",chardata"`
}

// Build groups the canonical results into a Report. Groups appear in
// first-seen order and cases keep input order within their group, so
// identical input always yields an identical tree.
func Build(results []TestResult) *Report {
	report := &Report{suites: make(map[string]*ReportSuite)}
	for _, result := range results {
		group := result.Group
		if group == "" {
			group = GroupUnknown
		}
		suite, ok := report.suites[group]
		if !ok {
			suite = &ReportSuite{Name: group}
			report.suites[group] = suite
			report.order = append(report.order, group)
		}
		suite.Cases = append(suite.Cases, result)
	}
	return report
}

// Render writes the report as JUnit XML. The default shape nests one
// testsuite per group under a testsuites root; flat restores the legacy
// single-suite shape where grouping survives only in the classname
// attribute.
func Render(w io.Writer, report *Report, flat bool, suiteName string) error {
	var doc interface{}
	if flat {
		flatSuite := junitSuite{Name: suiteName}
		for _, suite := range report.Suites() {
			for _, result := range suite.Cases {
				flatSuite.Cases = append(flatSuite.Cases, toJUnitCase(result, suite.Name))
			}
			flatSuite.Tests += len(suite.Cases)
			flatSuite.Failures += suite.Failures()
			flatSuite.Skipped += suite.SkippedCount()
		}
		doc = flatSuite
	} else {
		suites := junitSuites{Suites: []junitSuite{}}
		for _, suite := range report.Suites() {
			out := junitSuite{
				Name:     suite.Name,
				Tests:    len(suite.Cases),
				Failures: suite.Failures(),
				Skipped:  suite.SkippedCount(),
			}
			for _, result := range suite.Cases {
				out.Cases = append(out.Cases, toJUnitCase(result, suite.Name))
			}
			suites.Tests += out.Tests
			suites.Failures += out.Failures
			suites.Suites = append(suites.Suites, out)
		}
		doc = suites
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JUnit report: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteError, err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteError, err)
	}
	return nil
}

// toJUnitCase maps one canonical result onto a testcase element per the
// serialization contract: failures carry a message attribute and the detail
// as text, skips emit an empty skipped child, passes emit system-out when
// detail is present.
func toJUnitCase(result TestResult, classname string) junitCase {
	out := junitCase{Name: result.Name, ClassName: classname}
	switch result.Status {
	case StatusFailed:
		message := result.Message
		if message == "" {
			message = "Test failed"
		}
		out.Failure = &junitFailure{Message: message, Text: result.Detail}
	case StatusSkipped:
		out.Skipped = &junitSkipped{}
	default:
		if result.Detail != "" {
			out.SystemOut = &junitOutput{Text: result.Detail}
		}
	}
	return out
}

// WriteReport renders the report to the output path. Failures to create or
// write the destination are ErrWriteError.
func WriteReport(path string, report *Report, flat bool, suiteName string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteError, err)
	}
	defer f.Close()

	if err := Render(f, report, flat, suiteName); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteError, err)
	}

	logrus.WithFields(logrus.Fields{
		"File":   path,
		"Suites": len(report.Suites()),
		"Cases":  report.Len(),
	}).Debug("Wrote JUnit report")
	return nil
}
