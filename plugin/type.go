package plugin

// Status is the canonical outcome of a single test result. Every extraction
// strategy normalizes its source-specific signal into one of these values.
type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
)

// String returns the status name used in logs.
func (s Status) String() string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// GroupUnknown is the sentinel group assigned when no module attribute is
// present and no architecture can be inferred from the test name.
const GroupUnknown = "unknown"

// TestResult is the canonical record all extractors converge on.
type TestResult struct {
	// Name of the test case. Uniqueness within a group is not guaranteed.
	Name string
	// Group is the module/architecture/classname bucket the case is
	// rendered under. Empty groups are normalized to GroupUnknown.
	Group string
	// Status of the case, per the uniform status-mapping policy.
	Status Status
	// Detail holds captured log text, rendered as system-out for passed
	// cases and as failure text for failed ones.
	Detail string
	// Message is the short failure message rendered as the failure
	// element's message attribute.
	Message string
}

// ReportSuite groups the test results sharing one group name, in first-seen
// order.
type ReportSuite struct {
	Name  string
	Cases []TestResult
}

// Failures counts the failed cases in the suite.
func (s *ReportSuite) Failures() int {
	n := 0
	for _, c := range s.Cases {
		if c.Status == StatusFailed {
			n++
		}
	}
	return n
}

// SkippedCount counts the skipped cases in the suite.
func (s *ReportSuite) SkippedCount() int {
	n := 0
	for _, c := range s.Cases {
		if c.Status == StatusSkipped {
			n++
		}
	}
	return n
}

// Report is the grouped result tree handed to the renderer. Suites are keyed
// by group name and kept in insertion order so output is deterministic.
type Report struct {
	order  []string
	suites map[string]*ReportSuite
}

// Suites returns the suites in first-seen group order.
func (r *Report) Suites() []*ReportSuite {
	out := make([]*ReportSuite, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.suites[name])
	}
	return out
}

// Len returns the total number of cases across all suites.
func (r *Report) Len() int {
	n := 0
	for _, s := range r.suites {
		n += len(s.Cases)
	}
	return n
}

// Mode selects the extraction strategy.
type Mode string

const (
	// ModeAuto picks a strategy from the input shape: a directory selects
	// ModeDir, a .xml file selects ModeXML, anything else ModeLog.
	ModeAuto Mode = "auto"
	ModeDir  Mode = "dir"
	ModeLog  Mode = "log"
	ModeXML  Mode = "xml"
)

// LogPolicy selects how a single-log input is interpreted.
type LogPolicy string

const (
	// PolicyAuto tries per-line first and falls back to aggregate when no
	// line matches, so the report never comes out empty.
	PolicyAuto      LogPolicy = "auto"
	PolicyAggregate LogPolicy = "aggregate"
	PolicyPerLine   LogPolicy = "per-line"
)

// Classname and suite-name defaults mirror the legacy converter scripts.
const (
	defaultDirClassname = "vivado_sim"
	defaultLogClassname = "model_sim"
	defaultDirSuiteName = "Vivado Test Suite"
	defaultLogSuiteName = "ModelSim Test Suite"
)
