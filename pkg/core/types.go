// Package core defines shared data types for the self-healing test framework.
package core

import "time"

// StrategyKind identifies how a selector strategy locates an element.
type StrategyKind string

// StrategyKind values, in typical healing priority order.
const (
	StrategyTestID    StrategyKind = "testid"     // Test-identifier attribute equality
	StrategyAriaLabel StrategyKind = "aria-label" // aria-label attribute equality
	StrategyText      StrategyKind = "text"       // Exact visible text
	StrategyCSS       StrategyKind = "css"        // Raw CSS selector
	StrategyRole      StrategyKind = "role"       // Accessibility role
)

// SelectorStrategy is one way of locating an element. Strategies are
// tried in the order given to the resolver; immutable once built.
type SelectorStrategy struct {
	Kind  StrategyKind
	Value string
}

// Describe returns a human-readable form like css="#submit".
func (s SelectorStrategy) Describe() string {
	return string(s.Kind) + "=\"" + s.Value + "\""
}

// ElementType categorizes a discovered interactive element.
type ElementType string

// ElementType values.
const (
	ElementButton   ElementType = "button"
	ElementInput    ElementType = "input"
	ElementSelect   ElementType = "select"
	ElementLink     ElementType = "link"
	ElementCheckbox ElementType = "checkbox"
	ElementRadio    ElementType = "radio"
)

// DiscoveredElement is one interactive element found during a page scan.
// Selector is always non-empty; candidates yielding no usable selector
// are dropped during discovery.
type DiscoveredElement struct {
	Selector  string      `json:"selector"`
	Type      ElementType `json:"type"`
	Text      string      `json:"text,omitempty"`
	Label     string      `json:"label,omitempty"`
	TestID    string      `json:"testId,omitempty"`
	AriaLabel string      `json:"ariaLabel,omitempty"`
	Href      string      `json:"href,omitempty"` // links only
}

// TestFailure is a classified test failure, produced by the classifier
// and consumed exactly once by the repair engine.
type TestFailure struct {
	Test  string          // Test name
	File  string          // Path to the test source file
	Error string          // Raw error message
	Type  FailureCategory // Classified category
	Line  int             // Source line if known, 0 otherwise
}

// RepairResult is the outcome of one repair attempt.
type RepairResult struct {
	Success  bool     `json:"success"`
	Strategy string   `json:"strategy"`
	Changes  []string `json:"changes"`
	Error    string   `json:"error,omitempty"`
}

// TestResult is one recorded test execution. Append-only; created once
// per execution and submitted to the monitor.
type TestResult struct {
	ID        string       `json:"id"`
	TestName  string       `json:"testName"`
	Status    ResultStatus `json:"status"`
	Duration  int64        `json:"duration"` // Milliseconds
	Error     string       `json:"error,omitempty"`
	Retries   int          `json:"retries,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// TestMetrics holds rolling metrics for one test name. Derived fields
// (PassRate, AverageDuration) are recomputed from the retained history
// window on every update rather than accumulated, to avoid drift.
type TestMetrics struct {
	TestName        string         `json:"testName"`
	TotalRuns       int            `json:"totalRuns"`
	PassRate        float64        `json:"passRate"`        // Percent, 0-100
	AverageDuration int64          `json:"averageDuration"` // Milliseconds
	Flaky           bool           `json:"flaky"`
	FailurePatterns map[string]int `json:"failurePatterns"` // Category name -> count
	LastRun         time.Time      `json:"lastRun"`
}

// MonitoringReport is a read-only snapshot of overall test health.
// Regenerated on demand; never mutated in place.
type MonitoringReport struct {
	ID              string                 `json:"id"`
	GeneratedAt     time.Time              `json:"generatedAt"`
	HealthScore     int                    `json:"healthScore"` // 0-100
	TotalTests      int                    `json:"totalTests"`
	PassingTests    []string               `json:"passingTests"`
	FailingTests    []string               `json:"failingTests"`
	FlakyTests      []string               `json:"flakyTests"`
	CriticalIssues  []string               `json:"criticalIssues"`
	Recommendations []string               `json:"recommendations"`
	RecentResults   []TestResult           `json:"recentResults"`
	Metrics         map[string]TestMetrics `json:"metrics"`
}

// GeneratedTest is one synthesized test case: source text plus the
// elements it exercises. The caller decides file naming and layout.
type GeneratedTest struct {
	Name     string
	Code     string
	Elements []DiscoveredElement
}
