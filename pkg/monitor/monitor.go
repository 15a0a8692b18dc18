// Package monitor records test execution outcomes over time, computes
// rolling per-test metrics, derives an overall health score and renders
// a report with a static HTML dashboard.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uilabs-dev/selfheal/pkg/classify"
	"github.com/uilabs-dev/selfheal/pkg/core"
)

const (
	// historyLimit bounds retained history; oldest entries are evicted
	// first.
	historyLimit = 1000

	// flakeWindow is how many recent results per test are inspected for
	// status changes.
	flakeWindow = 5

	// recentWindow is how many trailing results a report includes.
	recentWindow = 50
)

// Duration thresholds in milliseconds.
const (
	SlowTestMs = 5000
	VerySlowMs = 15000
)

// Pass-rate partition boundaries, in percent.
const (
	passingThreshold = 95.0
	failingThreshold = 50.0
)

// Monitor owns the result history and per-test metrics for the
// lifetime of the process. Safe for concurrent RecordResult calls from
// test-completion callbacks; the storage layer itself assumes a single
// writer process.
type Monitor struct {
	mu      sync.Mutex
	storage Storage
	history []core.TestResult
	metrics map[string]core.TestMetrics
}

// New loads prior state from storage. Load failures are non-fatal and
// degrade to empty state, matching first-run behavior.
func New(storage Storage) *Monitor {
	m := &Monitor{storage: storage}
	if history, err := storage.LoadHistory(); err == nil {
		m.history = history
	}
	if metrics, err := storage.LoadMetrics(); err == nil && metrics != nil {
		m.metrics = metrics
	}
	if m.metrics == nil {
		m.metrics = make(map[string]core.TestMetrics)
	}
	return m
}

// RecordResult appends a result, recomputes that test's metrics from
// the retained history and persists both. A save failure is surfaced
// because silently losing a result skews every later pass-rate and
// flakiness computation.
func (m *Monitor) RecordResult(result core.TestResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	m.history = append(m.history, result)
	if len(m.history) > historyLimit {
		m.history = append([]core.TestResult(nil), m.history[len(m.history)-historyLimit:]...)
	}
	m.metrics[result.TestName] = m.computeMetrics(result.TestName)

	if err := m.storage.SaveHistory(m.history); err != nil {
		return core.ErrPersistence.WithMessage("save history").WithCause(err)
	}
	if err := m.storage.SaveMetrics(m.metrics); err != nil {
		return core.ErrPersistence.WithMessage("save metrics").WithCause(err)
	}
	return nil
}

// computeMetrics derives one test's metrics from its full retained
// history. Caller holds m.mu.
func (m *Monitor) computeMetrics(testName string) core.TestMetrics {
	var runs []core.TestResult
	for _, r := range m.history {
		if r.TestName == testName {
			runs = append(runs, r)
		}
	}

	metrics := core.TestMetrics{
		TestName:        testName,
		TotalRuns:       len(runs),
		FailurePatterns: make(map[string]int),
	}
	if len(runs) == 0 {
		return metrics
	}

	var passed int
	var totalDuration int64
	for _, r := range runs {
		if r.Status.IsSuccess() {
			passed++
		}
		totalDuration += r.Duration
		if r.Status == core.StatusFailed && r.Error != "" {
			metrics.FailurePatterns[classify.Classify(r.Error).String()]++
		}
	}
	metrics.PassRate = float64(passed) / float64(len(runs)) * 100
	metrics.AverageDuration = totalDuration / int64(len(runs))
	metrics.Flaky = isFlaky(runs)
	metrics.LastRun = runs[len(runs)-1].Timestamp
	return metrics
}

// isFlaky flags a test whose status changed between any adjacent pair
// of its most recent runs. Known false-positive source: a deliberate
// fix after a genuine failure also reads as a status change.
func isFlaky(runs []core.TestResult) bool {
	if len(runs) > flakeWindow {
		runs = runs[len(runs)-flakeWindow:]
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Status != runs[i-1].Status {
			return true
		}
	}
	return false
}

// History returns a copy of the retained result history.
func (m *Monitor) History() []core.TestResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.TestResult(nil), m.history...)
}

// Metrics returns a copy of the current metrics map.
func (m *Monitor) Metrics() map[string]core.TestMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]core.TestMetrics, len(m.metrics))
	for k, v := range m.metrics {
		out[k] = v
	}
	return out
}

// trackedNames returns metric keys in stable order. Caller holds m.mu.
func (m *Monitor) trackedNames() []string {
	names := make([]string, 0, len(m.metrics))
	for name := range m.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
