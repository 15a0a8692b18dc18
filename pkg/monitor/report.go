package monitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

// Health score penalties per offending test.
const (
	failingPenalty = 5
	flakyPenalty   = 3
	slowPenalty    = 2
)

// GenerateReport builds a snapshot of overall test health and renders
// the HTML dashboard. Monitor state is never mutated; the dashboard
// artifact is the only side effect, and a failure writing it is
// returned alongside the still-valid report.
func (m *Monitor) GenerateReport() (core.MonitoringReport, error) {
	m.mu.Lock()
	report := m.buildReport()
	m.mu.Unlock()

	var err error
	if html, renderErr := renderDashboard(report); renderErr != nil {
		err = renderErr
	} else if writeErr := m.storage.WriteDashboard(html); writeErr != nil {
		err = core.ErrPersistence.WithMessage("write dashboard").WithCause(writeErr)
	}
	return report, err
}

// buildReport assembles the report from current state. Caller holds m.mu.
func (m *Monitor) buildReport() core.MonitoringReport {
	report := core.MonitoringReport{
		ID:           uuid.NewString(),
		GeneratedAt:  time.Now(),
		TotalTests:   len(m.metrics),
		PassingTests: []string{},
		FailingTests: []string{},
		FlakyTests:   []string{},
	}

	var slow int
	for _, name := range m.trackedNames() {
		met := m.metrics[name]
		switch {
		case met.PassRate >= passingThreshold:
			report.PassingTests = append(report.PassingTests, name)
		case met.PassRate < failingThreshold:
			report.FailingTests = append(report.FailingTests, name)
		}
		if met.Flaky {
			report.FlakyTests = append(report.FlakyTests, name)
		}
		if met.AverageDuration > SlowTestMs {
			slow++
		}
	}

	score := 100 -
		failingPenalty*len(report.FailingTests) -
		flakyPenalty*len(report.FlakyTests) -
		slowPenalty*slow
	if score < 0 {
		score = 0
	}
	report.HealthScore = score

	report.CriticalIssues = m.criticalIssues()
	report.Recommendations = m.recommendations(slow, len(report.FlakyTests))

	recent := m.history
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	report.RecentResults = append([]core.TestResult(nil), recent...)

	report.Metrics = make(map[string]core.TestMetrics, len(m.metrics))
	for k, v := range m.metrics {
		report.Metrics[k] = v
	}
	return report
}

// criticalIssues lists conditions needing immediate attention. Caller
// holds m.mu.
func (m *Monitor) criticalIssues() []string {
	var issues []string
	var flaky int
	for _, name := range m.trackedNames() {
		met := m.metrics[name]
		if met.PassRate == 0 && met.TotalRuns >= 4 {
			issues = append(issues, fmt.Sprintf("%s has never passed in %d runs", name, met.TotalRuns))
		}
		if met.AverageDuration > VerySlowMs {
			issues = append(issues, fmt.Sprintf("%s averages %dms per run", name, met.AverageDuration))
		}
		if met.Flaky {
			flaky++
		}
	}
	if flaky > 5 {
		issues = append(issues, fmt.Sprintf("%d tests are flaky; suite stability is degraded", flaky))
	}
	return issues
}

// recommendations derives suggestions from the aggregate
// failure-category histogram. Caller holds m.mu.
func (m *Monitor) recommendations(slow, flaky int) []string {
	histogram := make(map[string]int)
	for _, met := range m.metrics {
		for category, count := range met.FailurePatterns {
			histogram[category] += count
		}
	}

	var recs []string
	if histogram[core.FailureTiming.String()] > 0 {
		recs = append(recs, "Raise timeouts or add explicit waits for tests failing on timing")
	}
	if histogram[core.FailureSelector.String()] > 0 {
		recs = append(recs, "Add fallback selectors or enable self-healing for tests failing on selectors")
	}
	if histogram[core.FailureNetwork.String()] > 0 {
		recs = append(recs, "Add request retry and error handling for tests failing on network calls")
	}
	if histogram[core.FailureNavigation.String()] > 0 {
		recs = append(recs, "Guard navigation calls with network-idle waits and a retry")
	}
	if slow > 0 {
		recs = append(recs, fmt.Sprintf("Profile the %d slow tests; consider splitting long scenarios", slow))
	}
	if flaky > 0 {
		recs = append(recs, fmt.Sprintf("Quarantine and stabilize the %d flaky tests before they mask regressions", flaky))
	}
	return recs
}
