package monitor

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

func result(name string, status core.ResultStatus, durMs int64, errMsg string) core.TestResult {
	return core.TestResult{TestName: name, Status: status, Duration: durMs, Error: errMsg}
}

func record(t *testing.T, m *Monitor, r core.TestResult) {
	t.Helper()
	if err := m.RecordResult(r); err != nil {
		t.Fatalf("RecordResult: %v", err)
	}
}

func TestRecordResult_RecomputesMetricsFromHistory(t *testing.T) {
	m := New(&MemoryStorage{})
	record(t, m, result("login", core.StatusPassed, 100, ""))
	record(t, m, result("login", core.StatusFailed, 300, "timeout 5000ms exceeded"))

	met, ok := m.Metrics()["login"]
	if !ok {
		t.Fatal("no metrics for login")
	}
	if met.TotalRuns != 2 {
		t.Errorf("TotalRuns = %d, want 2", met.TotalRuns)
	}
	if met.PassRate != 50 {
		t.Errorf("PassRate = %v, want 50", met.PassRate)
	}
	if met.AverageDuration != 200 {
		t.Errorf("AverageDuration = %d, want 200", met.AverageDuration)
	}
	if met.FailurePatterns["timing"] != 1 {
		t.Errorf("FailurePatterns = %v, want timing:1", met.FailurePatterns)
	}
	if met.LastRun.IsZero() {
		t.Error("LastRun not set")
	}
}

func TestRecordResult_FlakyCountsAsSuccess(t *testing.T) {
	m := New(&MemoryStorage{})
	record(t, m, result("search", core.StatusFlaky, 100, ""))

	if met := m.Metrics()["search"]; met.PassRate != 100 {
		t.Errorf("PassRate = %v, want 100 for a retried-but-passed run", met.PassRate)
	}
}

func TestFlakinessDetection(t *testing.T) {
	cases := []struct {
		name     string
		statuses []core.ResultStatus
		want     bool
	}{
		{
			name:     "alternating",
			statuses: []core.ResultStatus{core.StatusPassed, core.StatusFailed, core.StatusPassed, core.StatusFailed, core.StatusPassed},
			want:     true,
		},
		{
			name:     "stable",
			statuses: []core.ResultStatus{core.StatusPassed, core.StatusPassed, core.StatusPassed, core.StatusPassed, core.StatusPassed},
			want:     false,
		},
		{
			name:     "old failure outside window",
			statuses: []core.ResultStatus{core.StatusFailed, core.StatusPassed, core.StatusPassed, core.StatusPassed, core.StatusPassed, core.StatusPassed},
			want:     false,
		},
		{
			name:     "single run",
			statuses: []core.ResultStatus{core.StatusFailed},
			want:     false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(&MemoryStorage{})
			for _, st := range tc.statuses {
				record(t, m, result("t", st, 10, ""))
			}
			if got := m.Metrics()["t"].Flaky; got != tc.want {
				t.Errorf("Flaky = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHistoryBoundedFIFO(t *testing.T) {
	m := New(&MemoryStorage{})
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 1005; i++ {
		record(t, m, core.TestResult{
			TestName:  "bulk",
			Status:    core.StatusPassed,
			Duration:  10,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
	}

	history := m.History()
	if len(history) != 1000 {
		t.Fatalf("retained history = %d, want 1000", len(history))
	}
	// The 5 oldest are evicted, so the earliest retained entry is the
	// 6th recorded.
	if got, want := history[0].Timestamp, base.Add(5*time.Second); !got.Equal(want) {
		t.Errorf("earliest retained timestamp = %v, want %v", got, want)
	}
	if met := m.Metrics()["bulk"]; met.TotalRuns != 1000 {
		t.Errorf("TotalRuns = %d, want 1000 (computed over retained window)", met.TotalRuns)
	}
}

// seedReportFixture records 7 passing, 2 failing and 1 flaky test.
func seedReportFixture(t *testing.T, m *Monitor) {
	t.Helper()
	for i := 0; i < 7; i++ {
		record(t, m, result(fmt.Sprintf("pass-%d", i), core.StatusPassed, 100, ""))
	}
	for i := 0; i < 2; i++ {
		record(t, m, result(fmt.Sprintf("fail-%d", i), core.StatusFailed, 100, "expect(received).toBe(expected)"))
	}
	for _, st := range []core.ResultStatus{core.StatusPassed, core.StatusFailed, core.StatusPassed} {
		record(t, m, result("flappy", st, 100, ""))
	}
}

func TestGenerateReport_HealthScore(t *testing.T) {
	m := New(&MemoryStorage{})
	seedReportFixture(t, m)

	report, err := m.GenerateReport()
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if report.TotalTests != 10 {
		t.Errorf("TotalTests = %d, want 10", report.TotalTests)
	}
	if len(report.FailingTests) != 2 {
		t.Errorf("FailingTests = %v, want 2 entries", report.FailingTests)
	}
	if len(report.FlakyTests) != 1 || report.FlakyTests[0] != "flappy" {
		t.Errorf("FlakyTests = %v, want [flappy]", report.FlakyTests)
	}
	if len(report.PassingTests) != 7 {
		t.Errorf("PassingTests = %v, want 7 entries", report.PassingTests)
	}
	// 100 - 2*5 - 1*3
	if report.HealthScore != 87 {
		t.Errorf("HealthScore = %d, want 87", report.HealthScore)
	}
}

func TestHealthScore_DecreasesWithNewFailingTest(t *testing.T) {
	m := New(&MemoryStorage{})
	seedReportFixture(t, m)
	before, _ := m.GenerateReport()

	record(t, m, result("fail-new", core.StatusFailed, 100, ""))
	after, _ := m.GenerateReport()

	if after.HealthScore >= before.HealthScore {
		t.Errorf("HealthScore %d -> %d, want strict decrease", before.HealthScore, after.HealthScore)
	}
}

func TestHealthScore_FlooredAtZero(t *testing.T) {
	m := New(&MemoryStorage{})
	for i := 0; i < 25; i++ {
		record(t, m, result(fmt.Sprintf("fail-%d", i), core.StatusFailed, 100, ""))
	}

	report, _ := m.GenerateReport()
	if report.HealthScore != 0 {
		t.Errorf("HealthScore = %d, want 0 floor", report.HealthScore)
	}
}

func TestGenerateReport_SlowTestPenalty(t *testing.T) {
	m := New(&MemoryStorage{})
	record(t, m, result("fast", core.StatusPassed, 100, ""))
	record(t, m, result("slow", core.StatusPassed, SlowTestMs+1000, ""))

	report, _ := m.GenerateReport()
	if report.HealthScore != 98 {
		t.Errorf("HealthScore = %d, want 98 (one slow test)", report.HealthScore)
	}
}

func TestGenerateReport_DoesNotMutateState(t *testing.T) {
	storage := &MemoryStorage{}
	m := New(storage)
	seedReportFixture(t, m)

	before := m.Metrics()
	first, _ := m.GenerateReport()
	second, _ := m.GenerateReport()
	after := m.Metrics()

	if len(before) != len(after) {
		t.Fatalf("metrics map changed size: %d -> %d", len(before), len(after))
	}
	for name, met := range before {
		if after[name].TotalRuns != met.TotalRuns || after[name].PassRate != met.PassRate {
			t.Errorf("metrics for %s mutated by report generation", name)
		}
	}
	if first.HealthScore != second.HealthScore {
		t.Errorf("repeated reports disagree: %d vs %d", first.HealthScore, second.HealthScore)
	}
}

func TestGenerateReport_WritesDashboard(t *testing.T) {
	storage := &MemoryStorage{}
	m := New(storage)
	seedReportFixture(t, m)

	report, err := m.GenerateReport()
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if storage.Dashboard == "" {
		t.Fatal("dashboard not written")
	}
	if !strings.Contains(storage.Dashboard, fmt.Sprintf(">%d<", report.HealthScore)) {
		t.Error("dashboard missing health score")
	}
	if !strings.Contains(storage.Dashboard, "flappy") {
		t.Error("dashboard missing per-test row")
	}
}

func TestGenerateReport_DashboardWriteFailureStillReturnsReport(t *testing.T) {
	storage := &MemoryStorage{WriteDashboardErr: errors.New("disk full")}
	m := New(storage)
	seedReportFixture(t, m)

	report, err := m.GenerateReport()
	if !errors.Is(err, core.ErrPersistence) {
		t.Errorf("err = %v, want persistence error", err)
	}
	if report.TotalTests != 10 {
		t.Errorf("report degraded on dashboard failure: TotalTests = %d", report.TotalTests)
	}
}

func TestCriticalIssues(t *testing.T) {
	m := New(&MemoryStorage{})
	for i := 0; i < 4; i++ {
		record(t, m, result("hopeless", core.StatusFailed, 100, "element not found"))
	}
	for i := 0; i < 2; i++ {
		record(t, m, result("glacial", core.StatusPassed, VerySlowMs+5000, ""))
	}

	report, _ := m.GenerateReport()
	var neverPassed, verySlow bool
	for _, issue := range report.CriticalIssues {
		if strings.Contains(issue, "hopeless has never passed in 4 runs") {
			neverPassed = true
		}
		if strings.Contains(issue, "glacial averages") {
			verySlow = true
		}
	}
	if !neverPassed {
		t.Errorf("missing never-passed issue in %v", report.CriticalIssues)
	}
	if !verySlow {
		t.Errorf("missing very-slow issue in %v", report.CriticalIssues)
	}
}

func TestCriticalIssues_AggregateFlakinessWarning(t *testing.T) {
	m := New(&MemoryStorage{})
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("flaky-%d", i)
		record(t, m, result(name, core.StatusPassed, 10, ""))
		record(t, m, result(name, core.StatusFailed, 10, ""))
	}

	report, _ := m.GenerateReport()
	var warned bool
	for _, issue := range report.CriticalIssues {
		if strings.Contains(issue, "6 tests are flaky") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("missing aggregate flakiness warning in %v", report.CriticalIssues)
	}
}

func TestRecommendations_FollowFailureHistogram(t *testing.T) {
	m := New(&MemoryStorage{})
	record(t, m, result("a", core.StatusFailed, 100, `waiting for selector "#x" failed`))
	record(t, m, result("b", core.StatusFailed, 100, "timeout 5000ms exceeded"))
	record(t, m, result("c", core.StatusFailed, 100, "net::ERR_CONNECTION_REFUSED"))

	report, _ := m.GenerateReport()
	joined := strings.Join(report.Recommendations, "\n")
	for _, want := range []string{"fallback selectors", "timeouts", "retry"} {
		if !strings.Contains(joined, want) {
			t.Errorf("recommendations missing %q:\n%s", want, joined)
		}
	}
}

func TestRecordResult_SaveFailureSurfaces(t *testing.T) {
	storage := &MemoryStorage{SaveHistoryErr: errors.New("read-only fs")}
	m := New(storage)

	err := m.RecordResult(result("t", core.StatusPassed, 10, ""))
	if !errors.Is(err, core.ErrPersistence) {
		t.Errorf("err = %v, want persistence error", err)
	}
}

func TestNew_LoadFailureDefaultsToEmptyState(t *testing.T) {
	m := New(&MemoryStorage{LoadErr: errors.New("corrupt file")})

	if len(m.History()) != 0 || len(m.Metrics()) != 0 {
		t.Fatal("expected empty first-run state after load failure")
	}
	// Recording still works; saves are unaffected.
	storageOK := &MemoryStorage{}
	m = New(storageOK)
	record(t, m, result("t", core.StatusPassed, 10, ""))
	if len(storageOK.History) != 1 {
		t.Errorf("history not persisted after recovery: %d entries", len(storageOK.History))
	}
}

func TestRecordResult_AssignsIDAndTimestamp(t *testing.T) {
	m := New(&MemoryStorage{})
	record(t, m, result("t", core.StatusPassed, 10, ""))

	history := m.History()
	if history[0].ID == "" {
		t.Error("result ID not assigned")
	}
	if history[0].Timestamp.IsZero() {
		t.Error("result timestamp not assigned")
	}
}

func TestFileStorage_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}

	// Fresh directory reads as first-run state.
	if history, err := storage.LoadHistory(); err != nil || len(history) != 0 {
		t.Fatalf("LoadHistory on empty dir = %v, %v", history, err)
	}

	m := New(storage)
	record(t, m, result("login", core.StatusPassed, 120, ""))
	record(t, m, result("login", core.StatusFailed, 250, "timeout 3000ms exceeded"))
	if _, err := m.GenerateReport(); err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}

	// A second monitor sees the persisted state.
	reloaded, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage: %v", err)
	}
	m2 := New(reloaded)
	if got := len(m2.History()); got != 2 {
		t.Errorf("reloaded history = %d entries, want 2", got)
	}
	met := m2.Metrics()["login"]
	if met.TotalRuns != 2 || met.PassRate != 50 {
		t.Errorf("reloaded metrics = %+v", met)
	}
}
