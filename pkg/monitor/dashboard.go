package monitor

import (
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

// dashboardData is the template model for the HTML dashboard.
type dashboardData struct {
	GeneratedAt string
	HealthScore int
	HealthClass string
	TotalTests  int
	Passing     int
	Failing     int
	Flaky       int
	Issues      []string
	Recs        []string
	Rows        []metricsRow
	Recent      []resultRow
}

type metricsRow struct {
	TestName    string
	TotalRuns   int
	PassRate    string
	AvgDuration string
	Flaky       bool
	StatusClass string
}

type resultRow struct {
	TestName    string
	Status      string
	StatusClass string
	Duration    string
	When        string
	Error       string
}

func healthClass(score int) string {
	switch {
	case score >= 90:
		return "healthy"
	case score >= 70:
		return "degraded"
	default:
		return "critical"
	}
}

func metricsClass(met core.TestMetrics) string {
	switch {
	case met.PassRate < failingThreshold:
		return "failed"
	case met.Flaky || met.PassRate < passingThreshold:
		return "flaky"
	default:
		return "passed"
	}
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// renderDashboard produces the full dashboard HTML for a report.
func renderDashboard(report core.MonitoringReport) (string, error) {
	data := dashboardData{
		GeneratedAt: report.GeneratedAt.Format("2006-01-02 15:04:05"),
		HealthScore: report.HealthScore,
		HealthClass: healthClass(report.HealthScore),
		TotalTests:  report.TotalTests,
		Passing:     len(report.PassingTests),
		Failing:     len(report.FailingTests),
		Flaky:       len(report.FlakyTests),
		Issues:      report.CriticalIssues,
		Recs:        report.Recommendations,
	}

	names := make([]string, 0, len(report.Metrics))
	for name := range report.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		met := report.Metrics[name]
		data.Rows = append(data.Rows, metricsRow{
			TestName:    name,
			TotalRuns:   met.TotalRuns,
			PassRate:    fmt.Sprintf("%.1f%%", met.PassRate),
			AvgDuration: formatMs(met.AverageDuration),
			Flaky:       met.Flaky,
			StatusClass: metricsClass(met),
		})
	}

	// Newest first.
	for i := len(report.RecentResults) - 1; i >= 0; i-- {
		r := report.RecentResults[i]
		data.Recent = append(data.Recent, resultRow{
			TestName:    r.TestName,
			Status:      string(r.Status),
			StatusClass: string(r.Status),
			Duration:    formatMs(r.Duration),
			When:        r.Timestamp.Format("15:04:05"),
			Error:       r.Error,
		})
	}

	var buf strings.Builder
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render dashboard: %w", err)
	}
	return buf.String(), nil
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(dashboardTemplate))

const dashboardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Test Health Dashboard</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #000000;
            --text-muted: rgb(107, 114, 128);
            --border-color: #e5e7eb;
            --passed: #22c55e;
            --failed: #ef4444;
            --flaky: #eab308;
            --skipped: #6b7280;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
            padding: 24px;
        }
        .header { display: flex; align-items: baseline; justify-content: space-between; margin-bottom: 24px; }
        .header h1 { font-size: 20px; }
        .header .meta { color: var(--text-muted); font-size: 13px; }
        .cards { display: flex; gap: 16px; margin-bottom: 24px; flex-wrap: wrap; }
        .card {
            background: var(--bg-secondary);
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 16px 24px;
            min-width: 140px;
        }
        .card .value { font-size: 28px; font-weight: 600; }
        .card .label { color: var(--text-muted); font-size: 13px; }
        .healthy .value { color: var(--passed); }
        .degraded .value { color: var(--flaky); }
        .critical .value { color: var(--failed); }
        section { margin-bottom: 24px; }
        h2 { font-size: 15px; margin-bottom: 8px; }
        ul { padding-left: 20px; }
        li { font-size: 14px; }
        table { border-collapse: collapse; width: 100%; font-size: 14px; }
        th, td { text-align: left; padding: 6px 12px; border-bottom: 1px solid var(--border-color); }
        th { color: var(--text-muted); font-weight: 500; }
        .passed { color: var(--passed); }
        .failed { color: var(--failed); }
        .flaky { color: var(--flaky); }
        .skipped { color: var(--skipped); }
        .error { color: var(--text-muted); font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Test Health Dashboard</h1>
        <span class="meta">Generated {{.GeneratedAt}}</span>
    </div>
    <div class="cards">
        <div class="card {{.HealthClass}}">
            <div class="value">{{.HealthScore}}</div>
            <div class="label">Health score</div>
        </div>
        <div class="card"><div class="value">{{.TotalTests}}</div><div class="label">Tracked tests</div></div>
        <div class="card"><div class="value passed">{{.Passing}}</div><div class="label">Passing</div></div>
        <div class="card"><div class="value failed">{{.Failing}}</div><div class="label">Failing</div></div>
        <div class="card"><div class="value flaky">{{.Flaky}}</div><div class="label">Flaky</div></div>
    </div>
    {{if .Issues}}
    <section>
        <h2>Critical issues</h2>
        <ul>{{range .Issues}}<li class="failed">{{.}}</li>{{end}}</ul>
    </section>
    {{end}}
    {{if .Recs}}
    <section>
        <h2>Recommendations</h2>
        <ul>{{range .Recs}}<li>{{.}}</li>{{end}}</ul>
    </section>
    {{end}}
    <section>
        <h2>Per-test metrics</h2>
        <table>
            <tr><th>Test</th><th>Runs</th><th>Pass rate</th><th>Avg duration</th><th>Flaky</th></tr>
            {{range .Rows}}
            <tr class="{{.StatusClass}}">
                <td>{{.TestName}}</td>
                <td>{{.TotalRuns}}</td>
                <td>{{.PassRate}}</td>
                <td>{{.AvgDuration}}</td>
                <td>{{if .Flaky}}yes{{else}}no{{end}}</td>
            </tr>
            {{end}}
        </table>
    </section>
    <section>
        <h2>Recent results</h2>
        <table>
            <tr><th>Test</th><th>Status</th><th>Duration</th><th>Time</th><th>Error</th></tr>
            {{range .Recent}}
            <tr>
                <td>{{.TestName}}</td>
                <td class="{{.StatusClass}}">{{.Status}}</td>
                <td>{{.Duration}}</td>
                <td>{{.When}}</td>
                <td class="error">{{.Error}}</td>
            </tr>
            {{end}}
        </table>
    </section>
</body>
</html>
`
