package cli

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/uilabs-dev/selfheal/pkg/monitor"
)

var reportCommand = &cli.Command{
	Name:  "report",
	Usage: "Summarize recorded test health and refresh the dashboard",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding history and metrics",
		},
	},
	Action: reportAction,
}

func reportAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}

	storage, err := monitor.NewFileStorage(cfg.DataDir)
	if err != nil {
		return err
	}
	mon := monitor.New(storage)

	report, genErr := mon.GenerateReport()

	fmt.Printf("Health score: %d/100\n", report.HealthScore)
	fmt.Printf("Tracked tests: %d (%d passing, %d failing, %d flaky)\n",
		report.TotalTests, len(report.PassingTests), len(report.FailingTests), len(report.FlakyTests))

	if len(report.CriticalIssues) > 0 {
		fmt.Println("\nCritical issues:")
		for _, issue := range report.CriticalIssues {
			fmt.Printf("  - %s\n", issue)
		}
	}
	if len(report.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range report.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
	fmt.Printf("\nDashboard: %s\n", filepath.Join(cfg.DataDir, "dashboard.html"))

	return genErr
}
