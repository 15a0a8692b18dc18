package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/uilabs-dev/selfheal/pkg/config"
	"github.com/uilabs-dev/selfheal/pkg/core"
	"github.com/uilabs-dev/selfheal/pkg/executor"
	"github.com/uilabs-dev/selfheal/pkg/flow"
	"github.com/uilabs-dev/selfheal/pkg/logger"
	"github.com/uilabs-dev/selfheal/pkg/monitor"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run YAML test flows",
	ArgsUsage: "<flow-file-or-dir>...",
	Description: `Run one or more flow files. Directories are scanned for .yaml/.yml
files. With no arguments, the flow patterns from selfheal.yaml are
used.

Every outcome is recorded to the health history; failed flows are
classified so 'selfheal repair' can act on them.`,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Run up to N flows concurrently (0 = sequential)",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: "Re-run budget per flow",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Stop scheduling new flows after the first failure",
		},
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Base URL for relative navigation",
		},
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only run flows with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Skip flows with these tags",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory for history, metrics and dashboard",
		},
	},
	Action: runAction,
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyRunFlags(c, cfg)

	if err := setupLogging(c, cfg); err != nil {
		return err
	}
	defer logger.Close()

	flows, err := collectFlows(c.Args().Slice(), cfg)
	if err != nil {
		return err
	}
	if len(flows) == 0 {
		return cli.Exit("no flows selected", 1)
	}
	for _, f := range flows {
		if f.Config.BaseURL == "" {
			f.Config.BaseURL = cfg.BaseURL
		}
	}

	factory, err := pageFactoryFor(c.String("driver"))
	if err != nil {
		return err
	}
	storage, err := monitor.NewFileStorage(cfg.DataDir)
	if err != nil {
		return err
	}
	mon := monitor.New(storage)

	runner := executor.New(factory, mon, executor.RunnerConfig{
		Parallelism:   cfg.Parallelism,
		StopOnFail:    cfg.StopOnFail,
		Retries:       cfg.Retries,
		ScreenshotDir: cfg.ScreenshotDir,
		OnFlowStart: func(idx, total int, name, file string) {
			fmt.Printf("[%d/%d] %s (%s)\n", idx+1, total, name, file)
			logger.Info("flow start: %s", name)
		},
		OnStepComplete: func(_ int, desc string, passed bool, durationMs int64, errMsg string) {
			if passed {
				logger.Debug("  step ok: %s (%dms)", desc, durationMs)
				return
			}
			logger.Error("  step failed: %s: %s", desc, errMsg)
		},
		OnFlowEnd: func(name string, status core.ResultStatus, durationMs int64) {
			fmt.Printf("  %s %s (%s)\n", statusMark(status), name, formatMillis(durationMs))
			logger.Info("flow end: %s %s", name, status)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, runErr := runner.Run(ctx, flows)

	fmt.Println()
	fmt.Printf("Flows: %d total, %d passed, %d failed, %d flaky, %d skipped\n",
		result.TotalFlows, result.PassedFlows, result.FailedFlows, result.FlakyFlows, result.SkippedFlows)

	for _, fr := range result.FlowResults {
		if fr.Failure != nil {
			fmt.Printf("  %s failed (%s): %s\n", fr.Name, fr.Failure.Type, firstLine(fr.Error))
		}
	}

	if report, err := mon.GenerateReport(); err == nil {
		fmt.Printf("Health score: %d (dashboard: %s)\n", report.HealthScore, filepath.Join(cfg.DataDir, "dashboard.html"))
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", runErr)
	}
	if result.Status == core.StatusFailed {
		return cli.Exit("", 1)
	}
	return nil
}

// loadConfig reads the workspace config named by --config, falling
// back to the working directory.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadFromDir(".")
}

func applyRunFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("parallel") {
		cfg.Parallelism = c.Int("parallel")
	}
	if c.IsSet("retries") {
		cfg.Retries = c.Int("retries")
	}
	if c.IsSet("stop-on-fail") {
		cfg.StopOnFail = c.Bool("stop-on-fail")
	}
	if c.IsSet("base-url") {
		cfg.BaseURL = c.String("base-url")
	}
	if c.IsSet("include-tags") {
		cfg.IncludeTags = c.StringSlice("include-tags")
	}
	if c.IsSet("exclude-tags") {
		cfg.ExcludeTags = c.StringSlice("exclude-tags")
	}
	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
}

func setupLogging(c *cli.Context, cfg *config.Config) error {
	logPath := cfg.LogFile
	if c.IsSet("log-file") {
		logPath = c.String("log-file")
	}
	if logPath == "" {
		return nil
	}
	if err := logger.Init(logPath); err != nil {
		return err
	}
	logger.SetVerbose(c.Bool("verbose"))
	return nil
}

// collectFlows resolves args (or configured patterns) to parsed,
// tag-filtered flows.
func collectFlows(args []string, cfg *config.Config) ([]*flow.Flow, error) {
	var paths []string
	if len(args) == 0 {
		for _, pattern := range cfg.Flows {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("bad flow pattern %q: %w", pattern, err)
			}
			paths = append(paths, matches...)
		}
	} else {
		paths = args
	}

	var flows []*flow.Flow
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			dirFlows, err := flow.LoadDir(path)
			if err != nil {
				return nil, err
			}
			flows = append(flows, dirFlows...)
			continue
		}
		f, err := flow.ParseFile(path)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}

	selected := flows[:0]
	for _, f := range flows {
		if cfg.SelectsFlow(f.Config.Tags) {
			selected = append(selected, f)
		}
	}
	return selected, nil
}

func statusMark(status core.ResultStatus) string {
	switch status {
	case core.StatusPassed:
		return "PASS"
	case core.StatusFlaky:
		return "FLAKY"
	case core.StatusSkipped:
		return "SKIP"
	default:
		return "FAIL"
	}
}

func formatMillis(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
