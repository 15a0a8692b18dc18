// Package executor orchestrates flow execution, connecting resilient
// actions to failure classification and the monitor.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uilabs-dev/selfheal/pkg/classify"
	"github.com/uilabs-dev/selfheal/pkg/core"
	"github.com/uilabs-dev/selfheal/pkg/driver"
	"github.com/uilabs-dev/selfheal/pkg/flow"
	"github.com/uilabs-dev/selfheal/pkg/monitor"
)

// PageFactory provides a fresh page per flow attempt. The returned
// cleanup releases the page; a page handle is never shared across
// concurrently running flows.
type PageFactory func(ctx context.Context) (driver.Page, func(), error)

// RunnerConfig configures the flow runner.
type RunnerConfig struct {
	Parallelism   int    // Max concurrent flows (0 = sequential)
	StopOnFail    bool   // Stop scheduling new flows on first failure
	Retries       int    // Re-run budget per flow (0 = no retries)
	ScreenshotDir string // Where screenshot steps write their files

	// Live progress callbacks.
	OnFlowStart    func(flowIdx, totalFlows int, name, file string)
	OnStepComplete func(stepIdx int, desc string, passed bool, durationMs int64, errMsg string)
	OnFlowEnd      func(name string, status core.ResultStatus, durationMs int64)
}

// RunResult is the outcome of a whole run.
type RunResult struct {
	Status       core.ResultStatus
	TotalFlows   int
	PassedFlows  int
	FailedFlows  int
	FlakyFlows   int
	SkippedFlows int
	Duration     int64 // Milliseconds, summed across flows
	FlowResults  []FlowResult
}

// FlowResult is the outcome of a single flow, after retries.
type FlowResult struct {
	ID       string
	Name     string
	Status   core.ResultStatus
	Duration int64 // Milliseconds
	Error    string
	Retries  int // Attempts beyond the first

	// Failure is the classified failure when Status is failed, ready
	// for the repair engine.
	Failure *core.TestFailure
}

// Runner executes flows and feeds every outcome to the monitor.
type Runner struct {
	config  RunnerConfig
	pages   PageFactory
	monitor *monitor.Monitor

	mu        sync.Mutex
	recordErr error
}

// New creates a Runner. The monitor may be nil when outcomes need not
// be tracked, e.g. one-off discovery runs.
func New(pages PageFactory, mon *monitor.Monitor, cfg RunnerConfig) *Runner {
	return &Runner{config: cfg, pages: pages, monitor: mon}
}

// Run executes all flows. The returned error reports persistence
// problems recording results; flow failures are expressed in the
// result, not as an error.
func (r *Runner) Run(ctx context.Context, flows []*flow.Flow) (*RunResult, error) {
	results := r.executeFlows(ctx, flows)

	r.mu.Lock()
	recordErr := r.recordErr
	r.mu.Unlock()
	return buildRunResult(results), recordErr
}

func (r *Runner) executeFlows(ctx context.Context, flows []*flow.Flow) []FlowResult {
	results := make([]FlowResult, len(flows))
	total := len(flows)

	if r.config.Parallelism <= 0 {
		stopped := false
		for i, f := range flows {
			if stopped || ctx.Err() != nil {
				results[i] = skippedResult(f)
				continue
			}
			results[i] = r.executeFlow(ctx, f, i, total)
			if r.config.StopOnFail && results[i].Status == core.StatusFailed {
				stopped = true
			}
		}
		return results
	}

	sem := make(chan struct{}, r.config.Parallelism)
	var wg sync.WaitGroup
	var mu sync.Mutex
	stopAll := false

	for i := range flows {
		mu.Lock()
		shouldStop := stopAll
		mu.Unlock()
		if shouldStop || ctx.Err() != nil {
			results[i] = skippedResult(flows[i])
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result := r.executeFlow(ctx, flows[idx], idx, total)
			results[idx] = result

			if r.config.StopOnFail && result.Status == core.StatusFailed {
				mu.Lock()
				stopAll = true
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return results
}

func skippedResult(f *flow.Flow) FlowResult {
	return FlowResult{
		ID:     uuid.NewString(),
		Name:   f.Name(),
		Status: core.StatusSkipped,
		Error:  "run stopped",
	}
}

// executeFlow runs one flow with its retry budget. A flow that passes
// only after a retry is reported flaky, not passed.
func (r *Runner) executeFlow(ctx context.Context, f *flow.Flow, flowIdx, totalFlows int) FlowResult {
	if cb := r.config.OnFlowStart; cb != nil {
		cb(flowIdx, totalFlows, f.Name(), f.SourcePath)
	}

	retries := r.config.Retries
	if f.Config.Retries > 0 {
		retries = f.Config.Retries
	}

	start := time.Now()
	var lastErr error
	var attemptsUsed int
	for attempt := 0; attempt <= retries; attempt++ {
		attemptsUsed = attempt
		lastErr = r.runOnce(ctx, f)
		if lastErr == nil || ctx.Err() != nil {
			break
		}
	}
	duration := time.Since(start).Milliseconds()

	result := FlowResult{
		ID:       uuid.NewString(),
		Name:     f.Name(),
		Duration: duration,
		Retries:  attemptsUsed,
	}
	switch {
	case lastErr == nil && attemptsUsed == 0:
		result.Status = core.StatusPassed
	case lastErr == nil:
		result.Status = core.StatusFlaky
	default:
		result.Status = core.StatusFailed
		result.Error = lastErr.Error()
		failure := classify.NewFailure(f.Name(), f.SourcePath, lastErr.Error())
		result.Failure = &failure
	}

	r.record(result)
	if cb := r.config.OnFlowEnd; cb != nil {
		cb(result.Name, result.Status, duration)
	}
	return result
}

// record submits the outcome to the monitor, keeping the first
// persistence error for Run to surface.
func (r *Runner) record(result FlowResult) {
	if r.monitor == nil {
		return
	}
	err := r.monitor.RecordResult(core.TestResult{
		ID:       result.ID,
		TestName: result.Name,
		Status:   result.Status,
		Duration: result.Duration,
		Error:    result.Error,
		Retries:  result.Retries,
	})
	if err != nil {
		r.mu.Lock()
		if r.recordErr == nil {
			r.recordErr = err
		}
		r.mu.Unlock()
	}
}

func buildRunResult(flowResults []FlowResult) *RunResult {
	result := &RunResult{
		TotalFlows:  len(flowResults),
		FlowResults: flowResults,
	}
	for _, fr := range flowResults {
		result.Duration += fr.Duration
		switch fr.Status {
		case core.StatusPassed:
			result.PassedFlows++
		case core.StatusFailed:
			result.FailedFlows++
		case core.StatusFlaky:
			result.FlakyFlows++
		case core.StatusSkipped:
			result.SkippedFlows++
		}
	}
	switch {
	case result.FailedFlows > 0:
		result.Status = core.StatusFailed
	case result.FlakyFlows > 0:
		result.Status = core.StatusFlaky
	default:
		result.Status = core.StatusPassed
	}
	return result
}
