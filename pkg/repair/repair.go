// Package repair applies category-specific source transformations to
// failing tests: injecting fallback selectors, widening timeouts,
// relaxing assertions and adding retry/guard code.
package repair

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

// historySize bounds the per-process repair history cache.
const historySize = 256

// Engine applies repair strategies to test source files. One instance
// per process; the repair history it keeps is process-lifetime only.
type Engine struct {
	history *lru.Cache[string, []core.RepairResult]
}

// NewEngine creates a repair engine.
func NewEngine() (*Engine, error) {
	history, err := lru.New[string, []core.RepairResult](historySize)
	if err != nil {
		return nil, err
	}
	return &Engine{history: history}, nil
}

// Apply runs the strategy for the failure's category against the given
// source text and returns the result plus the (possibly unchanged) new
// source. Pure: no file I/O.
func (e *Engine) Apply(failure core.TestFailure, source string) (core.RepairResult, string) {
	var (
		strategy string
		changes  []string
		errMsg   string
		output   = source
	)

	switch failure.Type {
	case core.FailureSelector:
		strategy = "selector-fallback"
		output, changes, errMsg = repairSelector(failure, source)
	case core.FailureTiming:
		strategy = "timing-widen"
		output, changes = repairTiming(failure, source)
	case core.FailureAssertion:
		strategy = "assertion-relax"
		output, changes = repairAssertion(source)
	case core.FailureNavigation:
		strategy = "navigation-guard"
		output, changes = repairNavigation(source)
	case core.FailureNetwork:
		strategy = "network-resilience"
		output, changes = repairNetwork(failure, source)
	case core.FailureUnknown:
		result := core.RepairResult{
			Success:  false,
			Strategy: "none",
			Error:    "unknown failures are not auto-repaired",
		}
		e.record(failure.Test, result)
		return result, source
	}

	result := core.RepairResult{
		Success:  len(changes) > 0,
		Strategy: strategy,
		Changes:  changes,
	}
	if !result.Success {
		if errMsg == "" {
			errMsg = fmt.Sprintf("no applicable %s pattern found in source", strategy)
		}
		result.Error = errMsg
		output = source
	}

	e.record(failure.Test, result)
	return result, output
}

// Repair reads the failing test's source, applies the category
// strategy and writes the file back only when at least one change was
// produced. I/O failures are returned as errors; "nothing to do" is a
// result, not an error.
func (e *Engine) Repair(failure core.TestFailure) (core.RepairResult, error) {
	data, err := os.ReadFile(failure.File)
	if err != nil {
		return core.RepairResult{}, core.ErrPersistence.
			WithMessage(fmt.Sprintf("cannot read test source %s", failure.File)).
			WithCause(err)
	}

	result, output := e.Apply(failure, string(data))
	if !result.Success {
		return result, nil
	}

	if err := os.WriteFile(failure.File, []byte(output), 0644); err != nil {
		return core.RepairResult{}, core.ErrPersistence.
			WithMessage(fmt.Sprintf("cannot write repaired source %s", failure.File)).
			WithCause(err)
	}
	return result, nil
}

// History returns the repair attempts recorded for a test this process.
func (e *Engine) History(test string) []core.RepairResult {
	results, _ := e.history.Get(test)
	return results
}

func (e *Engine) record(test string, result core.RepairResult) {
	results, _ := e.history.Get(test)
	e.history.Add(test, append(results, result))
}
