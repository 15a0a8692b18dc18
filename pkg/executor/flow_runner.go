package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uilabs-dev/selfheal/pkg/actions"
	"github.com/uilabs-dev/selfheal/pkg/driver"
	"github.com/uilabs-dev/selfheal/pkg/flow"
	"github.com/uilabs-dev/selfheal/pkg/resolve"
)

// defaultNavigateTimeout bounds navigation steps without an explicit
// timeout.
const defaultNavigateTimeout = 30 * time.Second

// runOnce executes every step of a flow against a fresh page.
func (r *Runner) runOnce(ctx context.Context, f *flow.Flow) error {
	page, cleanup, err := r.pages(ctx)
	if err != nil {
		return fmt.Errorf("acquire page: %w", err)
	}
	defer cleanup()

	act := actions.New(page)
	for i, step := range f.Steps {
		start := time.Now()
		stepErr := r.runStep(ctx, page, act, f, step)
		if cb := r.config.OnStepComplete; cb != nil {
			msg := ""
			if stepErr != nil {
				msg = stepErr.Error()
			}
			cb(i, step.Describe(), stepErr == nil, time.Since(start).Milliseconds(), msg)
		}
		if stepErr != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Describe(), stepErr)
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, page driver.Page, act *actions.Actions, f *flow.Flow, step flow.Step) error {
	switch s := step.(type) {
	case *flow.NavigateStep:
		timeout := stepTimeout(s.TimeoutMs, defaultNavigateTimeout)
		return page.Navigate(ctx, resolveURL(f.Config.BaseURL, s.URL), driver.NavigateOptions{
			WaitUntil: driver.LoadStateLoad,
			Timeout:   timeout,
		})

	case *flow.ClickStep:
		return act.Click(ctx, targetFrom(s.Selector), actions.ClickOptions{
			Timeout: stepTimeout(s.TimeoutMs, 0),
		})

	case *flow.FillStep:
		return act.Fill(ctx, targetFrom(s.Selector), s.Value, actions.FillOptions{
			Timeout: stepTimeout(s.TimeoutMs, 0),
		})

	case *flow.ExpectTextStep:
		return act.ExpectText(ctx, targetFrom(s.Selector), s.Text, actions.ExpectTextOptions{
			Exact:   s.Exact,
			Timeout: stepTimeout(s.TimeoutMs, 0),
		})

	case *flow.WaitForStep:
		strategies := s.Selector.Strategies()
		fallbacks := make([]string, 0, len(strategies)-1)
		for _, st := range strategies[1:] {
			fallbacks = append(fallbacks, resolve.Locator(st))
		}
		_, err := act.WaitForElement(ctx, resolve.Locator(strategies[0]), actions.WaitElementOptions{
			Timeout:   stepTimeout(s.TimeoutMs, 0),
			Fallbacks: fallbacks,
		})
		return err

	case *flow.WaitForLoadingStep:
		return act.WaitForLoadingComplete(ctx, stepTimeout(s.TimeoutMs, actions.DefaultWaitTimeout))

	case *flow.ScreenshotStep:
		return r.captureScreenshot(page, s)

	default:
		return fmt.Errorf("unhandled step type %q", step.Type())
	}
}

func (r *Runner) captureScreenshot(page driver.Page, s *flow.ScreenshotStep) error {
	data, err := page.Screenshot(driver.ScreenshotOptions{Path: s.Path, FullPage: s.FullPage})
	if err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	path := s.Path
	if r.config.ScreenshotDir != "" {
		path = filepath.Join(r.config.ScreenshotDir, s.Path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create screenshot dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// targetFrom converts a flow selector to an action target.
func targetFrom(sel flow.Selector) actions.Target {
	strategies := sel.Strategies()
	return actions.Target{Primary: strategies[0], Fallbacks: strategies[1:]}
}

// resolveURL prefixes relative URLs with the flow's base URL.
func resolveURL(base, url string) string {
	if base == "" || strings.Contains(url, "://") {
		return url
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(url, "/")
}

// stepTimeout converts a per-step override in ms, falling back to the
// given default. Zero lets the action apply its own default.
func stepTimeout(ms int, fallback time.Duration) time.Duration {
	if ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
