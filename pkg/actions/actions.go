// Package actions wraps the raw driver primitives with retries, backoff
// and loading-state detection, built on the selector resolver.
package actions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/uilabs-dev/selfheal/pkg/core"
	"github.com/uilabs-dev/selfheal/pkg/driver"
	"github.com/uilabs-dev/selfheal/pkg/resolve"
)

// Defaults for interaction options.
const (
	DefaultClickRetries = 3
	DefaultClickDelay   = 1 * time.Second
	DefaultClickTimeout = 5 * time.Second

	DefaultFillRetries = 3
	DefaultFillDelay   = 500 * time.Millisecond

	DefaultWaitTimeout = 10 * time.Second
)

// loadingIndicators are selector patterns whose absence signals that the
// page has finished a loading cycle.
var loadingIndicators = []string{
	".spinner",
	".loading",
	".skeleton",
	`[data-loading="true"]`,
	`[aria-busy="true"]`,
}

// Target is a logical element reference: a primary strategy plus
// optional fallbacks tried in order when the primary fails.
type Target struct {
	Primary   core.SelectorStrategy
	Fallbacks []core.SelectorStrategy
}

// CSS builds a Target from a raw CSS selector.
func CSS(selector string, fallbacks ...core.SelectorStrategy) Target {
	return Target{
		Primary:   core.SelectorStrategy{Kind: core.StrategyCSS, Value: selector},
		Fallbacks: fallbacks,
	}
}

// Strategies returns the full ordered strategy list.
func (t Target) Strategies() []core.SelectorStrategy {
	return append([]core.SelectorStrategy{t.Primary}, t.Fallbacks...)
}

// Describe returns a human-readable form of the target.
func (t Target) Describe() string {
	parts := make([]string, 0, 1+len(t.Fallbacks))
	for _, s := range t.Strategies() {
		parts = append(parts, s.Describe())
	}
	return strings.Join(parts, " | ")
}

// ClickOptions configures Click.
type ClickOptions struct {
	Retries int
	Delay   time.Duration
	Timeout time.Duration
}

// FillOptions configures Fill.
type FillOptions struct {
	Retries int
	Delay   time.Duration
	Timeout time.Duration
}

// WaitElementOptions configures WaitForElement.
type WaitElementOptions struct {
	State     driver.ElementState
	Timeout   time.Duration
	Fallbacks []string
}

// ExpectTextOptions configures ExpectText.
type ExpectTextOptions struct {
	Exact   bool
	Timeout time.Duration
}

// linearBackOff waits base*attempt between retries, so later attempts
// give the page progressively more time to settle.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// Actions is the resilient interaction surface for one page.
type Actions struct {
	page     driver.Page
	resolver *resolve.Resolver
}

// New creates Actions bound to a page.
func New(page driver.Page) *Actions {
	return &Actions{
		page:     page,
		resolver: resolve.New(page),
	}
}

// Click resolves the target, scrolls it into view, verifies it is
// enabled and clicks it, retrying with linear backoff. The final error
// is annotated with the attempted strategies and the element state
// observed at failure.
func (a *Actions) Click(ctx context.Context, target Target, opts ClickOptions) error {
	if opts.Retries <= 0 {
		opts.Retries = DefaultClickRetries
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultClickDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultClickTimeout
	}

	var lastErr error
	lastState := "unresolved"
	attempts := 0

	op := func() error {
		attempts++
		el, err := a.resolver.Resolve(ctx, target.Strategies(), opts.Timeout)
		if err != nil {
			lastErr = err
			lastState = "unresolved"
			return err
		}

		if err := el.ScrollIntoView(); err != nil {
			lastErr = err
			return err
		}

		enabled, err := el.IsEnabled()
		if err != nil {
			lastErr = err
			return err
		}
		if !enabled {
			// Give a transiently disabled control one chance to enable
			// before counting the attempt as failed.
			select {
			case <-ctx.Done():
				return backoff.Permanent(ctx.Err())
			case <-time.After(opts.Delay):
			}
			if enabled, err = el.IsEnabled(); err != nil || !enabled {
				lastErr = fmt.Errorf("element is disabled")
				lastState = "disabled"
				return lastErr
			}
		}
		lastState = "visible"

		if err := el.Click(driver.ClickOptions{Timeout: opts.Timeout}); err != nil {
			lastErr = err
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: opts.Delay}, uint64(opts.Retries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return core.ErrActionFailed.
			WithMessage(fmt.Sprintf("click failed after %d attempts on %s (element state: %s)", attempts, target.Describe(), lastState)).
			WithCause(lastErr).
			WithDetails(map[string]interface{}{"attempts": attempts, "state": lastState})
	}
	return nil
}

// Fill resolves the target, fills it and reads the value back,
// requiring exact equality before declaring success. A readback
// mismatch counts as a failed attempt and retries.
func (a *Actions) Fill(ctx context.Context, target Target, value string, opts FillOptions) error {
	if opts.Retries <= 0 {
		opts.Retries = DefaultFillRetries
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultFillDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultClickTimeout
	}

	var lastErr error
	attempts := 0

	op := func() error {
		attempts++
		el, err := a.resolver.Resolve(ctx, target.Strategies(), opts.Timeout)
		if err != nil {
			lastErr = err
			return err
		}
		if err := el.Fill(value); err != nil {
			lastErr = err
			return err
		}
		actual, err := el.InputValue()
		if err != nil {
			lastErr = err
			return err
		}
		if actual != value {
			lastErr = fmt.Errorf("readback mismatch: got %q, want %q", actual, value)
			return lastErr
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.Delay), uint64(opts.Retries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return core.ErrActionFailed.
			WithMessage(fmt.Sprintf("fill failed after %d attempts on %s", attempts, target.Describe())).
			WithCause(lastErr).
			WithDetails(map[string]interface{}{"attempts": attempts})
	}
	return nil
}

// WaitForElement waits for a selector with a budgeted fallback
// schedule: half the budget on the primary, a brief network-idle
// recovery wait, a quarter budget per fallback, then the primary again
// with whatever budget remains.
func (a *Actions) WaitForElement(ctx context.Context, selector string, opts WaitElementOptions) (driver.Element, error) {
	if opts.State == "" {
		opts.State = driver.StateVisible
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultWaitTimeout
	}
	deadline := time.Now().Add(opts.Timeout)

	wait := func(sel string, d time.Duration) (driver.Element, error) {
		if d <= 0 {
			return nil, fmt.Errorf("budget exhausted for %q", sel)
		}
		return a.page.WaitForSelector(ctx, sel, driver.WaitOptions{State: opts.State, Timeout: d})
	}

	if el, err := wait(selector, opts.Timeout/2); err == nil {
		return el, nil
	}

	// Network idle often means a late render is about to happen; use it
	// as a recovery signal before burning fallback budget.
	recovery := opts.Timeout / 5
	if remaining := time.Until(deadline); recovery > remaining {
		recovery = remaining
	}
	if recovery > 0 {
		_ = a.page.WaitForLoadState(ctx, driver.LoadStateNetworkIdle, recovery)
	}

	for _, fb := range opts.Fallbacks {
		budget := opts.Timeout / 4
		if remaining := time.Until(deadline); budget > remaining {
			budget = remaining
		}
		if el, err := wait(fb, budget); err == nil {
			return el, nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	if el, err := wait(selector, time.Until(deadline)); err == nil {
		return el, nil
	}

	attempted := append([]string{selector}, opts.Fallbacks...)
	return nil, core.ErrWaitTimeout.
		WithMessage(fmt.Sprintf("timed out after %dms waiting for %s", opts.Timeout.Milliseconds(), strings.Join(attempted, ", "))).
		WithDetails(map[string]interface{}{"selectors": attempted})
}

// WaitForLoadingComplete races two completion signals: absence of any
// known loading indicator, and network idle. It returns as soon as
// either is satisfied.
func (a *Actions) WaitForLoadingComplete(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	raceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan struct{}, 2)

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			if a.indicatorsGone() {
				done <- struct{}{}
				return
			}
			select {
			case <-raceCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	go func() {
		if err := a.page.WaitForLoadState(raceCtx, driver.LoadStateNetworkIdle, timeout); err == nil {
			done <- struct{}{}
		}
	}()

	select {
	case <-done:
		return nil
	case <-raceCtx.Done():
		return core.ErrWaitTimeout.
			WithMessage(fmt.Sprintf("loading did not complete within %dms", timeout.Milliseconds()))
	}
}

// indicatorsGone reports whether no loading indicator is currently visible.
func (a *Actions) indicatorsGone() bool {
	for _, sel := range loadingIndicators {
		matches, err := a.page.Locate(sel)
		if err != nil {
			return false
		}
		for _, el := range matches {
			if visible, err := el.IsVisible(); err == nil && visible {
				return false
			}
		}
	}
	return true
}

// ExpectText asserts the target's text. With Exact it requires
// equality; otherwise substring containment. Fallback strategies are
// tried before the assertion fails.
func (a *Actions) ExpectText(ctx context.Context, target Target, expected string, opts ExpectTextOptions) error {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultClickTimeout
	}

	strategies := target.Strategies()
	slice := opts.Timeout / time.Duration(len(strategies))
	var lastActual string
	seen := false

	for _, strategy := range strategies {
		el, err := a.resolver.Resolve(ctx, []core.SelectorStrategy{strategy}, slice)
		if err != nil {
			continue
		}
		actual, err := el.TextContent()
		if err != nil {
			continue
		}
		actual = strings.TrimSpace(actual)
		lastActual, seen = actual, true

		if opts.Exact && actual == expected {
			return nil
		}
		if !opts.Exact && strings.Contains(actual, expected) {
			return nil
		}
	}

	if !seen {
		return core.ErrElementNotFound.
			WithMessage(fmt.Sprintf("expected text %q but no strategy resolved %s", expected, target.Describe()))
	}
	return core.ErrActionFailed.
		WithMessage(fmt.Sprintf("text assertion failed: expected %q, got %q", expected, lastActual)).
		WithDetails(map[string]interface{}{"expected": expected, "actual": lastActual})
}
