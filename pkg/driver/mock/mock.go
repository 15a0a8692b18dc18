// Package mock provides an in-memory page implementation for testing
// without a real browser.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uilabs-dev/selfheal/pkg/driver"
)

// Element is a scriptable fake DOM element.
type Element struct {
	Text     string
	Attrs    map[string]string
	Visible  bool
	Enabled  bool
	Value    string // Current input value
	ClickErr error  // Returned by Click when set
	FillErr  error  // Returned by Fill when set
	// FailClicks makes the first N clicks fail before succeeding.
	FailClicks int
	// MangleFill rewrites the value actually stored by Fill, to simulate
	// an input that drops or transforms keystrokes.
	MangleFill func(string) string

	page   *Page
	clicks int
	fills  int
}

// Clicks returns how many times the element was clicked.
func (e *Element) Clicks() int {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.clicks
}

// Click implements driver.Element.
func (e *Element) Click(driver.ClickOptions) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.clicks++
	if e.ClickErr != nil {
		return e.ClickErr
	}
	if e.clicks <= e.FailClicks {
		return fmt.Errorf("element is obscured")
	}
	if !e.Enabled {
		return fmt.Errorf("element is not enabled")
	}
	return nil
}

// Fill implements driver.Element.
func (e *Element) Fill(value string) error {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.fills++
	if e.FillErr != nil {
		return e.FillErr
	}
	if e.MangleFill != nil {
		value = e.MangleFill(value)
		// Mangle only the first attempt so retries can succeed.
		e.MangleFill = nil
	}
	e.Value = value
	return nil
}

// InputValue implements driver.Element.
func (e *Element) InputValue() (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.Value, nil
}

// TextContent implements driver.Element.
func (e *Element) TextContent() (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.Text, nil
}

// GetAttribute implements driver.Element.
func (e *Element) GetAttribute(name string) (string, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.Attrs[name], nil
}

// IsVisible implements driver.Element.
func (e *Element) IsVisible() (bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.Visible, nil
}

// IsEnabled implements driver.Element.
func (e *Element) IsEnabled() (bool, error) {
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	return e.Enabled, nil
}

// ScrollIntoView implements driver.Element.
func (e *Element) ScrollIntoView() error { return nil }

// Response is a fake network response.
type Response struct {
	ResponseURL string
	StatusCode  int
}

// URL implements driver.Response.
func (r Response) URL() string { return r.ResponseURL }

// Status implements driver.Response.
func (r Response) Status() int { return r.StatusCode }

// OK implements driver.Response.
func (r Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Page is a scriptable fake page. Register elements by selector, then
// inspect call counts after driving it through the framework.
type Page struct {
	mu sync.Mutex

	url      string
	elements map[string][]*Element

	// Call instrumentation
	waitCalls   map[string]int
	locateCalls map[string]int
	navigations []string

	// failUntil makes WaitForSelector fail for a selector until it has
	// been attempted N times, to exercise retry paths.
	failUntil map[string]int

	// LoadStateDelay delays WaitForLoadState to simulate slow loads.
	LoadStateDelay time.Duration
	// LoadStateErr makes WaitForLoadState fail for the given state.
	LoadStateErr map[driver.LoadState]error
	// NavigateErr makes Navigate fail when set.
	NavigateErr error

	viewportW, viewportH int
	screenshots          []driver.ScreenshotOptions

	responseHandlers      []func(driver.Response)
	requestFailedHandlers []func(driver.Request)
}

// NewPage creates an empty fake page.
func NewPage() *Page {
	return &Page{
		elements:    make(map[string][]*Element),
		waitCalls:   make(map[string]int),
		locateCalls: make(map[string]int),
		failUntil:   make(map[string]int),
	}
}

// AddElement registers an element under a selector and returns it for
// further scripting. The same element may be registered under several
// selectors.
func (p *Page) AddElement(selector string, el *Element) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	if el.Attrs == nil {
		el.Attrs = make(map[string]string)
	}
	el.page = p
	p.elements[selector] = append(p.elements[selector], el)
	return el
}

// FailWaitsUntil makes WaitForSelector for the selector fail until it
// has been called n times; the (n+1)th call resolves normally.
func (p *Page) FailWaitsUntil(selector string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failUntil[selector] = n
}

// WaitCalls returns how many times WaitForSelector was called for a selector.
func (p *Page) WaitCalls(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitCalls[selector]
}

// Navigations returns the URLs navigated to, in order.
func (p *Page) Navigations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.navigations...)
}

// Screenshots returns the captured screenshot options, in order.
func (p *Page) Screenshots() []driver.ScreenshotOptions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]driver.ScreenshotOptions(nil), p.screenshots...)
}

// Viewport returns the last viewport size set.
func (p *Page) Viewport() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewportW, p.viewportH
}

// EmitResponse delivers a response to registered handlers.
func (p *Page) EmitResponse(r driver.Response) {
	p.mu.Lock()
	handlers := append([]func(driver.Response){}, p.responseHandlers...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(r)
	}
}

// Navigate implements driver.Page.
func (p *Page) Navigate(ctx context.Context, url string, opts driver.NavigateOptions) error {
	p.mu.Lock()
	p.navigations = append(p.navigations, url)
	err := p.NavigateErr
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

// Locate implements driver.Page.
func (p *Page) Locate(selector string) ([]driver.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locateCalls[selector]++
	matches := p.elements[selector]
	out := make([]driver.Element, 0, len(matches))
	for _, el := range matches {
		out = append(out, el)
	}
	return out, nil
}

// WaitForSelector implements driver.Page.
func (p *Page) WaitForSelector(ctx context.Context, selector string, opts driver.WaitOptions) (driver.Element, error) {
	p.mu.Lock()
	p.waitCalls[selector]++
	calls := p.waitCalls[selector]
	pending := calls <= p.failUntil[selector]
	var match *Element
	for _, el := range p.elements[selector] {
		if opts.State == driver.StateVisible && !el.Visible {
			continue
		}
		match = el
		break
	}
	p.mu.Unlock()

	if match != nil && !pending {
		return match, nil
	}

	// No current match: block for the timeout like a real driver would.
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 50 * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout %dms exceeded waiting for selector %q", timeout.Milliseconds(), selector)
	}
}

// WaitForLoadState implements driver.Page.
func (p *Page) WaitForLoadState(ctx context.Context, state driver.LoadState, timeout time.Duration) error {
	p.mu.Lock()
	err := p.LoadStateErr[state]
	delay := p.LoadStateDelay
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if delay > 0 {
		if timeout > 0 && delay > timeout {
			return fmt.Errorf("timeout %dms exceeded waiting for load state %q", timeout.Milliseconds(), state)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}

// WaitForResponse implements driver.Page.
func (p *Page) WaitForResponse(ctx context.Context, match func(driver.Response) bool, timeout time.Duration) (driver.Response, error) {
	// The fake has no live network; callers script responses via EmitResponse
	// before waiting, so this only checks registered handlers synchronously.
	return nil, fmt.Errorf("timeout %dms exceeded waiting for response", timeout.Milliseconds())
}

// Screenshot implements driver.Page.
func (p *Page) Screenshot(opts driver.ScreenshotOptions) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.screenshots = append(p.screenshots, opts)
	// Minimal valid PNG (1x1 transparent pixel)
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// SetViewportSize implements driver.Page.
func (p *Page) SetViewportSize(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewportW, p.viewportH = width, height
	return nil
}

// OnResponse implements driver.Page.
func (p *Page) OnResponse(handler func(driver.Response)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responseHandlers = append(p.responseHandlers, handler)
}

// OnRequestFailed implements driver.Page.
func (p *Page) OnRequestFailed(handler func(driver.Request)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requestFailedHandlers = append(p.requestFailedHandlers, handler)
}

// URL implements driver.Page.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// VisibleButton is a shorthand for a clickable element with text.
func VisibleButton(text string) *Element {
	return &Element{Text: strings.TrimSpace(text), Visible: true, Enabled: true, Attrs: map[string]string{}}
}

// VisibleInput is a shorthand for a fillable element.
func VisibleInput() *Element {
	return &Element{Visible: true, Enabled: true, Attrs: map[string]string{"type": "text"}}
}
