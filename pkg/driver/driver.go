// Package driver defines the boundary to the external browser-automation
// driver. The framework only depends on these interfaces; concrete
// implementations (CDP, WebDriver, etc.) live outside this module.
package driver

import (
	"context"
	"time"
)

// ElementState is a waitable element condition.
type ElementState string

// ElementState values.
const (
	StateVisible  ElementState = "visible"
	StateHidden   ElementState = "hidden"
	StateAttached ElementState = "attached"
	StateDetached ElementState = "detached"
)

// LoadState is a waitable page-loading condition.
type LoadState string

// LoadState values.
const (
	LoadStateLoad        LoadState = "load"
	LoadStateDOMContent  LoadState = "domcontentloaded"
	LoadStateNetworkIdle LoadState = "networkidle"
)

// NavigateOptions configures a navigation.
type NavigateOptions struct {
	WaitUntil LoadState
	Timeout   time.Duration
}

// ClickOptions configures a click.
type ClickOptions struct {
	Timeout time.Duration
}

// WaitOptions configures a selector wait.
type WaitOptions struct {
	State   ElementState
	Timeout time.Duration
}

// ScreenshotOptions configures a screenshot capture.
type ScreenshotOptions struct {
	Path     string
	FullPage bool
}

// Response is a completed network response observed by the page.
type Response interface {
	URL() string
	Status() int
	OK() bool
}

// Request is a network request, reported when it fails.
type Request interface {
	URL() string
	Failure() string
}

// Element is a handle to a located DOM element.
type Element interface {
	Click(opts ClickOptions) error
	Fill(value string) error
	InputValue() (string, error)
	TextContent() (string, error)
	GetAttribute(name string) (string, error)
	IsVisible() (bool, error)
	IsEnabled() (bool, error)
	ScrollIntoView() error
}

// Page is the imperative surface the framework drives. A page handle is
// exclusively owned by the single test executing at a given moment.
type Page interface {
	Navigate(ctx context.Context, url string, opts NavigateOptions) error

	// Locate returns all current matches for a selector without waiting.
	Locate(selector string) ([]Element, error)

	// WaitForSelector blocks until a match reaches the requested state or
	// the timeout expires.
	WaitForSelector(ctx context.Context, selector string, opts WaitOptions) (Element, error)

	WaitForLoadState(ctx context.Context, state LoadState, timeout time.Duration) error
	WaitForResponse(ctx context.Context, match func(Response) bool, timeout time.Duration) (Response, error)

	Screenshot(opts ScreenshotOptions) ([]byte, error)
	SetViewportSize(width, height int) error

	OnResponse(handler func(Response))
	OnRequestFailed(handler func(Request))

	URL() string
}
