package flow

import "fmt"

// StepType identifies a flow step.
type StepType string

// Step type constants.
const (
	StepNavigate       StepType = "navigate"
	StepClick          StepType = "click"
	StepFill           StepType = "fill"
	StepExpectText     StepType = "expectText"
	StepWaitFor        StepType = "waitFor"
	StepWaitForLoading StepType = "waitForLoading"
	StepScreenshot     StepType = "screenshot"
)

// Step is the interface for all flow steps.
type Step interface {
	Type() StepType
	Label() string
	Describe() string
}

// BaseStep contains fields common to all steps.
type BaseStep struct {
	StepType  StepType
	StepLabel string
	TimeoutMs int
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// Label returns the step label, if set.
func (b *BaseStep) Label() string { return b.StepLabel }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

// NavigateStep opens a URL. Relative URLs are resolved against the
// flow's baseUrl by the executor.
type NavigateStep struct {
	BaseStep
	URL string
}

func (s *NavigateStep) Describe() string { return fmt.Sprintf("navigate %s", s.URL) }

// ClickStep clicks an element.
type ClickStep struct {
	BaseStep
	Selector Selector
}

func (s *ClickStep) Describe() string { return fmt.Sprintf("click %s", s.Selector.Describe()) }

// FillStep fills an input and verifies the value was set.
type FillStep struct {
	BaseStep
	Selector Selector
	Value    string
}

func (s *FillStep) Describe() string { return fmt.Sprintf("fill %s", s.Selector.Describe()) }

// ExpectTextStep asserts element text. Exact defaults to true.
type ExpectTextStep struct {
	BaseStep
	Selector Selector
	Text     string
	Exact    bool
}

func (s *ExpectTextStep) Describe() string {
	return fmt.Sprintf("expect %q on %s", s.Text, s.Selector.Describe())
}

// WaitForStep waits for an element to become visible.
type WaitForStep struct {
	BaseStep
	Selector Selector
}

func (s *WaitForStep) Describe() string { return fmt.Sprintf("wait for %s", s.Selector.Describe()) }

// WaitForLoadingStep waits until loading indicators clear or the
// network goes idle.
type WaitForLoadingStep struct {
	BaseStep
}

// ScreenshotStep captures the page to a file.
type ScreenshotStep struct {
	BaseStep
	Path     string
	FullPage bool
}

func (s *ScreenshotStep) Describe() string { return fmt.Sprintf("screenshot %s", s.Path) }
