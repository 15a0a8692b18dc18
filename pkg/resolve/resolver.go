// Package resolve turns logical element targets into concrete element
// handles, trying selector strategies in priority order.
package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uilabs-dev/selfheal/pkg/core"
	"github.com/uilabs-dev/selfheal/pkg/driver"
)

// maxAttemptSlice caps the per-strategy timeout so an early failing
// strategy never consumes the whole budget.
const maxAttemptSlice = 2 * time.Second

// Resolver resolves selector strategies against a page.
type Resolver struct {
	page driver.Page
}

// New creates a Resolver bound to a page.
func New(page driver.Page) *Resolver {
	return &Resolver{page: page}
}

// Locator translates a strategy into the selector string handed to the
// driver. Text and role strategies use the driver's text=/role= engines.
func Locator(s core.SelectorStrategy) string {
	switch s.Kind {
	case core.StrategyTestID:
		return fmt.Sprintf("[data-testid=%q]", s.Value)
	case core.StrategyAriaLabel:
		return fmt.Sprintf("[aria-label=%q]", s.Value)
	case core.StrategyText:
		return fmt.Sprintf("text=%q", s.Value)
	case core.StrategyRole:
		return "role=" + s.Value
	default:
		return s.Value
	}
}

// Resolve tries each strategy in order and returns the first visible,
// interactable element. Each attempt gets an equal slice of the total
// timeout. Fails with ErrElementNotFound listing every attempted
// strategy once all are exhausted.
func (r *Resolver) Resolve(ctx context.Context, strategies []core.SelectorStrategy, timeout time.Duration) (driver.Element, error) {
	if len(strategies) == 0 {
		return nil, core.ErrElementNotFound.WithMessage("no selector strategies given")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	slice := timeout / time.Duration(len(strategies))
	if slice > maxAttemptSlice {
		slice = maxAttemptSlice
	}

	attempted := make([]string, 0, len(strategies))
	for _, strategy := range strategies {
		attempted = append(attempted, strategy.Describe())

		if ctx.Err() != nil {
			break
		}

		el, err := r.page.WaitForSelector(ctx, Locator(strategy), driver.WaitOptions{
			State:   driver.StateVisible,
			Timeout: slice,
		})
		if err != nil {
			continue
		}
		if enabled, err := el.IsEnabled(); err != nil || !enabled {
			continue
		}
		return el, nil
	}

	return nil, core.ErrElementNotFound.
		WithMessage(fmt.Sprintf("no strategy resolved an element (tried %s)", strings.Join(attempted, ", "))).
		WithDetails(map[string]interface{}{"strategies": attempted})
}
