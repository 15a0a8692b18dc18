package cli

import (
	"context"
	"fmt"

	"github.com/uilabs-dev/selfheal/pkg/driver"
	"github.com/uilabs-dev/selfheal/pkg/driver/mock"
	"github.com/uilabs-dev/selfheal/pkg/executor"
)

// pageFactoryFor maps a driver name to a page factory. The mock
// driver backs framework validation and dry runs; real browser
// drivers register here as they are added.
func pageFactoryFor(name string) (executor.PageFactory, error) {
	switch name {
	case "mock":
		return func(ctx context.Context) (driver.Page, func(), error) {
			return mock.NewPage(), func() {}, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q (available: mock)", name)
	}
}

// pageFor opens a single page for one-shot commands like discover.
func pageFor(ctx context.Context, name string) (driver.Page, func(), error) {
	factory, err := pageFactoryFor(name)
	if err != nil {
		return nil, nil, err
	}
	return factory(ctx)
}
