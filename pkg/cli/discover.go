package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/uilabs-dev/selfheal/pkg/discovery"
	"github.com/uilabs-dev/selfheal/pkg/driver"
	"github.com/uilabs-dev/selfheal/pkg/synth"
)

var discoverCommand = &cli.Command{
	Name:  "discover",
	Usage: "Scan a page for interactive elements and synthesize tests",
	Description: `Load a page, enumerate its visible interactive elements and generate
test sources covering them. Generated files are written to the output
directory, one file per test.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "url",
			Usage:    "Page URL to scan",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Page name used in test titles (default: derived from URL)",
		},
		&cli.StringFlag{
			Name:  "out",
			Usage: "Directory for generated test files",
			Value: "generated",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "List elements and tests without writing files",
		},
	},
	Action: discoverAction,
}

func discoverAction(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	page, cleanup, err := pageFor(ctx, c.String("driver"))
	if err != nil {
		return err
	}
	defer cleanup()

	url := c.String("url")
	if err := page.Navigate(ctx, url, driver.NavigateOptions{WaitUntil: driver.LoadStateNetworkIdle}); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	elements, err := discovery.New(page).Discover(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Discovered %d elements on %s\n", len(elements), url)
	for _, el := range elements {
		fmt.Printf("  %-8s %s\n", el.Type, el.Selector)
	}

	pageName := c.String("name")
	if pageName == "" {
		pageName = pageNameFromURL(url)
	}
	tests := synth.Synthesize(pageName, elements)
	fmt.Printf("Synthesized %d tests\n", len(tests))

	if c.Bool("dry-run") {
		for _, tc := range tests {
			fmt.Printf("  %s\n", tc.Name)
		}
		return nil
	}

	outDir := c.String("out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	for _, tc := range tests {
		path := filepath.Join(outDir, testFileName(tc.Name))
		if err := os.WriteFile(path, []byte(tc.Code), 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Printf("  wrote %s\n", path)
	}
	return nil
}

// pageNameFromURL derives a readable page name from the last URL path
// segment.
func pageNameFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		if seg := trimmed[i+1:]; seg != "" && !strings.Contains(seg, ":") {
			return seg
		}
	}
	return "home"
}

func testFileName(testName string) string {
	name := strings.ToLower(testName)
	name = strings.ReplaceAll(name, " ", "-")
	return name + ".spec.ts"
}
