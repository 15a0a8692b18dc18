package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/uilabs-dev/selfheal/pkg/classify"
	"github.com/uilabs-dev/selfheal/pkg/repair"
)

var repairCommand = &cli.Command{
	Name:  "repair",
	Usage: "Classify a test failure and rewrite the test source",
	Description: `Classify the raw error message, pick the repair strategy for its
category and apply it to the test source file. The file is only
rewritten when the strategy produced at least one change.

Example:
  selfheal repair --file e2e/login.spec.ts --test "login" \
    --error 'TimeoutError: waiting for selector "#submit" failed: timeout 5000ms exceeded'`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Usage:    "Path to the failing test source",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "error",
			Usage:    "Raw error message from the failed run",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "test",
			Usage: "Test name for the repair history",
		},
	},
	Action: repairAction,
}

func repairAction(c *cli.Context) error {
	testName := c.String("test")
	if testName == "" {
		testName = c.String("file")
	}
	failure := classify.NewFailure(testName, c.String("file"), c.String("error"))

	engine, err := repair.NewEngine()
	if err != nil {
		return err
	}

	result, err := engine.Repair(failure)
	if err != nil {
		return err
	}

	fmt.Printf("Category: %s\n", failure.Type)
	fmt.Printf("Strategy: %s\n", result.Strategy)
	if !result.Success {
		fmt.Printf("No repair applied: %s\n", result.Error)
		return cli.Exit("", 1)
	}
	fmt.Println("Changes:")
	for _, change := range result.Changes {
		fmt.Printf("  - %s\n", change)
	}
	fmt.Printf("Rewrote %s; re-run the test to verify the fix.\n", failure.File)
	return nil
}
