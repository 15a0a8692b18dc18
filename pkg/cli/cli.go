// Package cli provides the command-line interface for selfheal.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to workspace selfheal.yaml",
		EnvVars: []string{"SELFHEAL_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Browser driver to use (mock)",
		Value:   "mock",
		EnvVars: []string{"SELFHEAL_DRIVER"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write the execution log to this file",
		EnvVars: []string{"SELFHEAL_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"SELFHEAL_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "selfheal",
		Usage:   "Self-healing UI test runner",
		Version: Version,
		Description: `Selfheal executes YAML UI test flows with selector fallbacks and
retry policies, tracks test health over time, and repairs failing
test sources by failure category.

Examples:
  selfheal run flows/
  selfheal run checkout.yaml --retries 2
  selfheal report
  selfheal repair --file e2e/checkout.spec.ts --error "timeout 5000ms exceeded"
  selfheal discover --url http://localhost:3000 --out e2e/generated`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			reportCommand,
			repairCommand,
			discoverCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
