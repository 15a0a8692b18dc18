// Package classify categorizes raised test failures by their error
// text. Classification is a pure function: the same error text always
// yields the same category.
package classify

import (
	"regexp"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

// categoryPatterns maps failure categories to their detection patterns.
// Categories are checked in order; first match wins. Timing is checked
// before selector deliberately: an error mentioning both "timeout" and
// "selector" is a timing failure, since the wait expired before the
// selector question could even be settled.
var categoryPatterns = []struct {
	category core.FailureCategory
	patterns []*regexp.Regexp
}{
	{
		category: core.FailureTiming,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)timeout`),
			regexp.MustCompile(`(?i)timed?\s*out`),
			regexp.MustCompile(`(?i)exceeded\s*time`),
			regexp.MustCompile(`(?i)deadline\s*exceeded`),
		},
	},
	{
		category: core.FailureSelector,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)selector`),
			regexp.MustCompile(`(?i)locator`),
			regexp.MustCompile(`(?i)element\s*not\s*found`),
			regexp.MustCompile(`(?i)no\s*element\s*matches`),
			regexp.MustCompile(`(?i)not\s*attached`),
			regexp.MustCompile(`(?i)detached`),
			regexp.MustCompile(`(?i)stale\s*element`),
		},
	},
	{
		category: core.FailureNavigation,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)navigation`),
			regexp.MustCompile(`(?i)\bnavigate\b`),
			regexp.MustCompile(`(?i)\bgoto\b`),
			regexp.MustCompile(`(?i)ERR_ABORTED`),
			regexp.MustCompile(`(?i)frame\s*was\s*detached`),
		},
	},
	{
		category: core.FailureNetwork,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bnetwork\b`),
			regexp.MustCompile(`(?i)net::`),
			regexp.MustCompile(`(?i)ECONNREFUSED`),
			regexp.MustCompile(`(?i)ECONNRESET`),
			regexp.MustCompile(`(?i)fetch\s*failed`),
			regexp.MustCompile(`(?i)request\s*failed`),
			regexp.MustCompile(`(?i)\b50[0-4]\b`),
		},
	},
	{
		category: core.FailureAssertion,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bexpect`),
			regexp.MustCompile(`(?i)\bassert`),
			regexp.MustCompile(`(?i)\btoBe\b`),
			regexp.MustCompile(`(?i)\btoEqual\b`),
			regexp.MustCompile(`(?i)\btoHaveText\b`),
			regexp.MustCompile(`(?i)\btoContain`),
			regexp.MustCompile(`(?i)received\s*string`),
		},
	},
}

// Classify maps an error text to its failure category. Empty or
// unmatched text yields FailureUnknown; Classify never fails.
func Classify(rawError string) core.FailureCategory {
	if rawError == "" {
		return core.FailureUnknown
	}
	for _, cp := range categoryPatterns {
		for _, pattern := range cp.patterns {
			if pattern.MatchString(rawError) {
				return cp.category
			}
		}
	}
	return core.FailureUnknown
}

// failingSelectorPatterns extract the selector literal from common
// driver error messages, for the repair engine.
var failingSelectorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`waiting for selector "([^"]+)"`),
	regexp.MustCompile(`selector "([^"]+)"`),
	regexp.MustCompile(`locator\('([^']+)'\)`),
	regexp.MustCompile(`locator\("([^"]+)"\)`),
	regexp.MustCompile("selector `([^`]+)`"),
}

// FailingSelector extracts the selector literal from an error text, or
// "" if none can be isolated.
func FailingSelector(rawError string) string {
	for _, pattern := range failingSelectorPatterns {
		if m := pattern.FindStringSubmatch(rawError); m != nil {
			return m[1]
		}
	}
	return ""
}

// NewFailure builds the classified failure record handed to the repair
// engine.
func NewFailure(test, file, rawError string) core.TestFailure {
	return core.TestFailure{
		Test:  test,
		File:  file,
		Error: rawError,
		Type:  Classify(rawError),
	}
}
