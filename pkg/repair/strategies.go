package repair

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/uilabs-dev/selfheal/pkg/classify"
	"github.com/uilabs-dev/selfheal/pkg/core"
)

// Markers used to keep strategies from re-applying the same transform
// on repeated repair attempts against one file.
const (
	healingImport  = `import { createHealingPage } from './helpers/self-healing';`
	healingWrapper = "const healing = createHealingPage(page);"
)

var (
	testCallbackRe = regexp.MustCompile(`(test(?:\.\w+)?\(\s*['"][^'"]+['"]\s*,\s*async\s*\(\s*\{\s*page[^}]*\}\s*\)\s*=>\s*\{)`)
	pageCallRe     = regexp.MustCompile(`\bpage\.(click|dblclick|fill|type|check|locator|waitForSelector|getByTestId|getByText|getByLabel|getByRole)\b`)
	healingCallRe  = regexp.MustCompile(`healing\.(click|fill|waitForSelector)\(\s*'([^']+)'\s*\)`)
	clickByTextRe  = regexp.MustCompile(`\.click\(\s*'text=([^']+)'\s*\)`)
	fillByPlaceRe  = regexp.MustCompile(`\.fill\(\s*'\[placeholder="([^"]+)"\]'\s*,\s*('[^']*')\s*\)`)

	timeoutValueRe   = regexp.MustCompile(`timeout:\s*(\d+)`)
	gotoLineRe       = regexp.MustCompile(`await\s+(?:page|healing)\.goto\(`)
	interactLineRe   = regexp.MustCompile(`await\s+(?:page|healing)\.(click|fill|type)\(`)
	bareWaitSelRe    = regexp.MustCompile(`(waitForSelector\(\s*'[^']+'\s*)\)`)
	bareGotoRe       = regexp.MustCompile(`((?:page|healing)\.goto\(\s*(?:'[^']*'|[A-Za-z_$][\w$.]*)\s*)\)`)
	numericAssertRe  = regexp.MustCompile(`\.(toHaveText|toHaveValue)\(\s*['"](\d+)['"]\s*\)`)
	exactTextRe      = regexp.MustCompile(`\.toHaveText\(\s*(['"][^'"]*['"])\s*\)`)
	assertNoTimeout  = regexp.MustCompile(`\.(toContainText|toHaveText|toHaveValue)\((\s*(?:'[^']*'|"[^"]*"|/[^/]+/)\s*)\)`)
	networkFailureRe = regexp.MustCompile(`(?i)net::|fetch\s*failed|ECONNREFUSED|request\s*failed`)
)

// repairSelector injects the self-healing wrapper and attaches fallback
// selector lists to the call sites using the failing selector.
func repairSelector(failure core.TestFailure, source string) (string, []string, string) {
	failingSel := classify.FailingSelector(failure.Error)
	if failingSel == "" {
		return source, nil, "could not isolate a failing selector from the error text"
	}
	if !strings.Contains(source, failingSel) {
		return source, nil, fmt.Sprintf("failing selector %q not present in source", failingSel)
	}

	var changes []string
	out := source

	if !strings.Contains(out, "createHealingPage") {
		out = healingImport + "\n" + out
		changes = append(changes, "added self-healing import")
	}

	if !strings.Contains(out, healingWrapper) && testCallbackRe.MatchString(out) {
		out = testCallbackRe.ReplaceAllString(out, "$1\n  "+healingWrapper)
		changes = append(changes, "wrapped page handle with self-healing variant")
	}

	if strings.Contains(out, healingWrapper) {
		if rewritten := pageCallRe.ReplaceAllString(out, "healing.$1"); rewritten != out {
			out = rewritten
			changes = append(changes, "routed element interactions through self-healing page")
		}
	}

	// Attach fallback lists to calls using the failing selector.
	out = healingCallRe.ReplaceAllStringFunc(out, func(call string) string {
		m := healingCallRe.FindStringSubmatch(call)
		if m[2] != failingSel {
			return call
		}
		fallbacks := deriveFallbacks(m[2])
		if len(fallbacks) == 0 {
			return call
		}
		changes = append(changes, fmt.Sprintf("added %d fallback selector(s) to %s(%q)", len(fallbacks), m[1], m[2]))
		return fmt.Sprintf("healing.%s('%s', { fallbacks: [%s] })", m[1], m[2], joinQuoted(fallbacks))
	})

	// Opportunistic testid fallbacks for click-by-text and
	// fill-by-placeholder patterns.
	out = clickByTextRe.ReplaceAllStringFunc(out, func(call string) string {
		m := clickByTextRe.FindStringSubmatch(call)
		changes = append(changes, fmt.Sprintf("added testid fallback for click by text %q", m[1]))
		return fmt.Sprintf(`.click('text=%s', { fallbacks: ['[data-testid="%s"]'] })`, m[1], slug(m[1]))
	})
	out = fillByPlaceRe.ReplaceAllStringFunc(out, func(call string) string {
		m := fillByPlaceRe.FindStringSubmatch(call)
		changes = append(changes, fmt.Sprintf("added testid fallback for fill by placeholder %q", m[1]))
		return fmt.Sprintf(`.fill('[placeholder="%s"]', %s, { fallbacks: ['[data-testid="%s"]'] })`, m[1], m[2], slug(m[1]))
	})

	if len(changes) == 0 {
		return source, nil, fmt.Sprintf("no rewritable call site found for selector %q", failingSel)
	}
	return out, changes, ""
}

// deriveFallbacks builds alternative locators for a selector. Id and
// class selectors gain a testid fallback; a plain string gains testid,
// aria-label and text fallbacks.
func deriveFallbacks(selector string) []string {
	switch {
	case strings.HasPrefix(selector, "#"):
		return []string{fmt.Sprintf(`[data-testid="%s"]`, selector[1:])}
	case strings.HasPrefix(selector, "."):
		return []string{fmt.Sprintf(`[data-testid="%s"]`, selector[1:])}
	case strings.HasPrefix(selector, "["):
		return nil
	case strings.ContainsAny(selector, ".#>:"):
		// Compound CSS like button.save: derive testid from the last
		// class token.
		if idx := strings.LastIndex(selector, "."); idx >= 0 && idx < len(selector)-1 {
			return []string{fmt.Sprintf(`[data-testid="%s"]`, selector[idx+1:])}
		}
		return nil
	default:
		return []string{
			fmt.Sprintf(`[data-testid="%s"]`, slug(selector)),
			fmt.Sprintf(`[aria-label="%s"]`, selector),
			fmt.Sprintf("text=%s", selector),
		}
	}
}

// repairTiming doubles explicit timeouts, adds settle waits after
// navigation and before interactions, and upgrades bare selector waits.
func repairTiming(failure core.TestFailure, source string) (string, []string) {
	var changes []string
	out := source

	out = timeoutValueRe.ReplaceAllStringFunc(out, func(m string) string {
		v, err := strconv.Atoi(timeoutValueRe.FindStringSubmatch(m)[1])
		if err != nil {
			return m
		}
		changes = append(changes, fmt.Sprintf("doubled timeout %d -> %d", v, v*2))
		return fmt.Sprintf("timeout: %d", v*2)
	})

	elementRelated := strings.Contains(strings.ToLower(failure.Error), "timeout") ||
		strings.Contains(strings.ToLower(failure.Error), "element")
	if elementRelated {
		lines := strings.Split(out, "\n")
		var rebuilt []string
		for i, line := range lines {
			if interactLineRe.MatchString(line) {
				prev := ""
				if len(rebuilt) > 0 {
					prev = rebuilt[len(rebuilt)-1]
				}
				if !strings.Contains(prev, "waitForTimeout") {
					rebuilt = append(rebuilt, indentOf(line)+"await page.waitForTimeout(500);")
					changes = append(changes, "added settle wait before interaction")
				}
			}
			rebuilt = append(rebuilt, line)
			if gotoLineRe.MatchString(line) {
				next := ""
				if i+1 < len(lines) {
					next = lines[i+1]
				}
				if !strings.Contains(next, "waitForLoadState") {
					rebuilt = append(rebuilt, indentOf(line)+"await page.waitForLoadState('networkidle');")
					changes = append(changes, "added network-idle wait after navigation")
				}
			}
		}
		out = strings.Join(rebuilt, "\n")
	}

	out = bareWaitSelRe.ReplaceAllStringFunc(out, func(m string) string {
		changes = append(changes, "upgraded bare selector wait to visible state with generous timeout")
		return bareWaitSelRe.FindStringSubmatch(m)[1] + ", { state: 'visible', timeout: 15000 })"
	})

	return out, changes
}

// repairAssertion relaxes exact-text assertions, tolerates dynamic
// numeric values and adds timeouts to assertions lacking one.
func repairAssertion(source string) (string, []string) {
	var changes []string
	out := source

	out = numericAssertRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := numericAssertRe.FindStringSubmatch(m)
		changes = append(changes, fmt.Sprintf("converted exact numeric %s(%q) to pattern match", sub[1], sub[2]))
		return fmt.Sprintf(`.%s(/\d+/)`, sub[1])
	})

	out = exactTextRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := exactTextRe.FindStringSubmatch(m)
		changes = append(changes, fmt.Sprintf("relaxed exact text assertion %s to containment", sub[1]))
		return fmt.Sprintf(".toContainText(%s)", sub[1])
	})

	out = assertNoTimeout.ReplaceAllStringFunc(out, func(m string) string {
		sub := assertNoTimeout.FindStringSubmatch(m)
		changes = append(changes, fmt.Sprintf("added explicit timeout to %s assertion", sub[1]))
		return fmt.Sprintf(".%s(%s, { timeout: 10000 })", sub[1], strings.TrimSpace(sub[2]))
	})

	return out, changes
}

// repairNavigation upgrades navigation calls to wait for network idle
// and wraps unguarded navigations in a retry-once block.
func repairNavigation(source string) (string, []string) {
	var changes []string
	out := source

	out = bareGotoRe.ReplaceAllStringFunc(out, func(m string) string {
		changes = append(changes, "upgraded navigation to wait for network idle")
		return bareGotoRe.FindStringSubmatch(m)[1] + ", { waitUntil: 'networkidle', timeout: 30000 })"
	})

	if !strings.Contains(out, "catch") {
		lines := strings.Split(out, "\n")
		var rebuilt []string
		for _, line := range lines {
			if gotoLineRe.MatchString(line) {
				indent := indentOf(line)
				call := strings.TrimSpace(line)
				rebuilt = append(rebuilt,
					indent+"try {",
					indent+"  "+call,
					indent+"} catch {",
					indent+"  await page.waitForTimeout(1000);",
					indent+"  "+call,
					indent+"}",
				)
				changes = append(changes, "wrapped navigation in retry-once guard")
				continue
			}
			rebuilt = append(rebuilt, line)
		}
		out = strings.Join(rebuilt, "\n")
	}

	return out, changes
}

// repairNetwork injects failure listeners and, for network-flavored
// errors, a request-interception block with a synthetic success
// fallback.
func repairNetwork(failure core.TestFailure, source string) (string, []string) {
	var changes []string
	out := source

	if !strings.Contains(out, "page.on('response'") && testCallbackRe.MatchString(out) {
		listeners := strings.Join([]string{
			"  page.on('response', (response) => {",
			"    if (!response.ok()) console.error(`API ${response.status()}: ${response.url()}`);",
			"  });",
			"  page.on('requestfailed', (request) => {",
			"    console.error(`request failed: ${request.url()}`);",
			"  });",
		}, "\n")
		out = testCallbackRe.ReplaceAllString(out, "$1\n"+listeners)
		changes = append(changes, "added response and request-failure listeners")
	}

	if networkFailureRe.MatchString(failure.Error) && !strings.Contains(out, "page.route") {
		lines := strings.Split(out, "\n")
		var rebuilt []string
		injected := false
		for _, line := range lines {
			if !injected && gotoLineRe.MatchString(line) {
				indent := indentOf(line)
				rebuilt = append(rebuilt,
					indent+"await page.route('**/api/**', (route) => {",
					indent+"  route.continue().catch(() => route.fulfill({ status: 200, body: '{}' }));",
					indent+"});",
				)
				changes = append(changes, "added request interception with synthetic success fallback")
				injected = true
			}
			rebuilt = append(rebuilt, line)
		}
		out = strings.Join(rebuilt, "\n")
	}

	return out, changes
}

// indentOf returns the leading whitespace of a line.
func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// slug lowercases a phrase and replaces non-alphanumerics with dashes.
func slug(s string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// joinQuoted renders fallback selectors as a JS string list.
func joinQuoted(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "'" + item + "'"
	}
	return strings.Join(quoted, ", ")
}
