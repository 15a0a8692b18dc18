package synth

import (
	"strings"
	"testing"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

func names(tests []core.GeneratedTest) []string {
	out := make([]string, len(tests))
	for i, tc := range tests {
		out[i] = tc.Name
	}
	return out
}

func findTest(t *testing.T, tests []core.GeneratedTest, suffix string) core.GeneratedTest {
	t.Helper()
	for _, tc := range tests {
		if strings.HasSuffix(tc.Name, suffix) {
			return tc
		}
	}
	t.Fatalf("no generated test named *%s, have %v", suffix, names(tests))
	return core.GeneratedTest{}
}

func TestSynthesize_EmitsApplicableKinds(t *testing.T) {
	elements := []core.DiscoveredElement{
		{Selector: `[data-testid="save"]`, Type: core.ElementButton, Text: "Save", TestID: "save"},
		{Selector: "#email", Type: core.ElementInput},
		{Selector: "#country", Type: core.ElementSelect},
		{Selector: ".nav-home", Type: core.ElementLink, Href: "/home"},
	}

	tests := Synthesize("checkout", elements)
	if len(tests) != 5 {
		t.Fatalf("expected 5 tests, got %d: %v", len(tests), names(tests))
	}
	for _, suffix := range []string{
		"button interactions",
		"form interactions",
		"navigation",
		"accessibility",
		"responsive layout",
	} {
		findTest(t, tests, suffix)
	}
}

func TestSynthesize_SkipsInapplicableKinds(t *testing.T) {
	tests := Synthesize("static page", []core.DiscoveredElement{
		{Selector: "#title", Type: core.ElementInput},
	})

	got := names(tests)
	for _, n := range got {
		if strings.HasSuffix(n, "button interactions") || strings.HasSuffix(n, "navigation") {
			t.Fatalf("unexpected test %q for page without buttons or links", n)
		}
	}
	// Form, accessibility and responsive remain.
	if len(tests) != 3 {
		t.Fatalf("expected 3 tests, got %v", got)
	}
}

func TestInteractionTest_ClicksWithFallbacksAndErrorCheck(t *testing.T) {
	tests := Synthesize("dashboard", []core.DiscoveredElement{
		{Selector: "#refresh", Type: core.ElementButton, Text: "Refresh", TestID: "refresh"},
	})
	code := findTest(t, tests, "button interactions").Code

	for _, want := range []string{
		`createHealingPage(page)`,
		`await healing.click("#refresh", { fallbacks: ["[data-testid=\"refresh\"]", "text=\"Refresh\""] });`,
		`page.on('pageerror'`,
		`expect(errors).toHaveLength(0);`,
		`waitForLoadState('networkidle')`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("interaction test missing %q:\n%s", want, code)
		}
	}
}

func TestInteractionTest_NoFallbacksForBareButton(t *testing.T) {
	tests := Synthesize("p", []core.DiscoveredElement{
		{Selector: ".btn-primary", Type: core.ElementButton},
	})
	code := findTest(t, tests, "button interactions").Code

	if !strings.Contains(code, `await healing.click(".btn-primary");`) {
		t.Errorf("expected plain click without fallbacks:\n%s", code)
	}
	if strings.Contains(code, "fallbacks") {
		t.Errorf("unexpected fallbacks for element with no alternate attributes:\n%s", code)
	}
}

func TestFormTest_FillsInputsAndSelectsSecondOption(t *testing.T) {
	tests := Synthesize("signup", []core.DiscoveredElement{
		{Selector: "#email", Type: core.ElementInput},
		{Selector: "#plan", Type: core.ElementSelect},
	})
	code := findTest(t, tests, "form interactions").Code

	for _, want := range []string{
		`await healing.fill("#email", "test value 1");`,
		`toHaveValue("test value 1")`,
		`selectOption("#plan", { index: 1 })`,
		`> 1`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("form test missing %q:\n%s", want, code)
		}
	}
}

func TestNavigationTest_InternalLinksOnlyCappedAtFive(t *testing.T) {
	links := []core.DiscoveredElement{
		{Selector: ".l0", Type: core.ElementLink, Href: "https://external.example.com"},
		{Selector: ".l1", Type: core.ElementLink, Href: "/a"},
		{Selector: ".l2", Type: core.ElementLink, Href: "/b"},
		{Selector: ".l3", Type: core.ElementLink, Href: "/c"},
		{Selector: ".l4", Type: core.ElementLink, Href: "/d"},
		{Selector: ".l5", Type: core.ElementLink, Href: "/e"},
		{Selector: ".l6", Type: core.ElementLink, Href: "/f"},
	}

	nav := findTest(t, Synthesize("site", links), "navigation")
	if strings.Contains(nav.Code, ".l0") {
		t.Errorf("absolute-URL link must be skipped:\n%s", nav.Code)
	}
	if strings.Contains(nav.Code, ".l6") {
		t.Errorf("navigation test must follow at most 5 links:\n%s", nav.Code)
	}
	if got := strings.Count(nav.Code, "goBack()"); got != 5 {
		t.Errorf("expected 5 goBack calls, got %d", got)
	}
	if len(nav.Elements) != 5 {
		t.Errorf("expected 5 exercised links, got %d", len(nav.Elements))
	}
}

func TestAccessibilityTest_CoversButtonsImagesInputs(t *testing.T) {
	code := findTest(t, Synthesize("a11y", nil), "accessibility").Code

	for _, want := range []string{
		"'button must have text or aria-label'",
		"'image must have alt text'",
		"'input must have a label or aria-label'",
		`label[for=`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("accessibility test missing %q", want)
		}
	}
}

func TestResponsiveTest_AllViewportsWithScreenshots(t *testing.T) {
	code := findTest(t, Synthesize("Landing Page", nil), "responsive layout").Code

	for _, want := range []string{
		"{ width: 375, height: 667 }",
		"{ width: 768, height: 1024 }",
		"{ width: 1920, height: 1080 }",
		"screenshots/landing-page-mobile.png",
		"screenshots/landing-page-desktop.png",
		"toBeVisible()",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("responsive test missing %q:\n%s", want, code)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Landing Page", "landing-page"},
		{"Checkout_v2", "checkout-v2"},
		{"--Weird!!", "weird"},
	}
	for _, tc := range cases {
		if got := slug(tc.in); got != tc.want {
			t.Errorf("slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
