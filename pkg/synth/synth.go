// Package synth generates test source files from discovered page
// elements. Output is playwright-style TypeScript text, matching the
// dialect the repair engine rewrites, so synthesized tests are
// repairable by the same pipeline.
package synth

import (
	"fmt"
	"strings"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

// Viewport is a named screen size exercised by the responsive test.
type Viewport struct {
	Name   string
	Width  int
	Height int
}

// Viewports covered by the responsive layout test.
var Viewports = []Viewport{
	{Name: "mobile", Width: 375, Height: 667},
	{Name: "tablet", Width: 768, Height: 1024},
	{Name: "desktop", Width: 1920, Height: 1080},
}

// maxNavigationLinks bounds how many internal links the navigation
// test follows.
const maxNavigationLinks = 5

// Synthesize builds test cases for a page from its discovered
// elements. A test kind is only emitted when applicable elements
// exist; a page with no links produces no navigation test. The
// accessibility and responsive tests are always emitted since they
// exercise the page itself rather than specific elements.
func Synthesize(pageName string, elements []core.DiscoveredElement) []core.GeneratedTest {
	var tests []core.GeneratedTest

	buttons := filter(elements, core.ElementButton)
	inputs := filter(elements, core.ElementInput)
	selects := filter(elements, core.ElementSelect)
	links := filter(elements, core.ElementLink)

	if len(buttons) > 0 {
		tests = append(tests, interactionTest(pageName, buttons))
	}
	if len(inputs) > 0 || len(selects) > 0 {
		tests = append(tests, formTest(pageName, append(inputs, selects...)))
	}
	if len(links) > 0 {
		tests = append(tests, navigationTest(pageName, links))
	}
	tests = append(tests,
		accessibilityTest(pageName, elements),
		responsiveTest(pageName))
	return tests
}

func filter(elements []core.DiscoveredElement, t core.ElementType) []core.DiscoveredElement {
	var out []core.DiscoveredElement
	for _, el := range elements {
		if el.Type == t {
			out = append(out, el)
		}
	}
	return out
}

// fallbacksFor derives alternative locators from the element's own
// attributes, skipping whichever one the primary selector already
// uses.
func fallbacksFor(el core.DiscoveredElement) []string {
	var out []string
	add := func(sel string) {
		if sel != el.Selector {
			out = append(out, sel)
		}
	}
	if el.TestID != "" {
		add(fmt.Sprintf("[data-testid=%q]", el.TestID))
	}
	if el.AriaLabel != "" {
		add(fmt.Sprintf("[aria-label=%q]", el.AriaLabel))
	}
	if el.Text != "" && el.Type == core.ElementButton {
		add(fmt.Sprintf("text=%q", el.Text))
	}
	return out
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}

func header(b *strings.Builder, pageName string) {
	fmt.Fprintf(b, "import { test, expect } from '@playwright/test';\n")
	fmt.Fprintf(b, "import { createHealingPage } from './helpers/self-healing';\n\n")
	fmt.Fprintf(b, "test.describe('%s', () => {\n", pageName)
}

func footer(b *strings.Builder) {
	b.WriteString("});\n")
}

func interactionTest(pageName string, buttons []core.DiscoveredElement) core.GeneratedTest {
	var b strings.Builder
	header(&b, pageName)
	b.WriteString("  test('buttons respond to clicks', async ({ page }) => {\n")
	b.WriteString("    const healing = createHealingPage(page);\n")
	b.WriteString("    const errors: string[] = [];\n")
	b.WriteString("    page.on('pageerror', (err) => errors.push(err.message));\n\n")
	for _, btn := range buttons {
		label := btn.Text
		if label == "" {
			label = btn.Selector
		}
		fmt.Fprintf(&b, "    // %s\n", label)
		if fb := fallbacksFor(btn); len(fb) > 0 {
			fmt.Fprintf(&b, "    await healing.click(%q, { fallbacks: [%s] });\n", btn.Selector, quoteList(fb))
		} else {
			fmt.Fprintf(&b, "    await healing.click(%q);\n", btn.Selector)
		}
		b.WriteString("    await page.waitForLoadState('networkidle');\n")
	}
	b.WriteString("\n    expect(errors).toHaveLength(0);\n")
	b.WriteString("  });\n")
	footer(&b)
	return core.GeneratedTest{
		Name:     pageName + " button interactions",
		Code:     b.String(),
		Elements: buttons,
	}
}

func formTest(pageName string, fields []core.DiscoveredElement) core.GeneratedTest {
	var b strings.Builder
	header(&b, pageName)
	b.WriteString("  test('form fields accept input', async ({ page }) => {\n")
	b.WriteString("    const healing = createHealingPage(page);\n\n")
	for i, f := range fields {
		switch f.Type {
		case core.ElementInput:
			value := fmt.Sprintf("test value %d", i+1)
			fmt.Fprintf(&b, "    await healing.fill(%q, %q);\n", f.Selector, value)
			fmt.Fprintf(&b, "    await expect(page.locator(%q)).toHaveValue(%q);\n", f.Selector, value)
		case core.ElementSelect:
			fmt.Fprintf(&b, "    const options%d = await page.locator(%q).locator('option').count();\n", i, f.Selector)
			fmt.Fprintf(&b, "    if (options%d > 1) {\n", i)
			fmt.Fprintf(&b, "      await page.selectOption(%q, { index: 1 });\n", f.Selector)
			b.WriteString("    }\n")
		}
	}
	b.WriteString("  });\n")
	footer(&b)
	return core.GeneratedTest{
		Name:     pageName + " form interactions",
		Code:     b.String(),
		Elements: fields,
	}
}

// internalLinks keeps links whose href is not an absolute URL, capped
// at maxNavigationLinks.
func internalLinks(links []core.DiscoveredElement) []core.DiscoveredElement {
	var out []core.DiscoveredElement
	for _, l := range links {
		if strings.HasPrefix(l.Href, "http://") || strings.HasPrefix(l.Href, "https://") {
			continue
		}
		out = append(out, l)
		if len(out) == maxNavigationLinks {
			break
		}
	}
	return out
}

func navigationTest(pageName string, links []core.DiscoveredElement) core.GeneratedTest {
	internal := internalLinks(links)
	var b strings.Builder
	header(&b, pageName)
	b.WriteString("  test('internal links navigate and return', async ({ page }) => {\n")
	b.WriteString("    const healing = createHealingPage(page);\n\n")
	for _, l := range internal {
		fmt.Fprintf(&b, "    await healing.click(%q);\n", l.Selector)
		b.WriteString("    await page.waitForLoadState('networkidle');\n")
		b.WriteString("    await page.goBack();\n")
		b.WriteString("    await page.waitForLoadState('networkidle');\n")
	}
	b.WriteString("  });\n")
	footer(&b)
	return core.GeneratedTest{
		Name:     pageName + " navigation",
		Code:     b.String(),
		Elements: internal,
	}
}

func accessibilityTest(pageName string, elements []core.DiscoveredElement) core.GeneratedTest {
	var b strings.Builder
	header(&b, pageName)
	b.WriteString("  test('baseline accessibility', async ({ page }) => {\n")
	b.WriteString("    const buttons = page.locator('button, [role=\"button\"]');\n")
	b.WriteString("    const buttonCount = await buttons.count();\n")
	b.WriteString("    for (let i = 0; i < buttonCount; i++) {\n")
	b.WriteString("      const btn = buttons.nth(i);\n")
	b.WriteString("      const text = (await btn.textContent())?.trim();\n")
	b.WriteString("      const label = await btn.getAttribute('aria-label');\n")
	b.WriteString("      expect(text || label, 'button must have text or aria-label').toBeTruthy();\n")
	b.WriteString("    }\n\n")
	b.WriteString("    const images = page.locator('img');\n")
	b.WriteString("    const imageCount = await images.count();\n")
	b.WriteString("    for (let i = 0; i < imageCount; i++) {\n")
	b.WriteString("      expect(await images.nth(i).getAttribute('alt'), 'image must have alt text').not.toBeNull();\n")
	b.WriteString("    }\n\n")
	b.WriteString("    const inputs = page.locator('input:not([type=\"hidden\"])');\n")
	b.WriteString("    const inputCount = await inputs.count();\n")
	b.WriteString("    for (let i = 0; i < inputCount; i++) {\n")
	b.WriteString("      const input = inputs.nth(i);\n")
	b.WriteString("      const id = await input.getAttribute('id');\n")
	b.WriteString("      const label = await input.getAttribute('aria-label');\n")
	b.WriteString("      const hasLabel = id ? (await page.locator(`label[for=\"${id}\"]`).count()) > 0 : false;\n")
	b.WriteString("      expect(hasLabel || !!label, 'input must have a label or aria-label').toBe(true);\n")
	b.WriteString("    }\n")
	b.WriteString("  });\n")
	footer(&b)
	return core.GeneratedTest{
		Name:     pageName + " accessibility",
		Code:     b.String(),
		Elements: elements,
	}
}

func responsiveTest(pageName string) core.GeneratedTest {
	var b strings.Builder
	header(&b, pageName)
	b.WriteString("  test('layout holds across viewports', async ({ page }) => {\n")
	for _, vp := range Viewports {
		fmt.Fprintf(&b, "    await page.setViewportSize({ width: %d, height: %d });\n", vp.Width, vp.Height)
		b.WriteString("    await expect(page.locator('main, [role=\"main\"], #root, #app').first()).toBeVisible();\n")
		fmt.Fprintf(&b, "    await page.screenshot({ path: 'screenshots/%s-%s.png', fullPage: true });\n", slug(pageName), vp.Name)
	}
	b.WriteString("  });\n")
	footer(&b)
	return core.GeneratedTest{
		Name: pageName + " responsive layout",
		Code: b.String(),
	}
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
