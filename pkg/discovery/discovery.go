// Package discovery crawls a loaded page and enumerates its interactive
// elements, deriving a stable selector and metadata for each.
package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/uilabs-dev/selfheal/pkg/core"
	"github.com/uilabs-dev/selfheal/pkg/driver"
)

// Engine scans pages for interactive elements. Read-only: it never
// mutates the page.
type Engine struct {
	page driver.Page
}

// New creates an Engine bound to a page.
func New(page driver.Page) *Engine {
	return &Engine{page: page}
}

// scanCategory describes one element category to enumerate.
type scanCategory struct {
	query string
	typ   core.ElementType
}

var scanOrder = []scanCategory{
	{query: `button, [role="button"]`, typ: core.ElementButton},
	{query: `input:not([type="hidden"])`, typ: core.ElementInput},
	{query: "select", typ: core.ElementSelect},
	{query: "a[href]", typ: core.ElementLink},
}

// Discover enumerates visible interactive elements. Elements for which
// no selector can be derived are silently dropped; partial discovery is
// expected and acceptable.
func (e *Engine) Discover(ctx context.Context) ([]core.DiscoveredElement, error) {
	var discovered []core.DiscoveredElement
	seen := make(map[string]bool)

	for _, cat := range scanOrder {
		if ctx.Err() != nil {
			return discovered, ctx.Err()
		}
		matches, err := e.page.Locate(cat.query)
		if err != nil {
			return discovered, fmt.Errorf("scan %q: %w", cat.query, err)
		}
		for _, el := range matches {
			visible, err := el.IsVisible()
			if err != nil || !visible {
				continue
			}
			de, ok := e.describe(el, cat.typ)
			if !ok || seen[de.Selector] {
				continue
			}
			seen[de.Selector] = true
			discovered = append(discovered, de)
		}
	}
	return discovered, nil
}

// describe derives a DiscoveredElement from a handle. Selector
// derivation priority: test-identifier attribute, DOM id, aria-label,
// exact visible text (buttons only), first CSS class token.
func (e *Engine) describe(el driver.Element, typ core.ElementType) (core.DiscoveredElement, bool) {
	testID, _ := el.GetAttribute("data-testid")
	id, _ := el.GetAttribute("id")
	ariaLabel, _ := el.GetAttribute("aria-label")
	text, _ := el.TextContent()
	text = strings.TrimSpace(text)

	de := core.DiscoveredElement{
		Type:      typ,
		Text:      text,
		TestID:    testID,
		AriaLabel: ariaLabel,
	}

	if typ == core.ElementInput {
		de.Type = refineInputType(el)
	}
	if typ == core.ElementLink {
		de.Href, _ = el.GetAttribute("href")
	}

	switch {
	case testID != "":
		de.Selector = fmt.Sprintf("[data-testid=%q]", testID)
	case id != "":
		de.Selector = "#" + id
	case ariaLabel != "":
		de.Selector = fmt.Sprintf("[aria-label=%q]", ariaLabel)
	case typ == core.ElementButton && text != "":
		de.Selector = fmt.Sprintf("text=%q", text)
	default:
		if cls := firstClassToken(el); cls != "" {
			de.Selector = "." + cls
		}
	}

	if de.Selector == "" {
		return core.DiscoveredElement{}, false
	}

	if typ == core.ElementInput || typ == core.ElementSelect {
		de.Label = e.labelFor(id, ariaLabel)
	}
	return de, true
}

// refineInputType distinguishes checkboxes and radios from plain inputs.
func refineInputType(el driver.Element) core.ElementType {
	switch t, _ := el.GetAttribute("type"); t {
	case "checkbox":
		return core.ElementCheckbox
	case "radio":
		return core.ElementRadio
	default:
		return core.ElementInput
	}
}

// firstClassToken returns the first class attribute token, if any.
func firstClassToken(el driver.Element) string {
	class, _ := el.GetAttribute("class")
	fields := strings.Fields(class)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// labelFor resolves the associated <label for=id> text for a form
// control, falling back to the aria-label.
func (e *Engine) labelFor(id, ariaLabel string) string {
	if id != "" {
		matches, err := e.page.Locate(fmt.Sprintf("label[for=%q]", id))
		if err == nil && len(matches) > 0 {
			if text, err := matches[0].TextContent(); err == nil {
				if text = strings.TrimSpace(text); text != "" {
					return text
				}
			}
		}
	}
	return ariaLabel
}
