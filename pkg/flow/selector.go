package flow

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

// Selector describes how a step locates its element. Pure data; the
// executor turns it into an ordered strategy list.
type Selector struct {
	// Locators, at most one per kind. Priority when several are set:
	// testId, ariaLabel, text, css, role.
	CSS       string `yaml:"css"`
	TestID    string `yaml:"testId"`
	Text      string `yaml:"text"`
	AriaLabel string `yaml:"ariaLabel"`
	Role      string `yaml:"role"`

	// Extra raw CSS fallbacks appended after the derived strategies.
	Fallbacks []string `yaml:"fallbacks"`

	// Inline step properties, parsed with the selector for YAML
	// convenience.
	Value     string `yaml:"value"`   // fill input value
	Expect    string `yaml:"expect"`  // expectText expected text
	Exact     *bool  `yaml:"exact"`   // expectText match mode
	TimeoutMs int    `yaml:"timeout"` // per-step timeout override
	Label     string `yaml:"label"`   // step label for logs/reports
}

// selectorRaw captures map-form selectors during parsing.
type selectorRaw struct {
	CSS       string   `yaml:"css"`
	TestID    string   `yaml:"testId"`
	Text      string   `yaml:"text"`
	AriaLabel string   `yaml:"ariaLabel"`
	Role      string   `yaml:"role"`
	Fallbacks []string `yaml:"fallbacks"`
	Value     string   `yaml:"value"`
	Expect    string   `yaml:"expect"`
	Exact     *bool    `yaml:"exact"`
	TimeoutMs int      `yaml:"timeout"`
	Label     string   `yaml:"label"`
}

// UnmarshalYAML allows a Selector to be written as a bare scalar,
// treated as a raw CSS selector, or as a mapping.
func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.CSS = node.Value
		return nil
	}

	var raw selectorRaw
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.CSS = raw.CSS
	s.TestID = raw.TestID
	s.Text = raw.Text
	s.AriaLabel = raw.AriaLabel
	s.Role = raw.Role
	s.Fallbacks = raw.Fallbacks
	s.Value = raw.Value
	s.Expect = raw.Expect
	s.Exact = raw.Exact
	s.TimeoutMs = raw.TimeoutMs
	s.Label = raw.Label
	return nil
}

// IsZero reports whether no locator is set.
func (s Selector) IsZero() bool {
	return s.CSS == "" && s.TestID == "" && s.Text == "" && s.AriaLabel == "" && s.Role == "" && len(s.Fallbacks) == 0
}

// Strategies returns the ordered strategy list for resolution: one
// strategy per populated locator kind in healing priority order, then
// the raw CSS fallbacks.
func (s Selector) Strategies() []core.SelectorStrategy {
	var out []core.SelectorStrategy
	add := func(kind core.StrategyKind, value string) {
		if value != "" {
			out = append(out, core.SelectorStrategy{Kind: kind, Value: value})
		}
	}
	add(core.StrategyTestID, s.TestID)
	add(core.StrategyAriaLabel, s.AriaLabel)
	add(core.StrategyText, s.Text)
	add(core.StrategyCSS, s.CSS)
	add(core.StrategyRole, s.Role)
	for _, fb := range s.Fallbacks {
		add(core.StrategyCSS, fb)
	}
	return out
}

// Describe returns a compact human-readable form for logs.
func (s Selector) Describe() string {
	strategies := s.Strategies()
	parts := make([]string, len(strategies))
	for i, st := range strategies {
		parts[i] = st.Describe()
	}
	return strings.Join(parts, " | ")
}
