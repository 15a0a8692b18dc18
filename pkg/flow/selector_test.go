package flow

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/uilabs-dev/selfheal/pkg/core"
)

func TestSelector_UnmarshalScalar(t *testing.T) {
	var sel Selector
	if err := yaml.Unmarshal([]byte(`"#submit"`), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sel.CSS != "#submit" {
		t.Errorf("CSS = %q, want #submit", sel.CSS)
	}
}

func TestSelector_UnmarshalMapping(t *testing.T) {
	src := `
testId: submit
fallbacks: ["#submit", ".btn-submit"]
value: hello
timeout: 2000
label: submit the form
`
	var sel Selector
	if err := yaml.Unmarshal([]byte(src), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sel.TestID != "submit" || sel.Value != "hello" || sel.TimeoutMs != 2000 || sel.Label != "submit the form" {
		t.Errorf("unexpected selector: %+v", sel)
	}
	if len(sel.Fallbacks) != 2 {
		t.Errorf("Fallbacks = %v", sel.Fallbacks)
	}
}

func TestSelector_StrategiesOrder(t *testing.T) {
	sel := Selector{
		CSS:       ".save",
		TestID:    "save",
		Text:      "Save",
		Fallbacks: []string{"#save"},
	}

	got := sel.Strategies()
	want := []core.SelectorStrategy{
		{Kind: core.StrategyTestID, Value: "save"},
		{Kind: core.StrategyText, Value: "Save"},
		{Kind: core.StrategyCSS, Value: ".save"},
		{Kind: core.StrategyCSS, Value: "#save"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d strategies, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("strategy[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSelector_IsZero(t *testing.T) {
	if !(Selector{Value: "x", TimeoutMs: 100}).IsZero() {
		t.Error("selector with only inline props should be zero")
	}
	if (Selector{Role: "button"}).IsZero() {
		t.Error("selector with role locator should not be zero")
	}
}
