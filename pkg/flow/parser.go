package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError is a parsing failure with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single YAML flow file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow file: %w", err)
	}
	return Parse(data, path)
}

// LoadDir parses every .yaml/.yml file in a directory, sorted by name.
func LoadDir(dir string) ([]*Flow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read flow dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	flows := make([]*Flow, 0, len(paths))
	for _, p := range paths {
		f, err := ParseFile(p)
		if err != nil {
			return nil, err
		}
		flows = append(flows, f)
	}
	return flows, nil
}

// rawFlow captures the file-level structure before step dispatch.
type rawFlow struct {
	Name    string      `yaml:"name"`
	BaseURL string      `yaml:"baseUrl"`
	Tags    []string    `yaml:"tags"`
	Timeout int         `yaml:"timeout"`
	Retries int         `yaml:"retries"`
	Steps   []yaml.Node `yaml:"steps"`
}

// Parse parses YAML flow content.
func Parse(data []byte, sourcePath string) (*Flow, error) {
	var raw rawFlow
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: sourcePath, Message: err.Error()}
	}
	if len(raw.Steps) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "flow has no steps"}
	}

	f := &Flow{
		SourcePath: sourcePath,
		Config: Config{
			Name:    raw.Name,
			BaseURL: raw.BaseURL,
			Tags:    raw.Tags,
			Timeout: raw.Timeout,
			Retries: raw.Retries,
		},
	}

	for i := range raw.Steps {
		step, err := parseStep(&raw.Steps[i], sourcePath)
		if err != nil {
			return nil, err
		}
		f.Steps = append(f.Steps, step)
	}
	return f, nil
}

// parseStep dispatches one step node, a mapping with a single
// step-type key.
func parseStep(node *yaml.Node, path string) (Step, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, &ParseError{Path: path, Line: node.Line, Message: "step must be a single-key mapping like 'click: ...'"}
	}
	key := node.Content[0].Value
	val := node.Content[1]

	switch StepType(key) {
	case StepNavigate:
		return parseNavigate(val, path)
	case StepClick:
		sel, err := parseSelector(val, path, "click")
		if err != nil {
			return nil, err
		}
		return &ClickStep{BaseStep: baseFrom(StepClick, sel), Selector: sel}, nil
	case StepFill:
		sel, err := parseSelector(val, path, "fill")
		if err != nil {
			return nil, err
		}
		return &FillStep{BaseStep: baseFrom(StepFill, sel), Selector: sel, Value: sel.Value}, nil
	case StepExpectText:
		sel, err := parseSelector(val, path, "expectText")
		if err != nil {
			return nil, err
		}
		if sel.Expect == "" {
			return nil, &ParseError{Path: path, Line: val.Line, Message: "expectText requires an 'expect' value"}
		}
		exact := sel.Exact == nil || *sel.Exact
		return &ExpectTextStep{BaseStep: baseFrom(StepExpectText, sel), Selector: sel, Text: sel.Expect, Exact: exact}, nil
	case StepWaitFor:
		sel, err := parseSelector(val, path, "waitFor")
		if err != nil {
			return nil, err
		}
		return &WaitForStep{BaseStep: baseFrom(StepWaitFor, sel), Selector: sel}, nil
	case StepWaitForLoading:
		var sel Selector
		if val.Kind == yaml.MappingNode {
			if err := val.Decode(&sel); err != nil {
				return nil, &ParseError{Path: path, Line: val.Line, Message: err.Error()}
			}
		}
		return &WaitForLoadingStep{BaseStep: baseFrom(StepWaitForLoading, sel)}, nil
	case StepScreenshot:
		return parseScreenshot(val, path)
	default:
		return nil, &ParseError{Path: path, Line: node.Line, Message: fmt.Sprintf("unknown step type %q", key)}
	}
}

func baseFrom(t StepType, sel Selector) BaseStep {
	return BaseStep{StepType: t, StepLabel: sel.Label, TimeoutMs: sel.TimeoutMs}
}

func parseSelector(val *yaml.Node, path, stepName string) (Selector, error) {
	var sel Selector
	if err := val.Decode(&sel); err != nil {
		return Selector{}, &ParseError{Path: path, Line: val.Line, Message: err.Error()}
	}
	if sel.IsZero() {
		return Selector{}, &ParseError{Path: path, Line: val.Line, Message: stepName + " requires a selector"}
	}
	return sel, nil
}

func parseNavigate(val *yaml.Node, path string) (Step, error) {
	if val.Kind == yaml.ScalarNode {
		if strings.TrimSpace(val.Value) == "" {
			return nil, &ParseError{Path: path, Line: val.Line, Message: "navigate requires a url"}
		}
		return &NavigateStep{BaseStep: BaseStep{StepType: StepNavigate}, URL: val.Value}, nil
	}

	var raw struct {
		URL     string `yaml:"url"`
		Timeout int    `yaml:"timeout"`
		Label   string `yaml:"label"`
	}
	if err := val.Decode(&raw); err != nil {
		return nil, &ParseError{Path: path, Line: val.Line, Message: err.Error()}
	}
	if raw.URL == "" {
		return nil, &ParseError{Path: path, Line: val.Line, Message: "navigate requires a url"}
	}
	return &NavigateStep{
		BaseStep: BaseStep{StepType: StepNavigate, StepLabel: raw.Label, TimeoutMs: raw.Timeout},
		URL:      raw.URL,
	}, nil
}

func parseScreenshot(val *yaml.Node, path string) (Step, error) {
	if val.Kind == yaml.ScalarNode {
		if strings.TrimSpace(val.Value) == "" {
			return nil, &ParseError{Path: path, Line: val.Line, Message: "screenshot requires a path"}
		}
		return &ScreenshotStep{BaseStep: BaseStep{StepType: StepScreenshot}, Path: val.Value}, nil
	}

	var raw struct {
		Path     string `yaml:"path"`
		FullPage bool   `yaml:"fullPage"`
		Label    string `yaml:"label"`
	}
	if err := val.Decode(&raw); err != nil {
		return nil, &ParseError{Path: path, Line: val.Line, Message: err.Error()}
	}
	if raw.Path == "" {
		return nil, &ParseError{Path: path, Line: val.Line, Message: "screenshot requires a path"}
	}
	return &ScreenshotStep{
		BaseStep: BaseStep{StepType: StepScreenshot, StepLabel: raw.Label},
		Path:     raw.Path,
		FullPage: raw.FullPage,
	}, nil
}
