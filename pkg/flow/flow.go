// Package flow handles parsing and representation of YAML test flow
// files: an ordered list of browser steps plus flow-level settings.
package flow

// Flow is a parsed flow file.
type Flow struct {
	SourcePath string // Path to the source file
	Config     Config // Flow-level settings
	Steps      []Step // Steps to execute in order
}

// Config holds flow-level settings.
type Config struct {
	Name    string   `yaml:"name"`
	BaseURL string   `yaml:"baseUrl"` // Prefix for relative navigate URLs
	Tags    []string `yaml:"tags"`
	Timeout int      `yaml:"timeout"` // Flow timeout in ms, 0 means default
	Retries int      `yaml:"retries"` // Per-step retry budget, 0 means default
}

// Name returns the configured flow name, falling back to the source
// path.
func (f *Flow) Name() string {
	if f.Config.Name != "" {
		return f.Config.Name
	}
	return f.SourcePath
}

// HasTag reports whether the flow carries the given tag.
func (f *Flow) HasTag(tag string) bool {
	for _, t := range f.Config.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
