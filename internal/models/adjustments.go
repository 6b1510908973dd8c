package models

// DescriptionUpdate overrides the description of one method on a path.
type DescriptionUpdate struct {
	Method         string `yaml:"method"`
	NewDescription string `yaml:"new_description"`
}

type PathDescriptions struct {
	Path    string              `yaml:"path"`
	Updates []DescriptionUpdate `yaml:"updates"`
}

// PathSelection lists the methods of a path that stay registered.
type PathSelection struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
}

// ToolRename gives an operation a fixed tool name.
type ToolRename struct {
	Path   string `yaml:"path"`
	Method string `yaml:"method"`
	Name   string `yaml:"name"`
}

// Adjustments is the YAML file consumed by the parser's Adjuster and
// produced by the edit TUI.
type Adjustments struct {
	Descriptions []PathDescriptions `yaml:"descriptions,omitempty"`
	Operations   []PathSelection    `yaml:"operations,omitempty"`
	Renames      []ToolRename       `yaml:"renames,omitempty"`
}

// IsEmpty reports whether the adjustments change nothing.
func (a *Adjustments) IsEmpty() bool {
	return a == nil || (len(a.Descriptions) == 0 && len(a.Operations) == 0 && len(a.Renames) == 0)
}
