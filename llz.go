// Package llz provides the template wire types for the mcnc-llz
// landing-zone security synthesizer.
//
// The synthesizer reads a deployment configuration and declares the
// security baseline (shared KMS key, session-manager logging settings)
// as CloudFormation resources:
//
//	st := stack.New("llz-key")
//	out, err := keymgmt.Provision(cfg, st)
//
// The resulting *Template serializes to deployable CloudFormation JSON
// or YAML. Resources are declared once per synthesis pass; all
// lifecycle management belongs to CloudFormation itself.
package llz

// Resource is a declarable CloudFormation resource. All property
// structs under resources/ (kms.Key, iam.Role, ...) implement it.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g. "AWS::KMS::Key").
	ResourceType() string
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Parameters               map[string]Parameter   `json:"Parameters,omitempty" yaml:"Parameters,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the template.
type ResourceDef struct {
	Type       string         `json:"Type" yaml:"Type"`
	Properties map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn  []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
}

// Parameter is a CloudFormation template parameter. The synthesizer
// uses parameters for values supplied at deploy time by external
// collaborators, such as the session-manager settings handler ARN.
type Parameter struct {
	Type        string `json:"Type" yaml:"Type"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Default     any    `json:"Default,omitempty" yaml:"Default,omitempty"`
}

// Output is a CloudFormation stack output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
	Export      *Export `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// Export names a cross-stack export for an output.
type Export struct {
	Name string `json:"Name" yaml:"Name"`
}

// SynthResult is the JSON envelope emitted by `mcnc-llz synth`.
type SynthResult struct {
	Success bool           `json:"success"`
	Stacks  []StackSummary `json:"stacks,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// StackSummary describes one synthesized stack.
type StackSummary struct {
	Name      string `json:"name"`
	Resources int    `json:"resources"`
	Path      string `json:"path,omitempty"`
}
