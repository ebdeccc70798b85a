// Package stack provides the programmatic stack builder the
// provisioners declare resources into.
package stack

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	llz "github.com/Lekan-Bamgbose/mcnc-llz"
)

// Stack accumulates resource declarations for one CloudFormation
// template. Logical names are unique; redeclaring one is an error
// unless it goes through Ensure.
type Stack struct {
	name        string
	description string

	order      []string
	resources  map[string]llz.ResourceDef
	parameters map[string]llz.Parameter
	outputs    map[string]llz.Output
}

// New creates an empty stack.
func New(name string) *Stack {
	return &Stack{
		name:       name,
		resources:  make(map[string]llz.ResourceDef),
		parameters: make(map[string]llz.Parameter),
		outputs:    make(map[string]llz.Output),
	}
}

// Name returns the stack name.
func (s *Stack) Name() string { return s.name }

// SetDescription sets the template description.
func (s *Stack) SetDescription(d string) { s.description = d }

// Add declares a resource under the given logical name.
func (s *Stack) Add(logical string, r llz.Resource) error {
	props, err := serialize(r)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", logical, err)
	}
	return s.add(logical, llz.ResourceDef{Type: r.ResourceType(), Properties: props})
}

// AddCustom declares a custom resource (Custom::*) with raw properties.
func (s *Stack) AddCustom(logical, customType string, props map[string]any) error {
	normalized, err := normalizeMap(props)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", logical, err)
	}
	return s.add(logical, llz.ResourceDef{Type: customType, Properties: normalized})
}

// Ensure declares the resource under the given logical name only if no
// resource is declared there yet, and returns the definition in
// effect. Repeated calls with the same logical name within one
// deployment scope yield the same declaration.
func (s *Stack) Ensure(logical string, build func() llz.Resource) (llz.ResourceDef, error) {
	if def, ok := s.resources[logical]; ok {
		return def, nil
	}
	if err := s.Add(logical, build()); err != nil {
		return llz.ResourceDef{}, err
	}
	return s.resources[logical], nil
}

// Has reports whether a resource is declared under the logical name.
func (s *Stack) Has(logical string) bool {
	_, ok := s.resources[logical]
	return ok
}

// Resource returns the declared definition for a logical name.
func (s *Stack) Resource(logical string) (llz.ResourceDef, bool) {
	def, ok := s.resources[logical]
	return def, ok
}

// Len returns the number of declared resources.
func (s *Stack) Len() int { return len(s.resources) }

func (s *Stack) add(logical string, def llz.ResourceDef) error {
	if logical == "" {
		return errors.New("logical name must not be empty")
	}
	if _, ok := s.resources[logical]; ok {
		return fmt.Errorf("duplicate logical name %q", logical)
	}
	s.resources[logical] = def
	s.order = append(s.order, logical)
	return nil
}

// AddParameter declares a template parameter.
func (s *Stack) AddParameter(name string, p llz.Parameter) error {
	if _, ok := s.parameters[name]; ok {
		return fmt.Errorf("duplicate parameter %q", name)
	}
	s.parameters[name] = p
	return nil
}

// AddOutput declares a template output. The output value is
// normalized to its wire form so intrinsics render correctly in both
// JSON and YAML output.
func (s *Stack) AddOutput(name string, o llz.Output) error {
	if _, ok := s.outputs[name]; ok {
		return fmt.Errorf("duplicate output %q", name)
	}
	value, err := normalize(o.Value)
	if err != nil {
		return fmt.Errorf("serializing output %q: %w", name, err)
	}
	o.Value = value
	s.outputs[name] = o
	return nil
}

// Template assembles the CloudFormation template. Resources are
// checked for reference cycles first; CloudFormation resolves ordering
// itself, but a cycle is always a declaration bug.
func (s *Stack) Template() (*llz.Template, error) {
	if _, err := s.SortedOrder(); err != nil {
		return nil, err
	}

	t := &llz.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              s.description,
		Resources:                make(map[string]llz.ResourceDef, len(s.resources)),
	}
	for name, def := range s.resources {
		t.Resources[name] = def
	}
	if len(s.parameters) > 0 {
		t.Parameters = make(map[string]llz.Parameter, len(s.parameters))
		for name, p := range s.parameters {
			t.Parameters[name] = p
		}
	}
	if len(s.outputs) > 0 {
		t.Outputs = make(map[string]llz.Output, len(s.outputs))
		for name, o := range s.outputs {
			t.Outputs[name] = o
		}
	}
	return t, nil
}

// Dependencies returns the logical names the given resource references
// via Ref, Fn::GetAtt, or DependsOn, restricted to names declared in
// this stack.
func (s *Stack) Dependencies(logical string) []string {
	def, ok := s.resources[logical]
	if !ok {
		return nil
	}

	found := make(map[string]struct{})
	scanRefs(def.Properties, found)
	for _, dep := range def.DependsOn {
		found[dep] = struct{}{}
	}

	var deps []string
	for name := range found {
		if _, declared := s.resources[name]; declared && name != logical {
			deps = append(deps, name)
		}
	}
	sort.Strings(deps)
	return deps
}

// DeclarationOrder returns logical names in the order they were added.
func (s *Stack) DeclarationOrder() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// SortedOrder returns logical names in dependency order (Kahn's
// algorithm, alphabetical tie-break) or an error describing a cycle.
func (s *Stack) SortedOrder() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range s.resources {
		graph[name] = nil
		inDegree[name] = 0
	}
	for name := range s.resources {
		for _, dep := range s.Dependencies(name) {
			graph[dep] = append(graph[dep], name)
			inDegree[name]++
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(s.resources) {
		var stuck []string
		for name, degree := range inDegree {
			if degree > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("circular reference between resources: %v", stuck)
	}
	return result, nil
}

// serialize converts a resource struct to CloudFormation properties
// via a JSON round-trip, letting intrinsic MarshalJSON implementations
// produce their wire form.
func serialize(r llz.Resource) (map[string]any, error) {
	return normalizeMap(r)
}

// normalizeMap round-trips a value through JSON into a plain map so
// intrinsics end up in wire form regardless of output encoding.
func normalizeMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// normalize round-trips an arbitrary value through JSON.
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// scanRefs walks serialized properties collecting Ref and Fn::GetAtt
// targets.
func scanRefs(v any, found map[string]struct{}) {
	switch val := v.(type) {
	case map[string]any:
		if ref, ok := val["Ref"].(string); ok && len(val) == 1 {
			found[ref] = struct{}{}
			return
		}
		if att, ok := val["Fn::GetAtt"]; ok && len(val) == 1 {
			switch target := att.(type) {
			case []any:
				if len(target) > 0 {
					if name, ok := target[0].(string); ok {
						found[name] = struct{}{}
					}
				}
			case []string:
				if len(target) > 0 {
					found[target[0]] = struct{}{}
				}
			}
			return
		}
		for _, nested := range val {
			scanRefs(nested, found)
		}
	case []any:
		for _, nested := range val {
			scanRefs(nested, found)
		}
	}
}

// ToJSON serializes the template to indented JSON.
func ToJSON(t *llz.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to YAML.
func ToYAML(t *llz.Template) ([]byte, error) {
	return yaml.Marshal(t)
}
