// Package lint provides security lint rules for synthesized templates.
//
// Rules:
//
//	LLZ001: Wildcard principals must carry a Condition
//	LLZ002: KMS keys must enable rotation
//	LLZ003: Write-capable IAM statements should not use Resource "*"
package lint

import (
	"fmt"
	"sort"
	"strings"

	llz "github.com/Lekan-Bamgbose/mcnc-llz"
)

// Severity classifies an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single finding in a template.
type Issue struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Resource string   `json:"resource"`
	Message  string   `json:"message"`
}

// Rule checks one concern across a template.
type Rule interface {
	ID() string
	Description() string
	Check(t *llz.Template) []Issue
}

// Result contains the outcome of linting one template.
type Result struct {
	Success bool    `json:"success"`
	Issues  []Issue `json:"issues,omitempty"`
}

// Run applies all rules to the template.
func Run(t *llz.Template) Result {
	var issues []Issue
	for _, rule := range allRules() {
		issues = append(issues, rule.Check(t)...)
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Resource != issues[j].Resource {
			return issues[i].Resource < issues[j].Resource
		}
		return issues[i].Rule < issues[j].Rule
	})

	success := true
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			success = false
		}
	}
	return Result{Success: success, Issues: issues}
}

func allRules() []Rule {
	return []Rule{
		WildcardPrincipal{},
		KeyRotation{},
		UnscopedWrite{},
	}
}

// WildcardPrincipal flags policy statements whose principal is the
// wildcard without any condition narrowing it.
type WildcardPrincipal struct{}

func (WildcardPrincipal) ID() string { return "LLZ001" }
func (WildcardPrincipal) Description() string {
	return "Wildcard principals must carry a Condition"
}

func (r WildcardPrincipal) Check(t *llz.Template) []Issue {
	var issues []Issue
	forEachStatement(t, func(resource string, stmt map[string]any) {
		principal, ok := stmt["Principal"]
		if !ok {
			return
		}
		if !isWildcardPrincipal(principal) {
			return
		}
		if _, hasCondition := stmt["Condition"]; hasCondition {
			return
		}
		issues = append(issues, Issue{
			Rule:     r.ID(),
			Severity: SeverityError,
			Resource: resource,
			Message:  "statement grants access to principal \"*\" without a Condition",
		})
	})
	return issues
}

// KeyRotation flags KMS keys that do not enable rotation.
type KeyRotation struct{}

func (KeyRotation) ID() string          { return "LLZ002" }
func (KeyRotation) Description() string { return "KMS keys must enable rotation" }

func (r KeyRotation) Check(t *llz.Template) []Issue {
	var issues []Issue
	for name, res := range t.Resources {
		if res.Type != "AWS::KMS::Key" {
			continue
		}
		if enabled, ok := res.Properties["EnableKeyRotation"].(bool); ok && enabled {
			continue
		}
		issues = append(issues, Issue{
			Rule:     r.ID(),
			Severity: SeverityWarning,
			Resource: name,
			Message:  "key does not enable rotation",
		})
	}
	return issues
}

// UnscopedWrite flags identity-policy statements that combine
// write-capable actions with Resource "*".
type UnscopedWrite struct{}

func (UnscopedWrite) ID() string { return "LLZ003" }
func (UnscopedWrite) Description() string {
	return "Write-capable IAM statements should not use Resource \"*\""
}

func (r UnscopedWrite) Check(t *llz.Template) []Issue {
	var issues []Issue
	forEachStatement(t, func(resource string, stmt map[string]any) {
		// Resource policies name a Principal; identity policies do not.
		if _, isResourcePolicy := stmt["Principal"]; isResourcePolicy {
			return
		}
		if res, ok := stmt["Resource"].(string); !ok || res != "*" {
			return
		}
		for _, action := range actionList(stmt["Action"]) {
			if isWriteAction(action) {
				issues = append(issues, Issue{
					Rule:     r.ID(),
					Severity: SeverityWarning,
					Resource: resource,
					Message:  fmt.Sprintf("action %q is not scoped to a resource", action),
				})
				return
			}
		}
	})
	return issues
}

// forEachStatement walks every policy statement in every resource's
// properties, however deeply nested.
func forEachStatement(t *llz.Template, fn func(resource string, stmt map[string]any)) {
	names := make([]string, 0, len(t.Resources))
	for name := range t.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		walkStatements(t.Resources[name].Properties, func(stmt map[string]any) {
			fn(name, stmt)
		})
	}
}

func walkStatements(v any, fn func(stmt map[string]any)) {
	switch val := v.(type) {
	case map[string]any:
		if _, ok := val["Effect"]; ok {
			if _, ok := val["Action"]; ok {
				fn(val)
			}
		}
		for _, nested := range val {
			walkStatements(nested, fn)
		}
	case []any:
		for _, nested := range val {
			walkStatements(nested, fn)
		}
	}
}

func isWildcardPrincipal(principal any) bool {
	switch val := principal.(type) {
	case string:
		return val == "*"
	case map[string]any:
		for _, nested := range val {
			if isWildcardPrincipal(nested) {
				return true
			}
		}
	case []any:
		for _, nested := range val {
			if isWildcardPrincipal(nested) {
				return true
			}
		}
	}
	return false
}

func actionList(action any) []string {
	switch val := action.(type) {
	case string:
		return []string{val}
	case []any:
		var actions []string
		for _, a := range val {
			if s, ok := a.(string); ok {
				actions = append(actions, s)
			}
		}
		return actions
	}
	return nil
}

// isWriteAction reports whether an action can mutate state. Read-only
// prefixes and the messaging-channel actions are exempt.
func isWriteAction(action string) bool {
	name := action
	if i := strings.Index(action, ":"); i >= 0 {
		name = action[i+1:]
	}
	for _, prefix := range []string{"Get", "List", "Describe", "CreateControlChannel", "CreateDataChannel", "OpenControlChannel", "OpenDataChannel"} {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	return true
}
