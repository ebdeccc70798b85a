// This file contains IAM policy document types and helpers.
package intrinsics

import (
	"encoding/json"
)

// Json is a shorthand for map[string]any, used for inline JSON objects
// like Condition blocks.
//
// Example:
//
//	Condition: Json{
//	    ArnLike: Json{"aws:PrincipalARN": rolePattern},
//	}
type Json = map[string]any

// PolicyDocument represents an IAM policy document.
type PolicyDocument struct {
	Version   string `json:"Version,omitempty"`
	Statement []any  `json:"Statement"`
}

// NewPolicyDocument creates a PolicyDocument with the default version
// and the given statements.
func NewPolicyDocument(statements ...any) PolicyDocument {
	return PolicyDocument{Version: "2012-10-17", Statement: statements}
}

// PolicyStatement represents an IAM policy statement.
//
// Example:
//
//	PolicyStatement{
//	    Sid:       "AllowServiceUse",
//	    Effect:    "Allow",
//	    Principal: ServicePrincipal{"sns.amazonaws.com"},
//	    Action:    []any{"kms:Encrypt", "kms:Decrypt"},
//	    Resource:  "*",
//	}
type PolicyStatement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Principal any    `json:"Principal,omitempty"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// --- Principal helpers ---

// ServicePrincipal represents a service principal. Serializes to
// {"Service": ...} format.
//
// Examples:
//
//	ServicePrincipal{"sns.amazonaws.com"}
//	ServicePrincipal{"lambda.amazonaws.com", "cloudwatch.amazonaws.com"}
type ServicePrincipal []any

// MarshalJSON serializes to {"Service": ...} format.
func (p ServicePrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"Service": p[0]})
	}
	return json.Marshal(map[string]any{"Service": []any(p)})
}

// AWSPrincipal represents an AWS account/role/user principal.
// Serializes to {"AWS": ...} format.
//
// Examples:
//
//	AWSPrincipal{"arn:aws-cn:iam::111111111111:root"}
//	AWSPrincipal{"*"}
type AWSPrincipal []any

// MarshalJSON serializes to {"AWS": ...} format.
func (p AWSPrincipal) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(map[string]any{"AWS": p[0]})
	}
	return json.Marshal(map[string]any{"AWS": []any(p)})
}

// AllPrincipal is the wildcard principal "*".
const AllPrincipal = "*"

// --- IAM condition operator constants ---
// Used as keys in Condition maps to prevent typos.
const (
	StringEquals = "StringEquals"
	StringLike   = "StringLike"

	ArnEquals = "ArnEquals"
	ArnLike   = "ArnLike"

	Bool = "Bool"
	Null = "Null"
)
