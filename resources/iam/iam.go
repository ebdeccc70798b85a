// Package iam contains AWS::IAM resource types.
package iam

// Role represents an AWS::IAM::Role resource. Fields that accept
// intrinsics (Ref, Sub, GetAtt) are typed any.
type Role struct {
	RoleName                 any    `json:"RoleName,omitempty"`
	Description              string `json:"Description,omitempty"`
	AssumeRolePolicyDocument any    `json:"AssumeRolePolicyDocument"`
	ManagedPolicyArns        []any  `json:"ManagedPolicyArns,omitempty"`
	Policies                 []any  `json:"Policies,omitempty"`
	Path                     string `json:"Path,omitempty"`
	Tags                     []any  `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Role) ResourceType() string { return "AWS::IAM::Role" }

// InlinePolicy is an inline policy entry for Role.Policies.
type InlinePolicy struct {
	PolicyName     string `json:"PolicyName"`
	PolicyDocument any    `json:"PolicyDocument"`
}

// ManagedPolicy represents an AWS::IAM::ManagedPolicy resource.
type ManagedPolicy struct {
	ManagedPolicyName string `json:"ManagedPolicyName,omitempty"`
	Description       string `json:"Description,omitempty"`
	PolicyDocument    any    `json:"PolicyDocument"`
	Roles             []any  `json:"Roles,omitempty"`
	Path              string `json:"Path,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (ManagedPolicy) ResourceType() string { return "AWS::IAM::ManagedPolicy" }

// InstanceProfile represents an AWS::IAM::InstanceProfile resource.
type InstanceProfile struct {
	InstanceProfileName any    `json:"InstanceProfileName,omitempty"`
	Roles               []any  `json:"Roles"`
	Path                string `json:"Path,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (InstanceProfile) ResourceType() string { return "AWS::IAM::InstanceProfile" }
