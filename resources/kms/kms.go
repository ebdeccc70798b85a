// Package kms contains AWS::KMS resource types.
package kms

// Key represents an AWS::KMS::Key resource.
//
// Example:
//
//	kms.Key{
//	    Description:       "Landing zone shared key",
//	    EnableKeyRotation: true,
//	    KeyPolicy:         NewPolicyDocument(rootAdmin),
//	}
type Key struct {
	Description         string `json:"Description,omitempty"`
	EnableKeyRotation   bool   `json:"EnableKeyRotation,omitempty"`
	KeyPolicy           any    `json:"KeyPolicy,omitempty"`
	PendingWindowInDays int    `json:"PendingWindowInDays,omitempty"`
	Tags                []any  `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (Key) ResourceType() string { return "AWS::KMS::Key" }

// Alias represents an AWS::KMS::Alias resource.
type Alias struct {
	AliasName   string `json:"AliasName"`
	TargetKeyId any    `json:"TargetKeyId"`
}

// ResourceType returns the CloudFormation type.
func (Alias) ResourceType() string { return "AWS::KMS::Alias" }
