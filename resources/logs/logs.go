// Package logs contains AWS::Logs resource types.
package logs

// LogGroup represents an AWS::Logs::LogGroup resource.
type LogGroup struct {
	LogGroupName    any `json:"LogGroupName,omitempty"`
	RetentionInDays int `json:"RetentionInDays,omitempty"`
	KmsKeyId        any `json:"KmsKeyId,omitempty"`
}

// ResourceType returns the CloudFormation type.
func (LogGroup) ResourceType() string { return "AWS::Logs::LogGroup" }
