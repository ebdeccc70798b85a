// Package ssm contains AWS::SSM resource types.
package ssm

// Parameter represents an AWS::SSM::Parameter resource.
type Parameter struct {
	Name        string `json:"Name,omitempty"`
	Description string `json:"Description,omitempty"`
	Type        string `json:"Type"`
	Value       any    `json:"Value"`
}

// ResourceType returns the CloudFormation type.
func (Parameter) ResourceType() string { return "AWS::SSM::Parameter" }
