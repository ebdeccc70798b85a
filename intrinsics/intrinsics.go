// Package intrinsics provides the CloudFormation intrinsic functions
// and IAM policy document types used by the landing-zone constructs.
//
// The core intrinsic types come from cloudformation-schema-go and are
// re-exported here so construct code imports a single package:
//
//	Ref{LogicalName: "SessionKey"}        → {"Ref": "SessionKey"}
//	Sub{String: "${AWS::AccountId}"}      → {"Fn::Sub": "${AWS::AccountId}"}
//	GetAtt{"AcceleratorKey", "Arn"}       → {"Fn::GetAtt": ["AcceleratorKey", "Arn"]}
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// GetAtt represents a CloudFormation Fn::GetAtt intrinsic function.
	GetAtt = intrinsics.GetAtt

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub

	// Join represents a CloudFormation Fn::Join intrinsic function.
	Join = intrinsics.Join

	// ImportValue represents a CloudFormation Fn::ImportValue intrinsic function.
	ImportValue = intrinsics.ImportValue

	// Tag represents a CloudFormation resource tag.
	Tag = intrinsics.Tag
)
