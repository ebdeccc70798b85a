// Package keymgmt declares the shared landing-zone encryption key, its
// resource policy, the published key-ARN parameter, and the
// cross-account parameter-read role.
package keymgmt

import (
	"fmt"

	llz "github.com/Lekan-Bamgbose/mcnc-llz"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/stack"
	. "github.com/Lekan-Bamgbose/mcnc-llz/intrinsics"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/iam"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/kms"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/ssm"
)

const (
	// KeyArnParameterPath is the shared parameter other parts of the
	// accelerator read the key ARN from.
	KeyArnParameterPath = "/accelerator/kms/key-arn"

	// CrossAccountRoleName is the fixed name of the role member
	// accounts assume to read accelerator parameters.
	CrossAccountRoleName = "AWSAccelerator-CrossAccount-SsmParameter-Role"

	// acceleratorRolePattern matches every role the accelerator manages.
	acceleratorRolePattern = "AWSAccelerator-*"
)

// Logical resource names.
const (
	keyLogical       = "AcceleratorKey"
	aliasLogical     = "AcceleratorKeyAlias"
	parameterLogical = "AcceleratorKeyArnParameter"
	roleLogical      = "CrossAccountSsmParameterRole"
)

// keyUsageActions are the actions granted to principals that use (but
// do not administer) the key.
var keyUsageActions = []any{
	"kms:Encrypt",
	"kms:Decrypt",
	"kms:ReEncrypt*",
	"kms:GenerateDataKey*",
	"kms:DescribeKey",
}

// Resources reports what the provisioner declared.
type Resources struct {
	Key       string
	Parameter string
	// Role is the cross-account role logical name, empty when the
	// role was not declared.
	Role string
}

// Provision declares the shared encryption key stack into st.
func Provision(cfg *config.Config, st *stack.Stack) (*Resources, error) {
	policy := keyPolicy(cfg)

	if err := st.Add(keyLogical, kms.Key{
		Description:       "AWS Accelerator shared encryption key",
		EnableKeyRotation: true,
		KeyPolicy:         policy,
	}); err != nil {
		return nil, err
	}

	if err := st.Add(aliasLogical, kms.Alias{
		AliasName:   "alias/accelerator/kms/key",
		TargetKeyId: Ref{LogicalName: keyLogical},
	}); err != nil {
		return nil, err
	}

	if err := st.Add(parameterLogical, ssm.Parameter{
		Name:        KeyArnParameterPath,
		Description: "AWS Accelerator shared encryption key ARN",
		Type:        "String",
		Value:       GetAtt{LogicalName: keyLogical, Attribute: "Arn"},
	}); err != nil {
		return nil, err
	}

	out := &Resources{Key: keyLogical, Parameter: parameterLogical}

	// The cross-account parameter-read role exists exactly once, in
	// the home region, and only when organization mode ties the
	// accounts together.
	if cfg.InHomeRegion() && cfg.Organization.Enable {
		if err := addCrossAccountRole(cfg, st); err != nil {
			return nil, err
		}
		out.Role = roleLogical
	}

	if err := st.AddOutput("AcceleratorKeyArn", llz.Output{
		Description: "Shared encryption key ARN",
		Value:       GetAtt{LogicalName: keyLogical, Attribute: "Arn"},
	}); err != nil {
		return nil, err
	}

	return out, nil
}

// principalRule is one row of the conditional service-principal table:
// the principal is granted key usage when enabled holds.
type principalRule struct {
	enabled   bool
	principal string
}

// keyPolicy assembles the key resource policy from the configuration.
func keyPolicy(cfg *config.Config) PolicyDocument {
	statements := []any{
		PolicyStatement{
			Sid:       "EnableIAMUserPermissions",
			Effect:    "Allow",
			Principal: AWSPrincipal{Sub{String: "arn:${AWS::Partition}:iam::${AWS::AccountId}:root"}},
			Action:    "kms:*",
			Resource:  "*",
		},
	}

	if cfg.Organization.Enable {
		statements = append(statements, PolicyStatement{
			Sid:       "AllowAcceleratorRoleUse",
			Effect:    "Allow",
			Principal: AWSPrincipal{AllPrincipal},
			Action:    keyUsageActions,
			Resource:  "*",
			Condition: Json{
				ArnLike: Json{"aws:PrincipalARN": cfg.RoleArnPattern(acceleratorRolePattern)},
			},
		})
	}

	statements = append(statements, PolicyStatement{
		Sid:       "AllowCloudWatchLogsUse",
		Effect:    "Allow",
		Principal: ServicePrincipal{fmt.Sprintf("logs.%s.amazonaws.com", cfg.Region)},
		Action:    keyUsageActions,
		Resource:  "*",
	})

	rules := []principalRule{
		{true, "sns.amazonaws.com"},
		{true, "lambda.amazonaws.com"},
		{true, "cloudwatch.amazonaws.com"},
		{cfg.Macie.Enable, "macie.amazonaws.com"},
		{cfg.GuardDuty.Enable, "guardduty.amazonaws.com"},
	}
	var principals ServicePrincipal
	for _, rule := range rules {
		if rule.enabled {
			principals = append(principals, rule.principal)
		}
	}
	statements = append(statements, PolicyStatement{
		Sid:       "AllowServiceUse",
		Effect:    "Allow",
		Principal: principals,
		Action:    keyUsageActions,
		Resource:  "*",
	})

	return NewPolicyDocument(statements...)
}

// addCrossAccountRole declares the fixed-name role member accounts use
// to read accelerator parameters across account boundaries.
func addCrossAccountRole(cfg *config.Config, st *stack.Stack) error {
	trust := PolicyStatement{
		Effect: "Allow",
		Action: "sts:AssumeRole",
		Condition: Json{
			ArnLike: Json{"aws:PrincipalARN": cfg.RoleArnPattern(acceleratorRolePattern)},
		},
	}

	// aws-cn has no organization-principal support; with an explicit
	// account list the trust is the composite of those account roots.
	// Everywhere else the organization principal covers all member
	// accounts, present and future.
	if cfg.HasExplicitAccountTrust() {
		var accounts AWSPrincipal
		for _, id := range cfg.AccountIDs {
			accounts = append(accounts, cfg.AccountRootArn(id))
		}
		trust.Principal = accounts
	} else {
		trust.Principal = AWSPrincipal{AllPrincipal}
		trust.Condition[StringEquals] = Json{"aws:PrincipalOrgID": cfg.Organization.ID}
	}

	return st.Add(roleLogical, iam.Role{
		RoleName:                 CrossAccountRoleName,
		Description:              "Cross-account read access to accelerator parameters",
		AssumeRolePolicyDocument: NewPolicyDocument(trust),
		Policies: []any{
			iam.InlinePolicy{
				PolicyName: "ssm-parameter-read",
				PolicyDocument: NewPolicyDocument(PolicyStatement{
					Effect: "Allow",
					Action: []any{"ssm:GetParameter", "ssm:GetParameters", "ssm:DescribeParameters"},
					Resource: Sub{
						String: fmt.Sprintf("arn:${AWS::Partition}:ssm:${AWS::Region}:${AWS::AccountId}:parameter%s", KeyArnParameterPath),
					},
				}),
			},
		},
	})
}
