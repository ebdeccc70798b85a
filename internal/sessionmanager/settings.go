// Package sessionmanager declares the session-logging settings stack:
// destination resources, the least-privilege agent policy for the
// configured destinations, the EC2 execution role, and the custom
// setup action that applies the session-logging configuration.
package sessionmanager

import (
	"fmt"
	"strings"

	llz "github.com/Lekan-Bamgbose/mcnc-llz"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/stack"
	. "github.com/Lekan-Bamgbose/mcnc-llz/intrinsics"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/iam"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/kms"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/logs"
)

const (
	// EC2RoleName is the execution role attached to managed instances.
	EC2RoleName = "AWSAccelerator-SessionManagerEC2Role"

	// HandlerFunctionName is the fixed name of the external settings
	// handler; its log group is declared here so the handler never has
	// to create one at runtime.
	HandlerFunctionName = "AWSAccelerator-SessionManagerSettings"

	// ProviderArnParameter is the template parameter carrying the
	// settings handler ARN, supplied at deploy time.
	ProviderArnParameter = "SessionManagerProviderArn"

	// logGroupName is the destination log group for session transcripts.
	logGroupName = "aws-accelerator-sessionmanager-logs"
)

// Logical resource names.
const (
	logsKeyLogical         = "SessionManagerLogsKey"
	logsKeyAliasLogical    = "SessionManagerLogsKeyAlias"
	logGroupLogical        = "SessionManagerLogGroup"
	sessionKeyLogical      = "SessionManagerSessionKey"
	sessionKeyAliasLogical = "SessionManagerSessionKeyAlias"
	policyLogical          = "SessionManagerPolicy"
	roleLogical            = "SessionManagerEC2Role"
	profileLogical         = "SessionManagerEC2InstanceProfile"
	userPolicyLogical      = "SessionManagerUserKMSPolicy"
	handlerLogsLogical     = "SessionManagerHandlerLogGroup"
	settingsLogical        = "SessionManagerSettings"
)

// Resources reports what the provisioner declared.
type Resources struct {
	SessionKey string
	Policy     string
	Role       string
	// LogGroup is empty when the CloudWatch destination is disabled.
	LogGroup string
}

// Provision declares the session-logging settings into st.
//
// The S3 destination fails fast: a missing bucket name or bucket key
// ARN is a configuration error raised before any resource is emitted.
func Provision(cfg *config.Config, st *stack.Stack) (*Resources, error) {
	sm := cfg.SessionManager

	if sm.SendToS3 && (sm.S3BucketName == "" || sm.S3BucketKeyArn == "") {
		return nil, &config.ValidationError{
			Field:  "sessionManager",
			Reason: "sendToS3 requires both s3BucketName and s3BucketKeyArn",
		}
	}

	out := &Resources{
		SessionKey: sessionKeyLogical,
		Policy:     policyLogical,
		Role:       roleLogical,
	}

	// Base block: the agent always needs its messaging channels.
	statements := []any{
		PolicyStatement{
			Sid:    "SessionMessaging",
			Effect: "Allow",
			Action: []any{
				"ssmmessages:CreateControlChannel",
				"ssmmessages:CreateDataChannel",
				"ssmmessages:OpenControlChannel",
				"ssmmessages:OpenDataChannel",
			},
			Resource: "*",
		},
	}

	if sm.SendToCloudWatchLogs {
		if err := addCloudWatchDestination(cfg, st); err != nil {
			return nil, err
		}
		out.LogGroup = logGroupLogical
		statements = append(statements, PolicyStatement{
			Sid:    "SessionLogGroupAccess",
			Effect: "Allow",
			Action: []any{
				"logs:DescribeLogGroups",
				"logs:DescribeLogStreams",
				"logs:CreateLogStream",
				"logs:PutLogEvents",
			},
			Resource: Join{Delimiter: "", Values: []any{GetAtt{LogicalName: logGroupLogical, Attribute: "Arn"}, ":*"}},
		})
	}

	if sm.SendToS3 {
		statements = append(statements,
			PolicyStatement{
				Sid:      "SessionBucketWrite",
				Effect:   "Allow",
				Action:   []any{"s3:PutObject", "s3:PutObjectAcl"},
				Resource: bucketObjectArn(cfg, sm.S3BucketName, sm.S3KeyPrefix),
			},
			PolicyStatement{
				Sid:      "SessionBucketEncryptionRead",
				Effect:   "Allow",
				Action:   "s3:GetEncryptionConfiguration",
				Resource: cfg.BucketArn(sm.S3BucketName),
			},
			PolicyStatement{
				Sid:      "SessionBucketKeyUse",
				Effect:   "Allow",
				Action:   []any{"kms:Decrypt", "kms:GenerateDataKey"},
				Resource: sm.S3BucketKeyArn,
			},
		)
	}

	// Session-data key: always present, independent of destinations.
	if err := addSessionKey(cfg, st); err != nil {
		return nil, err
	}
	statements = append(statements, PolicyStatement{
		Sid:      "SessionKeyDecrypt",
		Effect:   "Allow",
		Action:   "kms:Decrypt",
		Resource: GetAtt{LogicalName: sessionKeyLogical, Attribute: "Arn"},
	})

	if err := addInstanceRole(st, statements); err != nil {
		return nil, err
	}
	if err := addUserPolicy(st); err != nil {
		return nil, err
	}
	if err := addSettingsAction(cfg, st); err != nil {
		return nil, err
	}

	return out, nil
}

// addCloudWatchDestination declares the log KMS key and the encrypted
// long-retention destination log group.
func addCloudWatchDestination(cfg *config.Config, st *stack.Stack) error {
	if err := st.Add(logsKeyLogical, kms.Key{
		Description:       "Session Manager CloudWatch Logs encryption key",
		EnableKeyRotation: true,
		KeyPolicy:         serviceKeyPolicy(cfg),
	}); err != nil {
		return err
	}
	if err := st.Add(logsKeyAliasLogical, kms.Alias{
		AliasName:   "alias/accelerator/session-manager/cloudwatch-logs",
		TargetKeyId: Ref{LogicalName: logsKeyLogical},
	}); err != nil {
		return err
	}
	return st.Add(logGroupLogical, logs.LogGroup{
		LogGroupName:    logGroupName,
		RetentionInDays: cfg.SessionManager.Retention(),
		KmsKeyId:        GetAtt{LogicalName: logsKeyLogical, Attribute: "Arn"},
	})
}

// addSessionKey declares the key that encrypts session data itself.
func addSessionKey(cfg *config.Config, st *stack.Stack) error {
	if err := st.Add(sessionKeyLogical, kms.Key{
		Description:       "Session Manager session encryption key",
		EnableKeyRotation: true,
		KeyPolicy:         serviceKeyPolicy(cfg),
	}); err != nil {
		return err
	}
	return st.Add(sessionKeyAliasLogical, kms.Alias{
		AliasName:   "alias/accelerator/session-manager/session",
		TargetKeyId: Ref{LogicalName: sessionKeyLogical},
	})
}

// addInstanceRole wraps the accumulated statements into a managed
// policy, the EC2 execution role, and its instance profile.
func addInstanceRole(st *stack.Stack, statements []any) error {
	if err := st.Add(policyLogical, iam.ManagedPolicy{
		ManagedPolicyName: "AWSAccelerator-SessionManagerLogging",
		Description:       "Session Manager agent access to configured logging destinations",
		PolicyDocument:    NewPolicyDocument(statements...),
	}); err != nil {
		return err
	}

	if err := st.Add(roleLogical, iam.Role{
		RoleName:    EC2RoleName,
		Description: "Session Manager execution role for managed instances",
		AssumeRolePolicyDocument: NewPolicyDocument(PolicyStatement{
			Effect:    "Allow",
			Principal: ServicePrincipal{"ec2.amazonaws.com"},
			Action:    "sts:AssumeRole",
		}),
		ManagedPolicyArns: []any{Ref{LogicalName: policyLogical}},
	}); err != nil {
		return err
	}

	return st.Add(profileLogical, iam.InstanceProfile{
		InstanceProfileName: EC2RoleName,
		Roles:               []any{Ref{LogicalName: roleLogical}},
	})
}

// addUserPolicy grants interactive callers use of the session key,
// separately from the instance role.
func addUserPolicy(st *stack.Stack) error {
	return st.Add(userPolicyLogical, iam.ManagedPolicy{
		ManagedPolicyName: "AWSAccelerator-SessionManagerUserKMS",
		Description:       "Session Manager user access to the session encryption key",
		PolicyDocument: NewPolicyDocument(PolicyStatement{
			Effect:   "Allow",
			Action:   []any{"kms:Decrypt", "kms:GenerateDataKey"},
			Resource: GetAtt{LogicalName: sessionKeyLogical, Attribute: "Arn"},
		}),
	})
}

// addSettingsAction declares the handler log group and the custom
// setup action that applies the session-logging configuration. The
// handler itself is an external collaborator; its ARN arrives as a
// template parameter.
func addSettingsAction(cfg *config.Config, st *stack.Stack) error {
	// The handler log group is shared by every provisioner instance in
	// a deployment scope, so it is created through an idempotent
	// lookup-or-create keyed by its derived name.
	if _, err := st.Ensure(handlerLogsLogical, func() llz.Resource {
		return logs.LogGroup{
			LogGroupName:    "/aws/lambda/" + HandlerFunctionName,
			RetentionInDays: cfg.SessionManager.Retention(),
		}
	}); err != nil {
		return err
	}

	if err := st.AddParameter(ProviderArnParameter, llz.Parameter{
		Type:        "String",
		Description: "ARN of the session manager settings handler",
	}); err != nil {
		return err
	}

	sm := cfg.SessionManager
	props := map[string]any{
		"ServiceToken":                Ref{LogicalName: ProviderArnParameter},
		"S3BucketName":                sm.S3BucketName,
		"S3KeyPrefix":                 sm.S3KeyPrefix,
		"S3EncryptionEnabled":         sm.SendToS3,
		"CloudWatchEncryptionEnabled": sm.SendToCloudWatchLogs,
		"KmsKeyId":                    Ref{LogicalName: sessionKeyLogical},
	}
	if sm.SendToCloudWatchLogs {
		props["CloudWatchLogGroupName"] = Ref{LogicalName: logGroupLogical}
	}
	return st.AddCustom(settingsLogical, "Custom::SsmSessionManagerSettings", props)
}

// serviceKeyPolicy is the key policy shared by the dedicated session
// manager keys: root-account administration plus use by the regional
// CloudWatch Logs service.
func serviceKeyPolicy(cfg *config.Config) PolicyDocument {
	return NewPolicyDocument(
		PolicyStatement{
			Sid:       "EnableIAMUserPermissions",
			Effect:    "Allow",
			Principal: AWSPrincipal{Sub{String: "arn:${AWS::Partition}:iam::${AWS::AccountId}:root"}},
			Action:    "kms:*",
			Resource:  "*",
		},
		PolicyStatement{
			Sid:       "AllowCloudWatchLogsUse",
			Effect:    "Allow",
			Principal: ServicePrincipal{fmt.Sprintf("logs.%s.amazonaws.com", cfg.Region)},
			Action: []any{
				"kms:Encrypt",
				"kms:Decrypt",
				"kms:ReEncrypt*",
				"kms:GenerateDataKey*",
				"kms:DescribeKey",
			},
			Resource: "*",
		},
	)
}

// bucketObjectArn scopes object writes to the configured bucket and
// prefix.
func bucketObjectArn(cfg *config.Config, bucket, prefix string) string {
	arn := cfg.BucketArn(bucket)
	if prefix == "" {
		return arn + "/*"
	}
	return arn + "/" + strings.Trim(prefix, "/") + "/*"
}
