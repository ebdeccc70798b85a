package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llz "github.com/Lekan-Bamgbose/mcnc-llz"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/keymgmt"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/sessionmanager"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/stack"
)

func templateWith(t *testing.T, resources map[string]llz.ResourceDef) *llz.Template {
	t.Helper()
	return &llz.Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Resources:                resources,
	}
}

func TestWildcardPrincipal_FlagsUnconditioned(t *testing.T) {
	tmpl := templateWith(t, map[string]llz.ResourceDef{
		"Key": {
			Type: "AWS::KMS::Key",
			Properties: map[string]any{
				"EnableKeyRotation": true,
				"KeyPolicy": map[string]any{
					"Statement": []any{
						map[string]any{
							"Effect":    "Allow",
							"Principal": map[string]any{"AWS": "*"},
							"Action":    "kms:Decrypt",
							"Resource":  "*",
						},
					},
				},
			},
		},
	})

	result := Run(tmpl)
	assert.False(t, result.Success)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "LLZ001", result.Issues[0].Rule)
	assert.Equal(t, SeverityError, result.Issues[0].Severity)
	assert.Equal(t, "Key", result.Issues[0].Resource)
}

func TestWildcardPrincipal_AllowsConditioned(t *testing.T) {
	tmpl := templateWith(t, map[string]llz.ResourceDef{
		"Key": {
			Type: "AWS::KMS::Key",
			Properties: map[string]any{
				"EnableKeyRotation": true,
				"KeyPolicy": map[string]any{
					"Statement": []any{
						map[string]any{
							"Effect":    "Allow",
							"Principal": map[string]any{"AWS": "*"},
							"Action":    "kms:Decrypt",
							"Resource":  "*",
							"Condition": map[string]any{
								"StringEquals": map[string]any{"aws:PrincipalOrgID": "o-abc12345"},
							},
						},
					},
				},
			},
		},
	})

	result := Run(tmpl)
	assert.True(t, result.Success)
	assert.Empty(t, result.Issues)
}

func TestKeyRotation_FlagsDisabled(t *testing.T) {
	tmpl := templateWith(t, map[string]llz.ResourceDef{
		"Key": {Type: "AWS::KMS::Key", Properties: map[string]any{}},
	})

	result := Run(tmpl)
	// Rotation is a warning, not a failure.
	assert.True(t, result.Success)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "LLZ002", result.Issues[0].Rule)
	assert.Equal(t, SeverityWarning, result.Issues[0].Severity)
}

func TestUnscopedWrite_FlagsWildcardWrite(t *testing.T) {
	tmpl := templateWith(t, map[string]llz.ResourceDef{
		"Policy": {
			Type: "AWS::IAM::ManagedPolicy",
			Properties: map[string]any{
				"PolicyDocument": map[string]any{
					"Statement": []any{
						map[string]any{
							"Effect":   "Allow",
							"Action":   []any{"s3:PutObject"},
							"Resource": "*",
						},
					},
				},
			},
		},
	})

	result := Run(tmpl)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "LLZ003", result.Issues[0].Rule)
	assert.Contains(t, result.Issues[0].Message, "s3:PutObject")
}

func TestUnscopedWrite_ExemptsReadsAndChannels(t *testing.T) {
	tmpl := templateWith(t, map[string]llz.ResourceDef{
		"Policy": {
			Type: "AWS::IAM::ManagedPolicy",
			Properties: map[string]any{
				"PolicyDocument": map[string]any{
					"Statement": []any{
						map[string]any{
							"Effect": "Allow",
							"Action": []any{
								"logs:DescribeLogGroups",
								"s3:GetEncryptionConfiguration",
								"ssmmessages:CreateControlChannel",
								"ssmmessages:OpenDataChannel",
							},
							"Resource": "*",
						},
					},
				},
			},
		},
	})

	result := Run(tmpl)
	assert.Empty(t, result.Issues)
}

func TestIsWriteAction(t *testing.T) {
	assert.True(t, isWriteAction("s3:PutObject"))
	assert.True(t, isWriteAction("kms:Decrypt"))
	assert.False(t, isWriteAction("s3:GetObject"))
	assert.False(t, isWriteAction("logs:ListTagsForResource"))
	assert.False(t, isWriteAction("ec2:DescribeInstances"))
	assert.False(t, isWriteAction("ssmmessages:OpenControlChannel"))
}

// The synthesized stacks must come out of the linter without errors.
func TestRun_SynthesizedStacksAreClean(t *testing.T) {
	cfg := &config.Config{
		Partition:    "aws",
		Region:       "us-east-1",
		HomeRegion:   "us-east-1",
		Organization: config.Organization{Enable: true, ID: "o-abc12345"},
		SessionManager: config.SessionManager{
			SendToCloudWatchLogs: true,
			SendToS3:             true,
			S3BucketName:         "central-logs",
			S3BucketKeyArn:       "arn:aws:kms:us-east-1:111111111111:key/abc",
			RetentionInDays:      config.DefaultRetentionDays,
		},
	}

	keyStack := stack.New("key")
	_, err := keymgmt.Provision(cfg, keyStack)
	require.NoError(t, err)

	sessionStack := stack.New("session-manager")
	_, err = sessionmanager.Provision(cfg, sessionStack)
	require.NoError(t, err)

	for _, st := range []*stack.Stack{keyStack, sessionStack} {
		tmpl, err := st.Template()
		require.NoError(t, err)

		result := Run(tmpl)
		assert.True(t, result.Success, "stack %s: %+v", st.Name(), result.Issues)
	}
}
