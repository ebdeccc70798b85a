package keymgmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Lekan-Bamgbose/mcnc-llz/internal/config"
	"github.com/Lekan-Bamgbose/mcnc-llz/internal/stack"
)

func synthJSON(t *testing.T, cfg *config.Config) (gjson.Result, *Resources) {
	t.Helper()

	st := stack.New("key")
	out, err := Provision(cfg, st)
	require.NoError(t, err)

	tmpl, err := st.Template()
	require.NoError(t, err)
	data, err := stack.ToJSON(tmpl)
	require.NoError(t, err)
	return gjson.ParseBytes(data), out
}

func baseConfig() *config.Config {
	return &config.Config{
		Partition:  "aws",
		Region:     "us-east-1",
		HomeRegion: "us-east-1",
	}
}

func TestProvision_DeclaresKeyAliasAndParameter(t *testing.T) {
	doc, out := synthJSON(t, baseConfig())

	assert.Equal(t, "AWS::KMS::Key", doc.Get("Resources.AcceleratorKey.Type").String())
	assert.True(t, doc.Get("Resources.AcceleratorKey.Properties.EnableKeyRotation").Bool())
	assert.Equal(t, "alias/accelerator/kms/key", doc.Get("Resources.AcceleratorKeyAlias.Properties.AliasName").String())

	assert.Equal(t, KeyArnParameterPath, doc.Get("Resources.AcceleratorKeyArnParameter.Properties.Name").String())
	assert.Equal(t, "AcceleratorKey", doc.Get("Resources.AcceleratorKeyArnParameter.Properties.Value.Fn::GetAtt.0").String())

	assert.Equal(t, "AcceleratorKey", out.Key)
	assert.Equal(t, "AcceleratorKeyArnParameter", out.Parameter)
}

func TestProvision_OrganizationDisabled(t *testing.T) {
	doc, out := synthJSON(t, baseConfig())

	// No cross-account role and no organization-principal statement.
	assert.Empty(t, out.Role)
	assert.False(t, doc.Get("Resources.CrossAccountSsmParameterRole").Exists())
	assert.False(t, doc.Get(`Resources.AcceleratorKey.Properties.KeyPolicy.Statement.#(Sid="AllowAcceleratorRoleUse")`).Exists())
	assert.NotContains(t, doc.Raw, "aws:PrincipalOrgID")
}

func TestProvision_OrganizationEnabledInHomeRegion(t *testing.T) {
	cfg := baseConfig()
	cfg.Organization = config.Organization{Enable: true, ID: "o-abc12345"}

	doc, out := synthJSON(t, cfg)

	assert.Equal(t, "CrossAccountSsmParameterRole", out.Role)
	assert.Equal(t, CrossAccountRoleName, doc.Get("Resources.CrossAccountSsmParameterRole.Properties.RoleName").String())

	trust := doc.Get("Resources.CrossAccountSsmParameterRole.Properties.AssumeRolePolicyDocument.Statement.0")
	assert.Equal(t, "*", trust.Get("Principal.AWS").String())
	assert.Equal(t, "o-abc12345", trust.Get("Condition.StringEquals.aws:PrincipalOrgID").String())
	assert.Equal(t,
		"arn:aws:iam::*:role/AWSAccelerator-*",
		trust.Get("Condition.ArnLike.aws:PrincipalARN").String())

	// Accelerator roles may use the key.
	stmt := doc.Get(`Resources.AcceleratorKey.Properties.KeyPolicy.Statement.#(Sid="AllowAcceleratorRoleUse")`)
	require.True(t, stmt.Exists())
	assert.Equal(t, "arn:aws:iam::*:role/AWSAccelerator-*", stmt.Get("Condition.ArnLike.aws:PrincipalARN").String())
}

func TestProvision_OrganizationEnabledOutsideHomeRegion(t *testing.T) {
	cfg := baseConfig()
	cfg.Region = "eu-west-1"
	cfg.Organization = config.Organization{Enable: true, ID: "o-abc12345"}

	doc, out := synthJSON(t, cfg)

	assert.Empty(t, out.Role)
	assert.False(t, doc.Get("Resources.CrossAccountSsmParameterRole").Exists())
}

func TestProvision_ChinaPartitionUsesAccountTrust(t *testing.T) {
	cfg := &config.Config{
		Partition:    "aws-cn",
		Region:       "cn-north-1",
		HomeRegion:   "cn-north-1",
		AccountIDs:   []string{"111111111111", "222222222222"},
		Organization: config.Organization{Enable: true},
	}

	doc, _ := synthJSON(t, cfg)

	principals := doc.Get("Resources.CrossAccountSsmParameterRole.Properties.AssumeRolePolicyDocument.Statement.0.Principal.AWS")
	require.True(t, principals.IsArray())
	assert.Equal(t, "arn:aws-cn:iam::111111111111:root", principals.Array()[0].String())
	assert.Equal(t, "arn:aws-cn:iam::222222222222:root", principals.Array()[1].String())
	assert.NotContains(t, doc.Raw, "aws:PrincipalOrgID")
}

func TestKeyPolicy_ServicePrincipalRuleTable(t *testing.T) {
	tests := []struct {
		name      string
		macie     bool
		guardDuty bool
		want      []string
	}{
		{
			name: "base services only",
			want: []string{"sns.amazonaws.com", "lambda.amazonaws.com", "cloudwatch.amazonaws.com"},
		},
		{
			name:  "macie enabled",
			macie: true,
			want:  []string{"sns.amazonaws.com", "lambda.amazonaws.com", "cloudwatch.amazonaws.com", "macie.amazonaws.com"},
		},
		{
			name:      "all enabled",
			macie:     true,
			guardDuty: true,
			want: []string{
				"sns.amazonaws.com", "lambda.amazonaws.com", "cloudwatch.amazonaws.com",
				"macie.amazonaws.com", "guardduty.amazonaws.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Macie.Enable = tt.macie
			cfg.GuardDuty.Enable = tt.guardDuty

			doc, _ := synthJSON(t, cfg)

			stmt := doc.Get(`Resources.AcceleratorKey.Properties.KeyPolicy.Statement.#(Sid="AllowServiceUse")`)
			require.True(t, stmt.Exists())

			var got []string
			for _, p := range stmt.Get("Principal.Service").Array() {
				got = append(got, p.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyPolicy_RegionalLogsPrincipal(t *testing.T) {
	cfg := baseConfig()
	cfg.Region = "eu-central-1"
	cfg.HomeRegion = "eu-central-1"

	doc, _ := synthJSON(t, cfg)

	stmt := doc.Get(`Resources.AcceleratorKey.Properties.KeyPolicy.Statement.#(Sid="AllowCloudWatchLogsUse")`)
	require.True(t, stmt.Exists())
	assert.Equal(t, "logs.eu-central-1.amazonaws.com", stmt.Get("Principal.Service").String())
}
