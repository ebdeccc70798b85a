package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llz "github.com/Lekan-Bamgbose/mcnc-llz"
	. "github.com/Lekan-Bamgbose/mcnc-llz/intrinsics"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/kms"
	"github.com/Lekan-Bamgbose/mcnc-llz/resources/logs"
)

func TestStack_Add(t *testing.T) {
	st := New("test")

	err := st.Add("Key", kms.Key{Description: "test key", EnableKeyRotation: true})
	require.NoError(t, err)

	def, ok := st.Resource("Key")
	require.True(t, ok)
	assert.Equal(t, "AWS::KMS::Key", def.Type)
	assert.Equal(t, "test key", def.Properties["Description"])
	assert.Equal(t, true, def.Properties["EnableKeyRotation"])
}

func TestStack_Add_DuplicateFails(t *testing.T) {
	st := New("test")
	require.NoError(t, st.Add("Key", kms.Key{}))

	err := st.Add("Key", kms.Key{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestStack_Add_EmptyNameFails(t *testing.T) {
	st := New("test")
	require.Error(t, st.Add("", kms.Key{}))
}

func TestStack_Ensure_Idempotent(t *testing.T) {
	st := New("test")

	first, err := st.Ensure("HandlerLogs", func() llz.Resource {
		return logs.LogGroup{LogGroupName: "/aws/lambda/handler", RetentionInDays: 30}
	})
	require.NoError(t, err)

	// The second request must return the existing declaration and must
	// not invoke the builder.
	second, err := st.Ensure("HandlerLogs", func() llz.Resource {
		t.Fatal("builder invoked for existing resource")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, st.Len())
}

func TestStack_Dependencies_FromRefAndGetAtt(t *testing.T) {
	st := New("test")
	require.NoError(t, st.Add("Key", kms.Key{}))
	require.NoError(t, st.Add("Alias", kms.Alias{
		AliasName:   "alias/test",
		TargetKeyId: Ref{LogicalName: "Key"},
	}))
	require.NoError(t, st.Add("Logs", logs.LogGroup{
		LogGroupName: "group",
		KmsKeyId:     GetAtt{LogicalName: "Key", Attribute: "Arn"},
	}))

	assert.Equal(t, []string{"Key"}, st.Dependencies("Alias"))
	assert.Equal(t, []string{"Key"}, st.Dependencies("Logs"))
	assert.Empty(t, st.Dependencies("Key"))
}

func TestStack_Dependencies_IgnoresUndeclaredTargets(t *testing.T) {
	st := New("test")
	require.NoError(t, st.Add("Alias", kms.Alias{
		AliasName:   "alias/test",
		TargetKeyId: Ref{LogicalName: "SomewhereElse"},
	}))

	assert.Empty(t, st.Dependencies("Alias"))
}

func TestStack_SortedOrder(t *testing.T) {
	st := New("test")
	require.NoError(t, st.Add("Alias", kms.Alias{
		AliasName:   "alias/test",
		TargetKeyId: Ref{LogicalName: "Key"},
	}))
	require.NoError(t, st.Add("Key", kms.Key{}))

	order, err := st.SortedOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"Key", "Alias"}, order)
}

func TestStack_SortedOrder_CycleFails(t *testing.T) {
	st := New("test")
	require.NoError(t, st.AddCustom("A", "Custom::Test", map[string]any{
		"Peer": map[string]any{"Ref": "B"},
	}))
	require.NoError(t, st.AddCustom("B", "Custom::Test", map[string]any{
		"Peer": map[string]any{"Ref": "A"},
	}))

	_, err := st.SortedOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}

func TestStack_Template(t *testing.T) {
	st := New("test")
	st.SetDescription("test stack")
	require.NoError(t, st.Add("Key", kms.Key{EnableKeyRotation: true}))
	require.NoError(t, st.AddParameter("ProviderArn", llz.Parameter{Type: "String"}))
	require.NoError(t, st.AddOutput("KeyArn", llz.Output{Value: GetAtt{LogicalName: "Key", Attribute: "Arn"}}))

	tmpl, err := st.Template()
	require.NoError(t, err)

	assert.Equal(t, "2010-09-09", tmpl.AWSTemplateFormatVersion)
	assert.Equal(t, "test stack", tmpl.Description)
	assert.Len(t, tmpl.Resources, 1)
	assert.Len(t, tmpl.Parameters, 1)
	assert.Len(t, tmpl.Outputs, 1)
}

func TestStack_Template_SerializesIntrinsics(t *testing.T) {
	st := New("test")
	require.NoError(t, st.Add("Key", kms.Key{}))
	require.NoError(t, st.Add("Alias", kms.Alias{
		AliasName:   "alias/test",
		TargetKeyId: Ref{LogicalName: "Key"},
	}))

	tmpl, err := st.Template()
	require.NoError(t, err)

	data, err := ToJSON(tmpl)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Ref": "Key"`)
}

func TestStack_DuplicateParameterFails(t *testing.T) {
	st := New("test")
	require.NoError(t, st.AddParameter("P", llz.Parameter{Type: "String"}))
	require.Error(t, st.AddParameter("P", llz.Parameter{Type: "String"}))
}

func TestToYAML(t *testing.T) {
	st := New("test")
	require.NoError(t, st.Add("Key", kms.Key{Description: "yaml test"}))

	tmpl, err := st.Template()
	require.NoError(t, err)

	data, err := ToYAML(tmpl)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AWS::KMS::Key")
}
