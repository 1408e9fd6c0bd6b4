package dsl

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `version: "0.1.5"
kind: app
app:
  name: Support Triage
  mode: workflow
  description: routes tickets
workflow:
  graph:
    nodes: []
`

func TestParse_Valid(t *testing.T) {
	doc, err := Parse(validDoc)
	require.NoError(t, err)
	assert.Equal(t, "0.1.5", doc.Version)
	assert.Equal(t, "app", doc.Kind)
	assert.Equal(t, "Support Triage", doc.App.Name)
	assert.Equal(t, "workflow", doc.App.Mode)
	assert.Equal(t, "routes tickets", doc.App.Description)
	assert.Equal(t, DefaultIconType, doc.App.IconType)
	assert.Equal(t, DefaultIcon, doc.App.Icon)
	assert.Equal(t, DefaultIconBackground, doc.App.IconBackground)
}

func TestParse_KeepsIcon(t *testing.T) {
	doc, err := Parse("app:\n  name: x\n  mode: chat\n  icon: \"🧪\"\n  icon_background: \"#000000\"\n")
	require.NoError(t, err)
	assert.Equal(t, "🧪", doc.App.Icon)
	assert.Equal(t, "#000000", doc.App.IconBackground)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"empty", "   \n", "content is empty"},
		{"broken yaml", "app: [unclosed\n", "not valid YAML"},
		{"scalar", "just a string\n", "document must be a mapping"},
		{"list", "- a\n- b\n", "document must be a mapping"},
		{"no app", "version: 1\nkind: app\n", "missing app section"},
		{"app scalar", "app: hello\n", "app section must be a mapping"},
		{"no name", "app:\n  mode: workflow\n", "app name is empty"},
		{"no mode", "app:\n  name: x\n", "app mode is empty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.content)
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "error should be a ValidationError: %v", err)
			assert.Equal(t, tc.reason, ve.Reason)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name, id, want string
	}{
		{"Support Triage", "app-1", "Support_Triage.yml"},
		{"  padded name  ", "app-1", "padded_name.yml"},
		{"weird/chars:*?", "app-1", "weirdchars.yml"},
		{"@ flow", "app-1", "flow.yml"},
		{"客服 机器人", "app-1", "客服_机器人.yml"},
		{"snake_case-ok", "app-1", "snake_case-ok.yml"},
		{"", "0123456789abcdef", "workflow-01234567.yml"},
		{"!!!", "abc", "workflow-abc.yml"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, SafeFilename(tc.name, tc.id))
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.1.5", "0.1.5", 0},
		{"0.1.5", "0.2.0", -1},
		{"0.2.0", "0.1.5", 1},
		{"1.0", "1.0.0", 0},
		{"1.0.1", "1.0", 1},
		{"v1.2", "1.2", 0},
		{"10.0", "9.9.9", 1},
	}
	for _, tc := range tests {
		t.Run(tc.a+"_vs_"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, CompareVersions(tc.a, tc.b))
		})
	}
}

func TestCompatibilityWarning(t *testing.T) {
	assert.Empty(t, CompatibilityWarning("", "0.1.5"))
	assert.Empty(t, CompatibilityWarning("0.1.5", "0.1.5"))
	assert.Contains(t, CompatibilityWarning("0.2.0", "0.1.5"), "newer")
	assert.Contains(t, CompatibilityWarning("0.1.0", "0.1.5"), "older")
}
