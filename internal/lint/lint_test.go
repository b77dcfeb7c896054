package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTemplateClean(t *testing.T) {
	result := CheckTemplate("profile.jinja", `{# @types
user: User
items: list[str]
#}`)

	assert.Equal(t, "profile.jinja", result.File)
	assert.Equal(t, 2, result.Annotations)
	assert.Empty(t, result.Issues)
}

func TestCheckTemplateNoBlock(t *testing.T) {
	result := CheckTemplate("plain.jinja", "<p>hello</p>")
	assert.Zero(t, result.Annotations)
	assert.Empty(t, result.Issues)
}

func TestCheckTemplateMalformed(t *testing.T) {
	result := CheckTemplate("bad.jinja", `{# @types
user: Dict[str: int]
#}`)

	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, RuleMalformedAnnotation, issue.Rule)
	assert.Equal(t, "error", issue.Severity)
	assert.Equal(t, 1, issue.Line)
	assert.Contains(t, issue.Message, "user: Dict[str: int]")
}

func TestCheckTemplateDuplicate(t *testing.T) {
	result := CheckTemplate("dup.jinja", `{# @types
user: User
user: str
#}`)

	require.Len(t, result.Issues, 1)
	issue := result.Issues[0]
	assert.Equal(t, RuleDuplicateAnnotation, issue.Rule)
	assert.Equal(t, "warning", issue.Severity)
	assert.Equal(t, 2, issue.Line, "issue points at the second declaration")
}

func TestCheckTemplateMixedIssues(t *testing.T) {
	result := CheckTemplate("mixed.jinja", `{# @types
a: int
nonsense line
a: str
#}`)

	require.Len(t, result.Issues, 2)
	assert.Equal(t, RuleMalformedAnnotation, result.Issues[0].Rule)
	assert.Equal(t, RuleDuplicateAnnotation, result.Issues[1].Rule)
	assert.Equal(t, 2, result.Annotations)
}
