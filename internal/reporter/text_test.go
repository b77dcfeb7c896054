package reporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typedjinja/tjls/internal/lint"
)

var sampleSource = []byte(`{# @types
user: User
user Dict[str: int]
#}
{{ user.name }}`)

func sampleResults() []lint.FileResult {
	return []lint.FileResult{
		{
			File:        "templates/profile.jinja",
			Annotations: 1,
			Issues: []lint.Issue{
				{
					Rule:     lint.RuleMalformedAnnotation,
					Line:     2,
					Message:  `cannot parse annotation line "user Dict[str: int]"`,
					Severity: "error",
				},
			},
		},
	}
}

func TestPrintText(t *testing.T) {
	var buf bytes.Buffer
	sources := map[string][]byte{"templates/profile.jinja": sampleSource}

	PrintText(&buf, sampleResults(), sources, false)
	out := buf.String()

	assert.Contains(t, out, "ERROR: typedjinja/malformed-annotation")
	assert.Contains(t, out, `cannot parse annotation line "user Dict[str: int]"`)
	assert.Contains(t, out, "templates/profile.jinja:3")
	assert.Contains(t, out, ">>> user Dict[str: int]")
	assert.Contains(t, out, "   2 |     user: User")
}

func TestPrintTextNoSource(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sampleResults(), nil, false)
	out := buf.String()

	assert.Contains(t, out, "ERROR:")
	assert.NotContains(t, out, ">>>", "no snippet without source")
}

func TestPrintTextSortsByFileAndLine(t *testing.T) {
	results := []lint.FileResult{
		{File: "b.jinja", Issues: []lint.Issue{{Rule: "r", Line: 9, Severity: "warning", Message: "late"}}},
		{File: "a.jinja", Issues: []lint.Issue{
			{Rule: "r", Line: 5, Severity: "warning", Message: "second"},
			{Rule: "r", Line: 1, Severity: "warning", Message: "first"},
		}},
	}

	var buf bytes.Buffer
	PrintText(&buf, results, nil, false)
	out := buf.String()

	first := bytes.Index(buf.Bytes(), []byte("first"))
	second := bytes.Index(buf.Bytes(), []byte("second"))
	late := bytes.Index(buf.Bytes(), []byte("late"))
	require.NotEqual(t, -1, first, out)
	assert.Less(t, first, second)
	assert.Less(t, second, late)
}

func TestPrintTextCleanResults(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, []lint.FileResult{{File: "ok.jinja", Annotations: 3}}, nil, false)
	assert.Empty(t, buf.String())
}
