package structured

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/schema"
)

func TestBuildInstructionOrder(t *testing.T) {
	log := llm.NewContextLog()
	log.Append(llm.RoleUser, "Test functions: [\"def test_a(): pass\"]")

	out := BuildInstruction("write tests", log, schema.Tests, "Previous output failed JSON parsing: boom")

	rules := strings.Index(out, "Respond with exactly ONE JSON object")
	schemaDoc := strings.Index(out, "JSON_SCHEMA:")
	note := strings.Index(out, "Previous output failed JSON parsing: boom")
	ctx := strings.Index(out, "Context:")
	prompt := strings.Index(out, "Prompt:\nwrite tests")

	for _, idx := range []int{rules, schemaDoc, note, ctx, prompt} {
		require.GreaterOrEqual(t, idx, 0)
	}
	require.Less(t, rules, schemaDoc)
	require.Less(t, schemaDoc, note)
	require.Less(t, note, ctx)
	require.Less(t, ctx, prompt)

	require.Contains(t, out, "'model', 'date', 'error', 'tests'")
	require.Contains(t, out, schema.Tests.JSON())
	require.Contains(t, out, `def test_a(): pass`)
	require.Contains(t, out, "NO code fences")
}

func TestBuildInstructionWithoutCorrectionIsStable(t *testing.T) {
	a := BuildInstruction("p", nil, schema.Website, "")
	b := BuildInstruction("p", nil, schema.Website, "   ")
	require.Equal(t, a, b)
	require.NotContains(t, a, "Previous output failed")
	require.Contains(t, a, "Context:\n[]\n\nPrompt:\np")
	require.True(t, strings.HasSuffix(a, "Prompt:\np"))
}
