package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestNewRejectsBadDeclarations(t *testing.T) {
	_, err := New("", "")
	require.Error(t, err)

	_, err = New("X", "", Field{Name: "a", Type: TypeString}, Field{Name: "a", Type: TypeString})
	require.ErrorContains(t, err, "duplicate")

	_, err = New("X", "", Field{Name: "a", Type: "integer"})
	require.ErrorContains(t, err, "unsupported type")
}

func TestDocumentDeclaresFields(t *testing.T) {
	doc := Tests.Document()
	require.Equal(t, "object", doc["type"])
	require.Equal(t, "TestsResponse", doc["title"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	for _, name := range []string{"model", "date", "error", "tests"} {
		require.Contains(t, props, name)
	}
	require.Equal(t, []any{"model"}, doc["required"])
	require.Contains(t, Tests.JSON(), `"additionalProperties": false`)
	require.Contains(t, Website.JSON(), `"html"`)
}

func TestDocumentIsACopy(t *testing.T) {
	doc := Website.Document()
	doc["title"] = "changed"
	require.Equal(t, "WebsiteResponse", Website.Document()["title"])
}

func TestFilterDropsUndeclaredFields(t *testing.T) {
	in := map[string]any{
		"model":      "gemini",
		"tests":      []any{"def test_a(): pass"},
		"commentary": "here you go",
		"extra":      1,
	}
	got := Tests.Filter(in)
	want := map[string]any{
		"model": "gemini",
		"tests": []any{"def test_a(): pass"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
	require.Contains(t, in, "commentary", "input must not be mutated")
}

func TestValidateAcceptsConformingReply(t *testing.T) {
	v := decode(t, `{"model":"m","date":"2024-05-01T10:00:00Z","error":null,"tests":["def test_a(): pass"]}`)
	require.NoError(t, Tests.Validate(v))

	v = decode(t, `{"model":"m","html":"<html></html>","css":"","js":""}`)
	require.NoError(t, Website.Validate(v))
}

func TestValidateReportsDiagnostics(t *testing.T) {
	err := Tests.Validate(decode(t, `{"model":"m","tests":"not a list"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "/tests")

	err = Tests.Validate(decode(t, `{"tests":["x"]}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")

	err = Tests.Validate(decode(t, `["not", "an", "object"]`))
	require.Error(t, err)
}

func TestValidateRequiresContentUnlessError(t *testing.T) {
	require.Error(t, Website.Validate(decode(t, `{"model":"m","html":"<p>"}`)))
	require.Error(t, Website.Validate(decode(t, `{"model":"m","error":""}`)))
	require.NoError(t, Website.Validate(decode(t, `{"model":"m","error":"cannot comply"}`)))
	require.NoError(t, Tests.Validate(decode(t, `{"model":"unknown","error":"cannot comply"}`)))
	require.Error(t, Website.Validate(decode(t, `{"model":"m","error":"  \t "}`)))
}

func TestValidateRequiresNonEmptyContentLists(t *testing.T) {
	require.Error(t, Tests.Validate(decode(t, `{"model":"m","tests":[]}`)))
	require.NoError(t, Tests.Validate(decode(t, `{"model":"m","tests":["def test_a(): pass"]}`)))
	require.NoError(t, Tests.Validate(decode(t, `{"model":"m","error":"cannot comply","tests":[]}`)))
	require.Error(t, Tests.Validate(decode(t, `{"model":"m","error":" ","tests":[]}`)))
}

func TestLookup(t *testing.T) {
	m, ok := Lookup("tests")
	require.True(t, ok)
	require.Same(t, Tests, m)
	_, ok = Lookup("nope")
	require.False(t, ok)
	require.Equal(t, []string{"model", "date", "error", "html", "css", "js"}, Website.FieldNames())
}

func TestTimestampLayouts(t *testing.T) {
	for _, in := range []string{"2024-05-01T10:00:00Z", "2024-05-01T10:00:00.123+02:00", "2024-05-01T10:00:00", "2024-05-01"} {
		ts, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		require.Equal(t, 2024, ts.Year())
	}
	_, err := ParseTimestamp("yesterday")
	require.Error(t, err)

	var holder struct {
		Date Timestamp `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":null}`), &holder))
	require.True(t, holder.Date.IsZero())
	require.Error(t, json.Unmarshal([]byte(`{"date":42}`), &holder))
}
