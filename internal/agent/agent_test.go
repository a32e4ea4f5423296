package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sitesmith/sitesmith/internal/llm"
	llmmock "github.com/sitesmith/sitesmith/internal/llm/mock"
	"github.com/sitesmith/sitesmith/internal/structured"
)

const testsReply = "```json\n" + `{
  "model": "gemini-1.5-flash",
  "date": "2024-05-01T10:00:00Z",
  "error": null,
  "tests": [
    "def test_navbar_visible(driver):\n    driver.get(\"index.html\")\n    assert driver.find_element(\"id\", \"navbar\").is_displayed()",
    "def test_contact_form_fields(driver):\n    driver.get(\"index.html\")\n    form = driver.find_element(\"id\", \"contact-form\")\n    assert form.find_element(\"id\", \"email\")"
  ],
  "notes": "extra commentary"
}` + "\n```"

const websiteReply = `{
  "model": "gemini-1.5-flash",
  "date": "2024-05-01T10:00:05Z",
  "error": "",
  "html": "<!DOCTYPE html><html><head><title>My Website Title</title><link rel=\"stylesheet\" href=\"https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css\"></head><body><nav id=\"navbar\" class=\"navbar\"></nav><section id=\"hero\" class=\"container\"></section><form id=\"contact-form\"><input id=\"name\"><input id=\"email\"><textarea id=\"message\"></textarea><button id=\"submit\">Send</button></form></body></html>",
  "css": "body { padding-top: 56px; }",
  "js": "document.getElementById('contact-form').addEventListener('submit', e => e.preventDefault());"
}`

func newCoord(p llm.Provider) *structured.Coordinator {
	return structured.NewCoordinator(p, llm.ModelRoute{Name: "flash", Provider: "mock", Model: "gemini-1.5-flash"},
		structured.Policy{MaxAttempts: 3, Timeout: time.Second}, zap.NewNop(), nil)
}

func TestGenerateTestsLandingPage(t *testing.T) {
	p := &llmmock.Provider{GenerateFn: llmmock.Replies(llmmock.Reply{Text: testsReply})}
	agent := NewTestAgent(newCoord(p))

	res, err := agent.GenerateTests(context.Background(), "landing page with navbar and contact form", llm.NewContextLog())
	require.NoError(t, err)
	require.NoError(t, res.BusinessErr())
	require.Equal(t, "gemini-1.5-flash", res.Model)
	require.Equal(t, 2024, res.Date.Year())
	require.NotEmpty(t, res.Tests)
	for _, src := range res.Tests {
		require.True(t, strings.HasPrefix(src, "def test_"), src)
	}
	require.Equal(t, []string{"test_navbar_visible", "test_contact_form_fields"}, TestNames(res.Tests))

	instr := p.Requests()[0].Instruction
	require.Contains(t, instr, "landing page with navbar and contact form")
	require.Contains(t, instr, "start with 'test_'")
	require.Less(t, strings.Index(instr, "JSON_SCHEMA:"), strings.Index(instr, "Prompt:"))
}

func TestGenerateTestsRejectsEmptyRequirements(t *testing.T) {
	p := &llmmock.Provider{}
	_, err := NewTestAgent(newCoord(p)).GenerateTests(context.Background(), "   ", llm.NewContextLog())
	require.Error(t, err)
	require.Empty(t, p.Requests())
}

func TestGenerateTestsBusinessFailure(t *testing.T) {
	p := &llmmock.Provider{GenerateFn: llmmock.Replies(llmmock.Reply{
		Text: `{"error": "cannot comply", "tests": ["def test_x(): pass"]}`,
	})}

	res, err := NewTestAgent(newCoord(p)).GenerateTests(context.Background(), "anything", llm.NewContextLog())
	require.NoError(t, err)
	require.True(t, res.Failed())
	require.Nil(t, res.Tests, "content is discarded when error is set")
	require.Len(t, p.Requests(), 1)

	var be *BusinessError
	require.True(t, errors.As(res.BusinessErr(), &be))
	require.Equal(t, RoleTests, be.Agent)
	require.Equal(t, "cannot comply", be.Message)
	require.Equal(t, "unknown", be.Model)
}

func TestGenerateWebsiteFromTests(t *testing.T) {
	p := &llmmock.Provider{GenerateFn: llmmock.Replies(llmmock.Reply{Text: websiteReply})}
	tests := []string{
		"def test_navbar_visible(driver):\n    pass",
		"def test_form(driver):\n    pass",
	}

	res, err := NewWebsiteAgent(newCoord(p)).GenerateWebsite(context.Background(), tests, llm.NewContextLog())
	require.NoError(t, err)
	require.Empty(t, res.Error)
	for _, id := range []string{`id="navbar"`, `id="hero"`, `id="contact-form"`, `id="name"`, `id="email"`, `id="message"`} {
		require.Contains(t, res.HTML, id)
	}
	require.NotEmpty(t, res.CSS)
	require.NotEmpty(t, res.JS)

	instr := p.Requests()[0].Instruction
	ruler := strings.Repeat("-", 80)
	require.Contains(t, instr, ruler+"\n"+tests[0]+"\n\n"+tests[1]+"\n"+ruler)
	require.Contains(t, instr, "'contact-form'")
	require.Contains(t, instr, "'My Website Title'")
	require.Contains(t, instr, "375x667")
}

func TestGenerateWebsiteRequiresTests(t *testing.T) {
	_, err := NewWebsiteAgent(newCoord(&llmmock.Provider{})).GenerateWebsite(context.Background(), nil, llm.NewContextLog())
	require.Error(t, err)
}

func TestGenerateWebsiteMissingContentRetries(t *testing.T) {
	p := &llmmock.Provider{GenerateFn: llmmock.Replies(
		llmmock.Reply{Text: `{"model":"m","html":"<html></html>"}`},
		llmmock.Reply{Text: websiteReply},
	)}

	res, err := NewWebsiteAgent(newCoord(p)).GenerateWebsite(context.Background(), []string{"def test_a(): pass"}, llm.NewContextLog())
	require.NoError(t, err)
	require.NotEmpty(t, res.JS)
	require.Len(t, p.Requests(), 2)
	require.Contains(t, p.Requests()[1].Instruction, "Previous output failed schema validation")
}

func TestGenerateWebsiteExhausted(t *testing.T) {
	p := &llmmock.Provider{GenerateFn: llmmock.Replies(llmmock.Reply{Text: "<html>not json</html>"})}

	_, err := NewWebsiteAgent(newCoord(p)).GenerateWebsite(context.Background(), []string{"def test_a(): pass"}, llm.NewContextLog())
	var ex *structured.RetryExhaustedError
	require.ErrorAs(t, err, &ex)
	raw, ok := ex.LastRaw()
	require.True(t, ok)
	require.Equal(t, "<html>not json</html>", raw)
}
