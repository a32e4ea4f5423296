package structured

import (
	"fmt"
	"strings"

	"github.com/sitesmith/sitesmith/internal/llm"
	"github.com/sitesmith/sitesmith/internal/schema"
)

// BuildInstruction assembles the instruction block sent to the backend.
// Order is fixed: rules, schema, optional correction note, context, task prompt.
func BuildInstruction(task string, log *llm.ContextLog, model *schema.Model, correction string) string {
	var b strings.Builder
	b.WriteString("SYSTEM INSTRUCTION - STRICTLY OBEY THESE RULES:\n")
	b.WriteString("1) Respond with exactly ONE JSON object.\n")
	b.WriteString("2) The JSON MUST validate against the provided schema.\n")
	fmt.Fprintf(&b, "3) Include only the fields: %s.\n", quoteFields(model.FieldNames()))
	b.WriteString("4) If you cannot produce a valid response, set 'error' to a meaningful message.\n")
	b.WriteString("5) NO commentary, NO markdown, NO code fences - only the JSON object.\n\n")
	fmt.Fprintf(&b, "JSON_SCHEMA:\n%s\n\n", model.JSON())
	if note := strings.TrimSpace(correction); note != "" {
		b.WriteString(note)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Context:\n%s\n\n", log.JSON())
	fmt.Fprintf(&b, "Prompt:\n%s", task)
	return b.String()
}

func quoteFields(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, "'"+n+"'")
	}
	return strings.Join(quoted, ", ")
}
