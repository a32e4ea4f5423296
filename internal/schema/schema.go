package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldType is the primitive type of a declared field.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeStringList FieldType = "string[]"
	TypeDateTime   FieldType = "date-time"
)

// Field describes a single named field of a response shape.
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Required    bool
	Nullable    bool
	// Content fields are required unless the reply carries a non-blank error.
	// A content list must then hold at least one item.
	Content bool
}

// Model is an immutable, hand-authored response contract.
type Model struct {
	name        string
	description string
	fields      []Field
	index       map[string]Field

	doc      map[string]any
	docJSON  string
	compiled *jsonschema.Schema
}

// New declares a response shape. Field names must be unique and non-empty.
func New(name, description string, fields ...Field) (*Model, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("schema name is required")
	}
	m := &Model{
		name:        name,
		description: description,
		fields:      make([]Field, 0, len(fields)),
		index:       make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("schema %s: field name is required", name)
		}
		if _, dup := m.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %q", name, f.Name)
		}
		switch f.Type {
		case TypeString, TypeStringList, TypeDateTime:
		default:
			return nil, fmt.Errorf("schema %s: field %q has unsupported type %q", name, f.Name, f.Type)
		}
		m.fields = append(m.fields, f)
		m.index[f.Name] = f
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return m, nil
}

// MustNew is New for package-level declarations.
func MustNew(name, description string, fields ...Field) *Model {
	m, err := New(name, description, fields...)
	if err != nil {
		panic(err)
	}
	return m
}

// Name returns the shape name, e.g. "TestsResponse".
func (m *Model) Name() string {
	return m.name
}

// Fields returns a copy of the declared fields in declaration order.
func (m *Model) Fields() []Field {
	out := make([]Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// FieldNames returns declared field names in declaration order.
func (m *Model) FieldNames() []string {
	out := make([]string, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f.Name)
	}
	return out
}

// Declares reports whether name is a declared field.
func (m *Model) Declares(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Document returns the JSON Schema document for this shape.
func (m *Model) Document() map[string]any {
	return cloneMap(m.doc)
}

// JSON returns the indented schema document used in prompts.
func (m *Model) JSON() string {
	return m.docJSON
}

// Filter returns a copy of obj holding only declared fields.
func (m *Model) Filter(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if m.Declares(k) {
			out[k] = v
		}
	}
	return out
}

// Validate checks a decoded JSON value against the schema document.
// The returned error message is a compact diagnostic suitable for a correction note.
func (m *Model) Validate(value any) error {
	if m.compiled == nil {
		return fmt.Errorf("schema %s is not compiled", m.name)
	}
	if err := m.compiled.Validate(value); err != nil {
		return fmt.Errorf("%s", describe(err))
	}
	return nil
}

func (m *Model) compile() error {
	m.doc = m.render()
	data, err := json.MarshalIndent(m.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("schema %s: render: %w", m.name, err)
	}
	m.docJSON = string(data)

	url := "sitesmith://schema/" + m.name + ".json"
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(url, strings.NewReader(m.docJSON)); err != nil {
		return fmt.Errorf("schema %s: add resource: %w", m.name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return fmt.Errorf("schema %s: compile: %w", m.name, err)
	}
	m.compiled = compiled
	return nil
}

func (m *Model) render() map[string]any {
	props := make(map[string]any, len(m.fields))
	required := make([]any, 0, len(m.fields))
	content := make([]any, 0, len(m.fields))
	contentProps := make(map[string]any)
	for _, f := range m.fields {
		props[f.Name] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Name)
		}
		if f.Content {
			content = append(content, f.Name)
			if f.Type == TypeStringList {
				contentProps[f.Name] = map[string]any{"minItems": 1}
			}
		}
	}

	doc := map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                m.name,
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
	if m.description != "" {
		doc["description"] = m.description
	}
	if len(content) > 0 && m.Declares("error") {
		// Either every content field is present (lists non-empty), or error
		// holds at least one non-whitespace character.
		withContent := map[string]any{"required": content}
		if len(contentProps) > 0 {
			withContent["properties"] = contentProps
		}
		doc["anyOf"] = []any{
			withContent,
			map[string]any{
				"required": []any{"error"},
				"properties": map[string]any{
					"error": map[string]any{"type": "string", "pattern": nonBlank},
				},
			},
		}
	}
	return doc
}

// nonBlank matches any rune that strings.TrimSpace would keep.
const nonBlank = `[^\s\v\x{85}\p{Z}]`

func fieldSchema(f Field) map[string]any {
	var s map[string]any
	switch f.Type {
	case TypeStringList:
		s = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case TypeDateTime:
		s = map[string]any{"type": "string", "format": "date-time"}
	default:
		s = map[string]any{"type": "string"}
	}
	if f.Nullable {
		s["type"] = []any{s["type"], "null"}
	}
	if f.Description != "" {
		s["description"] = f.Description
	}
	return s
}

// describe flattens a jsonschema validation error into "location: message" leaves.
func describe(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var leaves []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			leaves = append(leaves, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	if len(leaves) == 0 {
		return ve.Message
	}
	return strings.Join(leaves, "; ")
}

func cloneMap(in map[string]any) map[string]any {
	data, err := json.Marshal(in)
	if err != nil {
		return nil
	}
	var out map[string]any
	_ = json.Unmarshal(data, &out)
	return out
}
