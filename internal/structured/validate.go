package structured

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/sitesmith/sitesmith/internal/schema"
)

// UnknownModel is backfilled when neither the reply nor the envelope names a model.
const UnknownModel = "unknown"

var (
	openFence  = regexp.MustCompile("^```[A-Za-z0-9_+-]*[ \\t]*(\\r?\\n)?")
	closeFence = regexp.MustCompile("(\\r?\\n)?[ \\t]*```$")
)

// StripFences removes a leading ```lang fence and a trailing ``` fence,
// tolerating surrounding whitespace. Text without fences is only trimmed.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = openFence.ReplaceAllString(s, "")
	s = closeFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse decodes cleaned reply text into a generic JSON tree.
// Numbers are kept as json.Number so no precision is lost before typing.
func Parse(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Msg: "empty reply"}
		}
		return nil, &ParseError{Msg: err.Error()}
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Msg: "unexpected data after the JSON object"}
	}
	return v, nil
}

// Validate runs the reply through fence stripping, parsing, model backfill,
// field filtering and schema validation, in that order. modelVersion is the
// envelope's model identifier used for backfill.
func Validate(raw, modelVersion string, model *schema.Model) (map[string]any, error) {
	v, err := Parse(StripFences(raw))
	if err != nil {
		return nil, err
	}

	obj, ok := v.(map[string]any)
	if !ok {
		// Non-objects skip backfill and filtering; validation reports the type mismatch.
		if err := model.Validate(v); err != nil {
			return nil, &SchemaError{Schema: model.Name(), Msg: err.Error()}
		}
		return nil, &SchemaError{Schema: model.Name(), Msg: "reply must be a JSON object"}
	}

	backfillModel(obj, modelVersion)
	obj = model.Filter(obj)

	if err := model.Validate(obj); err != nil {
		return nil, &SchemaError{Schema: model.Name(), Msg: err.Error()}
	}
	return obj, nil
}

// Decode converts a validated tree into the typed result T.
func Decode[T any](obj map[string]any, model *schema.Model) (T, error) {
	var out T
	data, err := json.Marshal(obj)
	if err != nil {
		return out, &SchemaError{Schema: model.Name(), Msg: err.Error()}
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &SchemaError{Schema: model.Name(), Msg: err.Error()}
	}
	return out, nil
}

func backfillModel(obj map[string]any, modelVersion string) {
	switch current := obj["model"].(type) {
	case nil:
	case string:
		if strings.TrimSpace(current) != "" {
			return
		}
	default:
		return
	}
	if strings.TrimSpace(modelVersion) == "" {
		modelVersion = UnknownModel
	}
	obj["model"] = modelVersion
}
