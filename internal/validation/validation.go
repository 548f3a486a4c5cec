// Package validation checks request payloads against the Tool JSON schema
// before any store operation runs.
package validation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	apperrors "github.com/olgasafonova/devops-tools-api/internal/errors"
	"github.com/olgasafonova/devops-tools-api/internal/store"
)

// Location prefixes for field errors.
const (
	LocBody = "body"
	LocPath = "path"
)

// boolWords are the strings accepted for a boolean field, matched
// case-insensitively, as Python API clients commonly send them.
var boolWords = map[string]bool{
	"true": true, "t": true, "yes": true, "y": true, "on": true, "1": true,
	"false": false, "f": false, "no": false, "n": false, "off": false, "0": false,
}

// fieldOrder fixes the order errors are reported in.
var fieldOrder = []string{"name", "description", "category", "is_open_source"}

// ToolSchema returns the JSON schema a Tool payload must satisfy.
func ToolSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Title: "DevOpsTool",
		Type:  "object",
		Properties: map[string]*jsonschema.Schema{
			"name": {
				Type:        "string",
				MinLength:   ptr(1),
				Description: "Tool name",
			},
			"description": {
				Types:       []string{"string", "null"},
				Description: "Optional free-text description",
			},
			"category": {
				Type:        "string",
				Description: "Category such as CI/CD or Orchestration",
			},
			"is_open_source": {
				Type:        "boolean",
				Default:     json.RawMessage("false"),
				Description: "Whether the tool is open source. Also accepts 0, 1 and the strings true/false, yes/no, on/off, t/f, y/n",
			},
		},
		Required: []string{"name", "category"},
	}
}

// Result is the outcome of validating a payload: either a Tool or field errors.
type Result struct {
	Tool   store.Tool
	Errors []apperrors.FieldError
}

// OK reports whether validation succeeded.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Err returns a *ValidationError for a failed result, nil otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return apperrors.NewValidationError(r.Errors...)
}

// Validator holds the resolved Tool schema.
type Validator struct {
	schema   *jsonschema.Schema
	whole    *jsonschema.Resolved
	fields   map[string]*jsonschema.Resolved
	required map[string]bool
}

// NewValidator resolves the Tool schema once for reuse across requests.
func NewValidator() (*Validator, error) {
	schema := ToolSchema()
	whole, err := schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolve tool schema: %w", err)
	}

	v := &Validator{
		schema:   schema,
		whole:    whole,
		fields:   make(map[string]*jsonschema.Resolved, len(schema.Properties)),
		required: make(map[string]bool, len(schema.Required)),
	}
	for name, prop := range schema.Properties {
		rs, err := prop.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve schema for %s: %w", name, err)
		}
		v.fields[name] = rs
	}
	for _, name := range schema.Required {
		v.required[name] = true
	}
	return v, nil
}

// Schema returns the unresolved Tool schema, for documentation.
func (v *Validator) Schema() *jsonschema.Schema {
	return v.schema
}

// ValidateJSON decodes a request body and validates it as a Tool.
func (v *Validator) ValidateJSON(data []byte) Result {
	if len(strings.TrimSpace(string(data))) == 0 {
		return failure(apperrors.FieldError{
			Type: apperrors.TypeMissing,
			Loc:  []string{LocBody},
			Msg:  "Field required",
		})
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return failure(apperrors.FieldError{
			Type: apperrors.TypeJSONInvalid,
			Loc:  []string{LocBody},
			Msg:  "JSON decode error",
		})
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return failure(apperrors.FieldError{
			Type:  apperrors.TypeObjectType,
			Loc:   []string{LocBody},
			Msg:   "Input should be a valid dictionary or object to extract fields from",
			Input: raw,
		})
	}
	return v.ValidateMap(obj, LocBody)
}

// ValidateMap validates an already-decoded object. Unknown keys are ignored.
// Boolean fields also accept 0, 1 and the words in boolWords.
func (v *Validator) ValidateMap(obj map[string]any, loc string) Result {
	obj = coerceBools(obj)
	var errs []apperrors.FieldError

	for _, name := range fieldOrder {
		value, present := obj[name]
		if !present {
			if v.required[name] {
				errs = append(errs, apperrors.FieldError{
					Type: apperrors.TypeMissing,
					Loc:  []string{loc, name},
					Msg:  "Field required",
				})
			}
			continue
		}
		if err := v.fields[name].Validate(value); err != nil {
			errs = append(errs, v.fieldError(loc, name, value))
		}
	}

	if len(errs) == 0 {
		if err := v.whole.Validate(obj); err != nil {
			errs = append(errs, apperrors.FieldError{
				Type: apperrors.TypeInvalid,
				Loc:  []string{loc},
				Msg:  err.Error(),
			})
		}
	}
	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Tool: toolFromMap(obj)}
}

// ValidateTool re-checks a typed Tool, for callers that decode arguments
// themselves before reaching the store.
func (v *Validator) ValidateTool(t store.Tool, loc string) Result {
	obj := map[string]any{
		"name":           t.Name,
		"category":       t.Category,
		"is_open_source": t.IsOpenSource,
	}
	if t.Description != nil {
		obj["description"] = *t.Description
	}
	return v.ValidateMap(obj, loc)
}

// fieldError classifies a failed property by the schema keyword it violated.
func (v *Validator) fieldError(loc, name string, value any) apperrors.FieldError {
	prop := v.schema.Properties[name]
	fe := apperrors.FieldError{Loc: []string{loc, name}, Input: value}

	switch {
	case prop.Type == "boolean":
		switch value.(type) {
		case string, float64:
			fe.Type = apperrors.TypeBoolParsing
			fe.Msg = "Input should be a valid boolean, unable to interpret input"
		default:
			fe.Type = apperrors.TypeBoolType
			fe.Msg = "Input should be a valid boolean"
		}
	case prop.MinLength != nil:
		if s, ok := value.(string); ok && len(s) < *prop.MinLength {
			fe.Type = apperrors.TypeStringShort
			fe.Msg = fmt.Sprintf("String should have at least %d character", *prop.MinLength)
			break
		}
		fe.Type = apperrors.TypeStringType
		fe.Msg = "Input should be a valid string"
	default:
		fe.Type = apperrors.TypeStringType
		fe.Msg = "Input should be a valid string"
	}
	return fe
}

// coerceBools returns obj with loosely typed boolean fields converted. obj is
// copied before any change.
func coerceBools(obj map[string]any) map[string]any {
	raw, ok := obj["is_open_source"]
	if !ok {
		return obj
	}
	b, ok := laxBool(raw)
	if !ok {
		return obj
	}
	out := make(map[string]any, len(obj))
	for k, val := range obj {
		out[k] = val
	}
	out["is_open_source"] = b
	return out
}

func laxBool(raw any) (bool, bool) {
	switch x := raw.(type) {
	case string:
		b, ok := boolWords[strings.ToLower(x)]
		return b, ok
	case float64:
		if x == 0 || x == 1 {
			return x == 1, true
		}
	}
	return false, false
}

// ParseID parses a path tool ID, reporting failures like body fields.
func ParseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(apperrors.FieldError{
			Type:  apperrors.TypeIntParsing,
			Loc:   []string{LocPath, "tool_id"},
			Msg:   "Input should be a valid integer, unable to parse string as an integer",
			Input: raw,
		})
	}
	return id, nil
}

// toolFromMap builds a Tool from a map that already passed validation.
func toolFromMap(obj map[string]any) store.Tool {
	t := store.Tool{
		Name:     obj["name"].(string),
		Category: obj["category"].(string),
	}
	if d, ok := obj["description"].(string); ok {
		t.Description = store.StringPtr(d)
	}
	if b, ok := obj["is_open_source"].(bool); ok {
		t.IsOpenSource = b
	}
	return t
}

func failure(fe apperrors.FieldError) Result {
	return Result{Errors: []apperrors.FieldError{fe}}
}

func ptr[T any](v T) *T {
	return &v
}
