package bus

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// FieldType names the JSON shape expected for a schema field.
type FieldType string

// Field types accepted by a Schema.
const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "boolean"
	FieldArray  FieldType = "array"
	FieldObject FieldType = "object"
)

// FieldSpec describes one payload field.
type FieldSpec struct {
	// Type is the expected JSON shape. Empty means any.
	Type FieldType

	// Required rejects payloads missing the field.
	Required bool

	// Default is injected into the payload when the field is absent.
	Default any
}

// Schema maps gjson paths to field expectations.
type Schema map[string]FieldSpec

// ValidationResult is the outcome of ValidateMessage. When Valid is true,
// Data holds the payload with schema defaults applied; otherwise Err
// describes the first problem found.
type ValidationResult struct {
	Valid bool
	Data  []byte
	Err   string
}

// ValidateMessage checks a raw JSON payload against a schema before sending.
// It is a pure helper, independent of dispatch: the bus never validates
// payloads on its own.
func ValidateMessage(raw []byte, schema Schema) ValidationResult {
	if !gjson.ValidBytes(raw) {
		return ValidationResult{Err: "payload is not valid JSON"}
	}

	data := raw
	for path, spec := range schema {
		field := gjson.GetBytes(data, path)
		if !field.Exists() {
			if spec.Required {
				return ValidationResult{Err: fmt.Sprintf("missing required field %q", path)}
			}
			if spec.Default != nil {
				withDefault, err := sjson.SetBytes(data, path, spec.Default)
				if err != nil {
					return ValidationResult{Err: fmt.Sprintf("cannot apply default for %q: %v", path, err)}
				}
				data = withDefault
			}
			continue
		}
		if spec.Type != "" && !typeMatches(field, spec.Type) {
			return ValidationResult{Err: fmt.Sprintf("field %q: expected %s, got %s",
				path, spec.Type, jsonKind(field))}
		}
	}

	return ValidationResult{Valid: true, Data: data}
}

// typeMatches reports whether a gjson result has the expected shape.
func typeMatches(r gjson.Result, ft FieldType) bool {
	switch ft {
	case FieldString:
		return r.Type == gjson.String
	case FieldNumber:
		return r.Type == gjson.Number
	case FieldBool:
		return r.Type == gjson.True || r.Type == gjson.False
	case FieldArray:
		return r.IsArray()
	case FieldObject:
		return r.IsObject()
	default:
		return false
	}
}

// jsonKind names the shape of a gjson result for error messages.
func jsonKind(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	case r.Type == gjson.String:
		return "string"
	case r.Type == gjson.Number:
		return "number"
	case r.Type == gjson.True || r.Type == gjson.False:
		return "boolean"
	case r.Type == gjson.Null:
		return "null"
	default:
		return "unknown"
	}
}
