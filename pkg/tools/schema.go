package tools

import (
	"fmt"
	"math"
	"sort"
)

// Schema is the subset of JSON Schema used to declare tool arguments.
type Schema struct {
	Type                 string             `json:"type" yaml:"type"`
	Description          string             `json:"description,omitempty" yaml:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	AdditionalProperties *bool              `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// Object builds an object schema that rejects unknown properties.
func Object(properties map[string]*Schema, required ...string) Schema {
	closed := false
	if properties == nil {
		properties = map[string]*Schema{}
	}
	return Schema{
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: &closed,
	}
}

// Map renders the schema as the generic JSON object sent to providers.
func (s Schema) Map() map[string]any {
	out := map[string]any{"type": s.Type}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Type == "object" {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			if prop != nil {
				props[name] = prop.Map()
			}
		}
		out["properties"] = props
		if len(s.Required) > 0 {
			out["required"] = append([]string(nil), s.Required...)
		}
		if s.AdditionalProperties != nil {
			out["additionalProperties"] = *s.AdditionalProperties
		}
	}
	return out
}

// Validate checks decoded JSON arguments against the schema.
func (s Schema) Validate(args map[string]any) error {
	for _, name := range s.Required {
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, ok := s.Properties[name]
		if !ok || prop == nil {
			if s.AdditionalProperties != nil && !*s.AdditionalProperties {
				return fmt.Errorf("unknown argument %q", name)
			}
			continue
		}
		if err := checkType(args[name], prop.Type); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}
	return nil
}

func checkType(value any, want string) error {
	ok := true
	switch want {
	case "", "any":
	case "string":
		_, ok = value.(string)
	case "number":
		_, ok = value.(float64)
	case "integer":
		f, isNum := value.(float64)
		ok = isNum && f == math.Trunc(f)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]any)
	case "array":
		_, ok = value.([]any)
	default:
		return fmt.Errorf("unsupported schema type %q", want)
	}
	if !ok {
		return fmt.Errorf("expected %s, got %s", want, jsonTypeName(value))
	}
	return nil
}

func jsonTypeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
