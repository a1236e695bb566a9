package tools

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// FailureReason classifies a tool call rejected before or during execution.
type FailureReason string

const (
	ReasonUnknownTool      FailureReason = "unknown_tool"
	ReasonInvalidArguments FailureReason = "invalid_arguments"
	ReasonUnavailable      FailureReason = "unavailable_in_state"
	ReasonInternal         FailureReason = "internal_error"
)

// ValidateArguments checks arguments against a declaration's input schema:
// required fields, property types, string enums and array item types.
// Arguments not described by the schema are ignored.
func ValidateArguments(decl mcptypes.Tool, arguments map[string]any) error {
	schema := decl.InputSchema
	for _, field := range schema.Required {
		if _, ok := arguments[field]; !ok {
			return fmt.Errorf("missing required argument %q", field)
		}
	}

	keys := make([]string, 0, len(arguments))
	for key := range arguments {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := arguments[key]
		prop, ok := schema.Properties[key].(map[string]any)
		if !ok {
			continue
		}
		if value == nil {
			// Explicit null for an optional argument means "use the default".
			if isRequired(schema.Required, key) {
				return fmt.Errorf("argument %q must not be null", key)
			}
			continue
		}

		typeName, _ := prop["type"].(string)
		if typeName != "" && !matchesType(typeName, value) {
			return fmt.Errorf("argument %q must be %s", key, typeName)
		}

		if enum := enumValues(prop["enum"]); len(enum) > 0 {
			s, _ := value.(string)
			if !containsFold(enum, s) {
				return fmt.Errorf("argument %q must be one of %v", key, enum)
			}
		}

		if typeName == "array" {
			if items, ok := prop["items"].(map[string]any); ok {
				itemType, _ := items["type"].(string)
				rv := reflect.ValueOf(value)
				for i := 0; i < rv.Len(); i++ {
					if itemType != "" && !matchesType(itemType, rv.Index(i).Interface()) {
						return fmt.Errorf("argument %q item %d must be %s", key, i, itemType)
					}
				}
			}
		}
	}
	return nil
}

func isRequired(required []string, key string) bool {
	return containsString(required, key)
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

// containsFold matches enum values case-insensitively; handlers normalize
// the case themselves.
func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func enumValues(raw any) []string {
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func matchesType(expected string, value any) bool {
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "number":
		return isNumber(value)
	case "integer":
		return isInteger(value)
	case "object":
		if value == nil {
			return false
		}
		return reflect.TypeOf(value).Kind() == reflect.Map
	case "array":
		if value == nil {
			return false
		}
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Array || kind == reflect.Slice
	default:
		return true
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float32, float64:
		return true
	default:
		return false
	}
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return v == float64(int64(v))
	default:
		return false
	}
}
