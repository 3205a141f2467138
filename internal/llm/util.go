// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// ParseJSON parses free-form model output into a JSON object. When the text
// is not directly parseable it retries on the widest {...} window, tolerating
// conversational wrapping before and after the object. It never fails:
// unusable input yields an empty map.
func ParseJSON(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err == nil && result != nil {
		return result
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var windowed map[string]any
		if err := json.Unmarshal([]byte(text[start:end+1]), &windowed); err == nil && windowed != nil {
			return windowed
		}
	}

	return map[string]any{}
}

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// Models often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line if present.
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// Field helpers for validating loosely-typed gateway responses.

// StringField returns the trimmed string value of a response field, or empty
// when the field is missing or not a string.
func StringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// StringListField returns the non-empty, trimmed string entries of a list
// field. Non-string entries and blanks are dropped; a missing or malformed
// field yields nil.
func StringListField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

// BoolField returns the boolean value of a response field, defaulting to
// false when missing or malformed.
func BoolField(obj map[string]any, key string) bool {
	v, ok := obj[key].(bool)
	return ok && v
}
