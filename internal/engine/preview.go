package engine

import (
	"encoding/json"
	"fmt"

	"github.com/lastminute/learning-agent/internal/types"
)

const (
	// maxPreviewChars is the longest string shown verbatim in a preview.
	maxPreviewChars = 180
	// maxPreviewItems is the longest sequence shown in full in a preview.
	maxPreviewItems = 6
)

// Preview renders a truncated view of the state for trace records. Strings
// longer than maxPreviewChars are summarized with a length suffix, sequences
// longer than maxPreviewItems show the first entries plus a count suffix, and
// nested records are previewed recursively.
func Preview(state types.State) map[string]any {
	// Round-trip through JSON so the preview mirrors the wire shape of the
	// state rather than Go-level types.
	raw, err := json.Marshal(state)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("preview unavailable: %v", err)}
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return map[string]any{"error": fmt.Sprintf("preview unavailable: %v", err)}
	}

	preview := make(map[string]any, len(generic))
	for key, value := range generic {
		preview[key] = previewValue(value)
	}
	return preview
}

func previewValue(value any) any {
	switch v := value.(type) {
	case string:
		runes := []rune(v)
		if len(runes) <= maxPreviewChars {
			return v
		}
		return fmt.Sprintf("%s... (%d chars)", string(runes[:maxPreviewChars]), len(runes))
	case []any:
		if len(v) <= maxPreviewItems {
			out := make([]any, len(v))
			for i, item := range v {
				out[i] = previewValue(item)
			}
			return out
		}
		out := make([]any, 0, maxPreviewItems+1)
		for _, item := range v[:maxPreviewItems] {
			out = append(out, previewValue(item))
		}
		return append(out, fmt.Sprintf("... (%d items total)", len(v)))
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			out[key] = previewValue(inner)
		}
		return out
	default:
		return value
	}
}
