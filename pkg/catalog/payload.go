package catalog

import (
	"encoding/json"
	"fmt"
)

// ClonePayload returns a deep copy of a decoded JSON object so stores never
// share mutable state with callers.
func ClonePayload(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return ClonePayload(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// NormalizePayload round-trips v through JSON so numbers become float64 and
// nested values use map[string]any / []any, matching what the remote client
// decodes. Stores backed by other encodings call this on read.
func NormalizePayload(v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize payload: %w", err)
	}
	return out, nil
}
