package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSON strips markdown code fences and surrounding prose from a
// generation response, returning the innermost JSON array or object text.
// Generators are asked for pure JSON but routinely wrap it anyway.
func extractJSON(raw string) string {
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") {
		parts := strings.Split(text, "```")
		if len(parts) >= 3 {
			text = parts[1]
			text = strings.TrimPrefix(text, "json")
		} else {
			text = strings.ReplaceAll(text, "```json", "")
			text = strings.ReplaceAll(text, "```", "")
		}
		text = strings.TrimSpace(text)
	}

	// Prose may surround the payload. Prefer the outermost array; fall back
	// to the outermost object.
	if start, end := strings.Index(text, "["), strings.LastIndex(text, "]"); start != -1 && end > start {
		if objStart := strings.Index(text, "{"); objStart == -1 || start < objStart {
			return text[start : end+1]
		}
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start != -1 && end > start {
		return text[start : end+1]
	}
	return text
}

// decodeRecords parses a generation response into a list of records. It
// accepts either a bare JSON array or a JSON object wrapping the array under
// the given field name (the shape JSON-constrained backends produce).
func decodeRecords[T any](raw, field string) ([]T, error) {
	text := extractJSON(raw)

	var records []T
	if err := json.Unmarshal([]byte(text), &records); err == nil {
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &wrapper); err != nil {
		return nil, fmt.Errorf("%w: not a JSON array or object", ErrMalformedPayload)
	}

	payload, ok := wrapper[field]
	if !ok {
		// Tolerate a differently named wrapper as long as it holds the
		// only array in the object.
		var candidate json.RawMessage
		for _, v := range wrapper {
			if len(v) > 0 && v[0] == '[' {
				if candidate != nil {
					return nil, fmt.Errorf("%w: object holds multiple arrays, none named %q", ErrMalformedPayload, field)
				}
				candidate = v
			}
		}
		if candidate == nil {
			return nil, fmt.Errorf("%w: object holds no %q array", ErrMalformedPayload, field)
		}
		payload = candidate
	}

	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return records, nil
}
