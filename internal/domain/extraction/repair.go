package extraction

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeFencePattern     = regexp.MustCompile("```(?:json|JSON)?")
	trailingCommaPattern = regexp.MustCompile(`,\s*([\]}])`)
)

// ParseCandidates decodes a model response into candidate items.
// Strict decoding is tried first, then a repaired copy of the text, and finally every
// innermost {...} object is decoded on its own so one broken record does not lose the file.
func ParseCandidates(text string) ([]any, error) {
	if items, ok := decodeItems(text); ok {
		return items, nil
	}

	if items, ok := decodeItems(RepairJSON(text)); ok {
		return items, nil
	}

	items := ScanObjects(text)
	if len(items) == 0 {
		return nil, ErrMalformedResponse
	}
	return items, nil
}

// RepairJSON strips markdown fences, trims to the outermost array and drops trailing commas
func RepairJSON(text string) string {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start >= 0 && end > start {
		cleaned = cleaned[start : end+1]
	}

	return trailingCommaPattern.ReplaceAllString(cleaned, "$1")
}

// decodeItems accepts a bare array, an object wrapping one array field, or a single object
func decodeItems(text string) ([]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}

	switch val := v.(type) {
	case []any:
		return val, true
	case map[string]any:
		for _, field := range val {
			if arr, ok := field.([]any); ok && len(val) == 1 {
				return arr, true
			}
		}
		return []any{val}, true
	default:
		return nil, false
	}
}

// ScanObjects finds every {...} substring that contains no nested object and decodes it.
// Braces inside JSON strings are ignored. Fragments that fail to decode are skipped.
func ScanObjects(text string) []any {
	type frame struct {
		start    int
		hasChild bool
	}

	var (
		stack    []frame
		items    []any
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			if len(stack) > 0 {
				stack[len(stack)-1].hasChild = true
			}
			stack = append(stack, frame{start: i})
		case '}':
			if len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.hasChild {
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal([]byte(text[top.start:i+1]), &obj); err == nil {
				items = append(items, obj)
			}
		}
	}

	return items
}
