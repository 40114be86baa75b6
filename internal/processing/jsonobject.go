package processing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when no decodable JSON object is found in model output.
var ErrNoJSONObject = errors.New("no json object in text")

// DecodeObject decodes untrusted model output into v. The whole text is tried
// first, then the first balanced {...} substring. Anything else is rejected.
func DecodeObject(text string, v any) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrNoJSONObject
	}
	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	candidate := FirstBalancedObject(trimmed)
	if candidate == "" {
		return ErrNoJSONObject
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("%w: %v", ErrNoJSONObject, err)
	}
	return nil
}

// FirstBalancedObject returns the first {...} substring whose braces balance,
// ignoring braces inside JSON string literals. It returns "" when none exists.
func FirstBalancedObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
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
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
