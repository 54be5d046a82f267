package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.+?)\\s*```")

// DecodeObject parses a JSON object out of model output that may be wrapped
// in markdown fences or surrounded by prose.
func DecodeObject(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidOutput)
	}

	candidates := []string{raw}
	if m := fencePattern.FindStringSubmatch(raw); len(m) > 1 {
		candidates = append(candidates, m[1])
	}
	if start := strings.Index(raw, "{"); start >= 0 {
		if obj := balancedObject(raw[start:]); obj != "" {
			candidates = append(candidates, obj)
		}
	}

	for _, c := range candidates {
		var out map[string]any
		if err := json.Unmarshal([]byte(c), &out); err == nil && out != nil {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: no JSON object in %q", ErrInvalidOutput, truncate(raw, 100))
}

// balancedObject returns the prefix of s up to the brace closing its first
// character, skipping braces inside string literals.
func balancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
