package categorize

import (
	"encoding/json"
	"strings"
)

// RecoverJSON attempts to decode raw into out, tolerating the
// surrounding prose and markdown code fences LLMs commonly emit:
//  1. strip code fences and leading/trailing prose, try to parse
//  2. on failure, extract the first balanced {...} or [...] substring
//     and retry
//
// Returns false if neither attempt decodes cleanly.
func RecoverJSON(raw string, out any) bool {
	cleaned := stripCodeFences(raw)
	if json.Unmarshal([]byte(cleaned), out) == nil {
		return true
	}

	if balanced := firstBalancedJSON(cleaned); balanced != "" {
		if json.Unmarshal([]byte(balanced), out) == nil {
			return true
		}
	}
	return false
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// firstBalancedJSON scans s for the first balanced {...} or [...]
// substring, respecting quoted strings and escapes, and returns it
// verbatim. Returns "" if none is found.
func firstBalancedJSON(s string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			open = s[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
