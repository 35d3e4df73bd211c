package agent

import "strings"

// ExtractJSON pulls a JSON object out of raw model output. It tries, in
// order: a ```json fenced block, a plain ``` fenced block, and finally a
// brace-depth scan from the first '{'. Returns "" when no candidate object
// is found.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	// Fenced ```json block
	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	// Plain fenced block
	if idx := strings.Index(response, "```"); idx != -1 {
		rest := response[idx+3:]
		if end := strings.Index(rest, "```"); end != -1 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	// Brace-depth scan, ignoring braces inside string literals.
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1]
				}
			}
		}
	}
	return ""
}
