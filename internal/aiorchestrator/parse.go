package aiorchestrator

import (
	"encoding/json"
	"strings"
)

// analysisJSON mirrors the wire shape requested in the prompt; fields are
// permissive (omitempty-free) so a partial response still decodes.
type analysisJSON struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Style       []string `json:"style"`
	Mood        []string `json:"mood"`
	Colors      []string `json:"colors"`
	Era         *string  `json:"era"`
}

// ParseResponse turns a raw provider response body into an Analysis,
// trying progressively more forgiving strategies. It never errors: a
// response that doesn't parse as JSON at all becomes a raw-text record
// with every structured field empty.
func ParseResponse(raw string) Analysis {
	if a, ok := tryParseJSON(raw); ok {
		return a
	}
	if fenced, ok := extractFencedJSON(raw); ok {
		if a, ok := tryParseJSON(fenced); ok {
			return a
		}
	}
	if braced, ok := extractBracedJSON(raw); ok {
		if a, ok := tryParseJSON(braced); ok {
			return a
		}
	}
	return Analysis{Description: strings.TrimSpace(raw)}
}

func tryParseJSON(s string) (Analysis, bool) {
	var parsed analysisJSON
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &parsed); err != nil {
		return Analysis{}, false
	}
	era := ""
	if parsed.Era != nil {
		era = *parsed.Era
	}
	return Analysis{
		Description: parsed.Description,
		Tags:        parsed.Tags,
		Style:       parsed.Style,
		Mood:        parsed.Mood,
		Colors:      parsed.Colors,
		Era:         era,
	}, true
}

// extractFencedJSON pulls the content of the first ```json ... ``` fence.
func extractFencedJSON(raw string) (string, bool) {
	const marker = "```json"
	start := strings.Index(raw, marker)
	if start == -1 {
		return "", false
	}
	rest := raw[start+len(marker):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	return rest[:end], true
}

// extractBracedJSON returns the first balanced {...} substring, scanning
// past string literals so braces inside quoted text don't unbalance the
// count.
func extractBracedJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
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
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
