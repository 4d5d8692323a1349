package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var reFenceOpen = regexp.MustCompile("^```[a-zA-Z]*")

// ExtractJSONObject pulls the first balanced JSON object out of
// free-form model text: code fences and surrounding prose are ignored,
// braces are matched by depth scanning (string-literal aware) starting
// at each "{" until a candidate unmarshals. Returns nil when no object
// parses. No semantic validation happens here.
func ExtractJSONObject(text string) map[string]any {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = reFenceOpen.ReplaceAllString(cleaned, "")
		cleaned = strings.Trim(cleaned, "` \n")
	}
	if cleaned == "" {
		return nil
	}

	for start := 0; start < len(cleaned); {
		open := strings.IndexByte(cleaned[start:], '{')
		if open == -1 {
			return nil
		}
		open += start
		if candidate, ok := balancedFrom(cleaned, open); ok {
			var m map[string]any
			if err := json.Unmarshal([]byte(candidate), &m); err == nil {
				return m
			}
		}
		start = open + 1
	}
	return nil
}

// balancedFrom returns the substring from the opening brace at idx up
// to (and including) its matching close brace, tracking JSON string
// literals so embedded braces do not unbalance the scan.
func balancedFrom(s string, idx int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := idx; i < len(s); i++ {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[idx : i+1], true
			}
		}
	}
	return "", false
}
