package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	closedThink = regexp.MustCompile(`(?is)<think>.*?</think>`)
	openThink   = regexp.MustCompile(`(?i)<think>`)
	fenced      = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")
)

// ExtractJSON strips reasoning blocks and markdown decoration from raw model
// output and returns the JSON body it most likely contains. It never fails;
// callers parse the result and treat parse errors as ErrInvalidResponse.
func ExtractJSON(raw string) string {
	s := closedThink.ReplaceAllString(raw, "")

	// An unclosed <think> runs to the end of the text unless a complete
	// fenced block follows it.
	if loc := openThink.FindStringIndex(s); loc != nil {
		rest := s[loc[1]:]
		if f := fenced.FindStringIndex(rest); f != nil {
			s = s[:loc[0]] + rest[f[0]:]
		} else {
			s = s[:loc[0]]
		}
	}
	s = strings.TrimSpace(s)

	if m := fenced.FindStringSubmatch(s); m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1])
	}

	if i := strings.IndexAny(s, "{["); i > 0 {
		s = s[i:]
	}
	return strings.TrimSpace(s)
}

// hasMarker reports whether text parses as JSON and mentions the marker key.
func hasMarker(text, marker string) bool {
	if !json.Valid([]byte(text)) {
		return false
	}
	if marker == "" {
		return true
	}
	return strings.Contains(text, `"`+marker+`"`)
}
