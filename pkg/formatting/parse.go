package formatting

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Markers that delimit a structured payload inside free-form model output.
const (
	StartMarker = "<<JSON_START>>"
	EndMarker   = "<<JSON_END>>"
)

// Method identifies which extraction tier produced a JSON span.
type Method int

const (
	MethodNone Method = iota
	MethodMarkers
	MethodBraces
)

func (m Method) String() string {
	switch m {
	case MethodMarkers:
		return "markers"
	case MethodBraces:
		return "braces"
	default:
		return "none"
	}
}

var (
	markerRegex = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(StartMarker) + `(.*?)` + regexp.QuoteMeta(EndMarker))
	braceRegex  = regexp.MustCompile(`(?s)\{.*\}`)
)

// ExtractJSON locates a JSON object embedded in content. The span between
// StartMarker and EndMarker is tried first; when absent or not a valid object,
// the greedy span from the first '{' to the last '}' is tried.
func ExtractJSON(content string) (string, Method, bool) {
	if m := markerRegex.FindStringSubmatch(content); len(m) == 2 {
		span := strings.TrimSpace(m[1])
		if isObject(span) {
			return span, MethodMarkers, true
		}
	}

	if span := braceRegex.FindString(content); span != "" && isObject(span) {
		return span, MethodBraces, true
	}

	return "", MethodNone, false
}

func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}
