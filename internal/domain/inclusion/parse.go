// Package inclusion holds the [[reference]] grammar shared by everything that
// reads prompt content, and the value types produced by expansion.
package inclusion

import "strings"

const (
	openMarker  = "[["
	closeMarker = "]]"
	mdExt       = ".md"
)

// Kind distinguishes the two segment types produced by Parse.
type Kind int

const (
	Literal Kind = iota
	Reference
)

// Segment is one piece of tokenized content. For a Reference, Raw is the marker
// exactly as written and Token is the normalized reference.
type Segment struct {
	Kind  Kind
	Raw   string
	Token string
}

// Parse splits content into literal text and [[token]] references, left to right.
// A marker ends at the first "]]" after its "[["; tokens are non-blank and never
// contain "]". Text that does not form a valid marker stays literal.
func Parse(content string) []Segment {
	var (
		segments []Segment
		literal  strings.Builder
		i        int
	)
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, Segment{Kind: Literal, Raw: literal.String()})
			literal.Reset()
		}
	}

	for i < len(content) {
		start := strings.Index(content[i:], openMarker)
		if start < 0 {
			literal.WriteString(content[i:])
			break
		}
		start += i
		end := strings.Index(content[start+len(openMarker):], closeMarker)
		if end < 0 {
			literal.WriteString(content[i:])
			break
		}
		end += start + len(openMarker)

		token := content[start+len(openMarker) : end]
		if Normalize(token) == "" || strings.Contains(token, "]") {
			// Not a marker at this position; keep one byte and rescan.
			literal.WriteString(content[i : start+1])
			i = start + 1
			continue
		}

		literal.WriteString(content[i:start])
		flush()
		raw := content[start : end+len(closeMarker)]
		segments = append(segments, Segment{Kind: Reference, Raw: raw, Token: Normalize(token)})
		i = end + len(closeMarker)
	}
	flush()
	return segments
}

// HasReferences reports whether content contains at least one valid marker.
func HasReferences(content string) bool {
	if !strings.Contains(content, openMarker) {
		return false
	}
	for _, s := range Parse(content) {
		if s.Kind == Reference {
			return true
		}
	}
	return false
}

// References returns the normalized tokens in content, in order, duplicates kept.
func References(content string) []string {
	var tokens []string
	for _, s := range Parse(content) {
		if s.Kind == Reference {
			tokens = append(tokens, s.Token)
		}
	}
	return tokens
}

// Normalize trims surrounding whitespace and one trailing ".md".
func Normalize(token string) string {
	t := strings.TrimSpace(token)
	t = strings.TrimSuffix(t, mdExt)
	return t
}

// Marker renders token as an inclusion marker.
func Marker(token string) string {
	return openMarker + token + closeMarker
}
