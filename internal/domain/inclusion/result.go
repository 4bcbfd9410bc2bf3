package inclusion

import "fmt"

// WarningKind classifies a problem found in the content graph during expansion.
type WarningKind string

const (
	WarningNotFound  WarningKind = "not_found"
	WarningCycle     WarningKind = "cycle"
	WarningAmbiguous WarningKind = "ambiguous"
	WarningMaxDepth  WarningKind = "max_depth"
)

// Warning is a soft, reportable expansion outcome. Warnings are data, never errors.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Token   string      `json:"token"`
	Message string      `json:"message"`
}

func (w Warning) String() string { return w.Message }

// Result is the outcome of expanding one piece of content.
type Result struct {
	Expanded string `json:"expanded"`
	// Dependencies holds every prompt id spliced in, transitively, sorted and unique.
	Dependencies []string `json:"dependencies"`
	// Warnings preserves discovery order.
	Warnings []Warning `json:"warnings"`
}

// WarningMessages flattens Warnings for wire formats that carry plain strings.
func (r Result) WarningMessages() []string {
	msgs := make([]string, len(r.Warnings))
	for i, w := range r.Warnings {
		msgs[i] = w.Message
	}
	return msgs
}

// ResolutionKind tags the outcome of resolving one reference token.
type ResolutionKind int

const (
	Resolved ResolutionKind = iota
	NotFound
	Ambiguous
)

func (k ResolutionKind) String() string {
	switch k {
	case Resolved:
		return "resolved"
	case NotFound:
		return "not_found"
	case Ambiguous:
		return "ambiguous"
	default:
		return fmt.Sprintf("ResolutionKind(%d)", int(k))
	}
}

// Candidate is a prompt that a token could refer to.
type Candidate struct {
	ID        string `json:"id"`
	Directory string `json:"directory"`
}

// Resolution is the tagged result of resolving a token: exactly one of
// Resolved (ID set), NotFound, or Ambiguous (Candidates set, two or more).
type Resolution struct {
	Kind       ResolutionKind
	ID         string
	Candidates []Candidate
}

// NotFoundPlaceholder is spliced in place of a marker that resolves to nothing.
func NotFoundPlaceholder(token string) string {
	return fmt.Sprintf("[ERROR: Prompt '%s' not found]", token)
}

// CyclePlaceholder is spliced in place of a marker that would re-enter the expansion chain.
func CyclePlaceholder(id string) string {
	return fmt.Sprintf("[ERROR: Circular reference to '%s']", id)
}
