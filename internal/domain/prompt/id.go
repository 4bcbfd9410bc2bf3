package prompt

import (
	"path/filepath"
	"regexp"
	"strings"
)

// genericSegment is the directory name that carries no information of its own;
// a prompt in ".../general/prompts" is namespaced "general", not "prompts".
const genericSegment = "prompts"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName checks the local identifier of a prompt.
func ValidateName(name string) error {
	if name == "" {
		return &ValidationError{Field: "name", Value: name, Reason: "must not be empty"}
	}
	if !namePattern.MatchString(name) {
		return &ValidationError{Field: "name", Value: name, Reason: "must match [A-Za-z0-9_-]+"}
	}
	return nil
}

// Namespace derives the namespace segment of ids for prompts living in directory:
// the last path segment, or its parent when the last segment is "prompts".
// Root-like directories yield "" (legacy bare ids).
func Namespace(directory string) string {
	clean := filepath.Clean(directory)
	base := filepath.Base(clean)
	if base == genericSegment {
		if parent := filepath.Base(filepath.Dir(clean)); !isRootSegment(parent) {
			return parent
		}
	}
	if isRootSegment(base) {
		return ""
	}
	return base
}

func isRootSegment(s string) bool {
	return s == "" || s == "." || s == string(filepath.Separator)
}

// GenerateID returns "<namespace>/<name>" for name in directory. It is a pure
// function of its inputs; collision handling lives in Namespaces.
func GenerateID(directory, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return JoinID(Namespace(directory), name), nil
}

// JoinID assembles an id from its parts. An empty namespace yields the bare name.
func JoinID(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// ParseID splits an id on its first "/". Ids without one are legacy and
// return an empty namespace.
func ParseID(id string) (namespace, name string) {
	ns, n, ok := strings.Cut(id, "/")
	if !ok {
		return "", id
	}
	return ns, n
}

// ValidateID checks that id is well formed: an optional namespace followed by a valid name.
func ValidateID(id string) error {
	ns, name := ParseID(id)
	if strings.Contains(id, "/") && ns == "" {
		return &ValidationError{Field: "id", Value: id, Reason: "namespace must not be empty"}
	}
	if err := ValidateName(name); err != nil {
		return &ValidationError{Field: "id", Value: id, Reason: err.(*ValidationError).Reason}
	}
	return nil
}
