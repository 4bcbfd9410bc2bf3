package prompt

import (
	"path/filepath"
	"strings"
)

// DisplayNames computes the shortest unambiguous label for each prompt. A name
// that is unique across the set is shown bare; otherwise directory segments are
// prepended, nearest first, until no other prompt with the same name shares the
// label: "general:restart" vs "specific:restart".
func DisplayNames(prompts []Prompt) map[string]string {
	byName := make(map[string][]Prompt, len(prompts))
	for _, p := range prompts {
		byName[p.Name] = append(byName[p.Name], p)
	}

	names := make(map[string]string, len(prompts))
	for _, group := range byName {
		if len(group) == 1 {
			names[group[0].ID] = group[0].Name
			continue
		}
		for _, p := range group {
			names[p.ID] = qualifiedName(p, group)
		}
	}
	return names
}

func qualifiedName(target Prompt, group []Prompt) string {
	segments := dirSegments(target.Directory)
	for depth := 1; depth <= len(segments); depth++ {
		label := suffix(segments, depth)
		unique := true
		for _, other := range group {
			if other.ID == target.ID {
				continue
			}
			if suffix(dirSegments(other.Directory), depth) == label {
				unique = false
				break
			}
		}
		if unique {
			return label + ":" + target.Name
		}
	}
	return target.ID
}

func dirSegments(dir string) []string {
	clean := strings.Trim(filepath.ToSlash(filepath.Clean(dir)), "/")
	if clean == "" || clean == "." {
		return nil
	}
	return strings.Split(clean, "/")
}

func suffix(segments []string, depth int) string {
	if depth > len(segments) {
		depth = len(segments)
	}
	return strings.Join(segments[len(segments)-depth:], ":")
}
