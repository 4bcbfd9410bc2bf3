package filestore

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

type frontMatter struct {
	Description string     `yaml:"description,omitempty"`
	Tags        []string   `yaml:"tags,omitempty"`
	CreatedAt   *time.Time `yaml:"created_at,omitempty"`
	UpdatedAt   *time.Time `yaml:"updated_at,omitempty"`
}

func (fm frontMatter) isZero() bool {
	return fm.Description == "" && len(fm.Tags) == 0 && fm.CreatedAt == nil && fm.UpdatedAt == nil
}

// encode renders a prompt file: a YAML front matter block, a blank line, then
// the content verbatim. With no metadata the block is omitted unless the
// content itself opens with a rule.
func encode(fm frontMatter, content string) ([]byte, error) {
	if fm.isZero() && !strings.HasPrefix(content, delimiter) {
		return []byte(content), nil
	}
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(meta) + len(content) + 16)
	buf.WriteString(delimiter + "\n")
	buf.Write(meta)
	buf.WriteString(delimiter + "\n\n")
	buf.WriteString(content)
	return buf.Bytes(), nil
}

// decode splits a prompt file into front matter and content. Files without a
// front matter block are all content. A malformed block is an error.
func decode(data []byte) (frontMatter, string, error) {
	var fm frontMatter

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return fm, text, nil
	}

	rest := strings.TrimPrefix(text, delimiter+"\n")
	var meta, content string
	switch {
	case strings.HasPrefix(rest, delimiter+"\n"):
		content = rest[len(delimiter)+1:]
	case rest == delimiter:
		content = ""
	default:
		var ok bool
		meta, content, ok = strings.Cut(rest, "\n"+delimiter+"\n")
		if !ok {
			m, found := strings.CutSuffix(rest, "\n"+delimiter)
			if !found {
				// An opening rule with no closing one is ordinary markdown.
				return fm, text, nil
			}
			meta, content = m, ""
		}
	}

	if err := yaml.Unmarshal([]byte(meta), &fm); err != nil {
		return frontMatter{}, "", fmt.Errorf("parse front matter: %w", err)
	}
	return fm, strings.TrimPrefix(content, "\n"), nil
}
