package prompt

import (
	"path/filepath"
	"time"

	"github.com/alanyang/prompt-mesh/internal/domain/inclusion"
)

// Extension is the file suffix of a persisted prompt.
const Extension = ".md"

// Prompt is a named unit of text content persisted as one file under Directory.
// ID is "<namespace>/<name>", or the bare name for legacy prompts.
type Prompt struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Directory   string    `json:"directory"`
	Content     string    `json:"content"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsComposite reports whether the content contains at least one inclusion marker.
func (p Prompt) IsComposite() bool {
	return inclusion.HasReferences(p.Content)
}

// Filename returns the base name of the backing file.
func (p Prompt) Filename() string {
	return p.Name + Extension
}

// Path returns the full path of the backing file.
func (p Prompt) Path() string {
	return filepath.Join(p.Directory, p.Filename())
}

// HasTag reports whether tag is one of the prompt's tags.
func (p Prompt) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Directory is one configured root that prompts are loaded from.
type Directory struct {
	Path    string `json:"path" mapstructure:"path"`
	Name    string `json:"name" mapstructure:"name"`
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
}

// ListFilters narrows a repository listing. Zero values match everything.
type ListFilters struct {
	Directory     string
	Tag           string
	CompositeOnly bool
	// Search is matched case-insensitively against id, description and content.
	Search string
}
