package prompt

import (
	"context"

	"github.com/alanyang/prompt-mesh/internal/domain/inclusion"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
)

// Lookup is the read-only view the inclusion engine resolves references against.
type Lookup interface {
	// Get returns the prompt with the given id, or domainprompt.ErrNotFound.
	Get(ctx context.Context, id string) (domainprompt.Prompt, error)

	// FindByName returns every prompt whose local name equals name, in any directory.
	FindByName(ctx context.Context, name string) ([]domainprompt.Prompt, error)
}

// Change describes what a RefreshPath call observed about one file.
type Change struct {
	Created  bool
	Deleted  bool
	Content  bool
	Metadata bool
}

// Changed reports whether anything observable differs.
func (c Change) Changed() bool {
	return c.Created || c.Deleted || c.Content || c.Metadata
}

// Repository is the in-memory prompt index backed by one file per prompt.
// [DIP] service/prompt depends on this interface, not on any concrete storage.
type Repository interface {
	Lookup

	// List returns prompts matching filters, sorted by id.
	List(ctx context.Context, filters domainprompt.ListFilters) ([]domainprompt.Prompt, error)

	// IDFor returns the id a prompt called name in directory has, honouring
	// namespace disambiguation for registered directories.
	IDFor(directory, name string) (string, error)

	// PathFor returns the file backing id.
	PathFor(id string) (string, error)

	// Save writes p to its file and then indexes it. ID must be set.
	Save(ctx context.Context, p domainprompt.Prompt) error

	// Delete removes the file and the index entry.
	Delete(ctx context.Context, id string) error

	// RegisterDirectory claims the namespace of a configured root. Roots
	// registered before any scan keep their plain namespace over sub-directories.
	RegisterDirectory(directory string) string

	// LoadDirectory registers directory and indexes every prompt file below it.
	LoadDirectory(ctx context.Context, directory string) (int, error)

	// RefreshPath re-reads one file (which may no longer exist) and reconciles
	// the index with it.
	RefreshPath(ctx context.Context, path string) (domainprompt.Prompt, Change, error)
}

// Editor is what an editing session needs from the prompt service.
type Editor interface {
	Get(ctx context.Context, id string) (domainprompt.Prompt, error)
	UpdateContent(ctx context.Context, id, content string) (domainprompt.Prompt, error)
	UpdateMetadata(ctx context.Context, id string, description *string, tags *[]string) (domainprompt.Prompt, error)
	ExpandContent(ctx context.Context, content, directory, ownID string) (inclusion.Result, error)
}
