// Package filestore is the prompt repository: an in-memory index over one
// markdown file per prompt.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	portfs "github.com/alanyang/prompt-mesh/internal/port/fs"
	portprompt "github.com/alanyang/prompt-mesh/internal/port/prompt"
)

// Repository implements port/prompt.Repository. The index is guarded by one
// RWMutex; callers serialise writers per prompt id above this layer.
type Repository struct {
	fs         portfs.FileSystem
	namespaces *domainprompt.Namespaces
	now        func() time.Time

	mu     sync.RWMutex
	byID   map[string]domainprompt.Prompt
	byPath map[string]string
}

func New(fsys portfs.FileSystem, namespaces *domainprompt.Namespaces) *Repository {
	return &Repository{
		fs:         fsys,
		namespaces: namespaces,
		now:        func() time.Time { return time.Now().UTC() },
		byID:       make(map[string]domainprompt.Prompt),
		byPath:     make(map[string]string),
	}
}

func (r *Repository) Get(_ context.Context, id string) (domainprompt.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return domainprompt.Prompt{}, fmt.Errorf("prompt %q: %w", id, domainprompt.ErrNotFound)
	}
	return clone(p), nil
}

func (r *Repository) FindByName(_ context.Context, name string) ([]domainprompt.Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domainprompt.Prompt
	for _, p := range r.byID {
		if p.Name == name {
			out = append(out, clone(p))
		}
	}
	sortByID(out)
	return out, nil
}

func (r *Repository) List(_ context.Context, filters domainprompt.ListFilters) ([]domainprompt.Prompt, error) {
	var dir string
	if filters.Directory != "" {
		dir = filepath.Clean(filters.Directory)
	}
	search := strings.ToLower(filters.Search)

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainprompt.Prompt, 0, len(r.byID))
	for _, p := range r.byID {
		if dir != "" && p.Directory != dir {
			continue
		}
		if filters.Tag != "" && !p.HasTag(filters.Tag) {
			continue
		}
		if filters.CompositeOnly && !p.IsComposite() {
			continue
		}
		if search != "" && !matches(p, search) {
			continue
		}
		out = append(out, clone(p))
	}
	sortByID(out)
	return out, nil
}

func matches(p domainprompt.Prompt, lowered string) bool {
	return strings.Contains(strings.ToLower(p.ID), lowered) ||
		strings.Contains(strings.ToLower(p.Description), lowered) ||
		strings.Contains(strings.ToLower(p.Content), lowered)
}

// IDFor registers directory on first use so the returned id matches what a
// later load of the same file would produce.
func (r *Repository) IDFor(directory, name string) (string, error) {
	if err := domainprompt.ValidateName(name); err != nil {
		return "", err
	}
	if strings.TrimSpace(directory) == "" {
		return "", &domainprompt.ValidationError{Field: "directory", Value: directory, Reason: "must not be empty"}
	}
	ns := r.namespaces.Register(directory)
	return domainprompt.JoinID(ns, name), nil
}

// PathFor resolves ids that are not indexed yet through the namespace
// registry, which is what a peer process announcing a new prompt needs.
func (r *Repository) PathFor(id string) (string, error) {
	r.mu.RLock()
	p, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return p.Path(), nil
	}

	ns, name := domainprompt.ParseID(id)
	dir, ok := r.namespaces.Directory(ns)
	if !ok {
		return "", fmt.Errorf("prompt %q: %w", id, domainprompt.ErrNotFound)
	}
	return filepath.Join(dir, name+domainprompt.Extension), nil
}

func (r *Repository) Save(_ context.Context, p domainprompt.Prompt) error {
	if p.ID == "" {
		return &domainprompt.ValidationError{Field: "id", Value: p.ID, Reason: "must be set before saving"}
	}
	p.Directory = filepath.Clean(p.Directory)
	path := p.Path()

	data, err := encode(frontMatterOf(p), p.Content)
	if err != nil {
		return err
	}
	if err := r.fs.Write(path, data); err != nil {
		return &domainprompt.PersistenceError{Op: "write", Path: path, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.index(clone(p))
	return nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.RLock()
	p, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("prompt %q: %w", id, domainprompt.ErrNotFound)
	}

	path := p.Path()
	if err := r.fs.Delete(path); err != nil {
		return &domainprompt.PersistenceError{Op: "delete", Path: path, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.unindex(id)
	return nil
}

// RegisterDirectory claims directory's namespace without scanning it.
func (r *Repository) RegisterDirectory(directory string) string {
	return r.namespaces.Register(filepath.Clean(directory))
}

// LoadDirectory indexes every prompt file below directory. Files that fail
// to load are logged and skipped; the count covers successful loads only.
func (r *Repository) LoadDirectory(ctx context.Context, directory string) (int, error) {
	dir := filepath.Clean(directory)
	r.namespaces.Register(dir)

	paths, err := r.fs.List(dir)
	if err != nil {
		return 0, &domainprompt.PersistenceError{Op: "list", Path: dir, Err: err}
	}

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		p, _, err := r.load(path)
		if err != nil {
			slog.WarnContext(ctx, "skipping prompt file", "path", path, "error", err)
			continue
		}
		r.mu.Lock()
		if prev, ok := r.byID[p.ID]; ok && prev.Path() != path {
			r.mu.Unlock()
			slog.WarnContext(ctx, "duplicate prompt id, keeping first", "id", p.ID, "kept", prev.Path(), "skipped", path)
			continue
		}
		r.index(p)
		r.mu.Unlock()
		count++
	}

	if count == 0 && len(paths) > 0 {
		slog.WarnContext(ctx, "found prompt files but loaded none", "directory", dir, "files", len(paths))
	}
	return count, nil
}

// RefreshPath reconciles the index with the current state of one file. Paths
// that are not prompt files report no change.
func (r *Repository) RefreshPath(ctx context.Context, path string) (domainprompt.Prompt, portprompt.Change, error) {
	path = filepath.Clean(path)
	if !strings.HasSuffix(path, domainprompt.Extension) || strings.HasPrefix(filepath.Base(path), ".") {
		return domainprompt.Prompt{}, portprompt.Change{}, nil
	}

	r.mu.RLock()
	prevID, indexed := r.byPath[path]
	prev := r.byID[prevID]
	r.mu.RUnlock()

	p, stamped, err := r.load(path)
	if errors.Is(err, fs.ErrNotExist) {
		if !indexed {
			return domainprompt.Prompt{}, portprompt.Change{}, nil
		}
		r.mu.Lock()
		r.unindex(prevID)
		r.mu.Unlock()
		return clone(prev), portprompt.Change{Deleted: true}, nil
	}
	if err != nil {
		return domainprompt.Prompt{}, portprompt.Change{}, err
	}

	var change portprompt.Change
	switch {
	case !indexed:
		change.Created = true
	default:
		if !stamped {
			// Hand-written files carry no created_at; keep the known one.
			p.CreatedAt = prev.CreatedAt
		}
		change.Content = prev.Content != p.Content
		change.Metadata = prev.Description != p.Description || !slices.Equal(prev.Tags, p.Tags)
		if !change.Content && !change.Metadata {
			// Our own write echoing back through the watcher.
			return clone(prev), change, nil
		}
	}

	r.mu.Lock()
	r.index(p)
	r.mu.Unlock()
	slog.DebugContext(ctx, "refreshed prompt file", "id", p.ID, "path", path)
	return clone(p), change, nil
}

// load reads and decodes one prompt file without touching the index. stamped
// reports whether the file carried its own created_at.
func (r *Repository) load(path string) (p domainprompt.Prompt, stamped bool, err error) {
	data, err := r.fs.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, false, err
		}
		return p, false, &domainprompt.PersistenceError{Op: "read", Path: path, Err: err}
	}

	fm, content, err := decode(data)
	if err != nil {
		return p, false, fmt.Errorf("decode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	name := strings.TrimSuffix(filepath.Base(path), domainprompt.Extension)
	id, err := r.IDFor(dir, name)
	if err != nil {
		return p, false, err
	}

	now := r.now()
	p = domainprompt.Prompt{
		ID:          id,
		Name:        name,
		Directory:   dir,
		Content:     content,
		Description: fm.Description,
		Tags:        fm.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if fm.CreatedAt != nil {
		p.CreatedAt = fm.CreatedAt.UTC()
	}
	if fm.UpdatedAt != nil {
		p.UpdatedAt = fm.UpdatedAt.UTC()
	}
	return p, fm.CreatedAt != nil, nil
}

// index must be called with mu held for writing.
func (r *Repository) index(p domainprompt.Prompt) {
	path := p.Path()
	if prev, ok := r.byID[p.ID]; ok && prev.Path() != path {
		delete(r.byPath, prev.Path())
	}
	r.byID[p.ID] = p
	r.byPath[path] = p.ID
}

// unindex must be called with mu held for writing.
func (r *Repository) unindex(id string) {
	if p, ok := r.byID[id]; ok {
		delete(r.byPath, p.Path())
		delete(r.byID, id)
	}
}

// Len reports how many prompts are indexed.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func frontMatterOf(p domainprompt.Prompt) frontMatter {
	fm := frontMatter{Description: p.Description, Tags: p.Tags}
	if !p.CreatedAt.IsZero() {
		t := p.CreatedAt.UTC()
		fm.CreatedAt = &t
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt.UTC()
		fm.UpdatedAt = &t
	}
	return fm
}

func clone(p domainprompt.Prompt) domainprompt.Prompt {
	p.Tags = slices.Clone(p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

func sortByID(ps []domainprompt.Prompt) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
