package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/alanyang/prompt-mesh/internal/domain/event"
	"github.com/alanyang/prompt-mesh/internal/domain/inclusion"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	"github.com/alanyang/prompt-mesh/internal/metrics"
	portbus "github.com/alanyang/prompt-mesh/internal/port/eventbus"
	portlocker "github.com/alanyang/prompt-mesh/internal/port/locker"
	portprompt "github.com/alanyang/prompt-mesh/internal/port/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/expansion"
)

// Service owns every prompt mutation. Writes to one prompt id are serialised
// through the locker; writes to different ids proceed independently. Events
// are published after the lock is released.
// [DIP] Depends on ports, never on adapters or transport.
type Service struct {
	repo     portprompt.Repository
	engine   *expansion.Engine
	bus      portbus.EventBus
	locker   portlocker.Locker
	instance string
	now      func() time.Time
}

func NewService(
	repo portprompt.Repository,
	engine *expansion.Engine,
	bus portbus.EventBus,
	locker portlocker.Locker,
	instance string,
) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		bus:      bus,
		locker:   locker,
		instance: instance,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for created_at/updated_at.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Instance identifies this process on the event bus.
func (s *Service) Instance() string { return s.instance }

// CreateInput carries the fields of a new prompt. Empty Content gets a stub.
type CreateInput struct {
	Directory   string
	Name        string
	Content     string
	Description string
	Tags        []string
}

func defaultContent(name string) string {
	return "# " + name + "\n\nEnter content here..."
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domainprompt.Prompt, error) {
	id, err := s.repo.IDFor(in.Directory, in.Name)
	if err != nil {
		return domainprompt.Prompt{}, fmt.Errorf("create prompt: %w", err)
	}

	var created domainprompt.Prompt
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		if _, err := s.repo.Get(ctx, id); err == nil {
			return fmt.Errorf("prompt %q: %w", id, domainprompt.ErrAlreadyExists)
		} else if !errors.Is(err, domainprompt.ErrNotFound) {
			return err
		}

		now := s.now()
		p := domainprompt.Prompt{
			ID:          id,
			Name:        in.Name,
			Directory:   filepath.Clean(in.Directory),
			Content:     in.Content,
			Description: in.Description,
			Tags:        normalizeTags(in.Tags),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if strings.TrimSpace(p.Content) == "" {
			p.Content = defaultContent(in.Name)
		}
		if err := s.repo.Save(ctx, p); err != nil {
			return err
		}
		created = p
		return nil
	})
	metrics.RecordMutation("create", err)
	if err != nil {
		return domainprompt.Prompt{}, fmt.Errorf("create prompt: %w", err)
	}

	slog.InfoContext(ctx, "prompt created", "id", id)
	s.publish(ctx, event.TypePromptCreated, id)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (domainprompt.Prompt, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return domainprompt.Prompt{}, fmt.Errorf("get prompt: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filters domainprompt.ListFilters) ([]domainprompt.Prompt, error) {
	ps, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return ps, nil
}

// DisplayNames labels every indexed prompt with its shortest unambiguous name.
func (s *Service) DisplayNames(ctx context.Context) (map[string]string, error) {
	ps, err := s.repo.List(ctx, domainprompt.ListFilters{})
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	return domainprompt.DisplayNames(ps), nil
}

// UpdateContent replaces the content of id. Last write wins.
func (s *Service) UpdateContent(ctx context.Context, id, content string) (domainprompt.Prompt, error) {
	updated, err := s.mutate(ctx, id, func(p *domainprompt.Prompt) {
		p.Content = content
	})
	metrics.RecordMutation("update", err)
	if err != nil {
		return domainprompt.Prompt{}, fmt.Errorf("update prompt content: %w", err)
	}
	s.publish(ctx, event.TypePromptUpdated, id)
	return updated, nil
}

// UpdateMetadata replaces description and/or tags; a nil pointer leaves the field as is.
func (s *Service) UpdateMetadata(ctx context.Context, id string, description *string, tags *[]string) (domainprompt.Prompt, error) {
	updated, err := s.mutate(ctx, id, func(p *domainprompt.Prompt) {
		if description != nil {
			p.Description = *description
		}
		if tags != nil {
			p.Tags = normalizeTags(*tags)
		}
	})
	metrics.RecordMutation("update_metadata", err)
	if err != nil {
		return domainprompt.Prompt{}, fmt.Errorf("update prompt metadata: %w", err)
	}
	s.publish(ctx, event.TypePromptMetadataUpdated, id)
	return updated, nil
}

func (s *Service) mutate(ctx context.Context, id string, apply func(p *domainprompt.Prompt)) (domainprompt.Prompt, error) {
	var out domainprompt.Prompt
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		apply(&p)
		p.UpdatedAt = s.now()
		if err := s.repo.Save(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.withLock(ctx, id, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
	metrics.RecordMutation("delete", err)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}

	slog.InfoContext(ctx, "prompt deleted", "id", id)
	s.publish(ctx, event.TypePromptDeleted, id)
	return nil
}

// Expand expands the persisted content of id.
func (s *Service) Expand(ctx context.Context, id string) (inclusion.Result, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return inclusion.Result{}, fmt.Errorf("expand prompt: %w", err)
	}
	return s.expand(ctx, expansion.Request{Content: p.Content, Directory: p.Directory, OwnID: p.ID})
}

// ExpandContent expands arbitrary content as though it belonged to ownID. An
// empty directory defaults to ownID's directory.
func (s *Service) ExpandContent(ctx context.Context, content, directory, ownID string) (inclusion.Result, error) {
	if directory == "" && ownID != "" {
		if p, err := s.repo.Get(ctx, ownID); err == nil {
			directory = p.Directory
		}
	}
	return s.expand(ctx, expansion.Request{Content: content, Directory: directory, OwnID: ownID})
}

func (s *Service) expand(ctx context.Context, req expansion.Request) (inclusion.Result, error) {
	res, err := s.engine.Expand(ctx, req)
	kinds := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		kinds[i] = string(w.Kind)
	}
	metrics.RecordExpansion(kinds, err)
	if err != nil {
		return inclusion.Result{}, fmt.Errorf("expand content: %w", err)
	}
	return res, nil
}

// LoadDirectories indexes every enabled directory in configuration order.
// A directory that cannot be listed is logged and skipped. All roots claim
// their namespaces before the first scan, so sub-directories found while
// scanning never take a root's namespace and ids survive a restart.
func (s *Service) LoadDirectories(ctx context.Context, dirs []domainprompt.Directory) (int, error) {
	for _, d := range dirs {
		if d.Enabled {
			s.repo.RegisterDirectory(d.Path)
		}
	}

	total := 0
	for _, d := range dirs {
		if !d.Enabled {
			slog.DebugContext(ctx, "skipping disabled prompt directory", "path", d.Path, "name", d.Name)
			continue
		}
		n, err := s.repo.LoadDirectory(ctx, d.Path)
		if err != nil {
			if ctx.Err() != nil {
				return total, fmt.Errorf("load prompt directories: %w", ctx.Err())
			}
			slog.WarnContext(ctx, "failed to load prompt directory", "path", d.Path, "name", d.Name, "error", err)
			continue
		}
		slog.InfoContext(ctx, "loaded prompt directory", "path", d.Path, "name", d.Name, "count", n)
		total += n
	}
	return total, nil
}

// RefreshFile re-reads one file changed outside the server and announces what changed.
func (s *Service) RefreshFile(ctx context.Context, path string) error {
	return s.refresh(ctx, path, true)
}

// Sync applies a change announced by another process sharing the prompt
// directories. Events from this process are already reflected in the index.
func (s *Service) Sync(ctx context.Context, e event.Event) {
	if e.Instance == s.instance {
		return
	}
	path, err := s.repo.PathFor(e.PromptID)
	if err != nil {
		slog.DebugContext(ctx, "cannot locate prompt from peer event", "id", e.PromptID, "error", err)
		return
	}
	if err := s.refresh(ctx, path, false); err != nil {
		slog.WarnContext(ctx, "failed to sync prompt from peer event", "id", e.PromptID, "path", path, "error", err)
	}
}

func (s *Service) refresh(ctx context.Context, path string, announce bool) error {
	dir := filepath.Dir(path)
	name := strings.TrimSuffix(filepath.Base(path), domainprompt.Extension)
	id, err := s.repo.IDFor(dir, name)
	if err != nil {
		// Not a prompt file name; nothing to index.
		return nil
	}

	var (
		p      domainprompt.Prompt
		change portprompt.Change
	)
	err = s.withLock(ctx, id, func(ctx context.Context) error {
		var err error
		p, change, err = s.repo.RefreshPath(ctx, path)
		return err
	})
	if !change.Changed() && err == nil {
		return nil
	}
	metrics.RecordMutation("refresh", err)
	if err != nil {
		return fmt.Errorf("refresh prompt file: %w", err)
	}

	slog.InfoContext(ctx, "prompt file changed", "id", p.ID, "path", path,
		"created", change.Created, "deleted", change.Deleted, "content", change.Content, "metadata", change.Metadata)
	if !announce {
		return nil
	}
	switch {
	case change.Created:
		s.publish(ctx, event.TypePromptCreated, p.ID)
	case change.Deleted:
		s.publish(ctx, event.TypePromptDeleted, p.ID)
	default:
		if change.Content {
			s.publish(ctx, event.TypePromptUpdated, p.ID)
		}
		if change.Metadata {
			s.publish(ctx, event.TypePromptMetadataUpdated, p.ID)
		}
	}
	return nil
}

func (s *Service) withLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	return s.locker.WithLock(ctx, LockKey(id), fn)
}

// LockKey maps a prompt id onto the integer key space of the locker.
func LockKey(id string) int64 {
	return int64(xxhash.Sum64String("prompt:" + id))
}

func (s *Service) publish(ctx context.Context, t event.Type, id string) {
	e := event.New(t, id)
	e.Instance = s.instance
	e.Session = event.SessionFrom(ctx)
	if err := s.bus.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to publish prompt event", "type", string(t), "id", id, "error", err)
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
