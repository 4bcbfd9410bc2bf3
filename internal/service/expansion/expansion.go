// Package expansion resolves [[reference]] markers in prompt content,
// recursively splicing in the referenced prompts.
//
// Problems in the content graph (missing, cyclic or ambiguous references, and
// chains deeper than the configured limit) are reported as warnings in the
// result and never abort an expansion. Only infrastructure failures and an
// unknown root prompt are returned as errors.
package expansion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alanyang/prompt-mesh/internal/domain/inclusion"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	portprompt "github.com/alanyang/prompt-mesh/internal/port/prompt"
)

// DefaultMaxDepth bounds how many levels of nested inclusions are expanded.
const DefaultMaxDepth = 10

// ErrUnknownRoot is returned when the prompt whose content is being expanded
// is named but not present in the repository.
var ErrUnknownRoot = errors.New("expansion root not found")

// Request describes one expansion. Directory is the context used to prefer
// local prompts when a bare name matches in several directories. OwnID names
// the prompt that Content belongs to and may be empty for ad-hoc content.
type Request struct {
	Content   string
	Directory string
	OwnID     string
	// Visited seeds the set of ids already being expanded by the caller.
	Visited []string
}

type Engine struct {
	lookup   portprompt.Lookup
	maxDepth int
}

type Option func(*Engine)

// WithMaxDepth overrides DefaultMaxDepth. Values below one are ignored.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

func NewEngine(lookup portprompt.Lookup, opts ...Option) *Engine {
	e := &Engine{lookup: lookup, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured nesting limit.
func (e *Engine) MaxDepth() int { return e.maxDepth }

type expansion struct {
	deps     map[string]struct{}
	warnings []inclusion.Warning
}

func (x *expansion) warn(ctx context.Context, kind inclusion.WarningKind, token, msg string) {
	slog.DebugContext(ctx, "inclusion warning", "kind", string(kind), "token", token, "message", msg)
	x.warnings = append(x.warnings, inclusion.Warning{Kind: kind, Token: token, Message: msg})
}

// Expand returns req.Content with every resolvable marker replaced by the
// expanded content of the prompt it names. Content without markers comes back
// unchanged with no dependencies and no warnings.
func (e *Engine) Expand(ctx context.Context, req Request) (inclusion.Result, error) {
	if req.OwnID != "" {
		if _, err := e.lookup.Get(ctx, req.OwnID); err != nil {
			if errors.Is(err, domainprompt.ErrNotFound) {
				return inclusion.Result{}, fmt.Errorf("expand %q: %w", req.OwnID, ErrUnknownRoot)
			}
			return inclusion.Result{}, fmt.Errorf("expand %q: %w", req.OwnID, err)
		}
	}

	visited := make(map[string]bool, len(req.Visited)+1)
	for _, id := range req.Visited {
		visited[id] = true
	}

	x := &expansion{deps: make(map[string]struct{})}
	out, err := e.expand(ctx, x, req.Content, req.Directory, req.OwnID, visited, 0)
	if err != nil {
		return inclusion.Result{}, err
	}

	deps := make([]string, 0, len(x.deps))
	for id := range x.deps {
		deps = append(deps, id)
	}
	sort.Strings(deps)

	warnings := x.warnings
	if warnings == nil {
		warnings = []inclusion.Warning{}
	}
	return inclusion.Result{Expanded: out, Dependencies: deps, Warnings: warnings}, nil
}

func (e *Engine) expand(ctx context.Context, x *expansion, content, directory, ownID string, visited map[string]bool, depth int) (string, error) {
	if !inclusion.HasReferences(content) {
		return content, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if depth > e.maxDepth {
		x.warn(ctx, inclusion.WarningMaxDepth, ownID,
			fmt.Sprintf("Maximum inclusion depth (%d) reached, stopping recursion", e.maxDepth))
		return content, nil
	}

	if ownID != "" && !visited[ownID] {
		visited[ownID] = true
		defer delete(visited, ownID)
	}

	var b strings.Builder
	b.Grow(len(content))
	for _, seg := range inclusion.Parse(content) {
		if seg.Kind == inclusion.Literal {
			b.WriteString(seg.Raw)
			continue
		}

		res, target, err := e.resolve(ctx, seg.Token, directory)
		if err != nil {
			return "", err
		}

		switch res.Kind {
		case inclusion.NotFound:
			x.warn(ctx, inclusion.WarningNotFound, seg.Token,
				fmt.Sprintf("Prompt not found: '%s'", seg.Token))
			b.WriteString(inclusion.NotFoundPlaceholder(seg.Token))

		case inclusion.Ambiguous:
			dirs := make([]string, len(res.Candidates))
			for i, c := range res.Candidates {
				dirs[i] = c.Directory
			}
			x.warn(ctx, inclusion.WarningAmbiguous, seg.Token,
				fmt.Sprintf("Ambiguous reference '%s': matches prompts in %s", seg.Token, strings.Join(dirs, ", ")))
			b.WriteString(seg.Raw)

		case inclusion.Resolved:
			if visited[res.ID] {
				x.warn(ctx, inclusion.WarningCycle, seg.Token,
					fmt.Sprintf("Circular dependency detected: '%s' has already been included in this expansion chain", res.ID))
				b.WriteString(inclusion.CyclePlaceholder(res.ID))
				continue
			}
			x.deps[res.ID] = struct{}{}
			sub, err := e.expand(ctx, x, target.Content, target.Directory, target.ID, visited, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(sub)
		}
	}
	return b.String(), nil
}

// Resolve maps a normalized token to a prompt id. A token containing "/" is a
// literal id. A bare name prefers the single match in directory, then the
// single match anywhere; several matches elsewhere are ambiguous. A bare name
// with no name match falls back to a legacy id lookup.
func (e *Engine) Resolve(ctx context.Context, token, directory string) (inclusion.Resolution, error) {
	res, _, err := e.resolve(ctx, token, directory)
	return res, err
}

func (e *Engine) resolve(ctx context.Context, token, directory string) (inclusion.Resolution, domainprompt.Prompt, error) {
	if strings.Contains(token, "/") {
		return e.byID(ctx, token)
	}

	matches, err := e.lookup.FindByName(ctx, token)
	if err != nil {
		return inclusion.Resolution{}, domainprompt.Prompt{}, fmt.Errorf("find prompts named %q: %w", token, err)
	}

	if directory != "" {
		dir := filepath.Clean(directory)
		var local []domainprompt.Prompt
		for _, p := range matches {
			if p.Directory == dir {
				local = append(local, p)
			}
		}
		if len(local) == 1 {
			return resolved(local[0])
		}
		if len(local) > 1 {
			return ambiguous(local)
		}
	}

	switch len(matches) {
	case 0:
		return e.byID(ctx, token)
	case 1:
		return resolved(matches[0])
	default:
		return ambiguous(matches)
	}
}

func (e *Engine) byID(ctx context.Context, id string) (inclusion.Resolution, domainprompt.Prompt, error) {
	p, err := e.lookup.Get(ctx, id)
	if errors.Is(err, domainprompt.ErrNotFound) {
		return inclusion.Resolution{Kind: inclusion.NotFound}, domainprompt.Prompt{}, nil
	}
	if err != nil {
		return inclusion.Resolution{}, domainprompt.Prompt{}, fmt.Errorf("get prompt %q: %w", id, err)
	}
	return resolved(p)
}

func resolved(p domainprompt.Prompt) (inclusion.Resolution, domainprompt.Prompt, error) {
	return inclusion.Resolution{Kind: inclusion.Resolved, ID: p.ID}, p, nil
}

func ambiguous(ps []domainprompt.Prompt) (inclusion.Resolution, domainprompt.Prompt, error) {
	cands := make([]inclusion.Candidate, len(ps))
	for i, p := range ps {
		cands[i] = inclusion.Candidate{ID: p.ID, Directory: p.Directory}
	}
	return inclusion.Resolution{Kind: inclusion.Ambiguous, Candidates: cands}, domainprompt.Prompt{}, nil
}
