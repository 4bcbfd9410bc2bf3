package filestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanyang/prompt-mesh/internal/adapter/filestore"
	"github.com/alanyang/prompt-mesh/internal/adapter/osfs"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	"github.com/alanyang/prompt-mesh/internal/mocks"
)

func newRepo() *filestore.Repository {
	return filestore.New(osfs.New(domainprompt.Extension), domainprompt.NewNamespaces())
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func newPrompt(t *testing.T, r *filestore.Repository, dir, name, content string) domainprompt.Prompt {
	t.Helper()
	id, err := r.IDFor(dir, name)
	require.NoError(t, err)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return domainprompt.Prompt{
		ID: id, Name: name, Directory: dir, Content: content,
		Tags: []string{}, CreatedAt: now, UpdatedAt: now,
	}
}

// ── Save / Get / Delete ──────────────────────────────────────────────────────

func TestSave_WritesFileAndIndexes(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "general")
	r := newRepo()

	p := newPrompt(t, r, dir, "greeting", "Hello [[name]]")
	p.Description = "says hello"
	p.Tags = []string{"demo"}
	require.NoError(t, r.Save(ctx, p))

	data, err := os.ReadFile(filepath.Join(dir, "greeting.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "description: says hello")
	assert.Contains(t, string(data), "Hello [[name]]")

	got, err := r.Get(ctx, "general/greeting")
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.True(t, got.IsComposite())
}

func TestGet_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := newRepo()
	p := newPrompt(t, r, filepath.Join(t.TempDir(), "general"), "a", "x")
	p.Tags = []string{"one"}
	require.NoError(t, r.Save(ctx, p))

	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	got.Tags[0] = "mutated"

	again, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, again.Tags)
}

func TestGet_NotFound(t *testing.T) {
	_, err := newRepo().Get(context.Background(), "general/missing")
	assert.ErrorIs(t, err, domainprompt.ErrNotFound)
}

func TestSave_RequiresID(t *testing.T) {
	err := newRepo().Save(context.Background(), domainprompt.Prompt{Name: "x", Directory: t.TempDir()})
	assert.True(t, domainprompt.IsValidation(err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "general")
	r := newRepo()
	p := newPrompt(t, r, dir, "gone", "bye")
	require.NoError(t, r.Save(ctx, p))

	require.NoError(t, r.Delete(ctx, p.ID))
	_, err := os.Stat(filepath.Join(dir, "gone.md"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = r.Get(ctx, p.ID)
	assert.ErrorIs(t, err, domainprompt.ErrNotFound)

	assert.ErrorIs(t, r.Delete(ctx, p.ID), domainprompt.ErrNotFound)
}

func TestSave_PersistenceFailureLeavesIndexUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockFileSystem(ctrl)
	r := filestore.New(fsys, domainprompt.NewNamespaces())

	fsys.EXPECT().Write("/data/general/p.md", gomock.Any()).Return(errors.New("disk full"))

	p := newPrompt(t, r, "/data/general", "p", "content")
	err := r.Save(context.Background(), p)
	require.Error(t, err)
	assert.True(t, domainprompt.IsPersistence(err))
	assert.Equal(t, 0, r.Len())
}

func TestDelete_PersistenceFailureKeepsPrompt(t *testing.T) {
	ctrl := gomock.NewController(t)
	fsys := mocks.NewMockFileSystem(ctrl)
	r := filestore.New(fsys, domainprompt.NewNamespaces())
	ctx := context.Background()

	fsys.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil)
	fsys.EXPECT().Delete("/data/general/p.md").Return(errors.New("read-only filesystem"))

	p := newPrompt(t, r, "/data/general", "p", "content")
	require.NoError(t, r.Save(ctx, p))

	err := r.Delete(ctx, p.ID)
	assert.True(t, domainprompt.IsPersistence(err))
	_, err = r.Get(ctx, p.ID)
	assert.NoError(t, err)
}

// ── Identifiers ──────────────────────────────────────────────────────────────

func TestIDFor(t *testing.T) {
	r := newRepo()
	root := t.TempDir()

	id, err := r.IDFor(filepath.Join(root, "general", "prompts"), "restart")
	require.NoError(t, err)
	assert.Equal(t, "general/restart", id)

	other, err := r.IDFor(filepath.Join(root, "other", "general"), "restart")
	require.NoError(t, err)
	assert.NotEqual(t, id, other, "colliding namespaces are disambiguated")
	assert.Regexp(t, `^general-[0-9a-f]{6}/restart$`, other)

	_, err = r.IDFor(root, "bad name")
	assert.True(t, domainprompt.IsValidation(err))
	_, err = r.IDFor("  ", "ok")
	assert.True(t, domainprompt.IsValidation(err))
}

func TestPathFor(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "general")
	r := newRepo()
	p := newPrompt(t, r, dir, "indexed", "x")
	require.NoError(t, r.Save(ctx, p))

	path, err := r.PathFor(p.ID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "indexed.md"), path)

	path, err = r.PathFor("general/not-yet")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "not-yet.md"), path)

	_, err = r.PathFor("unknown-ns/x")
	assert.ErrorIs(t, err, domainprompt.ErrNotFound)
}

// ── Queries ─────────────────────────────────────────────────────────────────

func TestFindByNameAndList(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	general := filepath.Join(root, "general")
	specific := filepath.Join(root, "specific")
	r := newRepo()

	a := newPrompt(t, r, general, "restart", "Restart the service")
	a.Tags = []string{"ops"}
	b := newPrompt(t, r, specific, "restart", "Restart [[common]]")
	b.Description = "Composite restart"
	c := newPrompt(t, r, general, "common", "shared")
	for _, p := range []domainprompt.Prompt{a, b, c} {
		require.NoError(t, r.Save(ctx, p))
	}

	found, err := r.FindByName(ctx, "restart")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "general/restart", found[0].ID)
	assert.Equal(t, "specific/restart", found[1].ID)

	none, err := r.FindByName(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, none)

	tests := []struct {
		name    string
		filters domainprompt.ListFilters
		want    []string
	}{
		{"all", domainprompt.ListFilters{}, []string{"general/common", "general/restart", "specific/restart"}},
		{"directory", domainprompt.ListFilters{Directory: general}, []string{"general/common", "general/restart"}},
		{"tag", domainprompt.ListFilters{Tag: "ops"}, []string{"general/restart"}},
		{"composite", domainprompt.ListFilters{CompositeOnly: true}, []string{"specific/restart"}},
		{"search content", domainprompt.ListFilters{Search: "SHARED"}, []string{"general/common"}},
		{"search description", domainprompt.ListFilters{Search: "composite"}, []string{"specific/restart"}},
		{"search id", domainprompt.ListFilters{Search: "specific/"}, []string{"specific/restart"}},
		{"combined", domainprompt.ListFilters{Directory: general, Search: "restart"}, []string{"general/restart"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.List(ctx, tc.filters)
			require.NoError(t, err)
			ids := make([]string, len(got))
			for i, p := range got {
				ids[i] = p.ID
			}
			assert.Equal(t, tc.want, ids)
		})
	}
}

// ── Loading ──────────────────────────────────────────────────────────────────

func TestLoadDirectory(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "team", "prompts")
	writeFile(t, filepath.Join(dir, "plain.md"), "# Plain\n")
	writeFile(t, filepath.Join(dir, "meta.md"), "---\ndescription: with meta\ntags: [a]\ncreated_at: 2024-01-02T03:04:05Z\n---\n\nBody [[plain]]")
	writeFile(t, filepath.Join(dir, "nested", "deep.md"), "deep")
	writeFile(t, filepath.Join(dir, "broken.md"), "---\ntags: [oops\n---\n")
	writeFile(t, filepath.Join(dir, "bad name.md"), "invalid name")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, ".hidden.md"), "ignored")
	writeFile(t, filepath.Join(dir, ".git", "x.md"), "ignored")

	r := newRepo()
	n, err := r.LoadDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	meta, err := r.Get(ctx, "team/meta")
	require.NoError(t, err)
	assert.Equal(t, "with meta", meta.Description)
	assert.Equal(t, []string{"a"}, meta.Tags)
	assert.Equal(t, "Body [[plain]]", meta.Content)
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(meta.CreatedAt))

	plain, err := r.Get(ctx, "team/plain")
	require.NoError(t, err)
	assert.Equal(t, []string{}, plain.Tags)
	assert.False(t, plain.CreatedAt.IsZero())

	deep, err := r.Get(ctx, "nested/deep")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nested"), deep.Directory)
}

func TestLoadDirectory_Missing(t *testing.T) {
	_, err := newRepo().LoadDirectory(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.True(t, domainprompt.IsPersistence(err))
}

func TestLoadDirectory_Idempotent(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "general")
	writeFile(t, filepath.Join(dir, "a.md"), "a")

	r := newRepo()
	_, err := r.LoadDirectory(ctx, dir)
	require.NoError(t, err)
	n, err := r.LoadDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Len())
}

// ── Refresh ─────────────────────────────────────────────────────────────────

func TestRefreshPath(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "general")
	path := filepath.Join(dir, "p.md")
	r := newRepo()
	_, err := r.IDFor(dir, "p")
	require.NoError(t, err)

	// Created on disk behind our back.
	writeFile(t, path, "v1")
	p, change, err := r.RefreshPath(ctx, path)
	require.NoError(t, err)
	assert.True(t, change.Created)
	assert.Equal(t, "general/p", p.ID)
	createdAt := p.CreatedAt

	// Unchanged file reports nothing.
	_, change, err = r.RefreshPath(ctx, path)
	require.NoError(t, err)
	assert.False(t, change.Changed())

	// Content edit keeps the creation time of a file without created_at.
	writeFile(t, path, "v2")
	p, change, err = r.RefreshPath(ctx, path)
	require.NoError(t, err)
	assert.True(t, change.Content)
	assert.False(t, change.Metadata)
	assert.Equal(t, "v2", p.Content)
	assert.Equal(t, createdAt, p.CreatedAt)

	// Metadata edit.
	writeFile(t, path, "---\ndescription: now described\n---\n\nv2")
	_, change, err = r.RefreshPath(ctx, path)
	require.NoError(t, err)
	assert.False(t, change.Content)
	assert.True(t, change.Metadata)

	// Removed.
	require.NoError(t, os.Remove(path))
	p, change, err = r.RefreshPath(ctx, path)
	require.NoError(t, err)
	assert.True(t, change.Deleted)
	assert.Equal(t, "general/p", p.ID)
	_, err = r.Get(ctx, "general/p")
	assert.ErrorIs(t, err, domainprompt.ErrNotFound)

	// Removing an unknown file is a no-op.
	_, change, err = r.RefreshPath(ctx, path)
	require.NoError(t, err)
	assert.False(t, change.Changed())
}

func TestRefreshPath_IgnoresNonPromptFiles(t *testing.T) {
	dir := t.TempDir()
	r := newRepo()
	for _, name := range []string{"notes.txt", ".p.md.tmp-123", ".hidden.md"} {
		path := filepath.Join(dir, name)
		writeFile(t, path, "x")
		_, change, err := r.RefreshPath(context.Background(), path)
		require.NoError(t, err)
		assert.False(t, change.Changed(), name)
	}
	assert.Equal(t, 0, r.Len())
}

func TestRefreshPath_OwnWriteIsNoChange(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "general")
	r := newRepo()
	p := newPrompt(t, r, dir, "mine", "content")
	require.NoError(t, r.Save(ctx, p))

	_, change, err := r.RefreshPath(ctx, p.Path())
	require.NoError(t, err)
	assert.False(t, change.Changed())
}
