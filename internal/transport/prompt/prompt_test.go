package prompt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prompt-mesh/internal/adapter/filestore"
	"github.com/alanyang/prompt-mesh/internal/adapter/memory"
	"github.com/alanyang/prompt-mesh/internal/adapter/osfs"
	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
	"github.com/alanyang/prompt-mesh/internal/service/expansion"
	promptsvc "github.com/alanyang/prompt-mesh/internal/service/prompt"
	transportprompt "github.com/alanyang/prompt-mesh/internal/transport/prompt"
)

func init() { gin.SetMode(gin.TestMode) }

type fixture struct {
	router *gin.Engine
	svc    *promptsvc.Service
	root   string
	dir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	repo := filestore.New(osfs.New(domainprompt.Extension), domainprompt.NewNamespaces())
	svc := promptsvc.NewService(repo, expansion.NewEngine(repo), memory.NewEventBus(), memory.NewLocker(), "test")

	r := gin.New()
	api := r.Group("/api")
	transportprompt.Register(api.Group("/prompts"), svc)
	transportprompt.RegisterExpand(api, svc)
	return &fixture{router: r, svc: svc, root: root, dir: filepath.Join(root, "general")}
}

func (f *fixture) create(t *testing.T, dir, name, content string) domainprompt.Prompt {
	t.Helper()
	p, err := f.svc.Create(context.Background(), promptsvc.CreateInput{Directory: dir, Name: name, Content: content})
	require.NoError(t, err)
	return p
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// ── GET /prompts ──────────────────────────────────────────────────────────────

func TestListPrompts(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.dir, "restart", "Restart")
	f.create(t, filepath.Join(f.root, "specific"), "restart", "Restart [[common]]")
	f.create(t, f.dir, "common", "shared")

	w := f.do(t, http.MethodGet, "/api/prompts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[[]map[string]any](t, w)
	require.Len(t, got, 3)
	assert.Equal(t, "general/common", got[0]["id"])
	assert.Equal(t, "common", got[0]["display_name"])
	assert.Equal(t, "general:restart", got[1]["display_name"])
	assert.Equal(t, "specific:restart", got[2]["display_name"])
	assert.Equal(t, true, got[2]["is_composite"])

	w = f.do(t, http.MethodGet, "/api/prompts?composite=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/prompts?search=SHARED", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = f.do(t, http.MethodGet, "/api/prompts?composite=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── POST /prompts ─────────────────────────────────────────────────────────────

func TestCreatePrompt(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
	}{
		{"created", map[string]any{"directory": "DIR", "name": "new", "content": "hi", "tags": []string{"a"}}, http.StatusCreated},
		{"default content", map[string]any{"directory": "DIR", "name": "blank"}, http.StatusCreated},
		{"missing name", map[string]any{"directory": "DIR"}, http.StatusBadRequest},
		{"invalid name", map[string]any{"directory": "DIR", "name": "bad name"}, http.StatusBadRequest},
		{"duplicate", map[string]any{"directory": "DIR", "name": "existing"}, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.create(t, f.dir, "existing", "x")
			if tc.body["directory"] == "DIR" {
				tc.body["directory"] = f.dir
			}

			w := f.do(t, http.MethodPost, "/api/prompts", tc.body)
			assert.Equal(t, tc.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestCreatePrompt_PersistsFile(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/api/prompts", map[string]any{"directory": f.dir, "name": "blank"})
	require.Equal(t, http.StatusCreated, w.Code)

	got := decode[map[string]any](t, w)
	assert.Equal(t, "general/blank", got["id"])
	assert.Equal(t, "# blank\n\nEnter content here...", got["content"])

	data, err := os.ReadFile(filepath.Join(f.dir, "blank.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Enter content here...")
}

// ── GET /prompts/:namespace/:name ─────────────────────────────────────────────

func TestGetPrompt(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.dir, "p", "body")

	w := f.do(t, http.MethodGet, "/api/prompts/general/p", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body", decode[map[string]any](t, w)["content"])

	w = f.do(t, http.MethodGet, "/api/prompts/general/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Single-segment routes look up bare ids.
	w = f.do(t, http.MethodGet, "/api/prompts/p", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ── PUT /prompts/:namespace/:name ─────────────────────────────────────────────

func TestUpdatePrompt(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.dir, "p", "v0")

	w := f.do(t, http.MethodPut, "/api/prompts/general/p", map[string]any{"content": "v1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", decode[map[string]any](t, w)["content"])

	w = f.do(t, http.MethodPut, "/api/prompts/general/p", map[string]any{"description": "d", "tags": []string{"x"}})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "v1", got["content"])
	assert.Equal(t, "d", got["description"])
	assert.Equal(t, []any{"x"}, got["tags"])

	w = f.do(t, http.MethodPut, "/api/prompts/general/p", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPut, "/api/prompts/general/ghost", map[string]any{"content": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ── DELETE /prompts/:namespace/:name ──────────────────────────────────────────

func TestDeletePrompt(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.dir, "p", "v0")

	w := f.do(t, http.MethodDelete, "/api/prompts/general/p", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, err := os.Stat(filepath.Join(f.dir, "p.md"))
	assert.True(t, os.IsNotExist(err))

	w = f.do(t, http.MethodDelete, "/api/prompts/general/p", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ── POST /expand ──────────────────────────────────────────────────────────────

func TestExpand(t *testing.T) {
	f := newFixture(t)
	common := f.create(t, f.dir, "common", "SHARED")
	composite := f.create(t, f.dir, "main", "Start [[common]] End")

	w := f.do(t, http.MethodPost, "/api/expand", map[string]any{"id": composite.ID})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "Start SHARED End", got["expanded"])
	assert.Equal(t, []any{common.ID}, got["dependencies"])
	assert.Equal(t, []any{}, got["warnings"])

	w = f.do(t, http.MethodPost, "/api/expand", map[string]any{"content": "[[missing]]", "directory": f.dir})
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[map[string]any](t, w)
	assert.Equal(t, "[ERROR: Prompt 'missing' not found]", got["expanded"])
	warnings := got["warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.Equal(t, "not_found", warnings[0].(map[string]any)["kind"])

	w = f.do(t, http.MethodPost, "/api/expand", map[string]any{"content": "x", "own_id": "general/ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/api/expand", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/expand", map[string]any{"id": "general/ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
