package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/reasoningbank/embedder"
	"github.com/w-h-a/reasoningbank/embedder/hash"
	"github.com/w-h-a/reasoningbank/extractor"
	"github.com/w-h-a/reasoningbank/generator"
	"github.com/w-h-a/reasoningbank/internal/service/engine"
	"github.com/w-h-a/reasoningbank/server"
	"github.com/w-h-a/reasoningbank/storer"
	"github.com/w-h-a/reasoningbank/storer/file"
	"github.com/w-h-a/reasoningbank/strategy/hybrid"
	"github.com/w-h-a/reasoningbank/task"
	memorytools "github.com/w-h-a/reasoningbank/tool_handler/memory_tools"
)

const oneMemory = `{"memories": [{"title": "Open settings before searching", "description": "Account changes", "content": "Account changes live under the settings page; go there first.", "confidence": 0.7}]}`

type replyGenerator string

func (g replyGenerator) Generate(context.Context, string, ...generator.GenerateOption) (string, error) {
	return string(g), nil
}

func newTestServer(t *testing.T, opts ...server.Option) *httptest.Server {
	t.Helper()

	store, err := file.NewStorer(storer.WithLocation(t.TempDir()))
	require.NoError(t, err)

	embed := hash.NewEmbedder(embedder.WithDimensions(32))

	extract, err := extractor.NewExtractor(
		extractor.WithGenerator(replyGenerator(oneMemory)),
		extractor.WithEmbedder(embed),
		extractor.WithStorer(store),
	)
	require.NoError(t, err)

	svc := engine.New(store, embed, hybrid.NewStrategy(), extract, task.NewRegistry())

	opts = append([]server.Option{
		server.WithToolHandlers(memorytools.NewToolHandlers(memorytools.WithEngine(svc))...),
	}, opts...)

	s := NewServer(opts...).(*httpServer)
	ts := httptest.NewServer(s.handler)

	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		svc.Close(ctx)
		store.Close()
	})

	return ts
}

func do(t *testing.T, method, url, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)

	rsp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer rsp.Body.Close()

	doc := map[string]any{}
	require.NoError(t, json.NewDecoder(rsp.Body).Decode(&doc))

	return rsp.StatusCode, doc
}

const extractBody = `{
	"trajectory": [
		{"step": 1, "role": "user", "content": "change my email address"},
		{"step": 2, "role": "assistant", "content": "opening settings"},
		{"step": 3, "role": "tool", "content": "settings page loaded"},
		{"step": 4, "role": "assistant", "content": "email updated"}
	],
	"query": "change my email address",
	"success_signal": true,
	"agent_id": "alice"
}`

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	code, doc := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", doc["status"])
}

func TestListTools(t *testing.T) {
	ts := newTestServer(t, server.WithVersion("1.2.3"))

	code, doc := do(t, http.MethodGet, ts.URL+"/api/v1/tools", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1.2.3", doc["version"])
	assert.Len(t, doc["tools"], 4)
}

func TestExtractAsyncThenPoll(t *testing.T) {
	ts := newTestServer(t)

	code, doc := do(t, http.MethodPost, ts.URL+"/api/v1/memories/extract", extractBody)
	require.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, "processing", doc["status"])

	taskId, _ := doc["task_id"].(string)
	require.NotEmpty(t, taskId)

	var state string
	deadline := time.Now().Add(5 * time.Second)
	for state != "completed" && state != "failed" {
		require.True(t, time.Now().Before(deadline), "task never finished")
		time.Sleep(10 * time.Millisecond)

		code, doc := do(t, http.MethodGet, ts.URL+"/api/v1/tasks/"+taskId, "")
		require.Equal(t, http.StatusOK, code)
		state, _ = doc["state"].(string)
	}
	assert.Equal(t, "completed", state)

	code, doc = do(t, http.MethodPost, ts.URL+"/api/v1/memories/retrieve", `{"query": "update account email", "agent_id": "alice"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", doc["status"])
	assert.Len(t, doc["memories"], 1)
	assert.Contains(t, doc["formatted_prompt"], "Open settings before searching")

	code, doc = do(t, http.MethodGet, ts.URL+"/api/v1/stats?agent_id=alice", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, doc["total"])
	assert.Equal(t, 1.0, doc["success"])
}

func TestCallToolByName(t *testing.T) {
	ts := newTestServer(t)

	code, doc := do(t, http.MethodPost, ts.URL+"/api/v1/tools/extract_memory",
		strings.Replace(extractBody, `"agent_id": "alice"`, `"agent_id": "alice", "async_mode": false`, 1))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", doc["status"])
	assert.NotEmpty(t, doc["memory_id"])
}

func TestErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "unknown tool", method: http.MethodPost, path: "/api/v1/tools/nope", body: `{}`, want: http.StatusNotFound},
		{name: "malformed body", method: http.MethodPost, path: "/api/v1/memories/retrieve", body: `[1, 2`, want: http.StatusBadRequest},
		{name: "missing query", method: http.MethodPost, path: "/api/v1/memories/retrieve", body: `{}`, want: http.StatusBadRequest},
		{name: "empty trajectory", method: http.MethodPost, path: "/api/v1/memories/extract", body: `{"trajectory": [], "query": "q"}`, want: http.StatusBadRequest},
		{name: "unknown task", method: http.MethodGet, path: "/api/v1/tasks/extract_missing", want: http.StatusNotFound},
		{name: "bad stats flag", method: http.MethodGet, path: "/api/v1/stats?all=maybe", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, doc := do(t, tt.method, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.want, code)
			assert.Equal(t, "error", doc["status"])
			assert.NotEmpty(t, doc["message"])
		})
	}
}

func TestOversizedBody(t *testing.T) {
	ts := newTestServer(t)

	body := `{"query": "` + strings.Repeat("a", maxBodyBytes) + `"}`

	code, doc := do(t, http.MethodPost, ts.URL+"/api/v1/memories/retrieve", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, "error", doc["status"])
	assert.Contains(t, doc["message"], "body exceeds")
}

func TestMiddleware(t *testing.T) {
	var mtx sync.Mutex
	var seen []string

	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mtx.Lock()
				seen = append(seen, name)
				mtx.Unlock()
				next.ServeHTTP(w, r)
			})
		}
	}

	ts := newTestServer(t, WithMiddleware(mark("outer"), mark("inner")))

	code, _ := do(t, http.MethodGet, ts.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	mtx.Lock()
	defer mtx.Unlock()
	assert.Equal(t, []string{"outer", "inner"}, seen)
}
