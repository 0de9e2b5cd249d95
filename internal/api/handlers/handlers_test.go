package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homatabesh/homa-core/internal/actions"
	"github.com/homatabesh/homa-core/internal/api"
	"github.com/homatabesh/homa-core/internal/api/handlers"
	"github.com/homatabesh/homa-core/internal/authority"
	"github.com/homatabesh/homa-core/internal/config"
	"github.com/homatabesh/homa-core/internal/orchestrator"
	"github.com/homatabesh/homa-core/internal/store"
)

// echoStep succeeds and surfaces a message, enough to exercise the
// execution endpoint end to end.
type echoStep struct{}

func (s *echoStep) Kind() string             { return "echo" }
func (s *echoStep) RequiredParams() []string { return []string{"text"} }
func (s *echoStep) Execute(_ context.Context, params map[string]any, _ *orchestrator.ExecContext) (map[string]any, error) {
	return map[string]any{"message": params["text"].(string)}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s := store.NewMemoryStore()
	t.Cleanup(func() { s.Close() })

	knowledge := authority.NewStaticSource("general_knowledge", map[string]any{"store_hours": "9-17"})
	resolver := authority.NewResolver(s, nil, nil, knowledge)

	registry := orchestrator.NewRegistry()
	registry.Register(&echoStep{})
	orch := orchestrator.New(registry, s)
	parser := actions.NewParser(registry)

	h := handlers.New(resolver, orch, parser, s)
	srv := httptest.NewServer(api.NewRouter(&config.Config{Version: "test"}, h))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url string, body, out any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestGetFact(t *testing.T) {
	srv := newTestServer(t)

	var out map[string]any
	resp := getJSON(t, srv.URL+"/api/v1/facts/store_hours", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "9-17", out["value"])
}

func TestGetFact_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := getJSON(t, srv.URL+"/api/v1/facts/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOverrideLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Set an override that beats the knowledge value.
	resp := postJSON(t, srv.URL+"/api/v1/overrides", map[string]any{
		"key":    "store_hours",
		"value":  "closed",
		"reason": "public holiday",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fact map[string]any
	getJSON(t, srv.URL+"/api/v1/facts/store_hours", &fact)
	assert.Equal(t, "closed", fact["value"])

	var list struct {
		Overrides []map[string]any `json:"overrides"`
	}
	getJSON(t, srv.URL+"/api/v1/overrides?active=true", &list)
	require.Len(t, list.Overrides, 1)
	assert.Equal(t, "store_hours", list.Overrides[0]["key"])

	// Remove and fall back to the knowledge value.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/overrides/store_hours", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	getJSON(t, srv.URL+"/api/v1/facts/store_hours", &fact)
	assert.Equal(t, "9-17", fact["value"])
}

func TestSetOverride_RequiresReason(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/overrides", map[string]any{
		"key":   "store_hours",
		"value": "closed",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteActions_RawSteps(t *testing.T) {
	srv := newTestServer(t)

	var out map[string]any
	resp := postJSON(t, srv.URL+"/api/v1/actions/execute", map[string]any{
		"steps": []map[string]any{
			{"type": "echo", "params": map[string]any{"text": "hello"}},
		},
	}, &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "hello", out["message"])
}

func TestExecuteActions_AssistantPayloadDropsUnknown(t *testing.T) {
	srv := newTestServer(t)

	var out map[string]any
	resp := postJSON(t, srv.URL+"/api/v1/actions/execute", map[string]any{
		"response": "On it.",
		"actions": []map[string]any{
			{"type": "echo", "params": map[string]any{"text": "done"}},
			{"type": "unknown_kind", "params": map[string]any{}},
		},
	}, &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
}

func TestExecuteActions_FailureIsStructuredNotHTTPError(t *testing.T) {
	srv := newTestServer(t)

	// Missing required param fails validation, still HTTP 200.
	var out map[string]any
	resp := postJSON(t, srv.URL+"/api/v1/actions/execute", map[string]any{
		"steps": []map[string]any{
			{"type": "echo", "params": map[string]any{}},
		},
	}, &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], "text")
}

func TestExecuteActions_EmptyRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v1/actions/execute", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActionLogEndpoint(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv.URL+"/api/v1/actions/execute", map[string]any{
		"steps": []map[string]any{
			{"type": "echo", "params": map[string]any{"text": "logged"}},
		},
	}, nil)

	var out struct {
		Entries []map[string]any `json:"entries"`
	}
	resp := getJSON(t, srv.URL+"/api/v1/actions/log", &out)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, out.Entries, 1)
	assert.Equal(t, true, out.Entries[0]["success"])
}

func TestHealthAndVersion(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]string
	resp := getJSON(t, srv.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health["status"])

	var version map[string]string
	getJSON(t, srv.URL+"/version", &version)
	assert.Equal(t, "test", version["version"])
}
