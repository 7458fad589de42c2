package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/s3nav/internal/api"
	"github.com/koustreak/s3nav/internal/awsfiles"
	"github.com/koustreak/s3nav/internal/browser"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/filestore/memstore"
	"github.com/koustreak/s3nav/internal/profile"
)

func newTestServer(t *testing.T) (http.Handler, *memstore.Store) {
	t.Helper()

	dir := t.TempDir()
	paths := awsfiles.Paths{
		Credentials: filepath.Join(dir, "credentials"),
		Config:      filepath.Join(dir, "config"),
	}
	require.NoError(t, os.WriteFile(paths.Credentials, []byte("[default]\naws_access_key_id = AKIA\naws_secret_access_key = s\n"), 0o600))
	require.NoError(t, os.WriteFile(paths.Config, []byte("[default]\nregion = us-west-2\n"), 0o600))

	mem := memstore.New()
	profiles := profile.NewStore(profile.NewResolver(paths, nil), nil)
	client := browser.New(profiles, browser.DialFunc(func(context.Context, browser.Target) (filestore.Store, error) {
		return mem, nil
	}))
	srv := New(Config{AllowedOrigins: []string{"http://wails.localhost"}}, api.New(client, nil), nil)
	return srv.Router(), mem
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t)
	rec, out := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["success"])
}

func TestProfilesFlow(t *testing.T) {
	h, _ := newTestServer(t)

	_, out := do(t, h, http.MethodGet, "/api/profiles", "")
	require.Equal(t, true, out["success"])
	data := out["data"].(map[string]any)
	assert.Equal(t, "us-west-2", data["defaultRegion"])
	assert.Len(t, data["profiles"], 1)

	rec, out := do(t, h, http.MethodPut, "/api/profiles/active", `{"name":"ghost"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "invalid_credentials", out["code"])

	_, out = do(t, h, http.MethodPut, "/api/profiles/active", `{"name":"default"}`)
	assert.Equal(t, true, out["success"])

	_, out = do(t, h, http.MethodGet, "/api/profiles/default/validate", "")
	assert.Equal(t, true, out["data"].(map[string]any)["valid"])

	_, out = do(t, h, http.MethodDelete, "/api/profiles/active", "")
	assert.Equal(t, true, out["success"])
	_, out = do(t, h, http.MethodGet, "/api/profiles/active", "")
	assert.Equal(t, false, out["success"])
}

func TestObjectRoutes(t *testing.T) {
	h, mem := newTestServer(t)
	mem.Seed("photos", "2024/", nil)
	mem.Seed("photos", "2024/cat.jpg", []byte("meow"))
	mem.Seed("photos", "2024/dog.jpg", []byte("woof"))
	_, out := do(t, h, http.MethodPut, "/api/profiles/active", `{"name":"default"}`)
	require.Equal(t, true, out["success"])

	_, out = do(t, h, http.MethodGet, "/api/buckets", "")
	assert.Equal(t, "photos", out["data"].([]any)[0].(map[string]any)["name"])

	_, out = do(t, h, http.MethodGet, "/api/buckets/photos/objects?prefix=2024/&maxKeys=2", "")
	page := out["data"].(map[string]any)
	assert.Equal(t, true, page["isTruncated"])
	assert.Len(t, page["files"], 1)

	_, out = do(t, h, http.MethodGet, "/api/buckets/photos/objects/all?prefix=2024/", "")
	assert.Len(t, out["data"].(map[string]any)["files"], 2)

	_, out = do(t, h, http.MethodPost, "/api/buckets/photos/rename", `{"from":"2024/dog.jpg","to":"2024/puppy.jpg"}`)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, []string{"2024/", "2024/cat.jpg", "2024/puppy.jpg"}, mem.Keys("photos"))

	_, out = do(t, h, http.MethodGet, "/api/buckets/photos/metadata?key=2024/cat.jpg", "")
	assert.EqualValues(t, 4, out["data"].(map[string]any)["size"])

	_, out = do(t, h, http.MethodPut, "/api/buckets/photos/text?key=notes.txt.gz", `{"content":"hello"}`)
	assert.Equal(t, true, out["success"])
	_, out = do(t, h, http.MethodGet, "/api/buckets/photos/text?key=notes.txt.gz", "")
	assert.Equal(t, "hello", out["data"])

	_, out = do(t, h, http.MethodDelete, "/api/buckets/photos/prefix?prefix=2024/", "")
	outcome := out["data"].(map[string]any)
	assert.EqualValues(t, 2, outcome["deletedCount"])
	assert.Equal(t, true, outcome["success"])
	assert.Equal(t, []string{"notes.txt.gz"}, mem.Keys("photos"))
}

func TestParseRoute(t *testing.T) {
	h, _ := newTestServer(t)

	_, out := do(t, h, http.MethodGet, "/api/parse?url=s3://b/k/x.txt", "")
	assert.Equal(t, map[string]any{"bucket": "b", "key": "k/x.txt"}, out["data"])

	_, out = do(t, h, http.MethodGet, "/api/parse?url=gs://b/k", "")
	assert.Equal(t, false, out["success"])
}

func TestBadRequests(t *testing.T) {
	h, _ := newTestServer(t)

	rec, out := do(t, h, http.MethodPut, "/api/profiles/active", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, out["success"])

	rec, _ = do(t, h, http.MethodGet, "/api/buckets/b/objects?maxKeys=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodDelete, "/api/buckets/b/prefix", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/copy", `{"source":{"bucket":"b"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/buckets", nil)
	req.Header.Set("Origin", "http://wails.localhost")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://wails.localhost", rec.Header().Get("Access-Control-Allow-Origin"))
}
