package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kjxref/kjxref/internal/orchestrate"
)

func init() {
	gin.SetMode(gin.TestMode)
	gin.DefaultWriter = io.Discard
	gin.DefaultErrorWriter = io.Discard
}

func newTestEngine(t *testing.T) *orchestrate.Engine {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "Foo.kt")
	if err := os.WriteFile(path, []byte("package p\n\nclass Foo\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return orchestrate.New(orchestrate.Options{Root: root, WorkerCount: 1})
}

func TestHealthEndpoint(t *testing.T) {
	srv := New(newTestEngine(t), nil, nil)
	router := srv.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health = %d, want 200", rec.Code)
	}
}

func TestReindexEndpoint(t *testing.T) {
	srv := New(newTestEngine(t), nil, nil)
	router := srv.SetupRouter()

	req := httptest.NewRequest(http.MethodPost, "/reindex", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("POST /reindex = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp["files_indexed"].(float64) != 1 {
		t.Errorf("files_indexed = %v, want 1", resp["files_indexed"])
	}
}

func TestDefinitionEndpointRequiresSymbol(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv := New(engine, nil, nil)
	router := srv.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/definition", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("GET /definition without symbol = %d, want 400", rec.Code)
	}
}

func TestDefinitionEndpointFindsSymbol(t *testing.T) {
	engine := newTestEngine(t)
	if _, err := engine.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv := New(engine, nil, nil)
	router := srv.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/definition?symbol=Foo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /definition?symbol=Foo = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var hits []orchestrate.DefinitionHit
	if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(hits) != 1 || hits[0].FQN != "p.Foo" {
		t.Errorf("hits = %+v, want one hit for p.Foo", hits)
	}
}

func TestUsagesEndpointBeforeReindexReturnsError(t *testing.T) {
	srv := New(newTestEngine(t), nil, nil)
	router := srv.SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/usages?symbol=Foo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("GET /usages before reindex = %d, want 500 (index not built yet)", rec.Code)
	}
}
