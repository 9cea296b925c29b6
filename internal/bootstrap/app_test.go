package bootstrap

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resume-builder/internal/shared/config"
)

func devConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Env:                "dev",
		ObjectStoreType:    "local",
		LocalStoreDir:      t.TempDir(),
		MarkupCacheTTL:     time.Hour,
		SessionTTL:         time.Hour,
		LLMModels:          []string{"gpt-5"},
		LLMDefaultProvider: "openai",
	}
}

func TestBuildDevUsesInMemoryDependencies(t *testing.T) {
	app, err := Build(devConfig(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer app.Close()

	if app.DB != nil || app.Redis != nil || app.Events != nil {
		t.Fatalf("expected in-memory dependencies, got %+v", app)
	}

	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", resp.Code)
	}

	body, _ := json.Marshal(map[string]any{"telegramId": 5, "name": "Ivan"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected user created, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected metrics, got %d", resp.Code)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := devConfig(t)
	cfg.Env = "production"
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
}

func TestBuildReadsInstructionsFile(t *testing.T) {
	cfg := devConfig(t)
	path := filepath.Join(t.TempDir(), "instructions.yaml")
	if err := os.WriteFile(path, []byte("creator: only creator\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg.InstructionsFile = path
	if _, err := Build(cfg); err == nil {
		t.Fatalf("expected incomplete instructions to be rejected")
	}
}
