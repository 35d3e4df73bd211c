package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadProviders(t *testing.T) {
	path := writeFile(t, "providers.json", `{
		"providers": [
			{"name": "openai", "base_url": "https://api.openai.com/v1", "api_key_env": "TEST_PROVIDER_KEY", "model": "gpt-4o", "enabled": true},
			{"name": "local", "base_url": "http://localhost:11434/v1", "model": "llama3", "enabled": false}
		]
	}`)
	t.Setenv("TEST_PROVIDER_KEY", "sk-test-123")

	cfg, err := LoadProviders(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Providers) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(cfg.Providers))
	}
	if cfg.Providers[0].APIKey != "sk-test-123" {
		t.Errorf("api_key_env not resolved: %q", cfg.Providers[0].APIKey)
	}

	primary, ok := cfg.FirstEnabled()
	if !ok || primary.Name != "openai" {
		t.Errorf("first enabled should be openai, got %+v", primary)
	}
}

func TestLoadProvidersErrors(t *testing.T) {
	if _, err := LoadProviders(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}
	path := writeFile(t, "bad.json", `{providers:}`)
	if _, err := LoadProviders(path); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestLoadPageMap(t *testing.T) {
	path := writeFile(t, "pagemap.yaml", `
pages:
  - name: 캘린더
    path: /calendar
    features:
      - 일정 확인
      - 일정 추가
`)
	pm, err := LoadPageMap(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pm.Pages) != 1 || pm.Pages[0].Path != "/calendar" {
		t.Fatalf("unexpected page map: %+v", pm)
	}

	desc := pm.Describe()
	if !strings.Contains(desc, "캘린더 (/calendar)") || !strings.Contains(desc, "일정 추가") {
		t.Errorf("describe output missing content:\n%s", desc)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "3001" {
		t.Errorf("default port = %q", cfg.Port)
	}
	if cfg.MaxIterations != 10 || cfg.HistoryWindow != 10 {
		t.Errorf("agent defaults wrong: %d, %d", cfg.MaxIterations, cfg.HistoryWindow)
	}
	if cfg.ScoreCron == "" || cfg.MorningCron == "" {
		t.Error("cron defaults missing")
	}
}
