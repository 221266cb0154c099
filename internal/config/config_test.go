package config

import (
	"os"
	"path/filepath"
	"testing"
)

func unsetEnv(keys ...string) func() {
	prev := make(map[string]string)
	for _, k := range keys {
		prev[k] = os.Getenv(k)
		os.Unsetenv(k)
	}
	return func() {
		for k, v := range prev {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}
}

var recognized = []string{"VIDEOS_URL", "XSEN_PLAYER_URL", "MCP_AUTH_KEY", "MCP_AUTH", "PORT"}

func TestLoadDefaults(t *testing.T) {
	restore := unsetEnv(recognized...)
	defer restore()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Catalog.URL == "" {
		t.Fatal("default catalog url must not be empty")
	}
	if cfg.Player.BaseURL == "" {
		t.Fatal("default player base url must not be empty")
	}
	if cfg.Auth.Enabled {
		t.Fatal("auth must default to disabled")
	}
	if cfg.Catalog.RefreshInterval <= 0 {
		t.Fatal("refresh interval must default positive")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	restore := unsetEnv(recognized...)
	defer restore()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected defaults, got port %d", cfg.Server.Port)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	restore := unsetEnv(recognized...)
	defer restore()

	os.Setenv("VIDEOS_URL", "https://example.com/cat.json")
	os.Setenv("XSEN_PLAYER_URL", "https://player.example.com/e")
	os.Setenv("MCP_AUTH_KEY", "s3cret")
	os.Setenv("PORT", "9191")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Catalog.URL != "https://example.com/cat.json" {
		t.Fatalf("catalog url = %s", cfg.Catalog.URL)
	}
	if cfg.Player.BaseURL != "https://player.example.com/e" {
		t.Fatalf("player url = %s", cfg.Player.BaseURL)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Secret != "s3cret" {
		t.Fatalf("auth key must enable auth: %+v", cfg.Auth)
	}
	if cfg.Server.Port != 9191 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
}

func TestLoadAuthFallbackVar(t *testing.T) {
	restore := unsetEnv(recognized...)
	defer restore()

	os.Setenv("MCP_AUTH", "legacy-key")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Secret != "legacy-key" {
		t.Fatalf("MCP_AUTH must enable auth: %+v", cfg.Auth)
	}
}

func TestLoadFile(t *testing.T) {
	restore := unsetEnv(recognized...)
	defer restore()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := `
server:
  port: 7070
catalog:
  url: https://files.example.com/videos.json
player:
  base_url: https://embed.example.com
auth:
  enabled: true
  secret: from-file
audit:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Catalog.URL != "https://files.example.com/videos.json" {
		t.Fatalf("catalog url = %s", cfg.Catalog.URL)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Secret != "from-file" {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
	if cfg.Audit.Enabled {
		t.Fatal("audit should be disabled by file")
	}
}

func TestLoadFileEnvExpansion(t *testing.T) {
	restore := unsetEnv(append([]string{"XSEN_TEST_SECRET"}, recognized...)...)
	defer restore()

	os.Setenv("XSEN_TEST_SECRET", "expanded")
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := "auth:\n  enabled: true\n  secret: ${XSEN_TEST_SECRET}\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Secret != "expanded" {
		t.Fatalf("secret = %q, want expanded", cfg.Auth.Secret)
	}
}
