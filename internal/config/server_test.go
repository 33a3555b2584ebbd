package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.PostgresDSN != "" {
		t.Fatalf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
	if !cfg.MCPEnabled {
		t.Fatal("MCPEnabled = false, want true")
	}
}

func TestLoadServerOverrides(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://localhost:5432/sos?sslmode=disable")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ADMIN_API_KEY", "admin-key")
	t.Setenv("MCP_ENABLED", "false")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.AdminAPIKey != "admin-key" || cfg.MCPEnabled {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestLoadServerRejectsBadBool(t *testing.T) {
	t.Setenv("MCP_ENABLED", "maybe")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}
