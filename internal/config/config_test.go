package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HEALTHLINE_AUTH_JWTSECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "0.0.0.0:5000" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path == "" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if !cfg.Auth.TrustHeaders || cfg.Auth.TokenTTLMinutes != 1440 {
		t.Fatalf("unexpected auth config: trust=%t ttl=%d", cfg.Auth.TrustHeaders, cfg.Auth.TokenTTLMinutes)
	}
	if cfg.Chat.TimeoutSeconds != 30 || cfg.Chat.Instruction == "" {
		t.Fatalf("unexpected chat config: %+v", cfg.Chat)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HEALTHLINE_AUTH_JWTSECRET", "secret")
	t.Setenv("HEALTHLINE_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("HEALTHLINE_AUTH_TRUSTHEADERS", "false")
	t.Setenv("HEALTHLINE_DATABASE_DRIVER", "postgres")
	t.Setenv("HEALTHLINE_DATABASE_URL", "postgres://localhost/healthline")
	t.Setenv("GEMINI_API_KEY", "from-provider-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Auth.TrustHeaders {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.URL != "postgres://localhost/healthline" {
		t.Fatalf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Chat.APIKey != "from-provider-env" {
		t.Fatalf("expected GEMINI_API_KEY fallback, got %q", cfg.Chat.APIKey)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HEALTHLINE_AUTH_JWTSECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}

func TestValidateDriver(t *testing.T) {
	var cfg Config
	cfg.Auth.JWTSecret = "secret"
	cfg.Database.Driver = "mysql"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
	cfg.Database.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for postgres without url")
	}
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nHEALTHLINE_TEST_A=from-file\nexport HEALTHLINE_TEST_B=\"quoted\"\nHEALTHLINE_TEST_C=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("HEALTHLINE_TEST_C", "from-env")
	t.Setenv("HEALTHLINE_TEST_A", "")
	os.Unsetenv("HEALTHLINE_TEST_A")
	t.Setenv("HEALTHLINE_TEST_B", "")
	os.Unsetenv("HEALTHLINE_TEST_B")

	loadDotEnv(path)

	if got := os.Getenv("HEALTHLINE_TEST_A"); got != "from-file" {
		t.Fatalf("A = %q", got)
	}
	if got := os.Getenv("HEALTHLINE_TEST_B"); got != "quoted" {
		t.Fatalf("B = %q", got)
	}
	if got := os.Getenv("HEALTHLINE_TEST_C"); got != "from-env" {
		t.Fatalf("C = %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	t.Setenv("HEALTHLINE_TEST_D", "kept")
	loadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	if got := os.Getenv("HEALTHLINE_TEST_D"); got != "kept" {
		t.Fatalf("D = %q", got)
	}
}
