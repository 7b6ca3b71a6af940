package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("TIMEZONE", "UTC")

	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Port != "8080" || cfg.DataBackend != BackendMemory {
		t.Errorf("defaults = port %s backend %s", cfg.Port, cfg.DataBackend)
	}
	if cfg.TokenTTL != 168*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v", cfg.Location)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("DATA_BACKEND", "Docstore")
	t.Setenv("DOCSTORE_PATH", "/tmp/fin.db")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("READ_ONLY", "true")
	t.Setenv("TOKEN_TTL", "2h")

	cfg := fromEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.DataBackend != BackendDocstore || !cfg.ReadOnly || cfg.TokenTTL != 2*time.Hour {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	t.Setenv("PORT", "99999")
	t.Setenv("DATA_BACKEND", "postgres")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_TTL", "soon")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	err := fromEnv().Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"invalid port 99999", "DATABASE_URL is required", "JWT_SECRET is required", "invalid TOKEN_TTL", "invalid TIMEZONE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestDevelopmentAllowsMissingSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")

	if err := fromEnv().Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestUnknownBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("DATA_BACKEND", "sheets")

	if err := fromEnv().Validate(); err == nil || !strings.Contains(err.Error(), "invalid data backend") {
		t.Errorf("Validate() = %v", err)
	}
}
