package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("KAMETI_TEST_LOCALE=ur\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("KAMETI_TEST_LOCALE") })

	LoadEnvFile(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("KAMETI_TEST_LOCALE"); got != "ur" {
		t.Errorf("KAMETI_TEST_LOCALE = %q, want %q", got, "ur")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.DataBackend != "memory" {
			t.Errorf("DataBackend = %q, want memory", cfg.DataBackend)
		}
	})

	t.Run("invalid port", func(t *testing.T) {
		t.Setenv("PORT", "http")
		if _, err := LoadConfig(); err == nil || !strings.Contains(err.Error(), "invalid port") {
			t.Errorf("LoadConfig() error = %v, want invalid port", err)
		}
	})
}

func TestInitBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "kameti.db"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	logger := SetupLogger(cfg, "test")

	res, err := InitBackend(context.Background(), logger, cfg)
	if err != nil {
		t.Fatalf("InitBackend() error = %v", err)
	}
	defer res.Close()

	if res.Service == nil || res.AMQP != nil {
		t.Errorf("InitBackend() = service %v amqp %v, want service without broker", res.Service, res.AMQP)
	}
	if _, err := res.Service.ListCommittees(context.Background()); err != nil {
		t.Errorf("ListCommittees() error = %v", err)
	}
}

func TestBanner(t *testing.T) {
	if b := Banner("kameti"); strings.TrimSpace(b) == "" {
		t.Error("Banner() should not be empty")
	}
}
