package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "oprema"}
	AddFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return cmd
}

func TestValidateDefaults(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.DBPath != defaultDBPath || cfg.Addr != defaultAddr {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestValidateShortSecret(t *testing.T) {
	cfg := &Config{JWTSecret: "short"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestLoadFlags(t *testing.T) {
	cmd := newCommand(t, "--db", "race.sqlite3", "-a", ":9000")

	cfg, err := Load(cmd)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "race.sqlite3" || cfg.Addr != ":9000" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("OPREMA_DB", "env.sqlite3")
	t.Setenv("OPREMA_JWT_SECRET", "0123456789abcdef0123")

	cfg, err := Load(newCommand(t, "--addr", ":7000"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "env.sqlite3" {
		t.Errorf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.JWTSecret != "0123456789abcdef0123" {
		t.Errorf("expected env secret, got %q", cfg.JWTSecret)
	}
	if cfg.Addr != ":7000" {
		t.Errorf("expected flag addr, got %q", cfg.Addr)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oprema.yaml")
	content := "db: file.sqlite3\naddr: \":8181\"\nlog: oprema.log\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(newCommand(t, "--config", path, "--addr", ":9999"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "file.sqlite3" || cfg.LogPath != "oprema.log" {
		t.Errorf("config file values not applied: %+v", cfg)
	}
	if cfg.Addr != ":9999" {
		t.Errorf("flag should win over config file, got %q", cfg.Addr)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(newCommand(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))); err == nil {
		t.Error("expected error for missing config file")
	}
}
