package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigSaveAndLoad(t *testing.T) {
	// Use a temp dir as home
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfg := CLIConfig{
		DBPath:    "/data/forum.db",
		Author:    "alice@example.com",
		ServerURL: "http://myhost:9090",
	}

	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	path := filepath.Join(tmp, ".config", "qa", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not found: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("loaded = %+v, want %+v", loaded, cfg)
	}
}

func TestConfigLoadMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if cfg != (CLIConfig{}) {
		t.Error("expected zero-value config for missing file")
	}
}

func TestConfigLoadInvalidYAML(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	path := filepath.Join(tmp, ".config", "qa", "config.yaml")
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("db_path: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGetServerURL(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	t.Setenv("QA_SERVER_URL", "")
	if url := getServerURL(); url != "http://localhost:8080" {
		t.Errorf("default url = %q", url)
	}

	if err := saveConfig(CLIConfig{ServerURL: "http://config:1"}); err != nil {
		t.Fatal(err)
	}
	if url := getServerURL(); url != "http://config:1" {
		t.Errorf("config url = %q", url)
	}

	t.Setenv("QA_SERVER_URL", "http://custom:1234")
	if url := getServerURL(); url != "http://custom:1234" {
		t.Errorf("env url = %q", url)
	}
}

func TestGetAuthor(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("QA_AUTHOR", "")

	if a := getAuthor(); a != "" {
		t.Errorf("author = %q, want empty", a)
	}
	if err := saveConfig(CLIConfig{Author: "cfg@example.com"}); err != nil {
		t.Fatal(err)
	}
	if a := getAuthor(); a != "cfg@example.com" {
		t.Errorf("author = %q, want cfg@example.com", a)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := executeCommand("config", "set", "author", "bob@example.com"); err != nil {
		t.Fatalf("config set: %v", err)
	}

	out, err := executeCommand("config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "author: bob@example.com") {
		t.Errorf("output = %q, want author line", out)
	}
}

func TestConfigSetUnknownKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := executeCommand("config", "set", "colour", "blue")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Fatalf("err = %v, want unknown key error", err)
	}
}
