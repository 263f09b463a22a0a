package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingsdigitallab/finding-africa/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved path %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Mailbox.Port != 993 || cfg.Mailbox.Folder != "INBOX" {
		t.Fatalf("unexpected mailbox defaults: %#v", cfg.Mailbox)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %#v", cfg.Logging)
	}
	if cfg.Reports.DefaultLanguage != "en" {
		t.Fatalf("unexpected default language %q", cfg.Reports.DefaultLanguage)
	}
	if !filepath.IsAbs(cfg.Paths.StagingDir) {
		t.Fatalf("staging dir not expanded: %q", cfg.Paths.StagingDir)
	}
}

func TestLoadParsesFile(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[mailbox]
address = "imap.example.org"
username = "inbox@example.org"
password = "secret"

[paths]
staging_dir = "`+filepath.Join(base, "staging")+`"
success_dir = "`+filepath.Join(base, "success")+`"
error_dir = "`+filepath.Join(base, "error")+`"
output_dir = "`+filepath.Join(base, "output")+`"
state_dir = "`+filepath.Join(base, "state")+`"
log_dir = "`+filepath.Join(base, "logs")+`"

[reports]
email = "archives@example.org"
default_language = "FR"
`)

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Mailbox.Address != "imap.example.org" {
		t.Fatalf("unexpected mailbox address %q", cfg.Mailbox.Address)
	}
	if cfg.Reports.DefaultLanguage != "fr" {
		t.Fatalf("default language should normalize to lower case, got %q", cfg.Reports.DefaultLanguage)
	}
	if cfg.Paths.StagingDir != filepath.Join(base, "staging") {
		t.Fatalf("unexpected staging dir %q", cfg.Paths.StagingDir)
	}
}

func TestLoadRejectsSharedDirectories(t *testing.T) {
	base := t.TempDir()
	shared := filepath.Join(base, "same")
	path := writeConfig(t, `
[paths]
staging_dir = "`+shared+`"
success_dir = "`+shared+`"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "must not share directory") {
		t.Fatalf("expected shared directory error, got %v", err)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	cases := []string{
		"[logging]\nformat = \"xml\"\n",
		"[logging]\nlevel = \"verbose\"\n",
	}
	for _, content := range cases {
		path := writeConfig(t, content)
		if _, _, _, err := config.Load(path); err == nil {
			t.Fatalf("expected error for config %q", content)
		}
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.SuccessDir = filepath.Join(base, "success")
	cfg.Paths.ErrorDir = filepath.Join(base, "error")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.SuccessDir, cfg.Paths.ErrorDir, cfg.Paths.OutputDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory %q not created: %v", dir, err)
		}
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[mailbox]") {
		t.Fatal("sample config should contain a mailbox section")
	}
}
