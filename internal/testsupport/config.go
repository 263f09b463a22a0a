// Package testsupport provides shared helpers for package tests: temp
// directory configs, registry stores, and workbook builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/kingsdigitallab/finding-africa/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.SuccessDir = filepath.Join(base, "success")
	cfg.Paths.ErrorDir = filepath.Join(base, "error")
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Reports.Email = "archives@example.org"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	return &cfg
}

// WithReportEmail overrides the administrative report address.
func WithReportEmail(email string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Reports.Email = email
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
