package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Mailbox and SMTP
// credentials are deliberately not required here: runs without a
// configured mailbox can still process files already in staging, and
// the transports report their own configuration errors at dial time.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateReports(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	named := map[string]string{
		"paths.staging_dir": c.Paths.StagingDir,
		"paths.success_dir": c.Paths.SuccessDir,
		"paths.error_dir":   c.Paths.ErrorDir,
		"paths.output_dir":  c.Paths.OutputDir,
		"paths.state_dir":   c.Paths.StateDir,
	}
	for key, dir := range named {
		if dir == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	seen := map[string]string{}
	for key, dir := range named {
		if other, ok := seen[dir]; ok {
			return fmt.Errorf("%s and %s must not share directory %q", other, key, dir)
		}
		seen[dir] = key
	}
	return nil
}

func (c *Config) validateReports() error {
	for lang, path := range c.Reports.FailureTemplates {
		if path == "" {
			return fmt.Errorf("reports.failure_templates.%s must not be empty", lang)
		}
	}
	for lang, path := range c.Reports.SuccessTemplates {
		if path == "" {
			return fmt.Errorf("reports.success_templates.%s must not be empty", lang)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}
