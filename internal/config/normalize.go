package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeReports(); err != nil {
		return err
	}
	c.normalizeMailbox()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.SuccessDir, err = expandPath(c.Paths.SuccessDir); err != nil {
		return fmt.Errorf("paths.success_dir: %w", err)
	}
	if c.Paths.ErrorDir, err = expandPath(c.Paths.ErrorDir); err != nil {
		return fmt.Errorf("paths.error_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeReports() error {
	c.Reports.Email = strings.TrimSpace(c.Reports.Email)
	c.Reports.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Reports.DefaultLanguage))
	if c.Reports.DefaultLanguage == "" {
		c.Reports.DefaultLanguage = defaultReportLanguage
	}

	var err error
	for lang, path := range c.Reports.FailureTemplates {
		if c.Reports.FailureTemplates[lang], err = expandPath(path); err != nil {
			return fmt.Errorf("reports.failure_templates.%s: %w", lang, err)
		}
	}
	for lang, path := range c.Reports.SuccessTemplates {
		if c.Reports.SuccessTemplates[lang], err = expandPath(path); err != nil {
			return fmt.Errorf("reports.success_templates.%s: %w", lang, err)
		}
	}
	return nil
}

func (c *Config) normalizeMailbox() {
	c.Mailbox.Address = strings.TrimSpace(c.Mailbox.Address)
	c.Mailbox.Username = strings.TrimSpace(c.Mailbox.Username)
	if strings.TrimSpace(c.Mailbox.Folder) == "" {
		c.Mailbox.Folder = defaultMailboxFolder
	}
	if c.Mailbox.Port <= 0 {
		c.Mailbox.Port = defaultMailboxPort
	}
	c.SMTP.Address = strings.TrimSpace(c.SMTP.Address)
	c.SMTP.Username = strings.TrimSpace(c.SMTP.Username)
	if c.SMTP.Port <= 0 {
		c.SMTP.Port = defaultSMTPPort
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
