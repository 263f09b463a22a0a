package config

const (
	defaultStagingDir     = "~/.local/share/finding-africa/staging"
	defaultSuccessDir     = "~/.local/share/finding-africa/success"
	defaultErrorDir       = "~/.local/share/finding-africa/error"
	defaultOutputDir      = "~/.local/share/finding-africa/output"
	defaultStateDir       = "~/.local/share/finding-africa/state"
	defaultLogDir         = "~/.local/share/finding-africa/logs"
	defaultMailboxPort    = 993
	defaultMailboxFolder  = "INBOX"
	defaultSMTPPort       = 587
	defaultReportLanguage = "en"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Mailbox: Mailbox{
			Port:   defaultMailboxPort,
			Folder: defaultMailboxFolder,
		},
		SMTP: SMTP{
			Port: defaultSMTPPort,
		},
		Paths: Paths{
			StagingDir: defaultStagingDir,
			SuccessDir: defaultSuccessDir,
			ErrorDir:   defaultErrorDir,
			OutputDir:  defaultOutputDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Reports: Reports{
			DefaultLanguage: defaultReportLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
