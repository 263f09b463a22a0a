package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/intake"
	"github.com/kingsdigitallab/finding-africa/internal/logging"
	"github.com/kingsdigitallab/finding-africa/internal/mailbox"
	"github.com/kingsdigitallab/finding-africa/internal/mailer"
	"github.com/kingsdigitallab/finding-africa/internal/pipeline"
	"github.com/kingsdigitallab/finding-africa/internal/registry"
	"github.com/kingsdigitallab/finding-africa/internal/reports"
	"github.com/kingsdigitallab/finding-africa/internal/services"
)

func newRunCommand(cmdCtx *commandContext) *cobra.Command {
	var skipMail bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll the mailbox and process staged submissions once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return err
			}
			logger = logger.With("run_id", uuid.NewString())

			return runOnce(cmd.Context(), cfg, logger, skipMail)
		},
	}

	cmd.Flags().BoolVar(&skipMail, "skip-mail", false, "Process staged files without polling the mailbox or sending reports")

	return cmd
}

func runOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, skipMail bool) error {
	logger.Info("run started")

	// One active run at a time; overlapping cron invocations bail out.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another run is already in progress")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	reg, err := registry.Open(cfg)
	if err != nil {
		return err
	}
	defer reg.Close()

	var mailSender mailer.Sender
	if !skipMail {
		smtpSender, err := mailer.New(cfg)
		switch {
		case errors.Is(err, services.ErrConfiguration):
			logger.Error("outbound mail unavailable", "error", err)
		case err != nil:
			return err
		default:
			mailSender = smtpSender
		}
	}

	owners := map[string]string{}
	if !skipMail {
		owners, err = pollMailbox(ctx, cfg, reg, logger)
		if err != nil {
			return err
		}
	}

	catalog := reports.New(cfg)
	summary, err := pipeline.New(cfg, reg, mailSender, catalog, logger).Process(ctx, owners)
	if err != nil {
		return err
	}

	logger.Info("run finished",
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"invalid", summary.Invalid,
		"failed", summary.Failed)
	return nil
}

// pollMailbox downloads unread submissions into staging. Each message
// is marked read after all of its attachments have been considered,
// even when some were skipped; partially valid submissions are not
// re-fetched on the next run.
func pollMailbox(ctx context.Context, cfg *config.Config, reg *registry.Store, logger *slog.Logger) (map[string]string, error) {
	source, err := mailbox.Dial(cfg, logger)
	if err != nil {
		if errors.Is(err, services.ErrConfiguration) {
			logger.Error("mailbox unavailable, processing staged files only", "error", err)
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("mailbox close failed", "error", err)
		}
	}()

	messages, err := source.FetchUnread(ctx)
	if err != nil {
		return nil, err
	}

	ingest := intake.New(cfg, reg, logger)
	owners := map[string]string{}
	written := 0

	for _, msg := range messages {
		attachments := make([]intake.Attachment, 0, len(msg.Attachments))
		for _, data := range msg.Attachments {
			attachments = append(attachments, intake.Attachment{Sender: msg.Sender, Data: data})
		}

		result, err := ingest.Stage(ctx, attachments)
		if err != nil {
			// Message stays unread so the next run retries it.
			logger.Error("intake failed for message", "message", msg.ID, "error", err)
			continue
		}
		for path, owner := range result.Owners {
			owners[path] = owner
		}
		written += result.Written

		if err := source.MarkRead(ctx, msg); err != nil {
			logger.Warn("failed to mark message read", "message", msg.ID, "error", err)
		}
	}

	logger.Info("downloaded attachments", "messages", len(messages), "attachments", written)
	return owners, nil
}
