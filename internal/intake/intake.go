// Package intake stages inbound attachments: it checks the sender
// registry, assigns sequence numbers, and writes the raw payloads into
// the staging directory.
package intake

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/fileutil"
	"github.com/kingsdigitallab/finding-africa/internal/registry"
)

// StagedExtension is the extension staged attachments are written with
// and the only extension the pipeline picks up.
const StagedExtension = ".xlsx"

// Attachment is one inbound (sender, payload) pair.
type Attachment struct {
	Sender string
	Data   []byte
}

// Result reports one staging pass: the ownership map from staged path
// to sender address, and how many files were written.
type Result struct {
	Owners  map[string]string
	Written int
}

// Intake writes attachments into the staging area.
type Intake struct {
	cfg    *config.Config
	reg    *registry.Store
	logger *slog.Logger
}

// New constructs an intake over the given registry.
func New(cfg *config.Config, reg *registry.Store, logger *slog.Logger) *Intake {
	if logger == nil {
		logger = slog.Default()
	}
	return &Intake{cfg: cfg, reg: reg, logger: logger}
}

// Stage writes each attachment from a registered sender into staging,
// naming it from the sender's code and the next sequence number.
// Attachments from unregistered senders and empty payloads are skipped
// and logged, never written. The sequence counter is durably advanced
// before the file is written, so numbers are never reused even when a
// later stage fails.
func (i *Intake) Stage(ctx context.Context, attachments []Attachment) (*Result, error) {
	result := &Result{Owners: map[string]string{}}

	for _, att := range attachments {
		sender, err := i.reg.Get(ctx, att.Sender)
		if err != nil {
			return result, fmt.Errorf("intake: %w", err)
		}
		if sender == nil {
			i.logger.Info("skipping attachment from unknown sender", "sender", att.Sender)
			continue
		}
		if len(att.Data) == 0 {
			i.logger.Info("skipping empty attachment", "sender", att.Sender)
			continue
		}

		seq, err := i.reg.NextSequence(ctx, sender.Address)
		if err != nil {
			return result, fmt.Errorf("intake: %w", err)
		}

		path := filepath.Join(i.cfg.Paths.StagingDir, fmt.Sprintf("%s_%d%s", sender.Code, seq, StagedExtension))
		if err := fileutil.WriteFileAtomic(path, att.Data, 0o644); err != nil {
			return result, fmt.Errorf("intake: stage %s: %w", path, err)
		}

		result.Owners[path] = sender.Address
		result.Written++
		i.logger.Info("staged attachment", "sender", sender.Address, "path", path)
	}

	return result, nil
}
