// Package pipeline drives staged files through extraction, validation,
// document building, and outcome routing. Failures are contained per
// file; one bad spreadsheet never stops the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/document"
	"github.com/kingsdigitallab/finding-africa/internal/fileutil"
	"github.com/kingsdigitallab/finding-africa/internal/intake"
	"github.com/kingsdigitallab/finding-africa/internal/mailer"
	"github.com/kingsdigitallab/finding-africa/internal/record"
	"github.com/kingsdigitallab/finding-africa/internal/registry"
	"github.com/kingsdigitallab/finding-africa/internal/reports"
)

// DocumentExtension is the extension of generated documents.
const DocumentExtension = ".xml"

// Summary reports one processing pass over the staging directory.
type Summary struct {
	Processed int
	Succeeded int
	Invalid   int
	Failed    int
}

// Pipeline processes staged attachments. The mail sender may be nil,
// in which case notifications are skipped and logged.
type Pipeline struct {
	cfg     *config.Config
	reg     *registry.Store
	mail    mailer.Sender
	catalog *reports.Catalog
	logger  *slog.Logger
}

// New constructs a pipeline.
func New(cfg *config.Config, reg *registry.Store, mail mailer.Sender, catalog *reports.Catalog, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, reg: reg, mail: mail, catalog: catalog, logger: logger}
}

// Process walks the staging directory in lexicographic filename order
// and drives every staged spreadsheet to a terminal location: the
// success area with documents in output, or the error area. Files
// without a known owning sender are routed to the error area with a
// warning. Reprocessing is naturally idempotent: only files currently
// present in staging are acted on.
func (p *Pipeline) Process(ctx context.Context, owners map[string]string) (Summary, error) {
	var summary Summary

	entries, err := os.ReadDir(p.cfg.Paths.StagingDir)
	if err != nil {
		return summary, fmt.Errorf("pipeline: read staging directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), intake.StagedExtension) {
			p.logger.Debug("ignoring non-spreadsheet file in staging", "name", entry.Name())
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(p.cfg.Paths.StagingDir, name)
		summary.Processed++

		owner, known := owners[path]
		if !known {
			p.logger.Warn("staged file has no owning sender, routing to error", "path", path)
			if err := p.routeError(path); err != nil {
				p.logger.Error("route to error failed", "path", path, "error", err)
			}
			summary.Failed++
			continue
		}

		switch p.processFile(ctx, path, owner) {
		case outcomeSuccess:
			summary.Succeeded++
		case outcomeInvalid:
			summary.Invalid++
		default:
			summary.Failed++
		}
	}

	return summary, nil
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeInvalid
	outcomeSuccess
)

// processFile runs the per-file state machine. Any error, including a
// panic out of the spreadsheet parser, routes the file to the error
// area and leaves no partial output behind.
func (p *Pipeline) processFile(ctx context.Context, path, owner string) (result outcome) {
	logger := p.logger.With("path", path, "sender", owner)
	logger.Info("processing staged file")

	var written []string
	defer func() {
		if r := recover(); r != nil {
			logger.Error("processing panicked", "panic", r)
			p.discardOutputs(written)
			if err := p.routeError(path); err != nil {
				logger.Error("route to error failed", "error", err)
			}
			result = outcomeFailed
		}
	}()

	workbook, err := record.Load(path)
	if err != nil {
		logger.Error("failed to extract record", "error", err)
		if routeErr := p.routeError(path); routeErr != nil {
			logger.Error("route to error failed", "error", routeErr)
		}
		return outcomeFailed
	}

	if missing := workbook.Record.MissingRequired(); len(missing) > 0 {
		logger.Warn("required fields missing", "fields", strings.Join(missing, ", "))
		// The sender hears about the rejection even if routing the
		// original afterwards fails.
		p.notifyFailure(ctx, owner, missing)
		if err := p.routeError(path); err != nil {
			logger.Error("route to error failed", "error", err)
			return outcomeFailed
		}
		return outcomeInvalid
	}

	primaryPath, written, err := p.buildDocuments(path, workbook)
	if err != nil {
		logger.Error("failed to build documents", "error", err)
		p.discardOutputs(written)
		if routeErr := p.routeError(path); routeErr != nil {
			logger.Error("route to error failed", "error", routeErr)
		}
		return outcomeFailed
	}

	if err := fileutil.MoveFile(path, filepath.Join(p.cfg.Paths.SuccessDir, filepath.Base(path))); err != nil {
		logger.Error("route to success failed", "error", err)
		p.discardOutputs(written)
		if routeErr := p.routeError(path); routeErr != nil {
			logger.Error("route to error failed", "error", routeErr)
		}
		return outcomeFailed
	}

	p.notifySuccess(ctx, owner, primaryPath)
	logger.Info("processed staged file", "document", primaryPath)
	return outcomeSuccess
}

// buildDocuments writes the primary document and one auxiliary document
// per secondary sheet into the output area. It returns every path it
// wrote so the caller can discard them on a later failure.
func (p *Pipeline) buildDocuments(path string, workbook *record.Workbook) (string, []string, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var written []string

	primaryDoc, err := document.BuildPrimary(workbook.Record)
	if err != nil {
		return "", written, err
	}
	primaryPath := filepath.Join(p.cfg.Paths.OutputDir, base+DocumentExtension)
	if err := document.WriteFile(primaryDoc, primaryPath); err != nil {
		return "", written, err
	}
	written = append(written, primaryPath)

	for _, sheet := range workbook.Secondary {
		name, doc, err := document.BuildAuxiliary(sheet)
		if err != nil {
			return "", written, err
		}
		auxPath := filepath.Join(p.cfg.Paths.OutputDir, fmt.Sprintf("%s_%s%s", base, name, DocumentExtension))
		if err := document.WriteFile(doc, auxPath); err != nil {
			return "", written, err
		}
		written = append(written, auxPath)
	}

	return primaryPath, written, nil
}

func (p *Pipeline) discardOutputs(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.logger.Warn("failed to remove partial output", "path", path, "error", err)
		}
	}
}

func (p *Pipeline) routeError(path string) error {
	return fileutil.MoveFile(path, filepath.Join(p.cfg.Paths.ErrorDir, filepath.Base(path)))
}
