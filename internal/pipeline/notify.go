package pipeline

import (
	"context"
)

// Notification failures are operational: they are logged but never
// change how a file was routed.

func (p *Pipeline) notifyFailure(ctx context.Context, owner string, missing []string) {
	if p.mail == nil || p.catalog == nil {
		p.logger.Warn("mail sender not configured, skipping failure report", "sender", owner)
		return
	}

	subject, body, err := p.catalog.Failure(p.senderLanguage(ctx, owner), missing)
	if err != nil {
		p.logger.Error("failed to render failure report", "sender", owner, "error", err)
		return
	}
	if err := p.mail.Send(ctx, owner, subject, body); err != nil {
		p.logger.Error("failed to send failure report", "sender", owner, "error", err)
		return
	}
	p.logger.Info("sent failure report", "sender", owner)
}

func (p *Pipeline) notifySuccess(ctx context.Context, owner, documentPath string) {
	if p.mail == nil || p.catalog == nil {
		p.logger.Warn("mail sender not configured, skipping success report", "sender", owner)
		return
	}

	subject, body, err := p.catalog.Success(p.senderLanguage(ctx, owner))
	if err != nil {
		p.logger.Error("failed to render success report", "sender", owner, "error", err)
	} else if err := p.mail.Send(ctx, owner, subject, body); err != nil {
		p.logger.Error("failed to send success report", "sender", owner, "error", err)
	} else {
		p.logger.Info("sent success report", "sender", owner)
	}

	to, subject, body, err := p.catalog.AdminNotice(owner, documentPath)
	if err != nil {
		p.logger.Error("failed to render admin notice", "error", err)
		return
	}
	if err := p.mail.Send(ctx, to, subject, body); err != nil {
		p.logger.Error("failed to send admin notice", "to", to, "error", err)
		return
	}
	p.logger.Info("sent admin notice", "to", to, "document", documentPath)
}

func (p *Pipeline) senderLanguage(ctx context.Context, owner string) string {
	sender, err := p.reg.Get(ctx, owner)
	if err != nil || sender == nil {
		p.logger.Warn("could not resolve sender language, using default", "sender", owner, "error", err)
		return ""
	}
	return sender.Language
}
