// Package reports renders the three notification kinds: the localized
// per-sender failure and success notices, and the fixed administrative
// notice. Templates are plain-text files keyed by language code.
package reports

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/services"
)

const (
	// FailureSubject heads the missing-fields notice sent back to the
	// submitting address.
	FailureSubject = "Missing fields"
	// SuccessSubject heads the acknowledgement sent back to the
	// submitting address.
	SuccessSubject = "Thank you for your email"
	// AdminSubject heads the administrative notice.
	AdminSubject = "New files added"
)

// Fallback bodies used when no template file is configured for the
// resolved language.
const (
	fallbackFailureBody = "Your submission is missing required fields."
	fallbackSuccessBody = "Thank you for your email."
)

// Catalog resolves language preferences against the configured template
// files and renders notification bodies.
type Catalog struct {
	adminEmail  string
	defaultLang string
	failure     localized
	success     localized
}

type localized struct {
	paths   map[string]string
	codes   []string
	matcher language.Matcher
}

// New builds a catalog from configuration. Template files are read at
// render time, like the rest of the run's synchronous I/O, so template
// edits take effect without restarts.
func New(cfg *config.Config) *Catalog {
	defaultLang := cfg.Reports.DefaultLanguage
	if defaultLang == "" {
		defaultLang = "en"
	}
	return &Catalog{
		adminEmail:  cfg.Reports.Email,
		defaultLang: defaultLang,
		failure:     newLocalized(cfg.Reports.FailureTemplates, defaultLang),
		success:     newLocalized(cfg.Reports.SuccessTemplates, defaultLang),
	}
}

func newLocalized(paths map[string]string, defaultLang string) localized {
	codes := make([]string, 0, len(paths))
	for code := range paths {
		if code != defaultLang {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	// The default language leads so the matcher falls back to it.
	codes = append([]string{defaultLang}, codes...)

	tags := make([]language.Tag, len(codes))
	for i, code := range codes {
		tags[i] = language.Make(code)
	}

	return localized{
		paths:   paths,
		codes:   codes,
		matcher: language.NewMatcher(tags),
	}
}

// resolve maps a sender's language preference to the template language
// code to use, falling back to the default language.
func (l localized) resolve(preference string) string {
	preference = strings.TrimSpace(preference)
	if preference == "" {
		return l.codes[0]
	}
	_, index, _ := l.matcher.Match(language.Make(preference))
	return l.codes[index]
}

func (l localized) body(preference, fallback string) (string, error) {
	code := l.resolve(preference)
	path, ok := l.paths[code]
	if !ok {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read report template %s: %w", path, err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// Failure renders the missing-fields notice for a sender with the given
// language preference.
func (c *Catalog) Failure(preference string, missing []string) (subject, body string, err error) {
	text, err := c.failure.body(preference, fallbackFailureBody)
	if err != nil {
		return "", "", err
	}
	var builder strings.Builder
	builder.WriteString(text)
	for _, label := range missing {
		builder.WriteString("\n- ")
		builder.WriteString(label)
	}
	return FailureSubject, builder.String(), nil
}

// Success renders the acknowledgement notice for a sender with the
// given language preference.
func (c *Catalog) Success(preference string) (subject, body string, err error) {
	text, err := c.success.body(preference, fallbackSuccessBody)
	if err != nil {
		return "", "", err
	}
	return SuccessSubject, text, nil
}

// AdminNotice renders the administrative notice naming the sender and
// the produced primary document. A missing report address is a
// configuration error.
func (c *Catalog) AdminNotice(sender, documentPath string) (to, subject, body string, err error) {
	if c.adminEmail == "" {
		return "", "", "", services.Wrap(services.ErrConfiguration, "reports", "admin notice",
			"reports.email is not configured", nil)
	}
	return c.adminEmail, AdminSubject, fmt.Sprintf("From %s, %s", sender, documentPath), nil
}
