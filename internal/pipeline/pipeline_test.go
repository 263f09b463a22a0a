package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/pipeline"
	"github.com/kingsdigitallab/finding-africa/internal/record"
	"github.com/kingsdigitallab/finding-africa/internal/registry"
	"github.com/kingsdigitallab/finding-africa/internal/reports"
	"github.com/kingsdigitallab/finding-africa/internal/testsupport"
)

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (f *fakeMailer) bySubject(subject string) []sentMail {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMail
	for _, m := range f.sent {
		if m.subject == subject {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	cfg    *config.Config
	store  *registry.Store
	mail   *fakeMailer
	runner *pipeline.Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	testsupport.RegisterSender(t, store, "a@x.org", "AX", "en")
	mail := &fakeMailer{}
	runner := pipeline.New(cfg, store, mail, reports.New(cfg), nil)
	return &fixture{cfg: cfg, store: store, mail: mail, runner: runner}
}

func (f *fixture) stage(t *testing.T, name string, sheets ...testsupport.WorkbookSheet) string {
	t.Helper()
	path := filepath.Join(f.cfg.Paths.StagingDir, name)
	testsupport.WriteWorkbook(t, path, sheets...)
	return path
}

func primarySheet(fields [][2]string) testsupport.WorkbookSheet {
	return testsupport.WorkbookSheet{
		Name: record.PrimarySheet,
		Rows: testsupport.CollectionRows(fields),
	}
}

func TestProcessValidSubmission(t *testing.T) {
	f := newFixture(t)
	staged := f.stage(t, "AX_1.xlsx",
		primarySheet([][2]string{
			{"Title*", "Colonial correspondence"},
			{"Description", "Letters"},
		}),
		testsupport.WorkbookSheet{
			Name: "subjects",
			Rows: [][]string{{"Subject: one per row"}, {"Subject >"}, {"trade"}},
		},
	)

	summary, err := f.runner.Process(context.Background(), map[string]string{staged: "a@x.org"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Succeeded != 1 || summary.Processed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	if _, err := os.Stat(filepath.Join(f.cfg.Paths.SuccessDir, "AX_1.xlsx")); err != nil {
		t.Fatalf("original not in success area: %v", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("staged file should have left staging, stat err: %v", err)
	}

	primary := filepath.Join(f.cfg.Paths.OutputDir, "AX_1.xml")
	if _, err := os.Stat(primary); err != nil {
		t.Fatalf("primary document missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.cfg.Paths.OutputDir, "AX_1_subject.xml")); err != nil {
		t.Fatalf("auxiliary document missing: %v", err)
	}

	success := f.mail.bySubject(reports.SuccessSubject)
	if len(success) != 1 || success[0].to != "a@x.org" {
		t.Fatalf("expected success report to a@x.org, got %#v", success)
	}
	admin := f.mail.bySubject(reports.AdminSubject)
	if len(admin) != 1 || admin[0].to != "archives@example.org" {
		t.Fatalf("expected admin notice, got %#v", admin)
	}
	if !strings.Contains(admin[0].body, "a@x.org") || !strings.Contains(admin[0].body, primary) {
		t.Fatalf("admin notice should reference sender and document, got %q", admin[0].body)
	}
}

func TestProcessMissingRequiredField(t *testing.T) {
	f := newFixture(t)
	staged := f.stage(t, "AX_1.xlsx", primarySheet([][2]string{
		{"Title*", ""},
		{"Description", "Letters"},
	}))

	summary, err := f.runner.Process(context.Background(), map[string]string{staged: "a@x.org"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Invalid != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	if _, err := os.Stat(filepath.Join(f.cfg.Paths.ErrorDir, "AX_1.xlsx")); err != nil {
		t.Fatalf("original not in error area: %v", err)
	}

	entries, err := os.ReadDir(f.cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("no document should be created, found %d", len(entries))
	}

	failure := f.mail.bySubject(reports.FailureSubject)
	if len(failure) != 1 || failure[0].to != "a@x.org" {
		t.Fatalf("expected failure report to a@x.org, got %#v", failure)
	}
	if !strings.Contains(failure[0].body, "Title*") {
		t.Fatalf("failure report should list Title*, got %q", failure[0].body)
	}
	if len(f.mail.bySubject(reports.SuccessSubject)) != 0 {
		t.Fatal("no success report expected")
	}
}

func TestProcessInvalidStillNotifiesWhenRoutingFails(t *testing.T) {
	f := newFixture(t)
	staged := f.stage(t, "AX_1.xlsx", primarySheet([][2]string{{"Title*", ""}}))

	// Replace the error directory with a regular file so the
	// move-to-error fails.
	if err := os.Remove(f.cfg.Paths.ErrorDir); err != nil {
		t.Fatalf("remove error dir: %v", err)
	}
	if err := os.WriteFile(f.cfg.Paths.ErrorDir, []byte("x"), 0o644); err != nil {
		t.Fatalf("block error dir: %v", err)
	}

	summary, err := f.runner.Process(context.Background(), map[string]string{staged: "a@x.org"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	failure := f.mail.bySubject(reports.FailureSubject)
	if len(failure) != 1 || failure[0].to != "a@x.org" {
		t.Fatalf("sender must still get the missing-fields report, got %#v", failure)
	}
}

func TestProcessMalformedSpreadsheetContinues(t *testing.T) {
	f := newFixture(t)
	junk := filepath.Join(f.cfg.Paths.StagingDir, "AX_1.xlsx")
	if err := os.WriteFile(junk, []byte("not a spreadsheet"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	valid := f.stage(t, "AX_2.xlsx", primarySheet([][2]string{{"Title*", "ok"}}))

	summary, err := f.runner.Process(context.Background(), map[string]string{
		junk:  "a@x.org",
		valid: "a@x.org",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Failed != 1 || summary.Succeeded != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	if _, err := os.Stat(filepath.Join(f.cfg.Paths.ErrorDir, "AX_1.xlsx")); err != nil {
		t.Fatalf("junk file not in error area: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.cfg.Paths.SuccessDir, "AX_2.xlsx")); err != nil {
		t.Fatalf("valid file not in success area: %v", err)
	}
}

func TestProcessUnownedFileRoutedToError(t *testing.T) {
	f := newFixture(t)
	f.stage(t, "ZZ_9.xlsx", primarySheet([][2]string{{"Title*", "ok"}}))

	summary, err := f.runner.Process(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if _, err := os.Stat(filepath.Join(f.cfg.Paths.ErrorDir, "ZZ_9.xlsx")); err != nil {
		t.Fatalf("unowned file not in error area: %v", err)
	}
	if len(f.mail.bySubject(reports.FailureSubject)) != 0 {
		t.Fatal("no sender notification expected for unowned files")
	}
}

func TestProcessIgnoresForeignExtensions(t *testing.T) {
	f := newFixture(t)
	stray := filepath.Join(f.cfg.Paths.StagingDir, "readme.txt")
	if err := os.WriteFile(stray, []byte("leave me"), 0o644); err != nil {
		t.Fatalf("write stray: %v", err)
	}

	summary, err := f.runner.Process(context.Background(), map[string]string{})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Processed != 0 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("stray file should stay put: %v", err)
	}
}

func TestReprocessingIsNoOp(t *testing.T) {
	f := newFixture(t)
	staged := f.stage(t, "AX_1.xlsx", primarySheet([][2]string{{"Title*", "ok"}}))
	owners := map[string]string{staged: "a@x.org"}

	if _, err := f.runner.Process(context.Background(), owners); err != nil {
		t.Fatalf("first Process failed: %v", err)
	}
	summary, err := f.runner.Process(context.Background(), owners)
	if err != nil {
		t.Fatalf("second Process failed: %v", err)
	}
	if summary.Processed != 0 {
		t.Fatalf("expected no-op on reprocess, got %#v", summary)
	}
	if got := len(f.mail.bySubject(reports.SuccessSubject)); got != 1 {
		t.Fatalf("expected exactly one success report, got %d", got)
	}
}

func TestProcessDiscardsPartialOutputOnAuxiliaryFailure(t *testing.T) {
	f := newFixture(t)
	// Secondary sheet without a header row fails the auxiliary build
	// after the primary document has already been written.
	staged := f.stage(t, "AX_1.xlsx",
		primarySheet([][2]string{{"Title*", "ok"}}),
		testsupport.WorkbookSheet{Name: "empty"},
	)

	summary, err := f.runner.Process(context.Background(), map[string]string{staged: "a@x.org"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}

	entries, err := os.ReadDir(f.cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("partial output should be discarded, found %d entries", len(entries))
	}
	if _, err := os.Stat(filepath.Join(f.cfg.Paths.ErrorDir, "AX_1.xlsx")); err != nil {
		t.Fatalf("original not in error area: %v", err)
	}
}
