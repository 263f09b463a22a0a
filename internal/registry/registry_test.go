package registry_test

import (
	"context"
	"testing"

	"github.com/kingsdigitallab/finding-africa/internal/registry"
	"github.com/kingsdigitallab/finding-africa/internal/testsupport"
)

func TestNextSequenceAdvancesAndPersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	testsupport.RegisterSender(t, store, "a@x.org", "AX", "en")

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := store.NextSequence(ctx, "a@x.org")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected sequence %d, got %d", want, got)
		}
	}

	sender, err := store.Get(ctx, "a@x.org")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sender.Sequence != 3 {
		t.Fatalf("expected persisted sequence 3, got %d", sender.Sequence)
	}
}

func TestNextSequenceSurvivesReopen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Upsert(ctx, registry.Sender{Address: "a@x.org", Code: "AX"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if _, err := store.NextSequence(ctx, "a@x.org"); err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenRegistry(t, cfg)
	got, err := reopened.NextSequence(ctx, "a@x.org")
	if err != nil {
		t.Fatalf("NextSequence after reopen failed: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected sequence 2 after reopen, got %d", got)
	}
}

func TestNextSequenceUnregisteredSender(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)

	if _, err := store.NextSequence(context.Background(), "z@unknown.com"); err == nil {
		t.Fatal("expected error for unregistered sender")
	}
}

func TestGetUnknownSenderReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)

	sender, err := store.Get(context.Background(), "z@unknown.com")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sender != nil {
		t.Fatalf("expected nil for unknown sender, got %#v", sender)
	}
}

func TestUpsertPreservesSequence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	testsupport.RegisterSender(t, store, "a@x.org", "AX", "en")

	ctx := context.Background()
	if _, err := store.NextSequence(ctx, "a@x.org"); err != nil {
		t.Fatalf("NextSequence failed: %v", err)
	}

	if err := store.Upsert(ctx, registry.Sender{Address: "a@x.org", Code: "AX", Language: "fr"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	sender, err := store.Get(ctx, "a@x.org")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if sender.Language != "fr" {
		t.Fatalf("expected updated language fr, got %q", sender.Language)
	}
	if sender.Sequence != 1 {
		t.Fatalf("expected sequence preserved at 1, got %d", sender.Sequence)
	}
}

func TestUpsertValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	ctx := context.Background()

	cases := []struct {
		name   string
		sender registry.Sender
	}{
		{"missing address", registry.Sender{Code: "AX"}},
		{"not an email", registry.Sender{Address: "nobody", Code: "AX"}},
		{"lower-case code", registry.Sender{Address: "a@x.org", Code: "ax"}},
		{"empty code", registry.Sender{Address: "a@x.org"}},
	}
	for _, tc := range cases {
		if err := store.Upsert(ctx, tc.sender); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestListOrdersByAddress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	testsupport.RegisterSender(t, store, "c@x.org", "CX", "")
	testsupport.RegisterSender(t, store, "a@x.org", "AX", "en")

	senders, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(senders) != 2 {
		t.Fatalf("expected 2 senders, got %d", len(senders))
	}
	if senders[0].Address != "a@x.org" || senders[1].Address != "c@x.org" {
		t.Fatalf("unexpected order: %#v", senders)
	}
}

func TestRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	testsupport.RegisterSender(t, store, "a@x.org", "AX", "en")

	ctx := context.Background()
	if err := store.Remove(ctx, "a@x.org"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := store.Remove(ctx, "a@x.org"); err == nil {
		t.Fatal("expected error removing unknown sender")
	}
}
