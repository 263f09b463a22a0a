package testsupport

import (
	"context"
	"testing"

	"github.com/kingsdigitallab/finding-africa/internal/config"
	"github.com/kingsdigitallab/finding-africa/internal/registry"
)

// MustOpenRegistry opens a registry.Store for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RegisterSender adds a sender entry for tests.
func RegisterSender(t testing.TB, store *registry.Store, address, code, lang string) {
	t.Helper()

	err := store.Upsert(context.Background(), registry.Sender{
		Address:  address,
		Code:     code,
		Language: lang,
	})
	if err != nil {
		t.Fatalf("registry.Upsert(%s): %v", address, err)
	}
}
