// Package testutil provides shared fixtures for store-backed tests.
package testutil

import (
	"testing"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	if err := s.Migrate(); err != nil {
		t.Fatalf("migrating test store: %v", err)
	}

	return s
}
