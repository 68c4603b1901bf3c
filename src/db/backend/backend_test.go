package backend

import (
	"context"
	"testing"

	"expense-tracker-server/src/config"
)

func TestOpenMemoryBackend(t *testing.T) {
	b, err := Open(context.Background(), config.Config{DataBackend: config.BackendMemory})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if b.Transactions == nil || b.Users == nil {
		t.Fatalf("memory backend missing stores")
	}
	if err := b.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), config.Config{DataBackend: "redis"}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
