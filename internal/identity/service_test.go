package identity

import (
	"context"
	"testing"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	actor, err := svc.Register(ctx, Credentials{Name: "alice", PIN: "4321"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if actor.Name != "alice" {
		t.Fatalf("unexpected name: %s", actor.Name)
	}

	if _, err := svc.Authenticate(ctx, Credentials{Name: "alice", PIN: "4321"}); err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if _, err := svc.Authenticate(ctx, Credentials{Name: "alice", PIN: "9999"}); err == nil {
		t.Fatal("expected bad PIN to fail")
	}
}

func TestRegisterRejectsInvalidName(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	for _, name := range []string{"", "Alice", "has space", "waytoolongname", ".dot", "dot.", "ninth9"} {
		if _, err := svc.Register(ctx, Credentials{Name: name, PIN: "4321"}); err == nil {
			t.Fatalf("expected name %q to be rejected", name)
		}
	}
}

func TestIsAccount(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Credentials{Name: "miner.one", PIN: "4321"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ok, err := svc.IsAccount(ctx, "miner.one")
	if err != nil || !ok {
		t.Fatalf("expected miner.one to exist, ok=%v err=%v", ok, err)
	}
	ok, err = svc.IsAccount(ctx, "ghost")
	if err != nil || ok {
		t.Fatalf("expected ghost to be absent, ok=%v err=%v", ok, err)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.Bootstrap(ctx, "lode.ledger", "owner-pin")
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	second, err := svc.Bootstrap(ctx, "lode.ledger", "owner-pin")
	if err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("bootstrap created a duplicate actor")
	}
}

func TestBootstrapOwnerCanLogIn(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Bootstrap(ctx, "lode.ledger", "owner-pin"); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	// the name is taken, but the configured PIN must still authenticate
	if _, err := svc.Register(ctx, Credentials{Name: "lode.ledger", PIN: "other"}); err == nil {
		t.Fatal("expected re-register of the owner name to fail")
	}
	actor, err := svc.Authenticate(ctx, Credentials{Name: "lode.ledger", PIN: "owner-pin"})
	if err != nil {
		t.Fatalf("owner must be able to authenticate with the bootstrap PIN: %v", err)
	}
	if actor.Name != "lode.ledger" {
		t.Fatalf("unexpected actor: %s", actor.Name)
	}
}
