package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/identity"
	"github.com/neurowallet/neurowallet/internal/logging"
)

func newTestService() (*Service, Repository) {
	repo := NewMemoryRepository()
	return NewService(repo, []string{"MYR", "SGD", "USD"}, logging.Discard()), repo
}

func TestServiceCreateAndGet(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	alice := identity.Caller{Subject: "alice@example.com"}

	wallet, err := svc.Create(ctx, alice, "usd")
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if wallet.Currency != "USD" || wallet.Status != StatusActive || !wallet.Balance.IsZero() {
		t.Fatalf("unexpected new wallet: %+v", wallet)
	}

	fetched, err := svc.Get(ctx, alice, wallet.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if fetched.ID != wallet.ID || fetched.OwnerID != alice.Subject {
		t.Fatalf("expected wallet %s, got %+v", wallet.ID, fetched)
	}

	if _, err := svc.Get(ctx, identity.Caller{Subject: "bob@example.com"}, wallet.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner, got %v", err)
	}
	if _, err := svc.Get(ctx, alice, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestServiceCreateRejects(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	alice := identity.Caller{Subject: "alice@example.com"}

	if _, err := svc.Create(ctx, alice, "MYR"); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if _, err := svc.Create(ctx, alice, "myr"); !errors.Is(err, ErrExists) {
		t.Fatalf("expected duplicate currency error, got %v", err)
	}
	if _, err := svc.Create(ctx, alice, "EUR"); !errors.Is(err, ErrUnsupportedCurrency) {
		t.Fatalf("expected unsupported currency, got %v", err)
	}
	if _, err := svc.Create(ctx, identity.Caller{}, "USD"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected anonymous caller rejection, got %v", err)
	}
	if _, err := svc.Create(ctx, identity.Caller{Subject: "bob@example.com"}, "MYR"); err != nil {
		t.Fatalf("other owners may hold the same currency: %v", err)
	}
}

func TestServiceListAndDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	alice := identity.Caller{Subject: "alice@example.com"}
	bob := identity.Caller{Subject: "bob@example.com"}

	usd, _ := svc.Create(ctx, alice, "USD")
	_, _ = svc.Create(ctx, alice, "SGD")
	_, _ = svc.Create(ctx, bob, "USD")

	wallets, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(wallets) != 2 {
		t.Fatalf("expected 2 wallets, got %d", len(wallets))
	}

	if err := svc.Delete(ctx, bob, usd.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected not owner on delete, got %v", err)
	}
	if err := svc.Delete(ctx, alice, usd.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, alice, usd.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted wallet to be gone, got %v", err)
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 wallets overall, got %d", len(all))
	}
}

func TestServiceFreezeKeepsBalance(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	alice := identity.Caller{Subject: "alice@example.com"}

	wallet, _ := svc.Create(ctx, alice, "SGD")
	if err := repo.UpdateBalance(ctx, wallet.ID, decimal.RequireFromString("3000.00")); err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	frozen, err := svc.Freeze(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("freeze: %v", err)
	}
	if !frozen.Frozen() || !frozen.Balance.Equal(decimal.RequireFromString("3000")) {
		t.Fatalf("unexpected frozen wallet: %+v", frozen)
	}

	active, err := svc.Unfreeze(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if active.Status != StatusActive {
		t.Fatalf("expected ACTIVE, got %s", active.Status)
	}

	if _, err := svc.Freeze(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"100":    "100.00",
		"1480.0": "1480.00",
		"7.3326": "7.3326",
		"0":      "0.00",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatAmount(%s) = %s, want %s", in, got, want)
		}
	}
}
