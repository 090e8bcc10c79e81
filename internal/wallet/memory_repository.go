package wallet

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Wallet
}

// NewMemoryRepository constructs an in-memory repository for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Wallet)}
}

func (r *memoryRepository) Create(_ context.Context, wallet Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[wallet.ID]; exists {
		return ErrExists
	}
	for _, existing := range r.storage {
		if existing.OwnerID == wallet.OwnerID && strings.EqualFold(existing.Currency, wallet.Currency) {
			return ErrExists
		}
	}
	r.storage[wallet.ID] = wallet
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	wallet, ok := r.storage[id]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return wallet, nil
}

func (r *memoryRepository) GetByOwnerAndCurrency(_ context.Context, ownerID, currency string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, wallet := range r.storage {
		if wallet.OwnerID == ownerID && strings.EqualFold(wallet.Currency, currency) {
			return wallet, nil
		}
	}
	return Wallet{}, ErrNotFound
}

func (r *memoryRepository) ListByOwner(_ context.Context, ownerID string) ([]Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Wallet
	for _, wallet := range r.storage {
		if wallet.OwnerID == ownerID {
			out = append(out, wallet)
		}
	}
	sortWallets(out)
	return out, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Wallet, 0, len(r.storage))
	for _, wallet := range r.storage {
		out = append(out, wallet)
	}
	sortWallets(out)
	return out, nil
}

func (r *memoryRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return r.UpdateBalances(ctx, map[string]decimal.Decimal{id: balance})
}

// UpdateBalances applies every balance or none of them.
func (r *memoryRepository) UpdateBalances(_ context.Context, balances map[string]decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range balances {
		if _, ok := r.storage[id]; !ok {
			return ErrNotFound
		}
	}
	for id, balance := range balances {
		wallet := r.storage[id]
		wallet.Balance = balance
		r.storage[id] = wallet
	}
	return nil
}

func (r *memoryRepository) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	wallet, ok := r.storage[id]
	if !ok {
		return ErrNotFound
	}
	wallet.Status = status
	r.storage[id] = wallet
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.storage[id]; !ok {
		return ErrNotFound
	}
	delete(r.storage, id)
	return nil
}

func sortWallets(wallets []Wallet) {
	sort.Slice(wallets, func(i, j int) bool {
		if !wallets[i].CreatedAt.Equal(wallets[j].CreatedAt) {
			return wallets[i].CreatedAt.Before(wallets[j].CreatedAt)
		}
		return wallets[i].ID < wallets[j].ID
	})
}
