package transaction

import (
	"context"
	"errors"
	"sync"
)

// ErrDuplicate is returned when a record with the same ID was already saved.
var ErrDuplicate = errors.New("transaction already recorded")

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Transaction
}

// NewMemoryRepository constructs an in-memory repository for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Transaction)}
}

func (r *memoryRepository) Save(_ context.Context, tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[tx.ID]; exists {
		return ErrDuplicate
	}
	r.storage[tx.ID] = tx
	return nil
}

func (r *memoryRepository) ListForWallets(_ context.Context, walletIDs []string, key SortKey) ([]Transaction, error) {
	wanted := make(map[string]struct{}, len(walletIDs))
	for _, id := range walletIDs {
		wanted[id] = struct{}{}
	}

	r.mu.RLock()
	var out []Transaction
	for _, tx := range r.storage {
		if _, ok := wanted[tx.WalletID]; ok {
			out = append(out, tx)
		}
	}
	r.mu.RUnlock()

	Sort(out, key)
	return out, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Transaction, error) {
	r.mu.RLock()
	out := make([]Transaction, 0, len(r.storage))
	for _, tx := range r.storage {
		out = append(out, tx)
	}
	r.mu.RUnlock()

	Sort(out, SortCreatedAt)
	return out, nil
}
