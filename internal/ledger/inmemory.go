package ledger

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/transaction"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

type balanceBatcher interface {
	UpdateBalances(ctx context.Context, balances map[string]decimal.Decimal) error
}

// MemoryStore serialises postings with per-wallet mutexes taken in id order and stages
// writes until the unit of work succeeds.
type MemoryStore struct {
	wallets      wallet.Repository
	transactions transaction.Repository
	locks        keyedMutex
}

// NewMemoryStore wraps in-process repositories.
func NewMemoryStore(wallets wallet.Repository, transactions transaction.Repository) *MemoryStore {
	return &MemoryStore{
		wallets:      wallets,
		transactions: transactions,
		locks:        keyedMutex{locks: make(map[string]*refMutex)},
	}
}

// Wallets returns the wrapped wallet repository.
func (s *MemoryStore) Wallets() wallet.Repository { return s.wallets }

// Transactions returns the wrapped transaction repository.
func (s *MemoryStore) Transactions() transaction.Repository { return s.transactions }

// Atomically holds the wallet locks for the duration of fn and flushes staged writes on success.
func (s *MemoryStore) Atomically(ctx context.Context, walletIDs []string, fn func(ctx context.Context, tx Tx) error) error {
	ids := lockOrder(walletIDs)
	for _, id := range ids {
		s.locks.Lock(id)
	}
	defer func() {
		for i := len(ids) - 1; i >= 0; i-- {
			s.locks.Unlock(ids[i])
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{store: s, balances: make(map[string]decimal.Decimal)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

type memoryTx struct {
	store    *MemoryStore
	balances map[string]decimal.Decimal
	original map[string]decimal.Decimal
	records  []transaction.Transaction
}

func (t *memoryTx) GetWallet(ctx context.Context, id string) (wallet.Wallet, error) {
	w, err := t.store.wallets.Get(ctx, id)
	if err != nil {
		return wallet.Wallet{}, err
	}
	if staged, ok := t.balances[id]; ok {
		w.Balance = staged
	}
	return w, nil
}

func (t *memoryTx) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	if _, ok := t.balances[id]; !ok {
		current, err := t.store.wallets.Get(ctx, id)
		if err != nil {
			return err
		}
		if t.original == nil {
			t.original = make(map[string]decimal.Decimal)
		}
		t.original[id] = current.Balance
	}
	t.balances[id] = balance
	return nil
}

func (t *memoryTx) InsertTransaction(_ context.Context, record transaction.Transaction) error {
	t.records = append(t.records, record)
	return nil
}

func (t *memoryTx) commit(ctx context.Context) error {
	if err := t.writeBalances(ctx, t.balances); err != nil {
		return err
	}
	for _, record := range t.records {
		if err := t.store.transactions.Save(ctx, record); err != nil {
			if restoreErr := t.writeBalances(ctx, t.original); restoreErr != nil {
				return restoreErr
			}
			return err
		}
	}
	return nil
}

func (t *memoryTx) writeBalances(ctx context.Context, balances map[string]decimal.Decimal) error {
	if len(balances) == 0 {
		return nil
	}
	if batcher, ok := t.store.wallets.(balanceBatcher); ok {
		return batcher.UpdateBalances(ctx, balances)
	}
	for id, balance := range balances {
		if err := t.store.wallets.UpdateBalance(ctx, id, balance); err != nil {
			return err
		}
	}
	return nil
}

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once no goroutine holds or waits on it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func (k *keyedMutex) Lock(key string) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
}

func (k *keyedMutex) Unlock(key string) {
	k.mu.Lock()
	m := k.locks[key]
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	m.Unlock()
}
