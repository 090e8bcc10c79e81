package ledger

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/transaction"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

// Tx is the view of the store available inside a unit of work.
type Tx interface {
	GetWallet(ctx context.Context, id string) (wallet.Wallet, error)
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	InsertTransaction(ctx context.Context, tx transaction.Transaction) error
}

// Store backs the engine. Atomically runs fn with exclusive access to walletIDs and
// persists its writes only when fn returns nil.
type Store interface {
	Atomically(ctx context.Context, walletIDs []string, fn func(ctx context.Context, tx Tx) error) error
	Wallets() wallet.Repository
	Transactions() transaction.Repository
}

// lockOrder returns the distinct non-empty ids in ascending order.
func lockOrder(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
