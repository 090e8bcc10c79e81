package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/transaction"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

// PostgresStore runs each posting inside a single PostgreSQL transaction with the
// touched wallet rows locked.
type PostgresStore struct {
	db           *pgxpool.Pool
	wallets      *wallet.PostgresRepository
	transactions *transaction.PostgresRepository
}

// NewPostgresStore constructs a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		db:           db,
		wallets:      wallet.NewPostgresRepository(db),
		transactions: transaction.NewPostgresRepository(db),
	}
}

// Wallets returns a pool-backed wallet repository.
func (s *PostgresStore) Wallets() wallet.Repository { return s.wallets }

// Transactions returns a pool-backed transaction repository.
func (s *PostgresStore) Transactions() transaction.Repository { return s.transactions }

// Atomically locks walletIDs with SELECT ... FOR UPDATE in id order, runs fn and commits.
func (s *PostgresStore) Atomically(ctx context.Context, walletIDs []string, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	wallets := wallet.NewPostgresRepository(tx)
	if err := wallets.LockForUpdate(ctx, lockOrder(walletIDs)); err != nil {
		return err
	}
	if err := fn(ctx, &postgresTx{wallets: wallets, transactions: transaction.NewPostgresRepository(tx)}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type postgresTx struct {
	wallets      *wallet.PostgresRepository
	transactions *transaction.PostgresRepository
}

func (t *postgresTx) GetWallet(ctx context.Context, id string) (wallet.Wallet, error) {
	return t.wallets.Get(ctx, id)
}

func (t *postgresTx) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return t.wallets.UpdateBalance(ctx, id, balance)
}

func (t *postgresTx) InsertTransaction(ctx context.Context, record transaction.Transaction) error {
	return t.transactions.Save(ctx, record)
}
