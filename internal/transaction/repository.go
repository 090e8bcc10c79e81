package transaction

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Repository persists transaction records.
type Repository interface {
	Save(ctx context.Context, tx Transaction) error
	ListForWallets(ctx context.Context, walletIDs []string, sort SortKey) ([]Transaction, error)
	List(ctx context.Context) ([]Transaction, error)
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores transactions in PostgreSQL.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository builds a repository on a pool or an open transaction.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `SELECT id, wallet_id, COALESCE(counterpart_wallet_id::text, ''), currency, amount::text, type, risk_flag, created_at, description FROM transactions`

// Save inserts a transaction record.
func (r *PostgresRepository) Save(ctx context.Context, tx Transaction) error {
	id, err := uuid.Parse(tx.ID)
	if err != nil {
		return fmt.Errorf("transaction id: %w", err)
	}
	walletID, err := uuid.Parse(tx.WalletID)
	if err != nil {
		return fmt.Errorf("transaction wallet id: %w", err)
	}
	var counterpart *uuid.UUID
	if tx.CounterpartWalletID != "" {
		parsed, err := uuid.Parse(tx.CounterpartWalletID)
		if err != nil {
			return fmt.Errorf("transaction counterpart id: %w", err)
		}
		counterpart = &parsed
	}
	_, err = r.db.Exec(ctx, `INSERT INTO transactions (id, wallet_id, counterpart_wallet_id, currency, amount, type, risk_flag, created_at, description)
        VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)`,
		id, walletID, counterpart, tx.Currency, tx.Amount.String(), string(tx.Type), tx.RiskFlag, tx.CreatedAt.UTC(), tx.Description)
	return err
}

// ListForWallets returns transactions recorded against any of walletIDs.
func (r *PostgresRepository) ListForWallets(ctx context.Context, walletIDs []string, sortKey SortKey) ([]Transaction, error) {
	ids := make([]string, 0, len(walletIDs))
	for _, id := range walletIDs {
		if parsed, err := uuid.Parse(id); err == nil {
			ids = append(ids, parsed.String())
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return r.query(ctx, selectColumns+` WHERE wallet_id = ANY($1::uuid[]) `+orderBy(sortKey), ids)
}

// List returns every transaction, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]Transaction, error) {
	return r.query(ctx, selectColumns+` `+orderBy(SortCreatedAt))
}

func orderBy(key SortKey) string {
	if key == SortAmount {
		return `ORDER BY amount DESC, created_at DESC, id`
	}
	return `ORDER BY created_at DESC, id`
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			t         Transaction
			id        uuid.UUID
			walletID  uuid.UUID
			amount    string
			kind      string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &walletID, &t.CounterpartWalletID, &t.Currency, &amount, &kind, &t.RiskFlag, &createdAt, &t.Description); err != nil {
			return nil, err
		}
		t.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("transaction %s amount: %w", id, err)
		}
		t.ID = id.String()
		t.WalletID = walletID.String()
		t.Type = Type(kind)
		t.CreatedAt = createdAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// Sort orders transactions in place by key, breaking ties by creation time then ID.
func Sort(txs []Transaction, key SortKey) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if key == SortAmount {
			if c := a.Amount.Cmp(b.Amount); c != 0 {
				return c > 0
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
