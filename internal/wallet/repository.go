package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Repository persists wallets.
type Repository interface {
	Get(ctx context.Context, id string) (Wallet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Wallet, error)
	GetByOwnerAndCurrency(ctx context.Context, ownerID, currency string) (Wallet, error)
	Create(ctx context.Context, wallet Wallet) error
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Wallet, error)
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db DBTX
}

// NewPostgresRepository builds a repository on a pool or an open transaction.
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `SELECT id, owner_id, currency, balance::text, status, created_at FROM wallets`

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, wallet Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO wallets (id, owner_id, currency, balance, status, created_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $6)`, walletID, wallet.OwnerID, wallet.Currency, wallet.Balance.String(), wallet.Status, wallet.CreatedAt.UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrExists
	}
	return err
}

// Get fetches a wallet by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Wallet, error) {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return Wallet{}, ErrNotFound
	}
	return scanWallet(r.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, walletID))
}

// GetByOwnerAndCurrency fetches the owner's wallet in currency.
func (r *PostgresRepository) GetByOwnerAndCurrency(ctx context.Context, ownerID, currency string) (Wallet, error) {
	return scanWallet(r.db.QueryRow(ctx, selectColumns+` WHERE owner_id = $1 AND currency = $2`, ownerID, currency))
}

// ListByOwner returns every wallet held by ownerID.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]Wallet, error) {
	return r.query(ctx, selectColumns+` WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
}

// List returns every wallet.
func (r *PostgresRepository) List(ctx context.Context) ([]Wallet, error) {
	return r.query(ctx, selectColumns+` ORDER BY created_at, id`)
}

// UpdateBalance overwrites the balance column only.
func (r *PostgresRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	return r.update(ctx, `UPDATE wallets SET balance = $1::numeric WHERE id = $2`, balance.String(), id)
}

// UpdateStatus overwrites the status column only.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.update(ctx, `UPDATE wallets SET status = $1 WHERE id = $2`, status, id)
}

func (r *PostgresRepository) update(ctx context.Context, sql string, value any, id string) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, sql, value, walletID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a wallet. Transactions recorded against it are kept.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM wallets WHERE id = $1`, walletID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LockForUpdate row-locks the given wallets in id order. Identifiers that do not parse
// or do not exist are skipped; callers discover them on the following Get.
func (r *PostgresRepository) LockForUpdate(ctx context.Context, ids []string) error {
	parsed := make([]string, 0, len(ids))
	for _, id := range ids {
		if walletID, err := uuid.Parse(id); err == nil {
			parsed = append(parsed, walletID.String())
		}
	}
	if len(parsed) == 0 {
		return nil
	}
	rows, err := r.db.Query(ctx, `SELECT id FROM wallets WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`, parsed)
	if err != nil {
		return fmt.Errorf("lock wallets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var locked uuid.UUID
		if err := rows.Scan(&locked); err != nil {
			return fmt.Errorf("lock wallets: %w", err)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) query(ctx context.Context, sql string, args ...any) ([]Wallet, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		balance   string
		createdAt time.Time
	)
	if err := row.Scan(&id, &w.OwnerID, &w.Currency, &balance, &w.Status, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, fmt.Errorf("wallet %s balance: %w", id, err)
	}
	w.ID = id.String()
	w.Balance = amount
	w.CreatedAt = createdAt.UTC()
	return w, nil
}
