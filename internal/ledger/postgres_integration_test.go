//go:build integration

package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/neurowallet/neurowallet/internal/infra"
	"github.com/neurowallet/neurowallet/internal/logging"
	"github.com/neurowallet/neurowallet/internal/rates"
	"github.com/neurowallet/neurowallet/internal/risk"
	"github.com/neurowallet/neurowallet/internal/transaction"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("neurowallet"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := infra.NewPostgresPool(ctx, dsn, infra.PostgresOptions{MaxConns: 16})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, infra.EnsureSchema(ctx, pool))
	return pool
}

func TestIntegration_PostgresStore(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	store := NewPostgresStore(pool)
	engine := NewEngine(store,
		risk.NewClassifier(risk.DefaultThresholds()),
		rates.NewTable(rates.DefaultRates()),
		WithLogger(logging.Discard()),
	)

	newWallet := func(currency, balance string) wallet.Wallet {
		w := wallet.Wallet{
			ID:        uuid.NewString(),
			OwnerID:   alice.Subject,
			Currency:  currency,
			Balance:   decimal.RequireFromString(balance),
			Status:    wallet.StatusActive,
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, store.Wallets().Create(ctx, w))
		return w
	}
	balance := func(id string) decimal.Decimal {
		w, err := store.Wallets().Get(ctx, id)
		require.NoError(t, err)
		return w.Balance
	}

	sgd := newWallet("SGD", "3000.00")
	usd := newWallet("USD", "0")

	t.Run("cross currency transfer", func(t *testing.T) {
		record, err := engine.Apply(ctx, Request{
			WalletID: sgd.ID, Amount: decimal.RequireFromString("2000.00"), Type: transaction.TypeTransfer, ToWalletID: usd.ID,
		}, alice)
		require.NoError(t, err)
		assert.True(t, record.RiskFlag)
		assert.True(t, balance(sgd.ID).Equal(decimal.RequireFromString("1000")))
		assert.True(t, balance(usd.ID).Equal(decimal.RequireFromString("1480")))
	})

	t.Run("rejected transfer rolls back", func(t *testing.T) {
		_, err := engine.Apply(ctx, Request{
			WalletID: sgd.ID, Amount: decimal.RequireFromString("1000.01"), Type: transaction.TypeTransfer, ToWalletID: usd.ID,
		}, alice)
		require.ErrorIs(t, err, ErrInsufficientFunds)
		assert.True(t, balance(sgd.ID).Equal(decimal.RequireFromString("1000")))
	})

	t.Run("concurrent withdrawals", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 30; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = engine.Apply(ctx, Request{
					WalletID: usd.ID, Amount: decimal.RequireFromString("100"), Type: transaction.TypeWithdrawal,
				}, alice)
			}()
		}
		wg.Wait()
		assert.True(t, balance(usd.ID).Equal(decimal.RequireFromString("80")))
	})

	t.Run("listing", func(t *testing.T) {
		txs, err := engine.ListForOwner(ctx, alice, ListFilter{Currency: "SGD"})
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, usd.ID, txs[0].CounterpartWalletID)

		byAmount, err := engine.ListForOwner(ctx, alice, ListFilter{Sort: transaction.SortAmount})
		require.NoError(t, err)
		require.Len(t, byAmount, 15)
		assert.True(t, byAmount[0].Amount.Equal(decimal.RequireFromString("2000")))
	})
}
