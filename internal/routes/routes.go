package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/neurowallet/neurowallet/internal/config"
	"github.com/neurowallet/neurowallet/internal/identity"
	"github.com/neurowallet/neurowallet/internal/ledger"
	"github.com/neurowallet/neurowallet/internal/middleware"
	"github.com/neurowallet/neurowallet/internal/notification"
	"github.com/neurowallet/neurowallet/internal/rates"
	"github.com/neurowallet/neurowallet/internal/risk"
	"github.com/neurowallet/neurowallet/internal/transaction"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	verifier, err := identity.NewVerifier(d.Cfg.JWTSecret)
	if err != nil {
		return err
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	var (
		store      ledger.Store
		walletRepo wallet.Repository
	)
	if d.DB != nil {
		pgStore := ledger.NewPostgresStore(d.DB)
		store, walletRepo = pgStore, pgStore.Wallets()
	} else {
		d.Logger.Warn("DATABASE_URL not set, using in-memory stores")
		walletRepo = wallet.NewMemoryRepository()
		store = ledger.NewMemoryStore(walletRepo, transaction.NewMemoryRepository())
	}

	notifiers := notification.Multi{notification.NewLoggerNotifier(d.Logger)}
	opts := []ledger.Option{ledger.WithLogger(d.Logger)}
	if d.Cache != nil {
		notifiers = append(notifiers, notification.NewStreamNotifier(d.Cache, d.Cfg.EventsStream))
		opts = append(opts, ledger.WithLocker(ledger.NewRedisLocker(d.Cache, ledger.RedisLockOptions{Expiry: d.Cfg.LockExpiry})))
	}
	opts = append(opts, ledger.WithNotifier(notifiers))

	engine := ledger.NewEngine(store,
		risk.NewClassifier(d.Cfg.RiskThresholds),
		rates.NewTable(d.Cfg.ExchangeRates),
		opts...,
	)
	walletHandler := wallet.NewHandler(wallet.NewService(walletRepo, d.Cfg.SupportedCurrencies, d.Logger))
	ledgerHandler := ledger.NewHandler(engine)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	protected := api.Group("", middleware.Authenticate(verifier), middleware.Audit(d.Logger))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransactionRoutes(protected, ledgerHandler, middleware.TransactionRateLimit(d.Cache, d.Cfg.TxRateLimitPerMin, d.Logger))
	RegisterAdminRoutes(protected.Group("/admin", middleware.RequireAdmin()), walletHandler, ledgerHandler)

	return nil
}
