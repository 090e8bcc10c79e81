package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/identity"
	"github.com/neurowallet/neurowallet/internal/notification"
	"github.com/neurowallet/neurowallet/internal/rates"
	"github.com/neurowallet/neurowallet/internal/risk"
	"github.com/neurowallet/neurowallet/internal/transaction"
	"github.com/neurowallet/neurowallet/internal/wallet"
)

var (
	// ErrNotFound indicates a referenced wallet does not exist.
	ErrNotFound = wallet.ErrNotFound
	// ErrUnauthorized indicates the caller does not own a referenced wallet.
	ErrUnauthorized = wallet.ErrNotOwner
	// ErrWalletFrozen indicates a referenced wallet is frozen.
	ErrWalletFrozen = wallet.ErrFrozen
	// ErrRateUnavailable indicates no conversion rate exists for the currency pair.
	ErrRateUnavailable = rates.ErrRateUnavailable

	// ErrInsufficientFunds occurs when the source wallet cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidRequest covers malformed requests: non-positive amounts, unsupported
	// types, and transfers without a distinct destination.
	ErrInvalidRequest = errors.New("invalid transaction request")
	// ErrUnavailable wraps failures of the backing store or lock service.
	ErrUnavailable = errors.New("ledger unavailable")
)

var domainErrors = []error{
	ErrNotFound,
	ErrUnauthorized,
	ErrWalletFrozen,
	ErrRateUnavailable,
	ErrInsufficientFunds,
	ErrInvalidRequest,
	ErrUnavailable,
}

// Request asks the engine to post one transaction.
type Request struct {
	WalletID    string
	Amount      decimal.Decimal
	Type        transaction.Type
	ToWalletID  string
	Description string
}

func (r Request) walletIDs() []string {
	if r.Type == transaction.TypeTransfer && r.ToWalletID != "" {
		return []string{r.WalletID, r.ToWalletID}
	}
	return []string{r.WalletID}
}

// ListFilter narrows ListForOwner results. Zero values do not filter.
type ListFilter struct {
	Currency string
	Risk     *bool
	Sort     transaction.SortKey
}

// Engine applies transactions to wallets atomically.
type Engine struct {
	store    Store
	risk     *risk.Classifier
	rates    *rates.Table
	logger   *slog.Logger
	notifier notification.Notifier
	locker   Locker
	now      func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithNotifier publishes committed transactions.
func WithNotifier(n notification.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLocker serialises postings across instances in addition to the store's own locking.
func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine builds a ledger engine.
func NewEngine(store Store, classifier *risk.Classifier, table *rates.Table, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		risk:   classifier,
		rates:  table,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Apply validates and posts req on behalf of caller. On error nothing is persisted.
func (e *Engine) Apply(ctx context.Context, req Request, caller identity.Caller) (transaction.Transaction, error) {
	if !req.Amount.IsPositive() {
		return transaction.Transaction{}, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	switch req.Type {
	case transaction.TypeDeposit, transaction.TypeWithdrawal, transaction.TypeTransfer:
	case transaction.TypeConversion:
		return transaction.Transaction{}, fmt.Errorf("%w: conversions are performed through transfers", ErrInvalidRequest)
	default:
		return transaction.Transaction{}, fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, req.Type)
	}

	ids := req.walletIDs()
	if e.locker != nil {
		release, err := e.locker.Lock(ctx, ids)
		if err != nil {
			return transaction.Transaction{}, classify(err)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				e.logger.Warn("release wallet locks", slog.Any("error", err))
			}
		}()
	}

	var record transaction.Transaction
	err := e.store.Atomically(ctx, ids, func(ctx context.Context, tx Tx) error {
		var err error
		record, err = e.post(ctx, tx, req, caller)
		return err
	})
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrUnavailable) {
			e.logger.Error("ledger store failure",
				slog.String("wallet_id", req.WalletID),
				slog.String("type", string(req.Type)),
				slog.Any("error", err),
			)
		}
		return transaction.Transaction{}, err
	}

	e.logger.Info("transaction applied",
		slog.String("transaction_id", record.ID),
		slog.String("type", string(record.Type)),
		slog.String("wallet_id", record.WalletID),
		slog.String("amount", record.Amount.String()),
		slog.String("currency", record.Currency),
		slog.Bool("risk_flag", record.RiskFlag),
	)
	if record.RiskFlag {
		e.logger.Warn("high risk transaction",
			slog.String("transaction_id", record.ID),
			slog.String("owner", caller.Subject),
		)
	}
	e.notify(ctx, caller, record)
	return record, nil
}

func (e *Engine) post(ctx context.Context, tx Tx, req Request, caller identity.Caller) (transaction.Transaction, error) {
	source, err := tx.GetWallet(ctx, req.WalletID)
	if err != nil {
		return transaction.Transaction{}, err
	}
	if err := authorize(caller, source); err != nil {
		return transaction.Transaction{}, err
	}

	amount := req.Amount
	record := transaction.Transaction{
		ID:          uuid.NewString(),
		WalletID:    source.ID,
		Currency:    source.Currency,
		Amount:      amount.Abs(),
		Type:        req.Type,
		Description: strings.TrimSpace(req.Description),
	}

	switch req.Type {
	case transaction.TypeDeposit:
		if err := tx.UpdateBalance(ctx, source.ID, source.Balance.Add(amount)); err != nil {
			return transaction.Transaction{}, err
		}
	case transaction.TypeWithdrawal:
		if source.Balance.LessThan(amount) {
			return transaction.Transaction{}, ErrInsufficientFunds
		}
		if err := tx.UpdateBalance(ctx, source.ID, source.Balance.Sub(amount)); err != nil {
			return transaction.Transaction{}, err
		}
	case transaction.TypeTransfer:
		destination, err := e.transfer(ctx, tx, source, req, caller)
		if err != nil {
			return transaction.Transaction{}, err
		}
		record.CounterpartWalletID = destination.ID
	}

	record.RiskFlag = e.risk.Classify(record.Amount, source.Currency)
	record.CreatedAt = e.now().UTC().Truncate(time.Microsecond)
	if err := tx.InsertTransaction(ctx, record); err != nil {
		return transaction.Transaction{}, err
	}
	return record, nil
}

func (e *Engine) transfer(ctx context.Context, tx Tx, source wallet.Wallet, req Request, caller identity.Caller) (wallet.Wallet, error) {
	if req.ToWalletID == "" {
		return wallet.Wallet{}, fmt.Errorf("%w: destination wallet is required", ErrInvalidRequest)
	}
	if req.ToWalletID == source.ID {
		return wallet.Wallet{}, fmt.Errorf("%w: source and destination must differ", ErrInvalidRequest)
	}
	destination, err := tx.GetWallet(ctx, req.ToWalletID)
	if err != nil {
		return wallet.Wallet{}, err
	}
	if err := authorize(caller, destination); err != nil {
		return wallet.Wallet{}, err
	}
	if source.Balance.LessThan(req.Amount) {
		return wallet.Wallet{}, ErrInsufficientFunds
	}

	credit, err := e.rates.Convert(req.Amount, source.Currency, destination.Currency)
	if err != nil {
		return wallet.Wallet{}, err
	}
	if source.Currency != destination.Currency {
		e.logger.Debug("cross currency transfer",
			slog.String("from", source.Currency),
			slog.String("to", destination.Currency),
			slog.String("debit", req.Amount.String()),
			slog.String("credit", credit.String()),
		)
	}

	if err := tx.UpdateBalance(ctx, source.ID, source.Balance.Sub(req.Amount)); err != nil {
		return wallet.Wallet{}, err
	}
	if err := tx.UpdateBalance(ctx, destination.ID, destination.Balance.Add(credit)); err != nil {
		return wallet.Wallet{}, err
	}
	return destination, nil
}

// authorize is the single capability check applied to every wallet a posting touches.
func authorize(caller identity.Caller, w wallet.Wallet) error {
	if !caller.Owns(w.OwnerID) {
		return ErrUnauthorized
	}
	if w.Frozen() {
		return ErrWalletFrozen
	}
	return nil
}

// ListForOwner returns the transactions recorded against the caller's wallets,
// sorted first and then filtered by currency and risk flag.
func (e *Engine) ListForOwner(ctx context.Context, caller identity.Caller, filter ListFilter) ([]transaction.Transaction, error) {
	wallets, err := e.store.Wallets().ListByOwner(ctx, caller.Subject)
	if err != nil {
		return nil, classify(err)
	}
	if len(wallets) == 0 {
		return []transaction.Transaction{}, nil
	}
	ids := make([]string, 0, len(wallets))
	for _, w := range wallets {
		ids = append(ids, w.ID)
	}

	txs, err := e.store.Transactions().ListForWallets(ctx, ids, filter.Sort)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]transaction.Transaction, 0, len(txs))
	for _, tx := range txs {
		if filter.Currency != "" && !strings.EqualFold(tx.Currency, filter.Currency) {
			continue
		}
		if filter.Risk != nil && tx.RiskFlag != *filter.Risk {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// ListAll returns every recorded transaction. Administrative.
func (e *Engine) ListAll(ctx context.Context) ([]transaction.Transaction, error) {
	txs, err := e.store.Transactions().List(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return txs, nil
}

func (e *Engine) notify(ctx context.Context, caller identity.Caller, record transaction.Transaction) {
	if e.notifier == nil {
		return
	}
	event := notification.Event{
		Kind:          notification.KindTransactionCreated,
		Owner:         caller.Subject,
		TransactionID: record.ID,
		WalletID:      record.WalletID,
		Counterpart:   record.CounterpartWalletID,
		Type:          string(record.Type),
		Currency:      record.Currency,
		Amount:        wallet.FormatAmount(record.Amount),
		RiskFlag:      record.RiskFlag,
		OccurredAt:    record.CreatedAt,
	}
	kinds := []string{notification.KindTransactionCreated}
	if record.RiskFlag {
		kinds = append(kinds, notification.KindTransactionFlagged)
	}
	for _, kind := range kinds {
		event.Kind = kind
		if err := e.notifier.Send(ctx, event); err != nil {
			e.logger.Warn("notification failed",
				slog.String("kind", kind),
				slog.String("transaction_id", record.ID),
				slog.Any("error", err),
			)
		}
	}
}

// classify passes domain errors through and marks everything else as a store failure.
func classify(err error) error {
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
