package wallet

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/identity"
)

// Service exposes wallet lifecycle operations. Balances only change through the ledger.
type Service struct {
	repo       Repository
	currencies map[string]struct{}
	logger     *slog.Logger
}

// NewService builds a wallet service offering the given currencies.
func NewService(repo Repository, currencies []string, logger *slog.Logger) *Service {
	supported := make(map[string]struct{}, len(currencies))
	for _, c := range currencies {
		supported[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, currencies: supported, logger: logger}
}

// Create provisions an empty, active wallet for the caller in currency.
func (s *Service) Create(ctx context.Context, caller identity.Caller, currency string) (Wallet, error) {
	if caller.Anonymous() {
		return Wallet{}, ErrNotOwner
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if _, ok := s.currencies[currency]; !ok {
		return Wallet{}, ErrUnsupportedCurrency
	}

	if _, err := s.repo.GetByOwnerAndCurrency(ctx, caller.Subject, currency); err == nil {
		return Wallet{}, ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return Wallet{}, err
	}

	wallet := Wallet{
		ID:        uuid.New().String(),
		OwnerID:   caller.Subject,
		Currency:  currency,
		Balance:   decimal.Zero,
		Status:    StatusActive,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		return Wallet{}, err
	}

	s.logger.Info("wallet created",
		slog.String("wallet_id", wallet.ID),
		slog.String("owner", wallet.OwnerID),
		slog.String("currency", wallet.Currency),
	)
	return wallet, nil
}

// List returns every wallet the caller owns.
func (s *Service) List(ctx context.Context, caller identity.Caller) ([]Wallet, error) {
	return s.repo.ListByOwner(ctx, caller.Subject)
}

// Get returns one of the caller's wallets.
func (s *Service) Get(ctx context.Context, caller identity.Caller, id string) (Wallet, error) {
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	if !caller.Owns(wallet.OwnerID) {
		return Wallet{}, ErrNotOwner
	}
	return wallet, nil
}

// Delete removes one of the caller's wallets. Its transaction history is retained.
func (s *Service) Delete(ctx context.Context, caller identity.Caller, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("wallet deleted", slog.String("wallet_id", id), slog.String("owner", caller.Subject))
	return nil
}

// Freeze blocks ledger postings against the wallet.
func (s *Service) Freeze(ctx context.Context, id string) (Wallet, error) {
	return s.setStatus(ctx, id, StatusFrozen)
}

// Unfreeze re-enables ledger postings against the wallet.
func (s *Service) Unfreeze(ctx context.Context, id string) (Wallet, error) {
	return s.setStatus(ctx, id, StatusActive)
}

// ListAll returns every wallet. Administrative.
func (s *Service) ListAll(ctx context.Context) ([]Wallet, error) {
	return s.repo.List(ctx)
}

func (s *Service) setStatus(ctx context.Context, id, status string) (Wallet, error) {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return Wallet{}, err
	}
	wallet, err := s.repo.Get(ctx, id)
	if err != nil {
		return Wallet{}, err
	}
	s.logger.Info("wallet status changed", slog.String("wallet_id", id), slog.String("status", status))
	return wallet, nil
}
