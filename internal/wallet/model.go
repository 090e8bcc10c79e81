package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// StatusActive wallets accept ledger postings.
	StatusActive = "ACTIVE"
	// StatusFrozen wallets keep their balance until an administrator unfreezes them.
	StatusFrozen = "FROZEN"
)

var (
	// ErrNotFound indicates no wallet exists for the requested identifier.
	ErrNotFound = errors.New("wallet not found")
	// ErrNotOwner indicates the caller does not own the wallet.
	ErrNotOwner = errors.New("unauthorized access to wallet")
	// ErrFrozen indicates the wallet is frozen and its balance cannot change.
	ErrFrozen = errors.New("wallet is frozen")
	// ErrExists indicates the owner already holds a wallet in that currency.
	ErrExists = errors.New("wallet already exists for this currency")
	// ErrUnsupportedCurrency indicates the currency is not offered.
	ErrUnsupportedCurrency = errors.New("unsupported currency")
)

// Wallet is a per-owner, per-currency balance.
type Wallet struct {
	ID        string
	OwnerID   string
	Currency  string
	Balance   decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// Frozen reports whether the wallet is frozen.
func (w Wallet) Frozen() bool {
	return w.Status == StatusFrozen
}

// FormatAmount renders at least two decimal places without dropping precision.
func FormatAmount(d decimal.Decimal) string {
	if d.Exponent() >= -2 {
		return d.StringFixed(2)
	}
	return d.String()
}
