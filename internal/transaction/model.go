package transaction

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Type identifies the kind of balance-affecting operation.
type Type string

const (
	TypeDeposit    Type = "DEPOSIT"
	TypeWithdrawal Type = "WITHDRAWAL"
	TypeTransfer   Type = "TRANSFER"
	TypeConversion Type = "CONVERSION"
)

// ErrUnknownType is returned by ParseType for unrecognised values.
var ErrUnknownType = errors.New("unknown transaction type")

// ParseType matches a transaction type case-insensitively.
func ParseType(raw string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(raw))); t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypeConversion:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
}

// SortKey selects the listing order.
type SortKey string

const (
	// SortCreatedAt orders newest first.
	SortCreatedAt SortKey = "createdAt"
	// SortAmount orders largest amount first.
	SortAmount SortKey = "amount"
)

// ParseSortKey returns SortAmount for "amount" and SortCreatedAt for anything else.
func ParseSortKey(raw string) SortKey {
	if strings.EqualFold(strings.TrimSpace(raw), string(SortAmount)) {
		return SortAmount
	}
	return SortCreatedAt
}

// Transaction is an immutable record of one balance-affecting operation, recorded
// against a single wallet. Amount is always a magnitude; direction follows from Type.
type Transaction struct {
	ID       string
	WalletID string
	// CounterpartWalletID is the destination of a transfer; empty otherwise.
	CounterpartWalletID string
	Currency            string
	Amount              decimal.Decimal
	Type                Type
	RiskFlag            bool
	CreatedAt           time.Time
	Description         string
}
