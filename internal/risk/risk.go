package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Thresholds maps an upper-cased currency code to the amount above which a
// transaction in that currency is considered risky.
type Thresholds map[string]decimal.Decimal

// DefaultThresholds returns the production thresholds for the supported currencies.
func DefaultThresholds() Thresholds {
	return Thresholds{
		"MYR": decimal.RequireFromString("5000.00"),
		"SGD": decimal.RequireFromString("1500.00"),
		"USD": decimal.RequireFromString("1200.00"),
	}
}

// Classifier flags transactions whose magnitude exceeds a per-currency threshold.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier builds a classifier over a private copy of the provided thresholds.
func NewClassifier(thresholds Thresholds) *Classifier {
	copied := make(Thresholds, len(thresholds))
	for currency, limit := range thresholds {
		copied[strings.ToUpper(currency)] = limit
	}
	return &Classifier{thresholds: copied}
}

// Classify reports whether amount is strictly above the threshold for currency.
// Currencies without a threshold are never risky.
func (c *Classifier) Classify(amount decimal.Decimal, currency string) bool {
	limit, ok := c.Threshold(currency)
	if !ok {
		return false
	}
	return amount.GreaterThan(limit)
}

// Threshold returns the configured limit for currency.
func (c *Classifier) Threshold(currency string) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	limit, ok := c.thresholds[strings.ToUpper(currency)]
	return limit, ok
}

// ParseThresholds reads a comma separated list such as "MYR=5000.00,USD=1200".
func ParseThresholds(raw string) (Thresholds, error) {
	out := Thresholds{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		currency, value, found := strings.Cut(item, "=")
		if !found {
			return nil, fmt.Errorf("threshold %q: expected CURRENCY=AMOUNT", item)
		}
		limit, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("threshold %q: %w", item, err)
		}
		if limit.IsNegative() {
			return nil, fmt.Errorf("threshold %q: must not be negative", item)
		}
		out[strings.ToUpper(strings.TrimSpace(currency))] = limit
	}
	return out, nil
}
