package rates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable is returned when no multiplier exists for a currency pair.
var ErrRateUnavailable = errors.New("exchange rate not available")

// Pair is an ordered currency pair.
type Pair struct {
	From string
	To   string
}

func (p Pair) normalized() Pair {
	return Pair{From: strings.ToUpper(p.From), To: strings.ToUpper(p.To)}
}

// String renders the pair as FROM_TO.
func (p Pair) String() string {
	return p.From + "_" + p.To
}

// DefaultRates returns the fixed multipliers between USD, MYR and SGD.
func DefaultRates() map[Pair]decimal.Decimal {
	return map[Pair]decimal.Decimal{
		{From: "USD", To: "MYR"}: decimal.RequireFromString("4.50"),
		{From: "USD", To: "SGD"}: decimal.RequireFromString("1.35"),
		{From: "MYR", To: "USD"}: decimal.RequireFromString("0.22"),
		{From: "MYR", To: "SGD"}: decimal.RequireFromString("0.30"),
		{From: "SGD", To: "USD"}: decimal.RequireFromString("0.74"),
		{From: "SGD", To: "MYR"}: decimal.RequireFromString("3.33"),
	}
}

// Table is a read-only lookup of currency conversion multipliers.
type Table struct {
	rates map[Pair]decimal.Decimal
}

// NewTable builds a table from a private copy of rates. Self pairs are dropped so a
// lookup for identical currencies always misses.
func NewTable(rates map[Pair]decimal.Decimal) *Table {
	copied := make(map[Pair]decimal.Decimal, len(rates))
	for pair, rate := range rates {
		p := pair.normalized()
		if p.From == p.To {
			continue
		}
		copied[p] = rate
	}
	return &Table{rates: copied}
}

// Rate returns the multiplier converting an amount in from into to.
func (t *Table) Rate(from, to string) (decimal.Decimal, error) {
	pair := Pair{From: from, To: to}.normalized()
	rate, ok := t.rates[pair]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrRateUnavailable, pair)
	}
	return rate, nil
}

// Convert expresses amount in the to currency. Same-currency conversions return amount.
func (t *Table) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if strings.EqualFold(from, to) {
		return amount, nil
	}
	rate, err := t.Rate(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// Len reports how many pairs the table knows.
func (t *Table) Len() int {
	return len(t.rates)
}

// ParsePairs reads a comma separated list such as "USD_MYR=4.50,SGD_USD=0.74".
func ParsePairs(raw string) (map[Pair]decimal.Decimal, error) {
	out := map[Pair]decimal.Decimal{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, found := strings.Cut(item, "=")
		if !found {
			return nil, fmt.Errorf("rate %q: expected FROM_TO=RATE", item)
		}
		from, to, found := strings.Cut(strings.TrimSpace(key), "_")
		if !found || from == "" || to == "" {
			return nil, fmt.Errorf("rate %q: expected FROM_TO=RATE", item)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("rate %q: %w", item, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate %q: must be positive", item)
		}
		out[Pair{From: from, To: to}.normalized()] = rate
	}
	return out, nil
}
