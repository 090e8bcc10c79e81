package notification

import (
	"context"
	"log/slog"
	"time"
)

const (
	// KindTransactionCreated is emitted for every committed ledger transaction.
	KindTransactionCreated = "transaction.created"
	// KindTransactionFlagged is emitted in addition when the transaction exceeds the risk threshold.
	KindTransactionFlagged = "transaction.flagged"
)

// Event describes a committed ledger transaction for downstream consumers.
type Event struct {
	Kind          string    `json:"kind"`
	Owner         string    `json:"owner"`
	TransactionID string    `json:"transaction_id"`
	WalletID      string    `json:"wallet_id"`
	Counterpart   string    `json:"counterpart_wallet_id,omitempty"`
	Type          string    `json:"type"`
	Currency      string    `json:"currency"`
	Amount        string    `json:"amount"`
	RiskFlag      bool      `json:"risk_flag"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Notifier delivers events to downstream systems.
type Notifier interface {
	Send(ctx context.Context, event Event) error
}

// LoggerNotifier writes events to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the event to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, event Event) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", event.Kind),
		slog.String("owner", event.Owner),
		slog.String("transaction_id", event.TransactionID),
		slog.String("amount", event.Amount),
		slog.String("currency", event.Currency),
	)
	return nil
}

// Multi fans an event out to every notifier, returning the first error.
type Multi []Notifier

// Send delivers to each notifier in order.
func (m Multi) Send(ctx context.Context, event Event) error {
	var first error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
