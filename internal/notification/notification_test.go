package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamNotifierAppendsEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	notifier := NewStreamNotifier(client, "ledger-events")
	event := Event{
		Kind:          KindTransactionFlagged,
		Owner:         "alice@example.com",
		TransactionID: "tx-1",
		WalletID:      "w-1",
		Type:          "TRANSFER",
		Currency:      "SGD",
		Amount:        "2000.00",
		RiskFlag:      true,
		OccurredAt:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, notifier.Send(context.Background(), event))

	entries, err := client.XRange(context.Background(), "ledger-events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindTransactionFlagged, entries[0].Values["kind"])

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["event"].(string)), &decoded))
	assert.Equal(t, event, decoded)
}

type recordingNotifier struct {
	events []Event
	err    error
}

func (r *recordingNotifier) Send(_ context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestMultiDeliversToEveryNotifier(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("down")}
	ok := &recordingNotifier{}

	err := Multi{failing, nil, ok}.Send(context.Background(), Event{Kind: KindTransactionCreated})
	assert.EqualError(t, err, "down")
	assert.Len(t, failing.events, 1)
	assert.Len(t, ok.events, 1)
}
