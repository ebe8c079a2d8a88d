package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/core"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestNextAttemptResetsAfterHealthySession(t *testing.T) {
	tests := []struct {
		name      string
		attempt   int
		delivered int
		ran       time.Duration
		expected  int
	}{
		{"dial failure keeps growing", 3, 0, 10 * time.Millisecond, 3},
		{"delivered messages", 7, 1, time.Second, 0},
		{"long idle session", 7, 0, maxBackoff, 0},
		{"short idle session", 2, 0, 5 * time.Second, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, nextAttempt(tt.attempt, tt.delivered, tt.ran))
		})
	}

	attempt := 0
	for i := 0; i < 6; i++ {
		attempt = nextAttempt(attempt, 0, 0) + 1
	}
	require.Equal(t, maxBackoff, exponentialBackoff(attempt))
	assert.Equal(t, time.Second, exponentialBackoff(nextAttempt(attempt, 1, 0)))
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"refused", errors.New("connection refused"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed sentinel", fmt.Errorf("publish: %w", amqp091.ErrClosed), true},
		{"validation", errors.New("invalid input"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isConnectionError(tt.err))
		})
	}
}

func TestClientCircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}

	assert.False(t, client.isCircuitOpen(), "closed initially")

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	assert.True(t, client.isCircuitOpen())

	client.lastFailure = time.Now().Add(-openTimeout - time.Second)
	assert.False(t, client.isCircuitOpen(), "half-open after timeout")
	assert.Equal(t, StateHalfOpen, atomic.LoadInt32(&client.state))

	client.recordFailure()
	assert.True(t, client.isCircuitOpen(), "a failure while half-open reopens")

	client.recordSuccess()
	assert.False(t, client.isCircuitOpen())
	assert.Zero(t, atomic.LoadInt64(&client.failureCount))
}

func TestPublishShortCircuits(t *testing.T) {
	client := &Client{exchangeName: "test_exchange", queueName: "test_queue"}
	msg := NewShoppingListExportMessage(1, core.NewDate(2025, 3, 1), core.NewDate(2025, 3, 7))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, client.PublishShoppingListExport(ctx, msg), context.Canceled)

	atomic.StoreInt32(&client.state, StateOpen)
	client.lastFailure = time.Now()
	assert.ErrorIs(t, client.PublishShoppingListExport(context.Background(), msg), ErrCircuitOpen)
}

type fakeAcknowledger struct {
	acked, nacked, requeued int
}

func (f *fakeAcknowledger) Ack(uint64, bool) error { f.acked++; return nil }

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked++
	if requeue {
		f.requeued++
	}
	return nil
}

func (f *fakeAcknowledger) Reject(uint64, bool) error { return nil }

func TestHandleDelivery(t *testing.T) {
	valid := []byte(`{"user_id":3,"from":"2025-03-01","to":"2025-03-07","requested_at":"2025-03-01T08:00:00Z"}`)

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantCalls  int
		want       fakeAcknowledger
	}{
		{"processed", valid, nil, 1, fakeAcknowledger{acked: 1}},
		{"handler failure requeues", valid, errors.New("sheets down"), 1, fakeAcknowledger{nacked: 1, requeued: 1}},
		{"garbage dropped", []byte("{nope"), nil, 0, fakeAcknowledger{nacked: 1}},
		{"reversed range dropped", []byte(`{"user_id":3,"from":"2025-03-07","to":"2025-03-01"}`), nil, 0, fakeAcknowledger{nacked: 1}},
		{"missing user dropped", []byte(`{"from":"2025-03-01","to":"2025-03-01"}`), nil, 0, fakeAcknowledger{nacked: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			calls := 0
			client := &Client{queueName: "q"}
			client.handleDelivery(context.Background(), amqp091.Delivery{Acknowledger: ack, Body: tt.body},
				func(_ context.Context, msg *ShoppingListExportMessage) error {
					calls++
					assert.EqualValues(t, 3, msg.UserID)
					return tt.handlerErr
				})
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.want, *ack)
		})
	}
}

func TestShoppingListExportMessage(t *testing.T) {
	msg := NewShoppingListExportMessage(7, core.NewDate(2025, 1, 30), core.NewDate(2025, 2, 2))
	assert.Equal(t, "2025-01-30", msg.From)
	assert.Equal(t, "2025-02-02", msg.To)
	assert.WithinDuration(t, time.Now(), msg.RequestedAt, time.Second)

	body, err := msg.ToJSON()
	require.NoError(t, err)
	parsed, err := ShoppingListExportMessageFromJSON(body)
	require.NoError(t, err)

	from, to, err := parsed.Range()
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 1, 30), from)
	assert.Equal(t, core.NewDate(2025, 2, 2), to)

	_, err = ShoppingListExportMessageFromJSON([]byte(`{"user_id":1,"from":"yesterday","to":"2025-01-01"}`))
	assert.Error(t, err)
}
