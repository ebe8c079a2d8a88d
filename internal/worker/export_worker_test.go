package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mealplanner/internal/amqp"
	"mealplanner/internal/core"
	"mealplanner/internal/sheets/memory"
	"mealplanner/internal/shopping"
	"mealplanner/internal/units"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeBuilder struct {
	got struct {
		userID        int64
		from, through core.Date
	}
	err error
}

func (b *fakeBuilder) Build(_ context.Context, userID int64, today, selected core.Date) (shopping.List, error) {
	b.got.userID, b.got.from, b.got.through = userID, today, selected
	if b.err != nil {
		return shopping.List{}, b.err
	}
	return shopping.List{Items: []shopping.Item{
		{Name: "rice", Quantities: []units.Quantity{units.New(400, units.Gram)}},
	}}, nil
}

type fakeUsers map[int64]core.User

func (f fakeUsers) GetUserByID(_ context.Context, id int64) (core.User, error) {
	u, ok := f[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func message(userID int64) *amqp.ShoppingListExportMessage {
	return amqp.NewShoppingListExportMessage(userID, core.NewDate(2025, 3, 3), core.NewDate(2025, 3, 9))
}

func TestHandleExportMessageWritesTab(t *testing.T) {
	b := &fakeBuilder{}
	w := memory.New()
	ew := NewExportWorker(b, fakeUsers{5: {ID: 5, Username: "ada"}}, w, nil)

	require.NoError(t, ew.HandleExportMessage(context.Background(), message(5)))

	assert.EqualValues(t, 5, b.got.userID)
	assert.Equal(t, core.NewDate(2025, 3, 3), b.got.from)
	assert.Equal(t, core.NewDate(2025, 3, 9), b.got.through)

	rows, ok := w.Tab("ada 2025-03-03..2025-03-09")
	require.True(t, ok)
	assert.Equal(t, []string{"rice", "400", "gram"}, rows[1])
	assert.Equal(t, Stats{Exported: 1}, ew.Stats())
}

func TestHandleExportMessageUnknownUserIsDropped(t *testing.T) {
	w := memory.New()
	ew := NewExportWorker(&fakeBuilder{}, fakeUsers{}, w, nil)

	assert.NoError(t, ew.HandleExportMessage(context.Background(), message(9)))
	assert.Zero(t, w.Writes())
	assert.Equal(t, Stats{Skipped: 1}, ew.Stats())
}

func TestHandleExportMessageFailuresAreRetried(t *testing.T) {
	users := fakeUsers{5: {ID: 5, Username: "ada"}}

	ew := NewExportWorker(&fakeBuilder{err: errors.New("database is locked")}, users, memory.New(), nil)
	assert.Error(t, ew.HandleExportMessage(context.Background(), message(5)))

	w := memory.New()
	w.Err = errors.New("quota exceeded")
	ew = NewExportWorker(&fakeBuilder{}, users, w, nil)
	assert.Error(t, ew.HandleExportMessage(context.Background(), message(5)))
	assert.Equal(t, Stats{Failed: 1}, ew.Stats())
}

// fakeConsumer delivers queued messages then blocks until cancelled.
type fakeConsumer struct {
	msgs    []*amqp.ShoppingListExportMessage
	results []error
	err     error
}

func (c *fakeConsumer) ConsumeShoppingListExports(ctx context.Context, handler amqp.Handler) error {
	for _, m := range c.msgs {
		c.results = append(c.results, handler(ctx, m))
	}
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunStopsOnCancel(t *testing.T) {
	w := memory.New()
	ew := NewExportWorker(&fakeBuilder{}, fakeUsers{1: {ID: 1, Username: "bo"}}, w, nil)
	consumer := &fakeConsumer{msgs: []*amqp.ShoppingListExportMessage{message(1), message(1)}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ew.Run(ctx, consumer, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return w.Writes() == 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestRunReturnsConsumerError(t *testing.T) {
	boom := errors.New("channel closed")
	ew := NewExportWorker(&fakeBuilder{}, fakeUsers{}, memory.New(), nil)

	err := ew.Run(context.Background(), &fakeConsumer{err: boom}, time.Hour)
	assert.ErrorIs(t, err, boom)
}
