package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplanner/internal/amqp"
	"mealplanner/internal/cache"
	"mealplanner/internal/core"
	"mealplanner/internal/shopping"
)

type countingBuilder struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (b *countingBuilder) Build(ctx context.Context, userID int64, today, selected core.Date) (shopping.List, error) {
	b.calls.Add(1)
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return shopping.List{}, ctx.Err()
		}
	}
	if b.err != nil {
		return shopping.List{}, b.err
	}
	return shopping.List{Items: []shopping.Item{{Name: selected.String()}}}, nil
}

type recordingPublisher struct {
	msgs []*amqp.ShoppingListExportMessage
	err  error
}

func (p *recordingPublisher) PublishShoppingListExport(_ context.Context, msg *amqp.ShoppingListExportMessage) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

var (
	today    = core.NewDate(2025, 3, 3)
	saturday = core.NewDate(2025, 3, 8)
)

func TestListCachesPerUserAndRange(t *testing.T) {
	b := &countingBuilder{}
	svc := NewShoppingListService(b, cache.NewLRUCache[shopping.List](10, time.Minute), nil, nil)
	ctx := context.Background()

	l, err := svc.List(ctx, 1, today, saturday)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-08", l.Items[0].Name)

	_, _ = svc.List(ctx, 1, today, saturday)
	assert.EqualValues(t, 1, b.calls.Load())

	_, _ = svc.List(ctx, 2, today, saturday)
	_, _ = svc.List(ctx, 1, today, today)
	assert.EqualValues(t, 3, b.calls.Load())

	svc.Invalidate(1)
	_, _ = svc.List(ctx, 1, today, saturday)
	_, _ = svc.List(ctx, 2, today, saturday)
	assert.EqualValues(t, 4, b.calls.Load(), "only user 1 was invalidated")
}

func TestListPastDateIsEmpty(t *testing.T) {
	b := &countingBuilder{}
	svc := NewShoppingListService(b, nil, nil, nil)

	l, err := svc.List(context.Background(), 1, saturday, today)
	require.NoError(t, err)
	assert.True(t, l.Empty())
	assert.Zero(t, b.calls.Load())
}

func TestListCollapsesConcurrentBuilds(t *testing.T) {
	b := &countingBuilder{release: make(chan struct{})}
	svc := NewShoppingListService(b, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.List(context.Background(), 1, today, saturday)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return b.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(b.release)
	wg.Wait()
	assert.LessOrEqual(t, b.calls.Load(), int32(5))
	assert.GreaterOrEqual(t, b.calls.Load(), int32(1))
}

func TestListSurvivesCancelledLeader(t *testing.T) {
	b := &countingBuilder{release: make(chan struct{})}
	c := cache.NewLRUCache[shopping.List](10, time.Minute)
	svc := NewShoppingListService(b, c, nil, nil)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.List(leaderCtx, 1, today, saturday)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return b.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		list shopping.List
		err  error
	}
	follower := make(chan result, 1)
	go func() {
		l, err := svc.List(context.Background(), 1, today, saturday)
		follower <- result{l, err}
	}()
	time.Sleep(10 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting for the build")
	}

	close(b.release)
	got := <-follower
	require.NoError(t, got.err)
	require.Len(t, got.list.Items, 1)
	assert.Equal(t, "2025-03-08", got.list.Items[0].Name)
	assert.EqualValues(t, 1, b.calls.Load(), "follower shared the running build")
	assert.Equal(t, 1, c.Size(), "the shared build is cached even though its first caller left")
}

func TestInvalidateDuringBuildSkipsCaching(t *testing.T) {
	b := &countingBuilder{release: make(chan struct{})}
	c := cache.NewLRUCache[shopping.List](10, time.Minute)
	svc := NewShoppingListService(b, c, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.List(context.Background(), 1, today, saturday)
	}()
	require.Eventually(t, func() bool { return b.calls.Load() == 1 }, time.Second, time.Millisecond)

	svc.Invalidate(1)
	close(b.release)
	<-done

	assert.Zero(t, c.Size(), "a list built before the write must not be cached")
}

func TestListBuildErrorNotCached(t *testing.T) {
	b := &countingBuilder{err: errors.New("db locked")}
	c := cache.NewLRUCache[shopping.List](10, time.Minute)
	svc := NewShoppingListService(b, c, nil, nil)

	_, err := svc.List(context.Background(), 1, today, saturday)
	assert.Error(t, err)
	assert.Zero(t, c.Size())
}

func TestRequestExport(t *testing.T) {
	ctx := context.Background()

	disabled := NewShoppingListService(&countingBuilder{}, nil, nil, nil)
	assert.False(t, disabled.ExportEnabled())
	assert.ErrorIs(t, disabled.RequestExport(ctx, 1, today, saturday), ErrExportUnavailable)

	pub := &recordingPublisher{}
	svc := NewShoppingListService(&countingBuilder{}, nil, pub, nil)
	require.True(t, svc.ExportEnabled())

	assert.ErrorIs(t, svc.RequestExport(ctx, 1, saturday, today), ErrEmptyRange)

	require.NoError(t, svc.RequestExport(ctx, 4, today, saturday))
	require.Len(t, pub.msgs, 1)
	assert.EqualValues(t, 4, pub.msgs[0].UserID)
	assert.Equal(t, "2025-03-03", pub.msgs[0].From)
	assert.Equal(t, "2025-03-08", pub.msgs[0].To)

	pub.err = amqp.ErrCircuitOpen
	assert.ErrorIs(t, svc.RequestExport(ctx, 4, today, saturday), amqp.ErrCircuitOpen)
}
