package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mealplanner/internal/amqp"
	"mealplanner/internal/cache"
	"mealplanner/internal/core"
	"mealplanner/internal/log"
	"mealplanner/internal/shopping"
)

var (
	// ErrExportUnavailable is returned when no message broker is configured.
	ErrExportUnavailable = errors.New("shopping list export is not configured")
	// ErrEmptyRange is returned when exporting a range that ends before it starts.
	ErrEmptyRange = errors.New("the selected date is before today")
)

// buildTimeout bounds a shared list build once its callers have gone.
const buildTimeout = 30 * time.Second

// Builder computes a shopping list.
type Builder interface {
	Build(ctx context.Context, userID int64, today, selected core.Date) (shopping.List, error)
}

// Publisher enqueues export requests.
type Publisher interface {
	PublishShoppingListExport(ctx context.Context, msg *amqp.ShoppingListExportMessage) error
}

// ShoppingListService serves shopping lists from a per-user cache and
// publishes export requests.
type ShoppingListService struct {
	builder   Builder
	cache     cache.Cache[shopping.List]
	group     singleflight.Group
	publisher Publisher
	logger    *log.Logger

	mu          sync.Mutex
	generations map[int64]uint64
}

// NewShoppingListService wires the service. A nil cache disables caching and
// a nil publisher disables exports.
func NewShoppingListService(builder Builder, c cache.Cache[shopping.List], publisher Publisher, logger *log.Logger) *ShoppingListService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ShoppingListService{
		builder:     builder,
		cache:       c,
		publisher:   publisher,
		logger:      logger.WithComponent(log.ComponentShopping),
		generations: make(map[int64]uint64),
	}
}

func userPrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}

func cacheKey(userID int64, from, to core.Date) string {
	return fmt.Sprintf("%s%s:%s", userPrefix(userID), from, to)
}

// List returns the shopping list for [today, selected]. Concurrent identical
// requests share one build.
func (s *ShoppingListService) List(ctx context.Context, userID int64, today, selected core.Date) (shopping.List, error) {
	if selected.Before(today.Time) {
		return shopping.List{}, nil
	}

	key := cacheKey(userID, today, selected)
	if s.cache != nil {
		if l, ok := s.cache.Get(key); ok {
			return l, nil
		}
	}

	gen := s.generation(userID)
	ch := s.group.DoChan(fmt.Sprintf("%s#%d", key, gen), func() (any, error) {
		// Shared by every waiting caller; outlives the request that started it.
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), buildTimeout)
		defer cancel()
		l, err := s.builder.Build(bctx, userID, today, selected)
		if err != nil {
			return shopping.List{}, err
		}
		s.store(userID, gen, key, l)
		return l, nil
	})

	select {
	case <-ctx.Done():
		return shopping.List{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return shopping.List{}, res.Err
		}
		if res.Shared {
			s.logger.DebugContext(ctx, "Shopping list build shared", log.FieldUserID, userID)
		}
		return res.Val.(shopping.List), nil
	}
}

func (s *ShoppingListService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// store caches l unless the user's data changed while it was being built.
func (s *ShoppingListService) store(userID int64, gen uint64, key string, l shopping.List) {
	if s.cache == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] == gen {
		s.cache.Set(key, l)
	}
}

// Invalidate drops every cached list of the user. Call it after any write
// that can change what the user's lists contain.
func (s *ShoppingListService) Invalidate(userID int64) {
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if n := s.cache.DeletePrefix(userPrefix(userID)); n > 0 {
		s.logger.Debug("Shopping list cache invalidated", log.FieldUserID, userID, "entries", n)
	}
}

// ExportEnabled reports whether exports can be requested.
func (s *ShoppingListService) ExportEnabled() bool {
	return s.publisher != nil
}

// RequestExport enqueues a spreadsheet export of [today, selected].
func (s *ShoppingListService) RequestExport(ctx context.Context, userID int64, today, selected core.Date) error {
	if s.publisher == nil {
		return ErrExportUnavailable
	}
	if selected.Before(today.Time) {
		return ErrEmptyRange
	}
	msg := amqp.NewShoppingListExportMessage(userID, today, selected)
	if err := s.publisher.PublishShoppingListExport(ctx, msg); err != nil {
		log.NewStructuredLogger(s.logger).LogError(ctx, "Failed to request shopping list export", err,
			log.ComponentShopping, log.OpExport, log.NewFields().WithUser(userID, "").WithRange(msg.From, msg.To))
		return fmt.Errorf("publish export: %w", err)
	}
	return nil
}
