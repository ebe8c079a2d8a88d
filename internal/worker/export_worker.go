package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"mealplanner/internal/amqp"
	"mealplanner/internal/core"
	"mealplanner/internal/log"
	"mealplanner/internal/sheets"
	"mealplanner/internal/shopping"
)

// Builder computes a user's shopping list for a date range.
type Builder interface {
	Build(ctx context.Context, userID int64, today, selected core.Date) (shopping.List, error)
}

// UserLookup resolves the user an export belongs to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (core.User, error)
}

// Consumer delivers export requests to a handler until ctx is done.
type Consumer interface {
	ConsumeShoppingListExports(ctx context.Context, handler amqp.Handler) error
}

// Stats counts processed export messages.
type Stats struct {
	Exported int64
	Skipped  int64
	Failed   int64
}

// ExportWorker rebuilds requested shopping lists and writes them to the
// spreadsheet.
type ExportWorker struct {
	builder Builder
	users   UserLookup
	writer  sheets.ListWriter
	logger  *log.Logger

	exported atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

func NewExportWorker(builder Builder, users UserLookup, writer sheets.ListWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		builder: builder,
		users:   users,
		writer:  writer,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExportMessage processes one export request. A returned error makes
// the broker redeliver the message; requests for deleted users are dropped.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ShoppingListExportMessage) error {
	from, to, err := msg.Range()
	if err != nil {
		w.skipped.Add(1)
		w.logger.WarnContext(ctx, "Export request has invalid dates", log.FieldError, err)
		return nil
	}

	user, err := w.users.GetUserByID(ctx, msg.UserID)
	if errors.Is(err, core.ErrNotFound) {
		w.skipped.Add(1)
		w.logger.WarnContext(ctx, "Export requested for unknown user", log.FieldUserID, msg.UserID)
		return nil
	}
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("load user %d: %w", msg.UserID, err)
	}

	list, err := w.builder.Build(ctx, user.ID, from, to)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("build shopping list: %w", err)
	}

	export := sheets.Export{Username: user.Username, From: from, To: to, List: list}
	ref, err := w.writer.WriteShoppingList(ctx, export)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("write shopping list: %w", err)
	}

	w.exported.Add(1)
	w.logger.InfoContext(ctx, "Shopping list exported",
		log.FieldUserID, user.ID,
		log.FieldFrom, from.String(),
		log.FieldTo, to.String(),
		log.FieldSheetTab, export.TabTitle(),
		log.FieldItems, len(list.Items),
		log.FieldWarnings, len(list.Warnings),
		"ref", ref,
		"queued_for", time.Since(msg.RequestedAt).Round(time.Millisecond))
	return nil
}

// Stats returns the counters since start.
func (w *ExportWorker) Stats() Stats {
	return Stats{
		Exported: w.exported.Load(),
		Skipped:  w.skipped.Load(),
		Failed:   w.failed.Load(),
	}
}

// Run consumes export requests and logs counters every statsInterval until
// ctx is cancelled or the consumer fails.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer, statsInterval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return consumer.ConsumeShoppingListExports(ctx, w.HandleExportMessage)
	})

	if statsInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(statsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					s := w.Stats()
					w.logger.Info("Export worker stats", "exported", s.Exported, "skipped", s.Skipped, "failed", s.Failed)
				}
			}
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
