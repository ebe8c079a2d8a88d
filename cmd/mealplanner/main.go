package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"mealplanner/internal/amqp"
	"mealplanner/internal/auth"
	"mealplanner/internal/cache"
	"mealplanner/internal/cli"
	"mealplanner/internal/config"
	apphttp "mealplanner/internal/http"
	"mealplanner/internal/log"
	"mealplanner/internal/services"
	"mealplanner/internal/shopping"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(log.ComponentApp, cfg.LogLevel)
	cfg = cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	lists := cache.NewLRUCache[shopping.List](cfg.ShoppingCacheSize, cfg.ShoppingCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register(lists)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	// The publisher stays a nil interface when AMQP is off so that export
	// reports itself as unavailable.
	var publisher services.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
		logger.Info("Shopping list export enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Shopping list export disabled - no AMQP_URL provided")
	}

	shoppingLists := services.NewShoppingListService(shopping.NewService(repo, logger), lists, publisher, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		Store:              repo,
		Auth:               auth.NewService(repo, logger),
		Sessions:           auth.NewSessions(cfg.SessionSecret, cfg.SecureCookies),
		Shopping:           shoppingLists,
		ShoppingCache:      lists,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting mealplanner server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
