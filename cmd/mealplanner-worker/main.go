package main

import (
	"os"
	"time"

	"mealplanner/internal/amqp"
	"mealplanner/internal/cli"
	"mealplanner/internal/config"
	"mealplanner/internal/log"
	gsheet "mealplanner/internal/sheets/google"
	"mealplanner/internal/shopping"
	"mealplanner/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(log.ComponentWorker, cfg.LogLevel)
	logger.Info("Starting mealplanner-worker")
	cfg = cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	creds, err := gsheet.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		logger.Error("Failed to load Google credentials", log.FieldError, err)
		os.Exit(1)
	}
	sheetsClient, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, creds, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(shopping.NewService(repo, logger), repo, sheetsClient, logger)
	if err := exporter.Run(ctx, amqpClient, 10*time.Minute); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	s := exporter.Stats()
	logger.Info("Worker shutdown complete", "exported", s.Exported, "skipped", s.Skipped, "failed", s.Failed)
}
