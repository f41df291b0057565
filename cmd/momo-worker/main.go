package main

import (
	"context"
	"errors"
	"os"
	"time"

	"momo/internal/amqp"
	"momo/internal/cli"
	"momo/internal/log"
	gsheet "momo/internal/sheets/google"
	"momo/internal/worker"
)

const catchUpInterval = 5 * time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting momo-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateExport(); err != nil {
		logger.Error("Export configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	ledger, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		_ = amqpClient.Close()
		_ = repo.Close()
	})

	if err := ledger.EnsureHeader(ctx); err != nil {
		logger.Error("Failed to prepare ledger sheet", log.FieldError, err)
		// keep going; appends still work on a sheet without a header
	}

	exporter := worker.NewExportWorker(repo, ledger, cfg.ExportBatchSize, logger)

	// Catch up on anything imported while the worker was down.
	if n, err := exporter.StartupSync(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	} else {
		logger.Info("Startup export complete", log.FieldCount, n)
	}

	go func() {
		err := amqpClient.ConsumeImportCompleted(ctx, exporter.HandleImportCompleted)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
	}()

	// Periodic catch-up for events lost while the broker was unreachable.
	go func() {
		ticker := time.NewTicker(catchUpInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := exporter.ExportPending(ctx); err != nil {
					logger.Error("Periodic export failed", log.FieldError, err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped", "last_exported_id", exporter.LastExported())
}
