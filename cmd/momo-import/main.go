// Command momo-import loads an SMS backup XML file into the SQLite store
// and announces the batch on AMQP when configured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"momo/internal/amqp"
	"momo/internal/cli"
	"momo/internal/log"
	"momo/internal/services"
)

func main() {
	var (
		file   = flag.String("file", "modified_sms_v2.xml", "path to the SMS backup XML file")
		dbPath = flag.String("db", "", "SQLite database path (default SQLITE_DB_PATH)")
		noPub  = flag.Bool("no-publish", false, "do not publish the import event")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentImport)
	cfg := cli.LoadAndValidateConfig(logger)
	if *dbPath != "" {
		cfg.SQLiteDBPath = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher services.ImportPublisher
	if cfg.AMQPURL != "" && !*noPub {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		publisher = client
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Error("Failed to open SMS backup", log.FieldError, err, "file", *file)
		os.Exit(1)
	}
	defer f.Close()

	res, err := services.NewImportService(repo, publisher, logger).Import(ctx, f)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err, "file", *file)
		os.Exit(1)
	}

	rejected, err := repo.CountRejected(ctx)
	if err != nil {
		logger.Warn("Could not count rejected messages", log.FieldError, err)
	}
	logger.Info("Import finished",
		log.FieldBatchID, res.BatchID,
		log.FieldProcessed, res.Processed,
		log.FieldRejected, res.Rejected,
		"rejected_total", rejected,
		"db", cfg.SQLiteDBPath)
}
