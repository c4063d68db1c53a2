package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"entrate/internal/amqp"
	"entrate/internal/cli"
	"entrate/internal/sheets"
	gsheet "entrate/internal/sheets/google"
	sheetsmem "entrate/internal/sheets/memory"
	"entrate/internal/worker"
)

func main() {
	logger := cli.SetupLogger()
	cli.LoadEnvFile()

	logger.Info("Starting entrate-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	// Mirror target: Google Sheets when configured, otherwise an in-memory
	// sink so the queues still drain during local development.
	var sink sheets.RecordWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		sink = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sink = sheetsmem.New()
		logger.Info("Google Sheets disabled - mirroring to in-memory sink")
	}

	// Initialize AMQP client for consuming messages
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run both consumer loops; if either fails the group context ends and
	// the sibling loop unwinds with it.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeRecordSync(gctx, func(msg *amqp.RecordSyncMessage) error {
			return syncWorker.HandleSyncMessage(gctx, msg)
		})
	})
	g.Go(func() error {
		return amqpClient.ConsumeRecordDelete(gctx, func(msg *amqp.RecordDeleteMessage) error {
			return syncWorker.HandleDeleteMessage(gctx, msg)
		})
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Consumer stopped")
	}

	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped with error", "error", err)
			os.Exit(1)
		}
		logger.Info("Worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
