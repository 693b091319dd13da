// Package main is the entry point for the posledger background worker. It
// drains the ledger outbox and runs periodic cleanup.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"posledger/internal/core/config"
	"posledger/internal/infrastructure/events/kafka"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/internal/infrastructure/storage/postgres/register_repo"
	"posledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting posledger worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	dispatcher := postgres.OutboxDispatcher{
		postgres.EventLedgerEntryDeferred: register_repo.NewLedgerRepo(txManager).ReplayDeferred(),
		postgres.EventLedgerEntryRecorded: discard,
	}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warnw("kafka writer close failed", "error", err)
			}
		}()
		dispatcher[postgres.EventLedgerEntryRecorded] = publisher
		log.Infow("publishing ledger entries", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	worker := &Worker{
		relay:       postgres.NewOutboxRelay(txManager, cfg.OutboxBatchSize, dispatcher),
		idempotency: postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		interval:    cfg.OutboxInterval,
		retention:   cfg.OutboxRetention,
		log:         log.WithComponent("worker"),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// discard acknowledges recorded-entry notices when no broker is configured.
var discard = postgres.OutboxHandlerFunc(func(context.Context, *postgres.OutboxMessage) error {
	return nil
})

// Worker polls the outbox and runs hourly housekeeping.
type Worker struct {
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	interval    time.Duration
	retention   time.Duration
	log         *logger.Logger
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// drain processes batches until one comes back short.
func (w *Worker) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n == 0 {
			return
		}
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	if n, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("move to DLQ failed", "error", err)
	} else if n > 0 {
		w.log.Warnw("outbox messages dead-lettered", "count", n)
	}

	if n, err := w.relay.PurgePublished(ctx, w.retention); err != nil {
		w.log.Errorw("purge published messages failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published messages", "count", n)
	}

	if n, err := w.idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
