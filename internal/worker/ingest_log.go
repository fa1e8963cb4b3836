// Package worker consumes statement events published by the server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/cache"
	"spendlens/internal/log"
	"spendlens/internal/sheets"
)

const (
	seenCapacity = 1024
	seenTTL      = time.Hour
)

// Consumer delivers statement events from a queue.
type Consumer interface {
	ConsumeStatementIngested(ctx context.Context, queue string, handler amqp.IngestedHandler) error
}

// IngestLogWorker appends every statement event to the ingestion log sheet.
type IngestLogWorker struct {
	sink       sheets.IngestionLogger
	seen       *cache.LRUCache[struct{}]
	logger     *log.Logger
	retryDelay time.Duration

	handled atomic.Int64
	skipped atomic.Int64
}

func NewIngestLogWorker(sink sheets.IngestionLogger, logger *log.Logger) *IngestLogWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &IngestLogWorker{
		sink:       sink,
		seen:       cache.NewLRUCache[struct{}](seenCapacity, seenTTL),
		logger:     logger.WithComponent(log.ComponentWorker),
		retryDelay: 5 * time.Second,
	}
}

// Seen exposes the redelivery cache so it can be registered for cleanup.
func (w *IngestLogWorker) Seen() *cache.LRUCache[struct{}] {
	return w.seen
}

// HandleIngested appends msg to the log. A redelivered event is appended
// only once while it stays in the cache.
func (w *IngestLogWorker) HandleIngested(ctx context.Context, msg *amqp.StatementIngestedMessage) error {
	key := eventKey(msg)
	if _, dup := w.seen.Get(key); dup {
		w.skipped.Add(1)
		w.logger.DebugContext(ctx, "Skipping duplicate statement event",
			log.FieldEntry, msg.Entry,
			log.FieldVersion, msg.Version)
		return nil
	}

	ref, err := w.sink.AppendIngestion(ctx, sheets.IngestionEvent{
		At:          msg.Timestamp,
		Source:      msg.Source,
		Entry:       msg.Entry,
		Rows:        msg.Rows,
		Dropped:     msg.Dropped,
		Total:       msg.Total,
		Version:     msg.Version,
		TotalSpend:  msg.TotalSpend,
		TotalIncome: msg.TotalIncome,
	})
	if err != nil {
		return fmt.Errorf("append ingestion: %w", err)
	}
	w.seen.Set(key, struct{}{})
	w.handled.Add(1)

	w.logger.InfoContext(ctx, "Statement event logged",
		log.FieldSource, msg.Source,
		log.FieldEntry, msg.Entry,
		log.FieldVersion, msg.Version,
		log.FieldRef, ref)
	return nil
}

// Run consumes queue until ctx ends, resubscribing after broker errors.
func (w *IngestLogWorker) Run(ctx context.Context, consumer Consumer, queue string) error {
	for {
		err := consumer.ConsumeStatementIngested(ctx, queue, w.HandleIngested)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("consumer stopped")
		}
		w.logger.WarnContext(ctx, "Consumer stopped, resubscribing",
			log.FieldError, err,
			"retry_in", w.retryDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.retryDelay):
		}
	}
}

// Stats returns how many events were logged and how many were skipped as
// redeliveries.
func (w *IngestLogWorker) Stats() (handled, skipped int64) {
	return w.handled.Load(), w.skipped.Load()
}

func eventKey(msg *amqp.StatementIngestedMessage) string {
	return msg.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + strconv.FormatInt(msg.Version, 10) + "|" + msg.Entry
}
