package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/cache"
	"spendlens/internal/core"
	"spendlens/internal/ingest"
	"spendlens/internal/insights"
	"spendlens/internal/log"
	"spendlens/internal/sheets"
	"spendlens/internal/store"
)

// Sources recorded on ingestion events.
const (
	SourceUpload = "upload"
	SourceSample = "sample"
	SourceCLI    = "cli"
)

// ErrExportDisabled is returned by Export when no exporter is configured.
var ErrExportDisabled = errors.New("summary export is not configured")

// EventPublisher announces completed ingestions.
type EventPublisher interface {
	PublishStatementIngested(ctx context.Context, msg *amqp.StatementIngestedMessage) error
}

type (
	// IngestResult describes one successful ingestion.
	IngestResult struct {
		Source  string
		Entry   string
		Merge   store.MergeResult
		Summary insights.Summary
	}

	Options struct {
		Publisher    EventPublisher
		Exporter     sheets.SummaryExporter
		Logger       *log.Logger
		ViewCacheTTL time.Duration
	}

	// Stats are counters exposed on the metrics endpoint.
	Stats struct {
		Ingestions    int64
		Rejections    int64
		Failures      int64
		RowsIngested  int64
		PublishErrors int64
	}
)

// StatementService owns the ingestion flow: read the archive, normalize the
// rows, merge them into the store and announce the result. The store is left
// untouched when any step before the merge fails.
type StatementService struct {
	store     store.TransactionStore
	pipeline  *ingest.Pipeline
	publisher EventPublisher
	exporter  sheets.SummaryExporter
	logger    *log.Logger
	views     *cache.LRUCache[[]core.Transaction]

	ingestions    atomic.Int64
	rejections    atomic.Int64
	failures      atomic.Int64
	rowsIngested  atomic.Int64
	publishErrors atomic.Int64
}

func NewStatementService(st store.TransactionStore, pipeline *ingest.Pipeline, opts Options) *StatementService {
	if pipeline == nil {
		pipeline = ingest.NewPipeline(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	ttl := opts.ViewCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatementService{
		store:     st,
		pipeline:  pipeline,
		publisher: opts.Publisher,
		exporter:  opts.Exporter,
		logger:    logger.WithComponent(log.ComponentIngest),
		views:     cache.NewLRUCache[[]core.Transaction](128, ttl),
	}
}

// Views exposes the filtered-view cache so it can be registered for cleanup.
func (s *StatementService) Views() *cache.LRUCache[[]core.Transaction] {
	return s.views
}

// Ingest processes an uploaded archive named filename.
func (s *StatementService) Ingest(ctx context.Context, filename string, blob []byte) (IngestResult, error) {
	if err := ingest.CheckFilename(filename); err != nil {
		return IngestResult{}, s.reject(ctx, SourceUpload, err, log.FieldFilename, filename, log.FieldBytes, len(blob))
	}
	return s.IngestArchive(ctx, SourceUpload, blob)
}

// IngestArchive processes archive bytes without a filename check.
func (s *StatementService) IngestArchive(ctx context.Context, source string, blob []byte) (IngestResult, error) {
	batch, err := s.pipeline.Ingest(blob)
	if err != nil {
		if ingest.IsInputRejected(err) {
			return IngestResult{}, s.reject(ctx, source, err, log.FieldBytes, len(blob))
		}
		s.failures.Add(1)
		s.logger.ErrorContext(ctx, "Failed to read statement archive",
			log.FieldSource, source,
			log.FieldBytes, len(blob),
			log.FieldError, err)
		return IngestResult{}, err
	}
	return s.commit(ctx, source, batch)
}

// LoadSample merges the built-in sample statement.
func (s *StatementService) LoadSample(ctx context.Context) (IngestResult, error) {
	return s.commit(ctx, SourceSample, ingest.Batch{
		Entry:        ingest.SampleEntryName,
		Transactions: s.pipeline.Sample(),
	})
}

func (s *StatementService) reject(ctx context.Context, source string, err error, attrs ...any) error {
	s.rejections.Add(1)
	args := append([]any{log.FieldSource, source, log.FieldError, err}, attrs...)
	s.logger.WarnContext(ctx, "Statement rejected", args...)
	return err
}

func (s *StatementService) commit(ctx context.Context, source string, batch ingest.Batch) (IngestResult, error) {
	res, err := s.store.Merge(ctx, batch.Transactions)
	if err != nil {
		s.failures.Add(1)
		return IngestResult{}, fmt.Errorf("merge transactions: %w", err)
	}
	s.views.Purge()
	s.ingestions.Add(1)
	s.rowsIngested.Add(int64(res.Added))

	summary, err := s.Summary(ctx)
	if err != nil {
		return IngestResult{}, err
	}

	s.logger.InfoContext(ctx, "Statement ingested",
		log.FieldSource, source,
		log.FieldEntry, batch.Entry,
		log.FieldRows, res.Added,
		log.FieldDropped, res.Dropped,
		log.FieldTotal, res.Total,
		log.FieldVersion, res.Version)

	s.publish(ctx, source, batch.Entry, res, summary)

	return IngestResult{Source: source, Entry: batch.Entry, Merge: res, Summary: summary}, nil
}

// publish never fails the ingestion; the rows are already stored.
func (s *StatementService) publish(ctx context.Context, source, entry string, res store.MergeResult, summary insights.Summary) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping ingestion event")
		return
	}
	msg := amqp.NewStatementIngestedMessage(source, entry, res.Added)
	msg.Dropped = res.Dropped
	msg.Total = res.Total
	msg.Version = res.Version
	msg.TotalSpend = summary.TotalSpend.String()
	msg.TotalIncome = summary.TotalIncome.String()

	if err := s.publisher.PublishStatementIngested(ctx, msg); err != nil {
		s.publishErrors.Add(1)
		s.logger.ErrorContext(ctx, "Failed to publish ingestion event",
			log.FieldEntry, entry,
			log.FieldError, err)
	}
}

// Snapshot returns the full collection, newest first.
func (s *StatementService) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

// Summary recomputes the aggregate view from the current collection.
func (s *StatementService) Summary(ctx context.Context) (insights.Summary, error) {
	txs, err := s.Snapshot(ctx)
	if err != nil {
		return insights.Summary{}, err
	}
	return insights.Summarize(txs), nil
}

// Transactions returns the filtered table. Results are cached per store
// version, so a merge invalidates them.
func (s *StatementService) Transactions(ctx context.Context, q insights.Query) ([]core.Transaction, error) {
	version, err := s.store.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("read store version: %w", err)
	}
	key := strconv.FormatInt(version, 10) + "|" + q.Key()
	if cached, ok := s.views.Get(key); ok {
		return cached, nil
	}

	txs, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	filtered := insights.Filter(txs, q)
	s.views.Set(key, filtered)
	return filtered, nil
}

// Categories lists the filter choices for the current collection.
func (s *StatementService) Categories(ctx context.Context) ([]string, error) {
	txs, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return insights.Categories(txs), nil
}

func (s *StatementService) ExportEnabled() bool {
	return s.exporter != nil
}

// Export writes the current summary and collection to the exporter.
func (s *StatementService) Export(ctx context.Context) (string, error) {
	if s.exporter == nil {
		return "", ErrExportDisabled
	}
	txs, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	ref, err := s.exporter.ExportSummary(ctx, insights.Summarize(txs), txs)
	if err != nil {
		s.logger.ErrorContext(ctx, "Summary export failed", log.FieldError, err)
		return "", fmt.Errorf("export summary: %w", err)
	}
	return ref, nil
}

// Reset empties the collection.
func (s *StatementService) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset store: %w", err)
	}
	s.views.Purge()
	s.logger.InfoContext(ctx, "Transaction collection cleared")
	return nil
}

func (s *StatementService) Stats() Stats {
	return Stats{
		Ingestions:    s.ingestions.Load(),
		Rejections:    s.rejections.Load(),
		Failures:      s.failures.Load(),
		RowsIngested:  s.rowsIngested.Load(),
		PublishErrors: s.publishErrors.Load(),
	}
}

// Ready reports whether the store answers.
func (s *StatementService) Ready(ctx context.Context) error {
	_, err := s.store.Version(ctx)
	return err
}
