package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/amqp"
	"spendlens/internal/log"
	"spendlens/internal/sheets"
)

type fakeSink struct {
	mu     sync.Mutex
	events []sheets.IngestionEvent
	err    error
}

func (s *fakeSink) AppendIngestion(_ context.Context, ev sheets.IngestionEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.events = append(s.events, ev)
	return "Ingestions!A2:I2", nil
}

type fakeConsumer struct {
	mu    sync.Mutex
	calls int
	msgs  []*amqp.StatementIngestedMessage
	fail  error
}

// ConsumeStatementIngested delivers msgs on the first call, then fails or
// blocks until ctx ends.
func (c *fakeConsumer) ConsumeStatementIngested(ctx context.Context, _ string, handler amqp.IngestedHandler) error {
	c.mu.Lock()
	c.calls++
	first := c.calls == 1
	c.mu.Unlock()

	if first {
		for _, m := range c.msgs {
			if err := handler(ctx, m); err != nil {
				return err
			}
		}
		if c.fail != nil {
			return c.fail
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Handler: log.NewHandler(io.Discard, "text", log.ParseLevel("error"))})
}

func message(version int64) *amqp.StatementIngestedMessage {
	return &amqp.StatementIngestedMessage{
		Source:      "upload",
		Entry:       "jan.csv",
		Rows:        8,
		Total:       8,
		Version:     version,
		TotalSpend:  "16345",
		TotalIncome: "2000",
		Timestamp:   time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandleIngested(t *testing.T) {
	sink := &fakeSink{}
	w := NewIngestLogWorker(sink, quietLogger())
	ctx := context.Background()

	require.NoError(t, w.HandleIngested(ctx, message(1)))
	require.NoError(t, w.HandleIngested(ctx, message(1)))
	require.NoError(t, w.HandleIngested(ctx, message(2)))

	require.Len(t, sink.events, 2)
	assert.Equal(t, "jan.csv", sink.events[0].Entry)
	assert.Equal(t, int64(2), sink.events[1].Version)
	assert.Equal(t, "16345", sink.events[0].TotalSpend)

	handled, skipped := w.Stats()
	assert.Equal(t, int64(2), handled)
	assert.Equal(t, int64(1), skipped)
}

func TestHandleIngestedSinkFailure(t *testing.T) {
	sink := &fakeSink{err: errors.New("quota exceeded")}
	w := NewIngestLogWorker(sink, quietLogger())

	err := w.HandleIngested(context.Background(), message(1))
	require.ErrorContains(t, err, "quota exceeded")

	// The failed event is not remembered, so a redelivery is retried.
	sink.err = nil
	require.NoError(t, w.HandleIngested(context.Background(), message(1)))
	assert.Len(t, sink.events, 1)
}

func TestRunResubscribes(t *testing.T) {
	sink := &fakeSink{}
	w := NewIngestLogWorker(sink, quietLogger())
	w.retryDelay = time.Millisecond
	consumer := &fakeConsumer{
		msgs: []*amqp.StatementIngestedMessage{message(1), message(2)},
		fail: amqp.ErrDeliveriesClosed,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, consumer, "spendlens.ingestions") }()

	require.Eventually(t, func() bool {
		consumer.mu.Lock()
		defer consumer.mu.Unlock()
		return consumer.calls >= 2
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Len(t, sink.events, 2)
}
