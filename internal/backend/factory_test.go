package backend

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/config"
	"spendlens/internal/log"
	"spendlens/internal/storage"
)

func testFactory() Factory {
	return NewFactory(log.New(log.Config{Component: "test", Handler: slog.NewTextHandler(io.Discard, nil)}))
}

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantCount int
	}{
		{
			name:      "memory seeded with sample",
			config:    Config{Type: MemoryBackend, SeedSample: true},
			wantCount: 8,
		},
		{
			name:   "memory empty",
			config: Config{Type: MemoryBackend},
		},
		{
			name:      "sqlite in memory seeded with sample",
			config:    Config{Type: SQLiteBackend, SQLiteDSN: storage.MemoryDSN, SeedSample: true},
			wantCount: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := testFactory().CreateBackend(ctx, tt.config)
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, res.Cleanup()) })

			txs, err := res.Store.Snapshot(ctx)
			require.NoError(t, err)
			assert.Len(t, txs, tt.wantCount)

			summary, err := res.Statements.Summary(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, summary.Count)
			assert.False(t, res.Statements.ExportEnabled())
		})
	}
}

func TestCreateBackend_DedupeOption(t *testing.T) {
	ctx := context.Background()
	res, err := testFactory().CreateBackend(ctx, Config{Type: MemoryBackend, Dedupe: true, SeedSample: true})
	require.NoError(t, err)
	defer res.Cleanup()

	again, err := res.Statements.LoadSample(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Merge.Added)
	assert.Equal(t, 8, again.Merge.Dropped)
}

func TestCreateBackend_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"unknown type", Config{Type: "sheets"}},
		{"sqlite without dsn", Config{Type: SQLiteBackend}},
		{"amqp without routing key", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost/", AMQPExchange: "x"}},
		{"export without credentials", Config{Type: MemoryBackend, GoogleSpreadsheetID: "abc", GoogleSheetName: "Summary"}},
		{"export without sheet name", Config{Type: MemoryBackend, GoogleSpreadsheetID: "abc", GoogleServiceAccountJSON: "{}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := testFactory().CreateBackend(context.Background(), tt.config)
			assert.Error(t, err)
			assert.Nil(t, res)
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    "sqlite",
		SQLiteDSN:      "./data/test.db",
		DedupeUploads:  true,
		SeedSample:     true,
		CacheTTL:       time.Minute,
		AMQPURL:        "amqp://localhost/",
		AMQPExchange:   "spendlens",
		AMQPRoutingKey: "statement.ingested",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "./data/test.db", cfg.SQLiteDSN)
	assert.True(t, cfg.Dedupe)
	assert.True(t, cfg.SeedSample)
	assert.Equal(t, time.Minute, cfg.ViewCacheTTL)
	assert.Equal(t, "statement.ingested", cfg.AMQPRoutingKey)
	assert.NoError(t, cfg.Validate())
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"memory", "sqlite"}, GetBackendTypeStrings())
}
