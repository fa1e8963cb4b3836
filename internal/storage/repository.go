package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendlens/internal/core"
	"spendlens/internal/store"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the database in process memory.
const MemoryDSN = ":memory:"

var _ store.TransactionStore = (*SQLiteRepository)(nil)

// SQLiteRepository stores the session's transactions in SQLite. The table is
// emptied when the repository opens, so nothing outlives the process.
type SQLiteRepository struct {
	db   *sql.DB
	opts store.Options
}

func NewSQLiteRepository(dsn string, opts store.Options) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	if !isMemoryDSN(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// merges must serialize anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateUp(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "dsn", dsn, "schema_version", version)

	repo := &SQLiteRepository{db: db, opts: opts}
	if err := repo.clearSession(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("clear session data: %w", err)
	}

	return repo, nil
}

// clearSession drops rows left behind by a previous process.
func (r *SQLiteRepository) clearSession(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE store_meta SET value = 0 WHERE key = 'version'`)
	return err
}

func isMemoryDSN(dsn string) bool {
	return dsn == MemoryDSN || strings.Contains(dsn, "mode=memory")
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectOrdered = `
SELECT id, occurred_at, merchant, category, amount, type
FROM transactions
ORDER BY occurred_at DESC, batch DESC, position ASC`

func (r *SQLiteRepository) Snapshot(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectOrdered)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx         core.Transaction
			occurredAt sql.NullInt64
			amount     string
		)
		if err := rows.Scan(&tx.ID, &occurredAt, &tx.Merchant, &tx.Category, &amount, &tx.Type); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if occurredAt.Valid {
			tx.Date = time.UnixMicro(occurredAt.Int64).UTC()
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount for %s: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Merge(ctx context.Context, incoming []core.Transaction) (store.MergeResult, error) {
	for _, tx := range incoming {
		if err := tx.Validate(); err != nil {
			return store.MergeResult{}, err
		}
	}

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("begin merge: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	version, err := bumpVersion(ctx, dbtx)
	if err != nil {
		return store.MergeResult{}, err
	}

	insert, err := dbtx.PrepareContext(ctx, `
INSERT INTO transactions (id, occurred_at, merchant, category, amount, type, content_hash, batch, position)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return store.MergeResult{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	seen := make(map[string]struct{})
	added, dropped := 0, 0
	for _, tx := range incoming {
		hash := tx.ContentHash()
		if r.opts.Dedupe {
			dup, err := r.isDuplicate(ctx, dbtx, hash, seen)
			if err != nil {
				return store.MergeResult{}, err
			}
			if dup {
				dropped++
				continue
			}
			seen[hash] = struct{}{}
		}

		var occurredAt sql.NullInt64
		if tx.HasDate() {
			occurredAt = sql.NullInt64{Int64: tx.Date.UnixMicro(), Valid: true}
		}
		if _, err := insert.ExecContext(ctx,
			tx.ID, occurredAt, tx.Merchant, tx.Category, tx.Amount.String(), tx.Type, hash, version, added,
		); err != nil {
			return store.MergeResult{}, fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
		added++
	}

	var total int
	if err := dbtx.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&total); err != nil {
		return store.MergeResult{}, fmt.Errorf("count transactions: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return store.MergeResult{}, fmt.Errorf("commit merge: %w", err)
	}

	slog.DebugContext(ctx, "Merged transactions into SQLite",
		"added", added,
		"dropped", dropped,
		"total", total,
		"version", version)

	return store.MergeResult{Added: added, Dropped: dropped, Total: total, Version: version}, nil
}

func (r *SQLiteRepository) isDuplicate(ctx context.Context, dbtx *sql.Tx, hash string, seen map[string]struct{}) (bool, error) {
	if _, ok := seen[hash]; ok {
		return true, nil
	}
	var one int
	err := dbtx.QueryRowContext(ctx, `SELECT 1 FROM transactions WHERE content_hash = ? LIMIT 1`, hash).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("check duplicate: %w", err)
	default:
		return true, nil
	}
}

func bumpVersion(ctx context.Context, dbtx *sql.Tx) (int64, error) {
	if _, err := dbtx.ExecContext(ctx, `UPDATE store_meta SET value = value + 1 WHERE key = 'version'`); err != nil {
		return 0, fmt.Errorf("bump version: %w", err)
	}
	var version int64
	if err := dbtx.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'version'`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return version, nil
}

func (r *SQLiteRepository) Version(ctx context.Context) (int64, error) {
	var version int64
	if err := r.db.QueryRowContext(ctx, `SELECT value FROM store_meta WHERE key = 'version'`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return version, nil
}

func (r *SQLiteRepository) Reset(ctx context.Context) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = dbtx.Rollback() }()

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	if _, err := bumpVersion(ctx, dbtx); err != nil {
		return err
	}
	return dbtx.Commit()
}
