package backend

import (
	"context"
	"time"

	"spendlens/internal/services"
	"spendlens/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult is the assembled application core: the store, the service
// driving it and a cleanup for every resource opened on the way.
type BackendResult struct {
	Store      store.TransactionStore
	Statements *services.StatementService
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type   BackendType
	Dedupe bool
	// SeedSample merges the sample statement once the store is open.
	SeedSample   bool
	ViewCacheTTL time.Duration

	// SQLite specific
	SQLiteDSN string

	// Ingestion events, optional
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Summary export, optional
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
