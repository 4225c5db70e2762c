// Package processing defines the transaction-batch processors that turn
// raw transaction records into relational rows.
package processing

import (
	"context"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
)

// Processor consumes one contiguous, version-ordered batch of transactions
// and persists its extracted rows. Implementations are one per entity
// family; decoding is synchronous, persistence fans out internally.
type Processor interface {
	Name() string

	// ProcessBatch handles transactions covering [startVersion, endVersion].
	// On error the caller owns the retry of the whole range; every write is
	// idempotent so a full retry is safe.
	ProcessBatch(ctx context.Context, txns []*domain.Transaction, startVersion, endVersion uint64) (*Result, error)
}

// Result summarizes one successfully processed batch.
type Result struct {
	StartVersion             uint64
	EndVersion               uint64
	ProcessingDuration       time.Duration
	DBInsertionDuration      time.Duration
	LastTransactionTimestamp time.Time
}
