// Package storage defines the repository interfaces implemented by the
// PostgreSQL and Redis backends.
package storage

import (
	"context"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
)

// ProcessorStatusRepository tracks per-processor watermarks.
type ProcessorStatusRepository interface {
	// Save records a successfully persisted batch. The watermark must never
	// move backwards.
	Save(ctx context.Context, processor string, version uint64, txnTimestamp time.Time) error

	// Get retrieves the watermark for a processor, nil when it has never run.
	Get(ctx context.Context, processor string) (*domain.ProcessorStatus, error)
}

// FailedBatchRepository is the dead-letter queue for batches one processor
// could not persist. Implementations are scoped to a single processor.
type FailedBatchRepository interface {
	// Add records a failed version range for later retry.
	Add(ctx context.Context, startVersion, endVersion uint64, cause error) (*domain.FailedBatch, error)

	// GetNext retrieves the next batch to retry, nil when the queue is empty.
	GetNext(ctx context.Context) (*domain.FailedBatch, error)

	// IncrementRetry pushes a batch behind fresher failures in the queue.
	IncrementRetry(ctx context.Context, id string) error

	// MarkResolved removes a batch after a successful retry.
	MarkResolved(ctx context.Context, id string) error

	// GetAll retrieves every queued batch.
	GetAll(ctx context.Context) ([]*domain.FailedBatch, error)

	// Count returns the number of queued batches.
	Count(ctx context.Context) (int, error)
}
