package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
)

// StatusRepo tracks processor watermarks in PostgreSQL.
type StatusRepo struct {
	db *DB
}

// NewStatusRepo creates a new PostgreSQL status repository.
func NewStatusRepo(db *DB) *StatusRepo {
	return &StatusRepo{db: db}
}

const upsertProcessorStatus = `
	INSERT INTO processor_status (
		processor, last_success_version, last_updated, last_transaction_timestamp
	) VALUES ($1, $2, NOW(), $3)
	ON CONFLICT (processor)
	DO UPDATE SET
		last_success_version = GREATEST(
			processor_status.last_success_version, EXCLUDED.last_success_version),
		last_updated = EXCLUDED.last_updated,
		last_transaction_timestamp = EXCLUDED.last_transaction_timestamp`

const selectProcessorStatus = `
	SELECT processor, last_success_version, last_updated, last_transaction_timestamp
	FROM processor_status
	WHERE processor = $1`

// Save records a successfully persisted batch. The watermark never moves
// backwards, so replayed batches are safe to report.
func (r *StatusRepo) Save(ctx context.Context, processor string, version uint64, txnTimestamp time.Time) error {
	if _, err := r.db.ExecContext(ctx, upsertProcessorStatus, processor, version, txnTimestamp); err != nil {
		return fmt.Errorf("failed to save processor status: %w", err)
	}
	return nil
}

// Get retrieves the watermark for a processor, nil when it has never run.
func (r *StatusRepo) Get(ctx context.Context, processor string) (*domain.ProcessorStatus, error) {
	var status domain.ProcessorStatus
	err := r.db.GetContext(ctx, &status, selectProcessorStatus, processor)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get processor status: %w", err)
	}
	return &status, nil
}
