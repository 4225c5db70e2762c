package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/jmoiron/sqlx"

	"github.com/vietddude/chainsink/internal/processing/metrics"
)

// Batch groups the chunked writes of one processed transaction batch.
// Chunks run concurrently on the DB's shared bounded pool; Wait reports
// the first failure after every chunk has finished.
type Batch struct {
	db    *DB
	rec   metrics.Recorder
	group pond.TaskGroup
}

// NewBatch opens a write group on the shared pool.
func (db *DB) NewBatch(rec metrics.Recorder) *Batch {
	return &Batch{db: db, rec: rec, group: db.pool.NewGroup()}
}

// SubmitInChunks partitions rows into contiguous chunks of at most the
// table's configured size and submits one conflict-resolving statement per
// chunk. Chunks of the same table need no mutual ordering: conflict rules
// are commutative under the monotonic-version condition.
func SubmitInChunks[T any](ctx context.Context, b *Batch, table string, rows []T, insert func(ctx context.Context, db *sqlx.DB, chunk []T) error) {
	if len(rows) == 0 {
		return
	}
	size := b.db.cfg.ChunkSize(table)
	for start := 0; start < len(rows); start += size {
		chunk := rows[start:min(start+size, len(rows))]
		b.group.SubmitErr(func() error {
			begin := time.Now()
			if err := insert(ctx, b.db.DB, chunk); err != nil {
				b.rec.ChunkFailed(table)
				return fmt.Errorf("failed to insert chunk into %s: %w", table, err)
			}
			b.rec.ChunkWritten(table, time.Since(begin))
			return nil
		})
	}
}

// Wait blocks until every submitted chunk completes. A failed chunk does
// not cancel siblings already in flight; the first error is returned and
// the whole batch is reported failed.
func (b *Batch) Wait() error {
	return b.group.Wait()
}
