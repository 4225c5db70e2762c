package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vietddude/chainsink/internal/core/domain"
)

const failedBatchTTL = 24 * time.Hour

// FailedBatchRepo is the Redis-backed dead-letter queue for batches a
// processor could not persist.
type FailedBatchRepo struct {
	rdb       *redis.Client
	processor string
}

// NewFailedBatchRepo creates a new Redis-backed failed batch repository
// scoped to one processor.
func NewFailedBatchRepo(client *Client, processor string) *FailedBatchRepo {
	return &FailedBatchRepo{
		rdb:       client.rdb,
		processor: processor,
	}
}

// Key helpers
func (r *FailedBatchRepo) queueKey() string {
	return fmt.Sprintf("failed_batches:%s", r.processor)
}

func (r *FailedBatchRepo) batchKey(id string) string {
	return fmt.Sprintf("failed_batch:%s:%s", r.processor, id)
}

// Add records a failed version range for later retry.
func (r *FailedBatchRepo) Add(ctx context.Context, startVersion, endVersion uint64, cause error) (*domain.FailedBatch, error) {
	fb := &domain.FailedBatch{
		ID:           uuid.New().String(),
		Processor:    r.processor,
		StartVersion: startVersion,
		EndVersion:   endVersion,
		Error:        cause.Error(),
		FailedAt:     time.Now(),
	}

	data, err := json.Marshal(fb)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal failed batch: %w", err)
	}

	if err := r.rdb.Set(ctx, r.batchKey(fb.ID), data, failedBatchTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to set failed batch: %w", err)
	}

	// Sorted set scored by retry count, fresh failures retry first.
	if err := r.rdb.ZAdd(ctx, r.queueKey(), redis.Z{
		Score:  float64(fb.RetryCount),
		Member: fb.ID,
	}).Err(); err != nil {
		return nil, fmt.Errorf("failed to add to queue: %w", err)
	}

	return fb, nil
}

// GetNext retrieves the next failed batch to retry, nil when the queue is
// empty.
func (r *FailedBatchRepo) GetNext(ctx context.Context) (*domain.FailedBatch, error) {
	results, err := r.rdb.ZRange(ctx, r.queueKey(), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	id := results[0]
	data, err := r.rdb.Get(ctx, r.batchKey(id)).Bytes()
	if err == redis.Nil {
		// Data expired but ID still in queue, remove it
		r.rdb.ZRem(ctx, r.queueKey(), id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed batch: %w", err)
	}

	var fb domain.FailedBatch
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed batch: %w", err)
	}
	return &fb, nil
}

// IncrementRetry bumps the retry count, pushing the batch behind fresher
// failures in the queue.
func (r *FailedBatchRepo) IncrementRetry(ctx context.Context, id string) error {
	data, err := r.rdb.Get(ctx, r.batchKey(id)).Bytes()
	if err != nil {
		return fmt.Errorf("failed to get failed batch: %w", err)
	}

	var fb domain.FailedBatch
	if err := json.Unmarshal(data, &fb); err != nil {
		return fmt.Errorf("failed to unmarshal failed batch: %w", err)
	}

	fb.RetryCount++

	newData, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal failed batch: %w", err)
	}
	if err := r.rdb.Set(ctx, r.batchKey(id), newData, failedBatchTTL).Err(); err != nil {
		return fmt.Errorf("failed to set failed batch: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, r.queueKey(), redis.Z{
		Score:  float64(fb.RetryCount),
		Member: id,
	}).Err(); err != nil {
		return fmt.Errorf("failed to update queue: %w", err)
	}
	return nil
}

// MarkResolved removes a failed batch after a successful retry.
func (r *FailedBatchRepo) MarkResolved(ctx context.Context, id string) error {
	if err := r.rdb.ZRem(ctx, r.queueKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if err := r.rdb.Del(ctx, r.batchKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete failed batch: %w", err)
	}
	return nil
}

// GetAll retrieves every queued failed batch.
func (r *FailedBatchRepo) GetAll(ctx context.Context) ([]*domain.FailedBatch, error) {
	ids, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	batches := make([]*domain.FailedBatch, 0, len(ids))
	for _, id := range ids {
		data, err := r.rdb.Get(ctx, r.batchKey(id)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get failed batch: %w", err)
		}

		var fb domain.FailedBatch
		if err := json.Unmarshal(data, &fb); err != nil {
			continue
		}
		batches = append(batches, &fb)
	}
	return batches, nil
}

// Count returns the number of queued failed batches.
func (r *FailedBatchRepo) Count(ctx context.Context) (int, error) {
	count, err := r.rdb.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}
