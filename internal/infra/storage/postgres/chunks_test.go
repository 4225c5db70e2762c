package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alitto/pond/v2"
	"github.com/jmoiron/sqlx"

	"github.com/vietddude/chainsink/internal/processing/metrics"
)

func testDB(cfg Config) *DB {
	return &DB{cfg: cfg, pool: pond.NewPool(4)}
}

func TestConfigChunkSize(t *testing.T) {
	cfg := Config{ChunkSizes: map[string]int{
		"coin_activities": 50,
		"broken":          0,
	}}

	if got := cfg.ChunkSize("coin_activities"); got != 50 {
		t.Errorf("Expected override 50, got %d", got)
	}
	if got := cfg.ChunkSize("unknown_table"); got != DefaultChunkSize {
		t.Errorf("Expected default %d, got %d", DefaultChunkSize, got)
	}
	if got := cfg.ChunkSize("broken"); got != DefaultChunkSize {
		t.Errorf("Non-positive override must fall back to default, got %d", got)
	}
}

func TestSubmitInChunks_Partitions(t *testing.T) {
	db := testDB(Config{ChunkSizes: map[string]int{"rows": 3}})
	batch := db.NewBatch(metrics.NewNop())

	var mu sync.Mutex
	var sizes []int
	rows := []int{1, 2, 3, 4, 5, 6, 7}
	SubmitInChunks(context.Background(), batch, "rows", rows,
		func(ctx context.Context, _ *sqlx.DB, chunk []int) error {
			mu.Lock()
			defer mu.Unlock()
			sizes = append(sizes, len(chunk))
			return nil
		})

	if err := batch.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	total := 0
	for _, n := range sizes {
		if n > 3 {
			t.Errorf("Chunk exceeds configured size: %d", n)
		}
		total += n
	}
	if total != len(rows) {
		t.Errorf("Expected all %d rows submitted, got %d", len(rows), total)
	}
}

func TestSubmitInChunks_EmptyRowsSkipped(t *testing.T) {
	db := testDB(Config{})
	batch := db.NewBatch(metrics.NewNop())

	called := false
	SubmitInChunks(context.Background(), batch, "rows", []int{},
		func(ctx context.Context, _ *sqlx.DB, chunk []int) error {
			called = true
			return nil
		})

	if err := batch.Wait(); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if called {
		t.Error("Insert must not run for empty input")
	}
}

func TestBatchWait_ReportsFailure(t *testing.T) {
	db := testDB(Config{ChunkSizes: map[string]int{"rows": 1}})
	batch := db.NewBatch(metrics.NewNop())

	boom := errors.New("deadlock detected")
	SubmitInChunks(context.Background(), batch, "rows", []int{1, 2, 3},
		func(ctx context.Context, _ *sqlx.DB, chunk []int) error {
			if chunk[0] == 2 {
				return boom
			}
			return nil
		})

	err := batch.Wait()
	if err == nil {
		t.Fatal("Expected failure from Wait")
	}
	if !errors.Is(err, boom) {
		t.Errorf("Expected wrapped chunk error, got %v", err)
	}
}
