package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/vietddude/chainsink/internal/core/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDump(t *testing.T, versions ...uint64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "txns.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create dump: %v", err)
	}
	defer f.Close()
	for _, v := range versions {
		fmt.Fprintf(f, `{"version":%d,"type":"user","timestamp":"2024-03-01T12:00:00Z","info":{"success":true}}`+"\n", v)
	}
	return path
}

func TestFileSource_Batching(t *testing.T) {
	path := writeDump(t, 1, 2, 3, 4, 5)
	src := NewFileSource(config.SourceConfig{Path: path, BatchSize: 2}, testLogger())
	defer src.Close()

	first, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(first) != 2 || first[0].Version != 1 || first[1].Version != 2 {
		t.Fatalf("Unexpected first batch: %+v", first)
	}

	second, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(second) != 2 || second[0].Version != 3 {
		t.Fatalf("Unexpected second batch: %+v", second)
	}

	third, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(third) != 1 || third[0].Version != 5 {
		t.Fatalf("Unexpected tail batch: %+v", third)
	}

	drained, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(drained) != 0 {
		t.Errorf("Expected drained source, got %d records", len(drained))
	}
}

func TestFileSource_SkipTo(t *testing.T) {
	path := writeDump(t, 1, 2, 3, 4, 5)
	src := NewFileSource(config.SourceConfig{Path: path, BatchSize: 10}, testLogger())
	defer src.Close()

	src.SkipTo(4)
	batch, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(batch) != 2 || batch[0].Version != 4 {
		t.Fatalf("Expected versions 4-5, got %+v", batch)
	}
}

func TestFileSource_VersionGap(t *testing.T) {
	path := writeDump(t, 1, 2, 5)
	src := NewFileSource(config.SourceConfig{Path: path, BatchSize: 10}, testLogger())
	defer src.Close()

	if _, err := src.Next(context.Background()); err == nil {
		t.Error("Expected error for version gap")
	}
}

func TestFileSource_TailsAppendedRecords(t *testing.T) {
	path := writeDump(t, 1, 2)
	src := NewFileSource(config.SourceConfig{Path: path, BatchSize: 10}, testLogger())
	defer src.Close()

	if _, err := src.Next(context.Background()); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if batch, err := src.Next(context.Background()); err != nil || len(batch) != 0 {
		t.Fatalf("Expected drained source, got %d records, err %v", len(batch), err)
	}

	// Append and reread
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("Failed to reopen dump: %v", err)
	}
	fmt.Fprintln(f, `{"version":3,"type":"user","timestamp":"2024-03-01T12:00:01Z","info":{"success":true}}`)
	f.Close()

	batch, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if len(batch) != 1 || batch[0].Version != 3 {
		t.Fatalf("Expected appended version 3, got %+v", batch)
	}
}

func TestFileSource_Replay(t *testing.T) {
	path := writeDump(t, 1, 2, 3, 4, 5)
	src := NewFileSource(config.SourceConfig{Path: path, BatchSize: 2}, testLogger())
	defer src.Close()

	txns, err := src.Replay(context.Background(), 2, 4)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if len(txns) != 3 || txns[0].Version != 2 || txns[2].Version != 4 {
		t.Fatalf("Unexpected replay result: %+v", txns)
	}
}
