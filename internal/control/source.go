package control

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/vietddude/chainsink/internal/core/config"
	"github.com/vietddude/chainsink/internal/core/domain"
)

// BatchSource delivers contiguous, ascending-version transaction batches.
type BatchSource interface {
	// Next returns the next batch, empty when the source is drained.
	Next(ctx context.Context) ([]*domain.Transaction, error)

	// SkipTo discards records below the given version. Must be called
	// before the first Next.
	SkipTo(version uint64)
}

// Replayer re-reads a version range so failed batches can be retried.
type Replayer interface {
	Replay(ctx context.Context, startVersion, endVersion uint64) ([]*domain.Transaction, error)
}

// Lines above 1MB occur for transactions with large write sets.
const maxRecordSize = 16 * 1024 * 1024

// FileSource streams a JSON-lines transaction dump, one record per line in
// ascending version order. On EOF the file is reopened on the following
// Next so an append-only dump can be tailed.
type FileSource struct {
	path      string
	batchSize int
	skipBelow uint64
	file      *os.File
	scanner   *bufio.Scanner
	log       *slog.Logger
}

// NewFileSource creates a source over a JSON-lines dump file.
func NewFileSource(cfg config.SourceConfig, log *slog.Logger) *FileSource {
	return &FileSource{
		path:      cfg.Path,
		batchSize: cfg.BatchSize,
		skipBelow: cfg.StartVersion,
		log:       log.With("source", "file"),
	}
}

func (s *FileSource) SkipTo(version uint64) {
	if version > s.skipBelow {
		s.skipBelow = version
	}
}

func (s *FileSource) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open transaction dump: %w", err)
	}
	s.file = f
	s.scanner = bufio.NewScanner(f)
	s.scanner.Buffer(make([]byte, 0, 1024*1024), maxRecordSize)
	return nil
}

// Next reads up to batchSize records at or above the skip watermark and
// verifies the batch is contiguous.
func (s *FileSource) Next(ctx context.Context) ([]*domain.Transaction, error) {
	if s.scanner == nil {
		if err := s.open(); err != nil {
			return nil, err
		}
	}

	var batch []*domain.Transaction
	for len(batch) < s.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			break
		}
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		txn := &domain.Transaction{}
		if err := json.Unmarshal(line, txn); err != nil {
			return nil, fmt.Errorf("failed to parse transaction record: %w", err)
		}
		if txn.Version < s.skipBelow {
			continue
		}
		if len(batch) > 0 && txn.Version != batch[len(batch)-1].Version+1 {
			return nil, fmt.Errorf("version gap in transaction dump: %d follows %d",
				txn.Version, batch[len(batch)-1].Version)
		}
		batch = append(batch, txn)
	}
	if err := s.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction dump: %w", err)
	}

	if len(batch) == 0 {
		// Drained. Close so the next call reopens and sees appended records.
		s.Close()
		return nil, nil
	}
	s.skipBelow = batch[len(batch)-1].Version + 1
	return batch, nil
}

// Replay re-reads one version range from the dump.
func (s *FileSource) Replay(ctx context.Context, startVersion, endVersion uint64) ([]*domain.Transaction, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction dump: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), maxRecordSize)

	var txns []*domain.Transaction
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		txn := &domain.Transaction{}
		if err := json.Unmarshal(line, txn); err != nil {
			return nil, fmt.Errorf("failed to parse transaction record: %w", err)
		}
		if txn.Version < startVersion {
			continue
		}
		if txn.Version > endVersion {
			break
		}
		txns = append(txns, txn)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transaction dump: %w", err)
	}
	return txns, nil
}

// Close releases the underlying file.
func (s *FileSource) Close() {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
		s.scanner = nil
	}
}
