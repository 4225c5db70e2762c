package ans

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing"
	"github.com/vietddude/chainsink/internal/processing/metrics"
	"github.com/vietddude/chainsink/internal/processing/reconcile"
)

// ProcessorName identifies the naming processor in status tracking and logs.
const ProcessorName = "ans_processor"

// Store persists one reconciled batch of naming rows.
type Store interface {
	PersistBatch(ctx context.Context, rows Extracted) error
}

// BatchProcessor extracts and persists naming rows for transaction batches.
type BatchProcessor struct {
	store Store
	cfg   Config
	rec   metrics.Recorder
	log   *slog.Logger
}

func NewBatchProcessor(store Store, cfg Config, rec metrics.Recorder, log *slog.Logger) *BatchProcessor {
	return &BatchProcessor{
		store: store,
		cfg:   cfg.standardized(),
		rec:   rec,
		log:   log.With("processor", ProcessorName),
	}
}

func (p *BatchProcessor) Name() string { return ProcessorName }

// ProcessBatch decodes the batch in version order, reconciles the four
// current-state tables and hands everything to the store in one fan-out.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, txns []*domain.Transaction, startVersion, endVersion uint64) (*processing.Result, error) {
	began := time.Now()

	var all Extracted
	var lastTS time.Time
	for _, txn := range txns {
		if txn.Type == domain.TxnTypeUnknown {
			p.rec.UnknownType(ProcessorName)
			p.log.Warn("transaction with unknown data type", "version", txn.Version)
			continue
		}
		if !txn.Timestamp.IsZero() {
			lastTS = txn.Timestamp
		}
		all.merge(FromTransaction(txn, p.cfg, p.log))
	}

	all.CurrentLookups = reconcile.LastWriterWins(all.CurrentLookups)
	all.CurrentPrimaryNames = reconcile.LastWriterWins(all.CurrentPrimaryNames)
	all.CurrentLookupsV2 = reconcile.LastWriterWins(all.CurrentLookupsV2)
	all.CurrentPrimaryNamesV2 = reconcile.LastWriterWins(all.CurrentPrimaryNamesV2)
	processingDur := time.Since(began)

	dbBegan := time.Now()
	if err := p.store.PersistBatch(ctx, all); err != nil {
		return nil, err
	}

	return &processing.Result{
		StartVersion:             startVersion,
		EndVersion:               endVersion,
		ProcessingDuration:       processingDur,
		DBInsertionDuration:      time.Since(dbBegan),
		LastTransactionTimestamp: lastTS,
	}, nil
}
