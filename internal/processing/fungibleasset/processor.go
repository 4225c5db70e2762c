package fungibleasset

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing"
	"github.com/vietddude/chainsink/internal/processing/metrics"
	"github.com/vietddude/chainsink/internal/processing/reconcile"
)

// ProcessorName identifies the fungible-asset processor in status tracking
// and logs.
const ProcessorName = "fungible_asset_processor"

// Store persists one reconciled batch of fungible-asset rows.
type Store interface {
	PersistBatch(ctx context.Context, activities []Activity, currents []CurrentBalance, metadata []Metadata) error
}

// BatchProcessor extracts and persists fungible-asset rows for
// transaction batches.
type BatchProcessor struct {
	store Store
	rec   metrics.Recorder
	log   *slog.Logger
}

func NewBatchProcessor(store Store, rec metrics.Recorder, log *slog.Logger) *BatchProcessor {
	return &BatchProcessor{
		store: store,
		rec:   rec,
		log:   log.With("processor", ProcessorName),
	}
}

func (p *BatchProcessor) Name() string { return ProcessorName }

// ProcessBatch decodes the batch in version order, reconciles balances and
// metadata and hands everything to the store in one fan-out.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, txns []*domain.Transaction, startVersion, endVersion uint64) (*processing.Result, error) {
	began := time.Now()

	var (
		activities []Activity
		currents   []CurrentBalance
		metadata   []Metadata
		lastTS     time.Time
	)
	for _, txn := range txns {
		if txn.Type == domain.TxnTypeUnknown {
			p.rec.UnknownType(ProcessorName)
			p.log.Warn("transaction with unknown data type", "version", txn.Version)
			continue
		}
		if !txn.Timestamp.IsZero() {
			lastTS = txn.Timestamp
		}
		ex := FromTransaction(txn, p.log)
		activities = append(activities, ex.Activities...)
		currents = append(currents, ex.CurrentBalances...)
		metadata = append(metadata, ex.Metadata...)
	}

	currents = reconcile.LastWriterWins(currents)
	metadata = reconcile.LastWriterWins(metadata)
	processingDur := time.Since(began)

	dbBegan := time.Now()
	if err := p.store.PersistBatch(ctx, activities, currents, metadata); err != nil {
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
