package tokenclaims

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing"
	"github.com/vietddude/chainsink/internal/processing/metrics"
	"github.com/vietddude/chainsink/internal/processing/reconcile"
	"github.com/vietddude/chainsink/internal/processing/tables"
)

// ProcessorName identifies the token-claims processor in status tracking
// and logs.
const ProcessorName = "token_claims_processor"

// Config carries the optional contract whose entry-function calls grant
// points. Empty disables point extraction.
type Config struct {
	NftPointsContract string `yaml:"nft_points_contract"`
}

// Store persists one reconciled batch of claim and point rows.
type Store interface {
	PersistBatch(ctx context.Context, claims []CurrentTokenPendingClaim, points []NftPoints) error
}

// BatchProcessor extracts and persists pending token claims for
// transaction batches.
type BatchProcessor struct {
	store Store
	cfg   Config
	rec   metrics.Recorder
	log   *slog.Logger
}

func NewBatchProcessor(store Store, cfg Config, rec metrics.Recorder, log *slog.Logger) *BatchProcessor {
	return &BatchProcessor{
		store: store,
		cfg:   cfg,
		rec:   rec,
		log:   log.With("processor", ProcessorName),
	}
}

func (p *BatchProcessor) Name() string { return ProcessorName }

// ProcessBatch builds the table-handle index over the whole batch first,
// then decodes claims in version order and reconciles them.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, txns []*domain.Transaction, startVersion, endVersion uint64) (*processing.Result, error) {
	began := time.Now()

	index := tables.Build(txns, p.log)

	var (
		claims []CurrentTokenPendingClaim
		points []NftPoints
		lastTS time.Time
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
		if txn.Type != domain.TxnTypeUser {
			continue
		}
		ts := txn.MustTimestamp()

		if point, ok := NftPointsFromTransaction(txn, p.cfg.NftPointsContract, p.log); ok {
			points = append(points, point)
		}

		changes := txn.MustInfo().Changes
		for i := range changes {
			change := &changes[i]
			switch change.Type {
			case domain.ChangeTypeWriteTableItem:
				if claim, ok := ClaimFromWriteTableItem(change.WriteTableItem, txn.Version, ts, index, p.log); ok {
					claims = append(claims, claim)
				}
			case domain.ChangeTypeDeleteTableItem:
				if claim, ok := ClaimFromDeleteTableItem(change.DeleteTableItem, txn.Version, ts, index, p.log); ok {
					claims = append(claims, claim)
				}
			}
		}
	}

	claims = reconcile.LastWriterWins(claims)
	processingDur := time.Since(began)

	dbBegan := time.Now()
	if err := p.store.PersistBatch(ctx, claims, points); err != nil {
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
