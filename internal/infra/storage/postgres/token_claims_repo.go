package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/chainsink/internal/processing/metrics"
	"github.com/vietddude/chainsink/internal/processing/tokenclaims"
)

// TokenClaimsRepo persists pending token claims and point grants using
// chunked concurrent upserts.
type TokenClaimsRepo struct {
	db  *DB
	rec metrics.Recorder
}

// NewTokenClaimsRepo creates a new PostgreSQL token-claims repository.
func NewTokenClaimsRepo(db *DB, rec metrics.Recorder) *TokenClaimsRepo {
	return &TokenClaimsRepo{db: db, rec: rec}
}

const insertCurrentTokenPendingClaims = `
	INSERT INTO current_token_pending_claims (
		token_data_id_hash, property_version, from_address, to_address,
		collection_data_id_hash, creator_address, collection_name, name,
		amount, table_handle, last_transaction_version,
		last_transaction_timestamp, token_data_id, collection_id
	) VALUES (
		:token_data_id_hash, :property_version, :from_address, :to_address,
		:collection_data_id_hash, :creator_address, :collection_name, :name,
		:amount, :table_handle, :last_transaction_version,
		:last_transaction_timestamp, :token_data_id, :collection_id
	)
	ON CONFLICT (token_data_id_hash, property_version, from_address, to_address)
	DO UPDATE SET
		collection_data_id_hash = EXCLUDED.collection_data_id_hash,
		creator_address = EXCLUDED.creator_address,
		collection_name = EXCLUDED.collection_name,
		name = EXCLUDED.name,
		amount = EXCLUDED.amount,
		table_handle = EXCLUDED.table_handle,
		last_transaction_version = EXCLUDED.last_transaction_version,
		last_transaction_timestamp = EXCLUDED.last_transaction_timestamp,
		token_data_id = EXCLUDED.token_data_id,
		collection_id = EXCLUDED.collection_id
	WHERE current_token_pending_claims.last_transaction_version <= EXCLUDED.last_transaction_version`

const insertNftPoints = `
	INSERT INTO nft_points (
		transaction_version, owner_address, token_name, point_type,
		amount, transaction_timestamp
	) VALUES (
		:transaction_version, :owner_address, :token_name, :point_type,
		:amount, :transaction_timestamp
	)
	ON CONFLICT (transaction_version)
	DO NOTHING`

// PersistBatch writes both token-claim tables of one batch concurrently
// and waits for every chunk before reporting the first failure.
func (r *TokenClaimsRepo) PersistBatch(ctx context.Context, claims []tokenclaims.CurrentTokenPendingClaim, points []tokenclaims.NftPoints) error {
	batch := r.db.NewBatch(r.rec)
	SubmitInChunks(ctx, batch, "current_token_pending_claims", claims,
		func(ctx context.Context, db *sqlx.DB, chunk []tokenclaims.CurrentTokenPendingClaim) error {
			_, err := db.NamedExecContext(ctx, insertCurrentTokenPendingClaims, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "nft_points", points,
		func(ctx context.Context, db *sqlx.DB, chunk []tokenclaims.NftPoints) error {
			_, err := db.NamedExecContext(ctx, insertNftPoints, chunk)
			return err
		})
	return batch.Wait()
}
