package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/chainsink/internal/processing/fungibleasset"
	"github.com/vietddude/chainsink/internal/processing/metrics"
)

// FungibleAssetRepo persists fungible-asset rows using chunked concurrent
// upserts.
type FungibleAssetRepo struct {
	db  *DB
	rec metrics.Recorder
}

// NewFungibleAssetRepo creates a new PostgreSQL fungible-asset repository.
func NewFungibleAssetRepo(db *DB, rec metrics.Recorder) *FungibleAssetRepo {
	return &FungibleAssetRepo{db: db, rec: rec}
}

const insertFungibleAssetActivities = `
	INSERT INTO fungible_asset_activities (
		transaction_version, event_index, owner_address, storage_id,
		asset_type, is_frozen, amount, type, is_transaction_success,
		entry_function_id_str, block_height, token_standard, transaction_timestamp
	) VALUES (
		:transaction_version, :event_index, :owner_address, :storage_id,
		:asset_type, :is_frozen, :amount, :type, :is_transaction_success,
		:entry_function_id_str, :block_height, :token_standard, :transaction_timestamp
	)
	ON CONFLICT (transaction_version, event_index)
	DO NOTHING`

const insertCurrentFungibleAssetBalances = `
	INSERT INTO current_fungible_asset_balances (
		storage_id, owner_address, asset_type, is_frozen, amount,
		token_standard, last_transaction_version, last_transaction_timestamp
	) VALUES (
		:storage_id, :owner_address, :asset_type, :is_frozen, :amount,
		:token_standard, :last_transaction_version, :last_transaction_timestamp
	)
	ON CONFLICT (storage_id) DO UPDATE SET
		owner_address = EXCLUDED.owner_address,
		asset_type = EXCLUDED.asset_type,
		is_frozen = EXCLUDED.is_frozen,
		amount = EXCLUDED.amount,
		token_standard = EXCLUDED.token_standard,
		last_transaction_version = EXCLUDED.last_transaction_version,
		last_transaction_timestamp = EXCLUDED.last_transaction_timestamp
	WHERE current_fungible_asset_balances.last_transaction_version <= EXCLUDED.last_transaction_version`

const insertFungibleAssetMetadata = `
	INSERT INTO fungible_asset_metadata (
		asset_type, creator_address, name, symbol, decimals, icon_uri,
		project_uri, supply, maximum_supply, token_standard,
		last_transaction_version, last_transaction_timestamp
	) VALUES (
		:asset_type, :creator_address, :name, :symbol, :decimals, :icon_uri,
		:project_uri, :supply, :maximum_supply, :token_standard,
		:last_transaction_version, :last_transaction_timestamp
	)
	ON CONFLICT (asset_type) DO UPDATE SET
		creator_address = EXCLUDED.creator_address,
		name = EXCLUDED.name,
		symbol = EXCLUDED.symbol,
		decimals = EXCLUDED.decimals,
		icon_uri = EXCLUDED.icon_uri,
		project_uri = EXCLUDED.project_uri,
		supply = EXCLUDED.supply,
		maximum_supply = EXCLUDED.maximum_supply,
		token_standard = EXCLUDED.token_standard,
		last_transaction_version = EXCLUDED.last_transaction_version,
		last_transaction_timestamp = EXCLUDED.last_transaction_timestamp
	WHERE fungible_asset_metadata.last_transaction_version <= EXCLUDED.last_transaction_version`

// PersistBatch writes all fungible-asset tables of one batch concurrently
// and waits for every chunk before reporting the first failure.
func (r *FungibleAssetRepo) PersistBatch(ctx context.Context, activities []fungibleasset.Activity, currents []fungibleasset.CurrentBalance, metadata []fungibleasset.Metadata) error {
	batch := r.db.NewBatch(r.rec)
	SubmitInChunks(ctx, batch, "fungible_asset_activities", activities,
		func(ctx context.Context, db *sqlx.DB, chunk []fungibleasset.Activity) error {
			_, err := db.NamedExecContext(ctx, insertFungibleAssetActivities, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "current_fungible_asset_balances", currents,
		func(ctx context.Context, db *sqlx.DB, chunk []fungibleasset.CurrentBalance) error {
			_, err := db.NamedExecContext(ctx, insertCurrentFungibleAssetBalances, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "fungible_asset_metadata", metadata,
		func(ctx context.Context, db *sqlx.DB, chunk []fungibleasset.Metadata) error {
			_, err := db.NamedExecContext(ctx, insertFungibleAssetMetadata, chunk)
			return err
		})
	return batch.Wait()
}
