package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/chainsink/internal/processing/coin"
	"github.com/vietddude/chainsink/internal/processing/metrics"
)

// CoinRepo persists coin rows using chunked concurrent upserts.
type CoinRepo struct {
	db  *DB
	rec metrics.Recorder
}

// NewCoinRepo creates a new PostgreSQL coin repository.
func NewCoinRepo(db *DB, rec metrics.Recorder) *CoinRepo {
	return &CoinRepo{db: db, rec: rec}
}

const insertCoinActivities = `
	INSERT INTO coin_activities (
		transaction_version, event_account_address, event_creation_number,
		event_sequence_number, owner_address, coin_type, amount, activity_type,
		is_gas_fee, is_transaction_success, entry_function_id_str, block_height,
		transaction_timestamp, event_index, gas_fee_payer_address, storage_refund_amount
	) VALUES (
		:transaction_version, :event_account_address, :event_creation_number,
		:event_sequence_number, :owner_address, :coin_type, :amount, :activity_type,
		:is_gas_fee, :is_transaction_success, :entry_function_id_str, :block_height,
		:transaction_timestamp, :event_index, :gas_fee_payer_address, :storage_refund_amount
	)
	ON CONFLICT (transaction_version, event_account_address, event_creation_number, event_sequence_number)
	DO NOTHING`

const insertCoinBalances = `
	INSERT INTO coin_balances (
		transaction_version, owner_address, coin_type, amount, transaction_timestamp
	) VALUES (
		:transaction_version, :owner_address, :coin_type, :amount, :transaction_timestamp
	)
	ON CONFLICT (transaction_version, owner_address, coin_type)
	DO NOTHING`

const insertCurrentCoinBalances = `
	INSERT INTO current_coin_balances (
		owner_address, coin_type, amount, frozen,
		last_transaction_version, last_transaction_timestamp
	) VALUES (
		:owner_address, :coin_type, :amount, :frozen,
		:last_transaction_version, :last_transaction_timestamp
	)
	ON CONFLICT (owner_address, coin_type) DO UPDATE SET
		amount = EXCLUDED.amount,
		frozen = EXCLUDED.frozen,
		last_transaction_version = EXCLUDED.last_transaction_version,
		last_transaction_timestamp = EXCLUDED.last_transaction_timestamp
	WHERE current_coin_balances.last_transaction_version <= EXCLUDED.last_transaction_version`

const insertCoinInfos = `
	INSERT INTO coin_infos (
		coin_type_hash, coin_type, transaction_version_created, creator_address,
		name, symbol, decimals, supply, transaction_created_timestamp
	) VALUES (
		:coin_type_hash, :coin_type, :transaction_version_created, :creator_address,
		:name, :symbol, :decimals, :supply, :transaction_created_timestamp
	)
	ON CONFLICT (coin_type_hash)
	DO NOTHING`

// PersistBatch writes all coin tables of one batch concurrently and waits
// for every chunk before reporting the first failure.
func (r *CoinRepo) PersistBatch(ctx context.Context, activities []coin.Activity, balances []coin.Balance, currents []coin.CurrentBalance, infos []coin.Info) error {
	batch := r.db.NewBatch(r.rec)
	SubmitInChunks(ctx, batch, "coin_activities", activities,
		func(ctx context.Context, db *sqlx.DB, chunk []coin.Activity) error {
			_, err := db.NamedExecContext(ctx, insertCoinActivities, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "coin_balances", balances,
		func(ctx context.Context, db *sqlx.DB, chunk []coin.Balance) error {
			_, err := db.NamedExecContext(ctx, insertCoinBalances, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "current_coin_balances", currents,
		func(ctx context.Context, db *sqlx.DB, chunk []coin.CurrentBalance) error {
			_, err := db.NamedExecContext(ctx, insertCurrentCoinBalances, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "coin_infos", infos,
		func(ctx context.Context, db *sqlx.DB, chunk []coin.Info) error {
			_, err := db.NamedExecContext(ctx, insertCoinInfos, chunk)
			return err
		})
	return batch.Wait()
}
