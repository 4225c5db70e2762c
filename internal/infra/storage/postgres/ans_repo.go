package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vietddude/chainsink/internal/processing/ans"
	"github.com/vietddude/chainsink/internal/processing/metrics"
)

// AnsRepo persists naming-service rows using chunked concurrent upserts.
type AnsRepo struct {
	db  *DB
	rec metrics.Recorder
}

// NewAnsRepo creates a new PostgreSQL naming repository.
func NewAnsRepo(db *DB, rec metrics.Recorder) *AnsRepo {
	return &AnsRepo{db: db, rec: rec}
}

const insertCurrentAnsLookups = `
	INSERT INTO current_ans_lookup (
		domain, subdomain, registered_address, expiration_timestamp,
		token_name, last_transaction_version, is_deleted
	) VALUES (
		:domain, :subdomain, :registered_address, :expiration_timestamp,
		:token_name, :last_transaction_version, :is_deleted
	)
	ON CONFLICT (domain, subdomain) DO UPDATE SET
		registered_address = EXCLUDED.registered_address,
		expiration_timestamp = EXCLUDED.expiration_timestamp,
		token_name = EXCLUDED.token_name,
		last_transaction_version = EXCLUDED.last_transaction_version,
		is_deleted = EXCLUDED.is_deleted
	WHERE current_ans_lookup.last_transaction_version <= EXCLUDED.last_transaction_version`

const insertAnsLookups = `
	INSERT INTO ans_lookup (
		transaction_version, write_set_change_index, domain, subdomain,
		registered_address, expiration_timestamp, token_name, is_deleted
	) VALUES (
		:transaction_version, :write_set_change_index, :domain, :subdomain,
		:registered_address, :expiration_timestamp, :token_name, :is_deleted
	)
	ON CONFLICT (transaction_version, write_set_change_index)
	DO NOTHING`

const insertCurrentAnsPrimaryNames = `
	INSERT INTO current_ans_primary_name (
		registered_address, domain, subdomain, token_name,
		last_transaction_version, is_deleted
	) VALUES (
		:registered_address, :domain, :subdomain, :token_name,
		:last_transaction_version, :is_deleted
	)
	ON CONFLICT (registered_address) DO UPDATE SET
		domain = EXCLUDED.domain,
		subdomain = EXCLUDED.subdomain,
		token_name = EXCLUDED.token_name,
		last_transaction_version = EXCLUDED.last_transaction_version,
		is_deleted = EXCLUDED.is_deleted
	WHERE current_ans_primary_name.last_transaction_version <= EXCLUDED.last_transaction_version`

const insertAnsPrimaryNames = `
	INSERT INTO ans_primary_name (
		transaction_version, write_set_change_index, registered_address,
		domain, subdomain, token_name, is_deleted
	) VALUES (
		:transaction_version, :write_set_change_index, :registered_address,
		:domain, :subdomain, :token_name, :is_deleted
	)
	ON CONFLICT (transaction_version, write_set_change_index)
	DO NOTHING`

const insertCurrentAnsLookupsV2 = `
	INSERT INTO current_ans_lookup_v2 (
		domain, subdomain, token_standard, registered_address,
		expiration_timestamp, token_name, last_transaction_version,
		is_deleted, subdomain_expiration_policy
	) VALUES (
		:domain, :subdomain, :token_standard, :registered_address,
		:expiration_timestamp, :token_name, :last_transaction_version,
		:is_deleted, :subdomain_expiration_policy
	)
	ON CONFLICT (domain, subdomain, token_standard) DO UPDATE SET
		registered_address = EXCLUDED.registered_address,
		expiration_timestamp = EXCLUDED.expiration_timestamp,
		token_name = EXCLUDED.token_name,
		last_transaction_version = EXCLUDED.last_transaction_version,
		is_deleted = EXCLUDED.is_deleted,
		subdomain_expiration_policy = EXCLUDED.subdomain_expiration_policy
	WHERE current_ans_lookup_v2.last_transaction_version <= EXCLUDED.last_transaction_version`

const insertAnsLookupsV2 = `
	INSERT INTO ans_lookup_v2 (
		transaction_version, write_set_change_index, domain, subdomain,
		token_standard, registered_address, expiration_timestamp, token_name,
		is_deleted, subdomain_expiration_policy
	) VALUES (
		:transaction_version, :write_set_change_index, :domain, :subdomain,
		:token_standard, :registered_address, :expiration_timestamp, :token_name,
		:is_deleted, :subdomain_expiration_policy
	)
	ON CONFLICT (transaction_version, write_set_change_index) DO UPDATE SET
		subdomain_expiration_policy = EXCLUDED.subdomain_expiration_policy`

const insertCurrentAnsPrimaryNamesV2 = `
	INSERT INTO current_ans_primary_name_v2 (
		registered_address, token_standard, domain, subdomain, token_name,
		last_transaction_version, is_deleted
	) VALUES (
		:registered_address, :token_standard, :domain, :subdomain, :token_name,
		:last_transaction_version, :is_deleted
	)
	ON CONFLICT (registered_address, token_standard) DO UPDATE SET
		domain = EXCLUDED.domain,
		subdomain = EXCLUDED.subdomain,
		token_name = EXCLUDED.token_name,
		last_transaction_version = EXCLUDED.last_transaction_version,
		is_deleted = EXCLUDED.is_deleted
	WHERE current_ans_primary_name_v2.last_transaction_version <= EXCLUDED.last_transaction_version`

const insertAnsPrimaryNamesV2 = `
	INSERT INTO ans_primary_name_v2 (
		transaction_version, write_set_change_index, registered_address,
		token_standard, domain, subdomain, token_name, is_deleted
	) VALUES (
		:transaction_version, :write_set_change_index, :registered_address,
		:token_standard, :domain, :subdomain, :token_name, :is_deleted
	)
	ON CONFLICT (transaction_version, write_set_change_index)
	DO NOTHING`

// PersistBatch writes all naming tables of one batch concurrently and
// waits for every chunk before reporting the first failure.
func (r *AnsRepo) PersistBatch(ctx context.Context, rows ans.Extracted) error {
	batch := r.db.NewBatch(r.rec)
	SubmitInChunks(ctx, batch, "current_ans_lookup", rows.CurrentLookups,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.CurrentLookup) error {
			_, err := db.NamedExecContext(ctx, insertCurrentAnsLookups, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "ans_lookup", rows.Lookups,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.Lookup) error {
			_, err := db.NamedExecContext(ctx, insertAnsLookups, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "current_ans_primary_name", rows.CurrentPrimaryNames,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.CurrentPrimaryName) error {
			_, err := db.NamedExecContext(ctx, insertCurrentAnsPrimaryNames, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "ans_primary_name", rows.PrimaryNames,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.PrimaryName) error {
			_, err := db.NamedExecContext(ctx, insertAnsPrimaryNames, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "current_ans_lookup_v2", rows.CurrentLookupsV2,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.CurrentLookupV2) error {
			_, err := db.NamedExecContext(ctx, insertCurrentAnsLookupsV2, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "ans_lookup_v2", rows.LookupsV2,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.LookupV2) error {
			_, err := db.NamedExecContext(ctx, insertAnsLookupsV2, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "current_ans_primary_name_v2", rows.CurrentPrimaryNamesV2,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.CurrentPrimaryNameV2) error {
			_, err := db.NamedExecContext(ctx, insertCurrentAnsPrimaryNamesV2, chunk)
			return err
		})
	SubmitInChunks(ctx, batch, "ans_primary_name_v2", rows.PrimaryNamesV2,
		func(ctx context.Context, db *sqlx.DB, chunk []ans.PrimaryNameV2) error {
			_, err := db.NamedExecContext(ctx, insertAnsPrimaryNamesV2, chunk)
			return err
		})
	return batch.Wait()
}
