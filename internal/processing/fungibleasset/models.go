// Package fungibleasset extracts fungible-asset activity, balances and
// metadata from transaction batches. Stores and metadata live in object
// resources; deposits, withdrawals and freezes arrive both as legacy
// handle-scoped events and as module events carrying the store address.
package fungibleasset

import (
	"time"

	"github.com/shopspring/decimal"
)

const TokenStandardV2 = "v2"

// Activity is one append-only fungible-asset movement or freeze toggle.
type Activity struct {
	TransactionVersion   uint64           `db:"transaction_version"`
	EventIndex           int64            `db:"event_index"`
	OwnerAddress         *string          `db:"owner_address"`
	StorageID            string           `db:"storage_id"`
	AssetType            *string          `db:"asset_type"`
	IsFrozen             *bool            `db:"is_frozen"`
	Amount               *decimal.Decimal `db:"amount"`
	ActivityType         string           `db:"type"`
	IsTransactionSuccess bool             `db:"is_transaction_success"`
	EntryFunctionIDStr   string           `db:"entry_function_id_str"`
	BlockHeight          uint64           `db:"block_height"`
	TokenStandard        string           `db:"token_standard"`
	TransactionTimestamp time.Time        `db:"transaction_timestamp"`
}

// CurrentBalance is the latest state of one fungible store, keyed by the
// store object address.
type CurrentBalance struct {
	StorageID                string          `db:"storage_id"`
	OwnerAddress             string          `db:"owner_address"`
	AssetType                string          `db:"asset_type"`
	IsFrozen                 bool            `db:"is_frozen"`
	Amount                   decimal.Decimal `db:"amount"`
	TokenStandard            string          `db:"token_standard"`
	LastTransactionVersion   uint64          `db:"last_transaction_version"`
	LastTransactionTimestamp time.Time       `db:"last_transaction_timestamp"`
}

func (c CurrentBalance) PrimaryKey() string { return c.StorageID }
func (c CurrentBalance) RowVersion() uint64 { return c.LastTransactionVersion }

// Metadata is the latest known metadata of one fungible asset, keyed by
// the metadata object address. Supply fields come from the sibling supply
// resource under the same object when present.
type Metadata struct {
	AssetType                string           `db:"asset_type"`
	CreatorAddress           string           `db:"creator_address"`
	Name                     string           `db:"name"`
	Symbol                   string           `db:"symbol"`
	Decimals                 int32            `db:"decimals"`
	IconURI                  string           `db:"icon_uri"`
	ProjectURI               string           `db:"project_uri"`
	Supply                   *decimal.Decimal `db:"supply"`
	MaximumSupply            *decimal.Decimal `db:"maximum_supply"`
	TokenStandard            string           `db:"token_standard"`
	LastTransactionVersion   uint64           `db:"last_transaction_version"`
	LastTransactionTimestamp time.Time        `db:"last_transaction_timestamp"`
}

func (m Metadata) PrimaryKey() string { return m.AssetType }
func (m Metadata) RowVersion() uint64 { return m.LastTransactionVersion }
