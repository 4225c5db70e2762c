// Package tokenclaims extracts pending token claims from the offer table
// kept under each offerer's account, plus point grants parsed from a
// configured contract's entry-function payloads.
package tokenclaims

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentTokenPendingClaim is the latest state of one token offer: who
// offered which token to whom and how much of it is still claimable. A
// claimed or cancelled offer stays as a zero-amount row.
type CurrentTokenPendingClaim struct {
	TokenDataIDHash          string          `db:"token_data_id_hash"`
	PropertyVersion          decimal.Decimal `db:"property_version"`
	FromAddress              string          `db:"from_address"`
	ToAddress                string          `db:"to_address"`
	CollectionDataIDHash     string          `db:"collection_data_id_hash"`
	CreatorAddress           string          `db:"creator_address"`
	CollectionName           string          `db:"collection_name"`
	Name                     string          `db:"name"`
	Amount                   decimal.Decimal `db:"amount"`
	TableHandle              string          `db:"table_handle"`
	LastTransactionVersion   uint64          `db:"last_transaction_version"`
	LastTransactionTimestamp time.Time       `db:"last_transaction_timestamp"`
	TokenDataID              string          `db:"token_data_id"`
	CollectionID             string          `db:"collection_id"`
}

func (c CurrentTokenPendingClaim) PrimaryKey() string {
	return c.TokenDataIDHash + "|" + c.PropertyVersion.String() + "|" + c.FromAddress + "|" + c.ToAddress
}

func (c CurrentTokenPendingClaim) RowVersion() uint64 { return c.LastTransactionVersion }

// NftPoints is one point grant observed on the configured contract.
type NftPoints struct {
	TransactionVersion   uint64          `db:"transaction_version"`
	OwnerAddress         string          `db:"owner_address"`
	TokenName            string          `db:"token_name"`
	PointType            string          `db:"point_type"`
	Amount               decimal.Decimal `db:"amount"`
	TransactionTimestamp time.Time       `db:"transaction_timestamp"`
}
