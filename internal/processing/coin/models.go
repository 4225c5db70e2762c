// Package coin extracts coin activity, balances and coin metadata from
// transaction batches: withdraw/deposit events resolved to coin types
// through the store resources written in the same batch, plus a
// synthesized gas-fee activity per user transaction.
package coin

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AptosCoinType is the native gas coin.
	AptosCoinType = "0x1::aptos_coin::AptosCoin"
	// UnknownCoinType marks deposit/withdraw events whose GUID had no
	// store resource mapping in the batch.
	UnknownCoinType = "0x1::coin::UnknownCoinType"
	// GasFeeActivityType labels the synthesized gas burn activity.
	GasFeeActivityType = "0x1::aptos_coin::GasFeeEvent"

	// Synthesized gas activities carry sentinel event coordinates so they
	// never collide with real event keys.
	BurnGasEventCreationNumber int64 = -1
	BurnGasEventIndex          int64 = -1
)

// Activity is one append-only coin movement at one transaction version.
type Activity struct {
	TransactionVersion   uint64          `db:"transaction_version"`
	EventAccountAddress  string          `db:"event_account_address"`
	EventCreationNumber  int64           `db:"event_creation_number"`
	EventSequenceNumber  uint64          `db:"event_sequence_number"`
	OwnerAddress         string          `db:"owner_address"`
	CoinType             string          `db:"coin_type"`
	Amount               decimal.Decimal `db:"amount"`
	ActivityType         string          `db:"activity_type"`
	IsGasFee             bool            `db:"is_gas_fee"`
	IsTransactionSuccess bool            `db:"is_transaction_success"`
	EntryFunctionIDStr   string          `db:"entry_function_id_str"`
	BlockHeight          uint64          `db:"block_height"`
	TransactionTimestamp time.Time       `db:"transaction_timestamp"`
	EventIndex           int64           `db:"event_index"`
	GasFeePayerAddress   *string         `db:"gas_fee_payer_address"`
	StorageRefundAmount  decimal.Decimal `db:"storage_refund_amount"`
}

// Balance is the append-only balance observation for one store write.
type Balance struct {
	TransactionVersion   uint64          `db:"transaction_version"`
	OwnerAddress         string          `db:"owner_address"`
	CoinType             string          `db:"coin_type"`
	Amount               decimal.Decimal `db:"amount"`
	TransactionTimestamp time.Time       `db:"transaction_timestamp"`
}

// CurrentBalance is the latest-known balance per (owner, coin type).
type CurrentBalance struct {
	OwnerAddress           string          `db:"owner_address"`
	CoinType               string          `db:"coin_type"`
	Amount                 decimal.Decimal `db:"amount"`
	Frozen                 bool            `db:"frozen"`
	LastTransactionVersion uint64          `db:"last_transaction_version"`
	LastTransactionTimestamp time.Time     `db:"last_transaction_timestamp"`
}

func (c CurrentBalance) PrimaryKey() string {
	return c.OwnerAddress + "|" + c.CoinType
}

func (c CurrentBalance) RowVersion() uint64 { return c.LastTransactionVersion }

// Info is coin metadata keyed by the hash of its fully qualified type.
type Info struct {
	CoinTypeHash              string           `db:"coin_type_hash"`
	CoinType                  string           `db:"coin_type"`
	TransactionVersionCreated uint64           `db:"transaction_version_created"`
	CreatorAddress            string           `db:"creator_address"`
	Name                      string           `db:"name"`
	Symbol                    string           `db:"symbol"`
	Decimals                  int32            `db:"decimals"`
	Supply                    *decimal.Decimal `db:"supply"`
	TransactionCreatedTimestamp time.Time      `db:"transaction_created_timestamp"`
}

func (i Info) PrimaryKey() string { return i.CoinTypeHash }

func (i Info) RowVersion() uint64 { return i.TransactionVersionCreated }

// EventGUID identifies the emitting handle of a coin event.
type EventGUID struct {
	Address        string
	CreationNumber uint64
}

func (g EventGUID) String() string {
	return fmt.Sprintf("%s-%d", g.Address, g.CreationNumber)
}

// EventToCoinType is the batch-scoped map resolving an event GUID to the
// coin type of the store that registered it. Rebuilt every batch.
type EventToCoinType map[EventGUID]string
