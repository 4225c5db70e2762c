// Package ans extracts naming-service records from transaction batches.
// Two on-chain generations coexist: v1 keeps name records and primary
// names in table items under well-known handles, v2 keeps them in name
// record resources and reverse-lookup events under a contract address.
// Every v1 row is also projected into the v2 tables so readers see one
// unified shape, discriminated by token standard.
package ans

import (
	"time"
)

const (
	TokenStandardV1 = "v1"
	TokenStandardV2 = "v2"
)

// CurrentLookup is the latest state of one v1 name record.
type CurrentLookup struct {
	Domain                 string    `db:"domain"`
	Subdomain              string    `db:"subdomain"`
	RegisteredAddress      *string   `db:"registered_address"`
	ExpirationTimestamp    time.Time `db:"expiration_timestamp"`
	TokenName              string    `db:"token_name"`
	LastTransactionVersion uint64    `db:"last_transaction_version"`
	IsDeleted              bool      `db:"is_deleted"`
}

func (c CurrentLookup) PrimaryKey() string { return c.Domain + "|" + c.Subdomain }
func (c CurrentLookup) RowVersion() uint64 { return c.LastTransactionVersion }

// Lookup is the append-only history row behind CurrentLookup.
type Lookup struct {
	TransactionVersion  uint64    `db:"transaction_version"`
	WriteSetChangeIndex int64     `db:"write_set_change_index"`
	Domain              string    `db:"domain"`
	Subdomain           string    `db:"subdomain"`
	RegisteredAddress   *string   `db:"registered_address"`
	ExpirationTimestamp time.Time `db:"expiration_timestamp"`
	TokenName           string    `db:"token_name"`
	IsDeleted           bool      `db:"is_deleted"`
}

// CurrentLookupV2 is the unified current name record across standards.
type CurrentLookupV2 struct {
	Domain                    string    `db:"domain"`
	Subdomain                 string    `db:"subdomain"`
	TokenStandard             string    `db:"token_standard"`
	RegisteredAddress         *string   `db:"registered_address"`
	ExpirationTimestamp       time.Time `db:"expiration_timestamp"`
	TokenName                 string    `db:"token_name"`
	LastTransactionVersion    uint64    `db:"last_transaction_version"`
	IsDeleted                 bool      `db:"is_deleted"`
	SubdomainExpirationPolicy *int64    `db:"subdomain_expiration_policy"`
}

func (c CurrentLookupV2) PrimaryKey() string {
	return c.Domain + "|" + c.Subdomain + "|" + c.TokenStandard
}
func (c CurrentLookupV2) RowVersion() uint64 { return c.LastTransactionVersion }

// LookupV2 is the append-only history row behind CurrentLookupV2.
type LookupV2 struct {
	TransactionVersion        uint64    `db:"transaction_version"`
	WriteSetChangeIndex       int64     `db:"write_set_change_index"`
	Domain                    string    `db:"domain"`
	Subdomain                 string    `db:"subdomain"`
	TokenStandard             string    `db:"token_standard"`
	RegisteredAddress         *string   `db:"registered_address"`
	ExpirationTimestamp       time.Time `db:"expiration_timestamp"`
	TokenName                 string    `db:"token_name"`
	IsDeleted                 bool      `db:"is_deleted"`
	SubdomainExpirationPolicy *int64    `db:"subdomain_expiration_policy"`
}

// CurrentPrimaryName is the latest reverse lookup for one address (v1).
type CurrentPrimaryName struct {
	RegisteredAddress      string  `db:"registered_address"`
	Domain                 *string `db:"domain"`
	Subdomain              *string `db:"subdomain"`
	TokenName              *string `db:"token_name"`
	LastTransactionVersion uint64  `db:"last_transaction_version"`
	IsDeleted              bool    `db:"is_deleted"`
}

func (c CurrentPrimaryName) PrimaryKey() string { return c.RegisteredAddress }
func (c CurrentPrimaryName) RowVersion() uint64 { return c.LastTransactionVersion }

// PrimaryName is the append-only history row behind CurrentPrimaryName.
type PrimaryName struct {
	TransactionVersion  uint64  `db:"transaction_version"`
	WriteSetChangeIndex int64   `db:"write_set_change_index"`
	RegisteredAddress   string  `db:"registered_address"`
	Domain              *string `db:"domain"`
	Subdomain           *string `db:"subdomain"`
	TokenName           *string `db:"token_name"`
	IsDeleted           bool    `db:"is_deleted"`
}

// CurrentPrimaryNameV2 is the unified current reverse lookup.
type CurrentPrimaryNameV2 struct {
	RegisteredAddress      string  `db:"registered_address"`
	TokenStandard          string  `db:"token_standard"`
	Domain                 *string `db:"domain"`
	Subdomain              *string `db:"subdomain"`
	TokenName              *string `db:"token_name"`
	LastTransactionVersion uint64  `db:"last_transaction_version"`
	IsDeleted              bool    `db:"is_deleted"`
}

func (c CurrentPrimaryNameV2) PrimaryKey() string {
	return c.RegisteredAddress + "|" + c.TokenStandard
}
func (c CurrentPrimaryNameV2) RowVersion() uint64 { return c.LastTransactionVersion }

// PrimaryNameV2 is the append-only history row behind CurrentPrimaryNameV2.
type PrimaryNameV2 struct {
	TransactionVersion  uint64  `db:"transaction_version"`
	WriteSetChangeIndex int64   `db:"write_set_change_index"`
	RegisteredAddress   string  `db:"registered_address"`
	TokenStandard       string  `db:"token_standard"`
	Domain              *string `db:"domain"`
	Subdomain           *string `db:"subdomain"`
	TokenName           *string `db:"token_name"`
	IsDeleted           bool    `db:"is_deleted"`
}

// V2 projects a v1 current lookup into the unified table.
func (c CurrentLookup) V2() CurrentLookupV2 {
	return CurrentLookupV2{
		Domain:                 c.Domain,
		Subdomain:              c.Subdomain,
		TokenStandard:          TokenStandardV1,
		RegisteredAddress:      c.RegisteredAddress,
		ExpirationTimestamp:    c.ExpirationTimestamp,
		TokenName:              c.TokenName,
		LastTransactionVersion: c.LastTransactionVersion,
		IsDeleted:              c.IsDeleted,
	}
}

// V2 projects a v1 lookup history row into the unified table.
func (l Lookup) V2() LookupV2 {
	return LookupV2{
		TransactionVersion:  l.TransactionVersion,
		WriteSetChangeIndex: l.WriteSetChangeIndex,
		Domain:              l.Domain,
		Subdomain:           l.Subdomain,
		TokenStandard:       TokenStandardV1,
		RegisteredAddress:   l.RegisteredAddress,
		ExpirationTimestamp: l.ExpirationTimestamp,
		TokenName:           l.TokenName,
		IsDeleted:           l.IsDeleted,
	}
}

// V2 projects a v1 current primary name into the unified table.
func (c CurrentPrimaryName) V2() CurrentPrimaryNameV2 {
	return CurrentPrimaryNameV2{
		RegisteredAddress:      c.RegisteredAddress,
		TokenStandard:          TokenStandardV1,
		Domain:                 c.Domain,
		Subdomain:              c.Subdomain,
		TokenName:              c.TokenName,
		LastTransactionVersion: c.LastTransactionVersion,
		IsDeleted:              c.IsDeleted,
	}
}

// V2 projects a v1 primary name history row into the unified table.
func (p PrimaryName) V2() PrimaryNameV2 {
	return PrimaryNameV2{
		TransactionVersion:  p.TransactionVersion,
		WriteSetChangeIndex: p.WriteSetChangeIndex,
		RegisteredAddress:   p.RegisteredAddress,
		TokenStandard:       TokenStandardV1,
		Domain:              p.Domain,
		Subdomain:           p.Subdomain,
		TokenName:           p.TokenName,
		IsDeleted:           p.IsDeleted,
	}
}
