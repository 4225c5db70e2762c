// Package tables builds the batch-scoped auxiliary index resolving a
// storage-table handle to the account that owns it. Table-item changes
// carry no owner, so extractors that consume them need this index, built
// from the same batch's write resources before extraction runs.
package tables

import (
	"encoding/json"
	"log/slog"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
)

// Metadata describes the resource a table handle was found under.
type Metadata struct {
	OwnerAddress string
	TableType    string
}

// HandleToOwner maps a standardized table handle to its owning resource.
// Ephemeral: rebuilt every batch, never persisted.
type HandleToOwner map[string]Metadata

// tableHolderField names, per resource type, the JSON field holding the
// table whose handle extractors will later need to resolve.
var tableHolderField = map[string]string{
	"0x3::token::TokenStore":              "tokens",
	"0x3::token::Collections":             "token_data",
	"0x3::token_transfers::PendingClaims": "pending_claims",
}

type tableRef struct {
	Handle string `json:"handle"`
}

// Build scans the batch's write resources once and collects every
// recognized table-holder mapping. Later writes overwrite earlier ones,
// matching transaction order within the batch.
func Build(txns []*domain.Transaction, log *slog.Logger) HandleToOwner {
	index := make(HandleToOwner)
	for _, txn := range txns {
		for _, wsc := range txn.MustInfo().Changes {
			if wsc.Type != domain.ChangeTypeWriteResource || wsc.WriteResource == nil {
				continue
			}
			wr := wsc.WriteResource
			field, ok := tableHolderField[wr.TypeStr]
			if !ok {
				continue
			}
			var data map[string]json.RawMessage
			if err := json.Unmarshal(wr.Data, &data); err != nil {
				log.Error("Failed to parse table holder resource",
					"transaction_version", txn.Version,
					"resource_type", wr.TypeStr,
					"error", err)
				continue
			}
			raw, ok := data[field]
			if !ok {
				continue
			}
			var ref tableRef
			if err := json.Unmarshal(raw, &ref); err != nil || ref.Handle == "" {
				continue
			}
			index[move.StandardizeAddress(ref.Handle)] = Metadata{
				OwnerAddress: move.StandardizeAddress(wr.Address),
				TableType:    wr.TypeStr,
			}
		}
	}
	return index
}
