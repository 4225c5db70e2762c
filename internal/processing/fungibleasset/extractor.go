package fungibleasset

import (
	"log/slog"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
)

// Extracted is everything one user transaction contributes to the
// fungible-asset tables.
type Extracted struct {
	Activities      []Activity
	CurrentBalances []CurrentBalance
	Metadata        []Metadata
}

// FromTransaction extracts fungible-asset rows from one user transaction.
// A malformed payload of a recognized fungible-asset type drops that single
// item, never the transaction.
//
// The write set is scanned twice: object cores and supply resources first,
// because stores and metadata reference them regardless of relative order
// within the transaction.
func FromTransaction(txn *domain.Transaction, log *slog.Logger) Extracted {
	var out Extracted
	if txn.Type != domain.TxnTypeUser {
		return out
	}
	req := txn.User
	info := txn.MustInfo()
	ts := txn.MustTimestamp()

	objectOwner := map[string]string{}
	supplies := map[string]supplyFacts{}
	for i := range info.Changes {
		change := &info.Changes[i]
		if change.Type != domain.ChangeTypeWriteResource {
			continue
		}
		wr := change.WriteResource
		addr := move.StandardizeAddress(wr.Address)
		switch wr.TypeStr {
		case objectCoreType:
			core, err := decodeResource[objectCoreResource](wr, txn.Version)
			if err != nil {
				logDecodeError(log, txn.Version, wr, err)
				continue
			}
			objectOwner[addr] = move.StandardizeAddress(core.Owner)
		case supplyType:
			supply, err := decodeResource[supplyResource](wr, txn.Version)
			if err != nil {
				logDecodeError(log, txn.Version, wr, err)
				continue
			}
			facts := supplyFacts{current: supply.Current}
			if max, ok := supply.Maximum.Value(); ok {
				facts.maximum = &max
			}
			supplies[addr] = facts
		case concurrentSupplyType:
			supply, err := decodeResource[concurrentSupplyResource](wr, txn.Version)
			if err != nil {
				logDecodeError(log, txn.Version, wr, err)
				continue
			}
			maxValue := supply.Current.MaxValue
			supplies[addr] = supplyFacts{
				current: supply.Current.Value,
				maximum: &maxValue,
			}
		}
	}

	// storeAsset resolves a store address to its asset type for the event
	// loop below; populated from stores written in this transaction.
	storeAsset := map[string]string{}
	for i := range info.Changes {
		change := &info.Changes[i]
		if change.Type != domain.ChangeTypeWriteResource {
			continue
		}
		wr := change.WriteResource
		addr := move.StandardizeAddress(wr.Address)
		switch wr.TypeStr {
		case metadataType:
			meta, err := decodeResource[metadataResource](wr, txn.Version)
			if err != nil {
				logDecodeError(log, txn.Version, wr, err)
				continue
			}
			row := Metadata{
				AssetType:                addr,
				CreatorAddress:           objectOwner[addr],
				Name:                     move.TruncateStr(meta.Name, maxAssetNameLength),
				Symbol:                   move.TruncateStr(meta.Symbol, maxSymbolLength),
				Decimals:                 meta.Decimals,
				IconURI:                  move.TruncateStr(meta.IconURI, maxURILength),
				ProjectURI:               move.TruncateStr(meta.ProjectURI, maxURILength),
				TokenStandard:            TokenStandardV2,
				LastTransactionVersion:   txn.Version,
				LastTransactionTimestamp: ts,
			}
			if facts, ok := supplies[addr]; ok {
				current := facts.current
				row.Supply = &current
				row.MaximumSupply = facts.maximum
			}
			out.Metadata = append(out.Metadata, row)
		case fungibleStoreType:
			store, err := decodeResource[fungibleStoreResource](wr, txn.Version)
			if err != nil {
				logDecodeError(log, txn.Version, wr, err)
				continue
			}
			assetType := store.Metadata.address()
			storeAsset[addr] = assetType
			out.CurrentBalances = append(out.CurrentBalances, CurrentBalance{
				StorageID:                addr,
				OwnerAddress:             objectOwner[addr],
				AssetType:                assetType,
				IsFrozen:                 store.Frozen,
				Amount:                   store.Balance,
				TokenStandard:            TokenStandardV2,
				LastTransactionVersion:   txn.Version,
				LastTransactionTimestamp: ts,
			})
		}
	}

	// Concurrent balances override the plain store amount for stores using
	// the aggregator-backed representation.
	for i := range info.Changes {
		change := &info.Changes[i]
		if change.Type != domain.ChangeTypeWriteResource {
			continue
		}
		wr := change.WriteResource
		if wr.TypeStr != concurrentBalanceType {
			continue
		}
		balance, err := decodeResource[concurrentBalanceResource](wr, txn.Version)
		if err != nil {
			logDecodeError(log, txn.Version, wr, err)
			continue
		}
		addr := move.StandardizeAddress(wr.Address)
		for j := range out.CurrentBalances {
			if out.CurrentBalances[j].StorageID == addr {
				out.CurrentBalances[j].Amount = balance.Balance.Value
			}
		}
	}

	entryFunction := move.EntryFunctionID(req)
	for i := range txn.Events {
		parsed, ok, err := eventFromType(&txn.Events[i], txn.Version)
		if err != nil {
			log.Error("failed to decode fungible asset event",
				"version", txn.Version,
				"event_type", txn.Events[i].Type,
				"data", string(txn.Events[i].Data),
				"error", err)
			continue
		}
		if !ok {
			continue
		}

		activity := Activity{
			TransactionVersion:   txn.Version,
			EventIndex:           int64(i),
			StorageID:            parsed.store,
			IsFrozen:             parsed.frozen,
			Amount:               parsed.amount,
			ActivityType:         txn.Events[i].Type,
			IsTransactionSuccess: info.Success,
			EntryFunctionIDStr:   entryFunction,
			BlockHeight:          txn.BlockHeight,
			TokenStandard:        TokenStandardV2,
			TransactionTimestamp: ts,
		}
		if owner, found := objectOwner[parsed.store]; found {
			activity.OwnerAddress = &owner
		}
		if assetType, found := storeAsset[parsed.store]; found {
			activity.AssetType = &assetType
		} else {
			log.Debug("fungible asset event without store write in transaction",
				"version", txn.Version, "storage_id", parsed.store)
		}
		out.Activities = append(out.Activities, activity)
	}
	return out
}

func logDecodeError(log *slog.Logger, version uint64, wr *domain.WriteResource, err error) {
	log.Error("failed to decode fungible asset resource",
		"version", version,
		"resource_type", wr.TypeStr,
		"data", string(wr.Data),
		"error", err)
}
