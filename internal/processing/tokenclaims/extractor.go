package tokenclaims

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
	"github.com/vietddude/chainsink/internal/processing/tables"
)

// ClaimFromWriteTableItem decodes one pending-claim table write. The claim
// table lives under the offerer's account; the handle is resolved through
// the auxiliary index. A handle without metadata is skipped with a warning
// because the owning resource may predate the batch. A malformed key or
// value of a recognized offer type drops that single item.
func ClaimFromWriteTableItem(item *domain.WriteTableItem, version uint64, ts time.Time, index tables.HandleToOwner, log *slog.Logger) (CurrentTokenPendingClaim, bool) {
	offer, ok, err := offerFromTableItem(item.KeyType, item.Key, version)
	if err != nil {
		log.Error("failed to decode token offer key",
			"version", version, "key_type", item.KeyType,
			"key", item.Key, "error", err)
		return CurrentTokenPendingClaim{}, false
	}
	if !ok {
		return CurrentTokenPendingClaim{}, false
	}
	tok, ok, err := tokenFromTableItem(item.ValueType, item.Value, version)
	if err != nil {
		log.Error("failed to decode token value",
			"version", version, "value_type", item.ValueType,
			"value", item.Value, "error", err)
		return CurrentTokenPendingClaim{}, false
	}
	if !ok {
		log.Warn("expecting token as value for token offer key",
			"version", version, "value_type", item.ValueType)
		return CurrentTokenPendingClaim{}, false
	}

	handle := move.StandardizeAddress(item.Handle)
	metadata, found := index[handle]
	if !found {
		log.Warn("missing table handle metadata for token claim",
			"version", version, "table_handle", handle)
		return CurrentTokenPendingClaim{}, false
	}

	if len(tok.TokenProperties) > 0 {
		props := move.ConvertPropertyMap(tok.TokenProperties)
		props = move.ConvertTokenObjectPropertyMap(props)
		log.Debug("pending claim token properties",
			"version", version, "properties", string(props))
	}

	return buildClaim(offer, tok.Amount, handle, metadata.OwnerAddress, version, ts), true
}

// ClaimFromDeleteTableItem decodes a claim or cancellation: the table
// entry disappears and the row is superseded by a zero amount.
func ClaimFromDeleteTableItem(item *domain.DeleteTableItem, version uint64, ts time.Time, index tables.HandleToOwner, log *slog.Logger) (CurrentTokenPendingClaim, bool) {
	offer, ok, err := offerFromTableItem(item.KeyType, item.Key, version)
	if err != nil {
		log.Error("failed to decode token offer key",
			"version", version, "key_type", item.KeyType,
			"key", item.Key, "error", err)
		return CurrentTokenPendingClaim{}, false
	}
	if !ok {
		return CurrentTokenPendingClaim{}, false
	}

	handle := move.StandardizeAddress(item.Handle)
	metadata, found := index[handle]
	if !found {
		log.Warn("missing table handle metadata for token claim",
			"version", version, "table_handle", handle)
		return CurrentTokenPendingClaim{}, false
	}

	return buildClaim(offer, decimal.Zero, handle, metadata.OwnerAddress, version, ts), true
}

func buildClaim(offer tokenOfferID, amount decimal.Decimal, handle, fromAddress string, version uint64, ts time.Time) CurrentTokenPendingClaim {
	dataID := offer.TokenID.TokenDataID
	return CurrentTokenPendingClaim{
		TokenDataIDHash:          dataID.hash(),
		PropertyVersion:          offer.TokenID.PropertyVersion,
		FromAddress:              fromAddress,
		ToAddress:                offer.toAddress(),
		CollectionDataIDHash:     dataID.collectionDataIDHash(),
		CreatorAddress:           dataID.creatorAddress(),
		CollectionName:           dataID.collectionTrunc(),
		Name:                     dataID.nameTrunc(),
		Amount:                   amount,
		TableHandle:              handle,
		LastTransactionVersion:   version,
		LastTransactionTimestamp: ts,
		TokenDataID:              dataID.id(),
		CollectionID:             dataID.collectionID(),
	}
}

// NftPointsFromTransaction parses a point grant from the configured
// contract's entry function call: arguments are owner, token name, amount
// and point type. Failed transactions and foreign entry functions yield
// nothing; a malformed payload on a matching call drops the grant with an
// error log.
func NftPointsFromTransaction(txn *domain.Transaction, contract string, log *slog.Logger) (NftPoints, bool) {
	if contract == "" || txn.Type != domain.TxnTypeUser {
		return NftPoints{}, false
	}
	req := txn.User
	if req == nil || req.Payload == nil {
		return NftPoints{}, false
	}
	if !txn.MustInfo().Success {
		return NftPoints{}, false
	}
	if move.EntryFunctionID(req) != contract {
		return NftPoints{}, false
	}

	cleaned, err := move.CleanPayload(req.Payload, txn.Version)
	if err != nil {
		log.Error("failed to clean nft points payload",
			"version", txn.Version,
			"arguments", req.Payload.Arguments, "error", err)
		return NftPoints{}, false
	}
	args, ok := cleaned["arguments"].([]any)
	if !ok || len(args) < 4 {
		log.Error("unexpected nft points arguments",
			"version", txn.Version, "arguments", req.Payload.Arguments)
		return NftPoints{}, false
	}
	fields := make([]string, 4)
	for i := range fields {
		s, ok := args[i].(string)
		if !ok {
			log.Error("nft points argument is not a string",
				"version", txn.Version, "argument", i,
				"arguments", req.Payload.Arguments)
			return NftPoints{}, false
		}
		fields[i] = s
	}
	amount, err := decimal.NewFromString(fields[2])
	if err != nil {
		log.Error("failed to parse nft points amount",
			"version", txn.Version, "argument", fields[2])
		return NftPoints{}, false
	}

	return NftPoints{
		TransactionVersion:   txn.Version,
		OwnerAddress:         move.StandardizeAddress(fields[0]),
		TokenName:            fields[1],
		PointType:            fields[3],
		Amount:               amount,
		TransactionTimestamp: txn.MustTimestamp(),
	}, true
}
