package coin

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
)

// Extracted is everything one user transaction contributes to the coin
// tables. Current balances are per-change observations; the processor
// reconciles them across the batch before persisting.
type Extracted struct {
	Activities      []Activity
	Balances        []Balance
	CurrentBalances []CurrentBalance
	Infos           []Info
}

// FromTransaction extracts coin rows from one transaction: balance and
// metadata rows from the write set, one activity per deposit/withdraw
// event, and for user transactions a synthesized gas-fee activity. Genesis
// transactions seed the native coin's info and the initial balances; every
// other type yields nothing. A malformed payload of a recognized coin type
// drops that single item, never the transaction.
func FromTransaction(txn *domain.Transaction, log *slog.Logger) Extracted {
	var out Extracted
	if txn.Type != domain.TxnTypeUser && txn.Type != domain.TxnTypeGenesis {
		return out
	}
	info := txn.MustInfo()
	ts := txn.MustTimestamp()

	// Store resources written in this transaction register the GUID→coin
	// type mappings the event loop resolves against.
	eventToCoinType := EventToCoinType{}
	for i := range info.Changes {
		change := &info.Changes[i]
		switch change.Type {
		case domain.ChangeTypeWriteResource:
			wr := change.WriteResource
			balance, current, mapping, ok, err := storeFromWriteResource(wr, txn.Version, ts)
			if err != nil {
				log.Error("failed to decode coin store",
					"version", txn.Version,
					"resource_type", wr.TypeStr,
					"data", string(wr.Data),
					"error", err)
				continue
			}
			if ok {
				out.Balances = append(out.Balances, balance)
				out.CurrentBalances = append(out.CurrentBalances, current)
				for guid, coinType := range mapping {
					eventToCoinType[guid] = coinType
				}
				continue
			}
			coinInfo, ok, err := infoFromWriteResource(wr, txn.Version, ts)
			if err != nil {
				log.Error("failed to decode coin info",
					"version", txn.Version,
					"resource_type", wr.TypeStr,
					"data", string(wr.Data),
					"error", err)
				continue
			}
			if ok {
				out.Infos = append(out.Infos, coinInfo)
			}
		case domain.ChangeTypeDeleteResource:
			if current, ok := storeFromDeleteResource(change.DeleteResource, txn.Version, ts); ok {
				out.CurrentBalances = append(out.CurrentBalances, current)
			}
		}
	}

	// Gas is burned by the sender, so only user transactions carry the
	// synthesized fee row.
	var entryFunction string
	if txn.Type == domain.TxnTypeUser {
		req := txn.MustUser()
		entryFunction = move.EntryFunctionID(req)
		out.Activities = append(out.Activities, gasActivity(txn, req, info, entryFunction))
	}

	for i, ev := range txn.Events {
		parsed, ok, err := eventFromType(ev.Type, ev.Data, txn.Version)
		if err != nil {
			log.Error("failed to decode coin event",
				"version", txn.Version,
				"event_type", ev.Type,
				"data", string(ev.Data),
				"error", err)
			continue
		}
		if !ok {
			continue
		}
		guid := EventGUID{
			Address:        move.StandardizeAddress(ev.Key.AccountAddress),
			CreationNumber: ev.Key.CreationNumber,
		}
		coinType, found := eventToCoinType[guid]
		if !found {
			log.Warn("coin event without store mapping in batch",
				"version", txn.Version,
				"event_guid", guid.String(),
				"event_type", ev.Type)
			coinType = UnknownCoinType
		}
		out.Activities = append(out.Activities, Activity{
			TransactionVersion:   txn.Version,
			EventAccountAddress:  guid.Address,
			EventCreationNumber:  int64(ev.Key.CreationNumber),
			EventSequenceNumber:  ev.SequenceNumber,
			OwnerAddress:         guid.Address,
			CoinType:             coinType,
			Amount:               parsed.Amount,
			ActivityType:         ev.Type,
			IsGasFee:             false,
			IsTransactionSuccess: info.Success,
			EntryFunctionIDStr:   entryFunction,
			BlockHeight:          txn.BlockHeight,
			TransactionTimestamp: ts,
			EventIndex:           int64(i),
			StorageRefundAmount:  decimal.Zero,
		})
	}
	return out
}

// gasActivity synthesizes the gas burn as a coin activity. Gas has no
// on-chain event, so the row carries sentinel event coordinates that can
// never collide with a real event key.
func gasActivity(txn *domain.Transaction, req *domain.UserRequest, info *domain.TransactionInfo, entryFunction string) Activity {
	sender := move.StandardizeAddress(req.Sender)

	var feePayer *string
	if req.FeePayerAddress != "" {
		addr := move.StandardizeAddress(req.FeePayerAddress)
		feePayer = &addr
	}

	refund := decimal.Zero
	if fs := feeStatementFromEvents(txn.Events); fs != nil {
		refund = fs.StorageFeeRefundOctas
	}

	amount := decimal.NewFromUint64(info.GasUsed).
		Mul(decimal.NewFromUint64(req.GasUnitPrice))

	return Activity{
		TransactionVersion:   txn.Version,
		EventAccountAddress:  sender,
		EventCreationNumber:  BurnGasEventCreationNumber,
		EventSequenceNumber:  req.SequenceNumber,
		OwnerAddress:         sender,
		CoinType:             AptosCoinType,
		Amount:               amount,
		ActivityType:         GasFeeActivityType,
		IsGasFee:             true,
		IsTransactionSuccess: info.Success,
		EntryFunctionIDStr:   entryFunction,
		BlockHeight:          txn.BlockHeight,
		TransactionTimestamp: txn.MustTimestamp(),
		EventIndex:           BurnGasEventIndex,
		GasFeePayerAddress:   feePayer,
		StorageRefundAmount:  refund,
	}
}
