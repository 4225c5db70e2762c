package coin

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
)

const (
	coinStorePrefix    = "0x1::coin::CoinStore<"
	coinInfoPrefix     = "0x1::coin::CoinInfo<"
	depositEventType   = "0x1::coin::DepositEvent"
	withdrawEventType  = "0x1::coin::WithdrawEvent"
	feeStatementType   = "0x1::transaction_fee::FeeStatement"
)

// innerCoinType pulls the generic parameter out of CoinStore<T>/CoinInfo<T>.
func innerCoinType(resourceType, prefix string) (string, bool) {
	if !strings.HasPrefix(resourceType, prefix) || !strings.HasSuffix(resourceType, ">") {
		return "", false
	}
	return resourceType[len(prefix) : len(resourceType)-1], true
}

type guidID struct {
	Addr        string `json:"addr"`
	CreationNum uint64 `json:"creation_num,string"`
}

type eventHandle struct {
	GUID struct {
		ID guidID `json:"id"`
	} `json:"guid"`
}

func (h eventHandle) guid() EventGUID {
	return EventGUID{
		Address:        move.StandardizeAddress(h.GUID.ID.Addr),
		CreationNumber: h.GUID.ID.CreationNum,
	}
}

type coinStoreData struct {
	Coin struct {
		Value decimal.Decimal `json:"value"`
	} `json:"coin"`
	Frozen         bool        `json:"frozen"`
	DepositEvents  eventHandle `json:"deposit_events"`
	WithdrawEvents eventHandle `json:"withdraw_events"`
}

// storeFromWriteResource decodes a CoinStore<T> write into a balance
// observation, a current-balance update and the GUID→coin-type mappings its
// event handles establish. Returns ok=false for unrelated resource types.
func storeFromWriteResource(wr *domain.WriteResource, version uint64, ts time.Time) (Balance, CurrentBalance, EventToCoinType, bool, error) {
	coinType, ok := innerCoinType(wr.TypeStr, coinStorePrefix)
	if !ok {
		return Balance{}, CurrentBalance{}, nil, false, nil
	}
	var data coinStoreData
	if err := json.Unmarshal(wr.Data, &data); err != nil {
		return Balance{}, CurrentBalance{}, nil, false, fmt.Errorf("failed to parse CoinStore, version %d: %w", version, err)
	}

	owner := move.StandardizeAddress(wr.Address)
	balance := Balance{
		TransactionVersion:   version,
		OwnerAddress:         owner,
		CoinType:             coinType,
		Amount:               data.Coin.Value,
		TransactionTimestamp: ts,
	}
	current := CurrentBalance{
		OwnerAddress:             owner,
		CoinType:                 coinType,
		Amount:                   data.Coin.Value,
		Frozen:                   data.Frozen,
		LastTransactionVersion:   version,
		LastTransactionTimestamp: ts,
	}
	mapping := EventToCoinType{
		data.DepositEvents.guid():  coinType,
		data.WithdrawEvents.guid(): coinType,
	}
	return balance, current, mapping, true, nil
}

// storeFromDeleteResource turns a CoinStore<T> removal into a zeroed
// current-balance update at the deleting version. State rows are
// superseded, never removed.
func storeFromDeleteResource(dr *domain.DeleteResource, version uint64, ts time.Time) (CurrentBalance, bool) {
	coinType, ok := innerCoinType(dr.TypeStr, coinStorePrefix)
	if !ok {
		return CurrentBalance{}, false
	}
	return CurrentBalance{
		OwnerAddress:             move.StandardizeAddress(dr.Address),
		CoinType:                 coinType,
		Amount:                   decimal.Zero,
		Frozen:                   false,
		LastTransactionVersion:   version,
		LastTransactionTimestamp: ts,
	}, true
}

type coinInfoData struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
	Supply   *struct {
		Vec []struct {
			Integer struct {
				Vec []struct {
					Value decimal.Decimal `json:"value"`
				} `json:"vec"`
			} `json:"integer"`
		} `json:"vec"`
	} `json:"supply"`
}

// infoFromWriteResource decodes a CoinInfo<T> write. The supply field is a
// doubly wrapped optional; an aggregator-backed supply decodes to nil here
// because the actual amount lives in a separate table.
func infoFromWriteResource(wr *domain.WriteResource, version uint64, ts time.Time) (Info, bool, error) {
	coinType, ok := innerCoinType(wr.TypeStr, coinInfoPrefix)
	if !ok {
		return Info{}, false, nil
	}
	var data coinInfoData
	if err := json.Unmarshal(wr.Data, &data); err != nil {
		return Info{}, false, fmt.Errorf("failed to parse CoinInfo, version %d: %w", version, err)
	}

	var supply *decimal.Decimal
	if data.Supply != nil && len(data.Supply.Vec) > 0 && len(data.Supply.Vec[0].Integer.Vec) > 0 {
		v := data.Supply.Vec[0].Integer.Vec[0].Value
		supply = &v
	}

	creator := coinType
	if idx := strings.Index(coinType, "::"); idx > 0 {
		creator = move.StandardizeAddress(coinType[:idx])
	}

	return Info{
		CoinTypeHash:                move.HashStr(coinType),
		CoinType:                    move.TruncateStr(coinType, 5000),
		TransactionVersionCreated:   version,
		CreatorAddress:              creator,
		Name:                        move.TruncateStr(data.Name, 32),
		Symbol:                      move.TruncateStr(data.Symbol, 10),
		Decimals:                    data.Decimals,
		Supply:                      supply,
		TransactionCreatedTimestamp: ts,
	}, true, nil
}

// coinEvent is a parsed deposit or withdraw event payload.
type coinEvent struct {
	Amount decimal.Decimal `json:"amount"`
}

// eventFromType decodes a coin deposit/withdraw event. Unknown event types
// return ok=false; a malformed payload of a supported type is an error for
// that single item.
func eventFromType(eventType string, data json.RawMessage, version uint64) (coinEvent, bool, error) {
	switch eventType {
	case depositEventType, withdrawEventType:
		var ev coinEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return coinEvent{}, false, fmt.Errorf("failed to parse coin event, version %d: %w", version, err)
		}
		return ev, true, nil
	default:
		return coinEvent{}, false, nil
	}
}

// feeStatement is the storage-refund portion of the fee breakdown event.
type feeStatement struct {
	StorageFeeRefundOctas decimal.Decimal `json:"storage_fee_refund_octas"`
}

// feeStatementFromEvents finds the optional fee statement among a
// transaction's events; absence defaults the refund to zero.
func feeStatementFromEvents(events []domain.Event) *feeStatement {
	for _, ev := range events {
		if ev.Type != feeStatementType {
			continue
		}
		var fs feeStatement
		if err := json.Unmarshal(ev.Data, &fs); err != nil {
			// Malformed fee statement drops the refund, not the gas row.
			return nil
		}
		return &fs
	}
	return nil
}
