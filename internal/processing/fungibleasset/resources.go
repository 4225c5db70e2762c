package fungibleasset

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vietddude/chainsink/internal/core/domain"
	"github.com/vietddude/chainsink/internal/processing/move"
)

const (
	metadataType           = "0x1::fungible_asset::Metadata"
	supplyType             = "0x1::fungible_asset::Supply"
	concurrentSupplyType   = "0x1::fungible_asset::ConcurrentSupply"
	fungibleStoreType      = "0x1::fungible_asset::FungibleStore"
	concurrentBalanceType  = "0x1::fungible_asset::ConcurrentFungibleBalance"
	objectCoreType         = "0x1::object::ObjectCore"

	depositEventV1Type  = "0x1::fungible_asset::DepositEvent"
	withdrawEventV1Type = "0x1::fungible_asset::WithdrawEvent"
	frozenEventV1Type   = "0x1::fungible_asset::FrozenEvent"
	depositEventV2Type  = "0x1::fungible_asset::Deposit"
	withdrawEventV2Type = "0x1::fungible_asset::Withdraw"
	frozenEventV2Type   = "0x1::fungible_asset::Frozen"
)

const (
	maxAssetNameLength = 32
	maxSymbolLength    = 10
	maxURILength       = 512
)

// resourceReference is the {"inner": address} pointer shape.
type resourceReference struct {
	Inner string `json:"inner"`
}

func (r resourceReference) address() string {
	return move.StandardizeAddress(r.Inner)
}

type metadataResource struct {
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	Decimals   int32  `json:"decimals"`
	IconURI    string `json:"icon_uri"`
	ProjectURI string `json:"project_uri"`
}

type supplyResource struct {
	Current decimal.Decimal      `json:"current"`
	Maximum move.OptionalDecimal `json:"maximum"`
}

type concurrentSupplyResource struct {
	Current move.Aggregator `json:"current"`
}

type fungibleStoreResource struct {
	Metadata resourceReference `json:"metadata"`
	Balance  decimal.Decimal   `json:"balance"`
	Frozen   bool              `json:"frozen"`
}

type concurrentBalanceResource struct {
	Balance move.Aggregator `json:"balance"`
}

type objectCoreResource struct {
	Owner string `json:"owner"`
}

// supplyFacts is the batch-transient supply view of one metadata object.
type supplyFacts struct {
	current decimal.Decimal
	maximum *decimal.Decimal
}

func decodeResource[T any](wr *domain.WriteResource, version uint64) (T, error) {
	var out T
	if err := json.Unmarshal(wr.Data, &out); err != nil {
		return out, fmt.Errorf("failed to parse %s, version %d: %w", wr.TypeStr, version, err)
	}
	return out, nil
}

// faEvent is one parsed fungible-asset event of either generation.
type faEvent struct {
	// store is the emitting store address; for legacy events it comes from
	// the event key, for module events from the payload.
	store  string
	amount *decimal.Decimal
	frozen *bool
	v1     bool
}

// eventFromType decodes a fungible-asset event. Unknown event types return
// ok=false; a malformed payload of a supported type is an error for that
// single item.
func eventFromType(ev *domain.Event, version uint64) (faEvent, bool, error) {
	fail := func(err error) (faEvent, bool, error) {
		return faEvent{}, false, fmt.Errorf("failed to parse fungible asset event %s, version %d: %w", ev.Type, version, err)
	}
	switch ev.Type {
	case depositEventV1Type, withdrawEventV1Type:
		var data struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return fail(err)
		}
		return faEvent{
			store:  move.StandardizeAddress(ev.Key.AccountAddress),
			amount: &data.Amount,
			v1:     true,
		}, true, nil
	case frozenEventV1Type:
		var data struct {
			Frozen bool `json:"frozen"`
		}
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return fail(err)
		}
		return faEvent{
			store:  move.StandardizeAddress(ev.Key.AccountAddress),
			frozen: &data.Frozen,
			v1:     true,
		}, true, nil
	case depositEventV2Type, withdrawEventV2Type:
		var data struct {
			Store  string          `json:"store"`
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return fail(err)
		}
		return faEvent{
			store:  move.StandardizeAddress(data.Store),
			amount: &data.Amount,
		}, true, nil
	case frozenEventV2Type:
		var data struct {
			Store  string `json:"store"`
			Frozen bool   `json:"frozen"`
		}
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return fail(err)
		}
		return faEvent{
			store:  move.StandardizeAddress(data.Store),
			frozen: &data.Frozen,
		}, true, nil
	default:
		return faEvent{}, false, nil
	}
}
