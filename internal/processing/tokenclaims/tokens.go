package tokenclaims

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vietddude/chainsink/internal/processing/move"
)

const (
	tokenOfferIDType = "0x3::token_transfers::TokenOfferId"
	tokenType        = "0x3::token::Token"

	maxTokenNameLength = 128
)

// tokenDataID names one token design: creator, collection and token name.
// Its hash is the surrogate key shared with the v2 token tables.
type tokenDataID struct {
	Creator    string `json:"creator"`
	Collection string `json:"collection"`
	Name       string `json:"name"`
}

func (t tokenDataID) hash() string {
	return move.HashStr(fmt.Sprintf("%s::%s::%s", t.creatorAddress(), t.Collection, t.Name))
}

func (t tokenDataID) id() string { return "0x" + t.hash() }

func (t tokenDataID) collectionDataIDHash() string {
	return move.HashStr(fmt.Sprintf("%s::%s", t.creatorAddress(), t.Collection))
}

func (t tokenDataID) collectionID() string { return "0x" + t.collectionDataIDHash() }

func (t tokenDataID) creatorAddress() string { return move.StandardizeAddress(t.Creator) }

func (t tokenDataID) collectionTrunc() string {
	return move.TruncateStr(t.Collection, maxTokenNameLength)
}

func (t tokenDataID) nameTrunc() string {
	return move.TruncateStr(t.Name, maxTokenNameLength)
}

// tokenID points at one minted instance of a token design.
type tokenID struct {
	TokenDataID     tokenDataID     `json:"token_data_id"`
	PropertyVersion decimal.Decimal `json:"property_version"`
}

// tokenOfferID is the table key of a pending claim: the offered token plus
// the claimant address.
type tokenOfferID struct {
	ToAddr  string  `json:"to_addr"`
	TokenID tokenID `json:"token_id"`
}

func (o tokenOfferID) toAddress() string { return move.StandardizeAddress(o.ToAddr) }

// token is the table value of a pending claim. Properties arrive in the
// legacy property-map encoding; the claim row keeps only the amount, so
// they are flattened solely for the debug trail.
type token struct {
	ID              tokenID         `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	TokenProperties json.RawMessage `json:"token_properties"`
}

// offerFromTableItem decodes a TokenOfferId table key. ok=false when the
// declared key type is anything else.
func offerFromTableItem(keyType, key string, version uint64) (tokenOfferID, bool, error) {
	if keyType != tokenOfferIDType {
		return tokenOfferID{}, false, nil
	}
	var offer tokenOfferID
	if err := json.Unmarshal([]byte(key), &offer); err != nil {
		return tokenOfferID{}, false, fmt.Errorf("failed to parse token offer id, version %d: %w", version, err)
	}
	return offer, true, nil
}

// tokenFromTableItem decodes a Token table value. ok=false when the
// declared value type is anything else.
func tokenFromTableItem(valueType, value string, version uint64) (token, bool, error) {
	if valueType != tokenType {
		return token{}, false, nil
	}
	var tok token
	if err := json.Unmarshal([]byte(value), &tok); err != nil {
		return token{}, false, fmt.Errorf("failed to parse token, version %d: %w", version, err)
	}
	return tok, true, nil
}
