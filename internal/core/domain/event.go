package domain

import "encoding/json"

// EventKey identifies the GUID an event was emitted under.
type EventKey struct {
	AccountAddress string `json:"account_address"`
	CreationNumber uint64 `json:"creation_number"`
}

// Event is one emitted on-chain event. Data is the raw JSON payload as
// rendered by the ingestion layer; decoding is type-tag driven downstream.
type Event struct {
	Key            EventKey        `json:"key"`
	SequenceNumber uint64          `json:"sequence_number"`
	Type           string          `json:"type"`
	Data           json.RawMessage `json:"data"`
}
