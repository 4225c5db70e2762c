package move

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// OptionalDecimal is the wrapped-optional encoding of a big-decimal field:
// an empty or single-element "vec" container.
type OptionalDecimal struct {
	Vec []decimal.Decimal `json:"vec"`
}

// Value returns the wrapped decimal and whether it was present.
func (o OptionalDecimal) Value() (decimal.Decimal, bool) {
	if len(o.Vec) == 0 {
		return decimal.Zero, false
	}
	return o.Vec[0], true
}

// Aggregator is the parallel counter resource shape holding a value and
// its configured maximum.
type Aggregator struct {
	Value    decimal.Decimal `json:"value"`
	MaxValue decimal.Decimal `json:"max_value"`
}

type propertyMapEntry struct {
	Key   string `json:"key"`
	Value struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"value"`
}

// ConvertPropertyMap flattens the legacy property-map encoding
// {"map":{"data":[{"key":K,"value":{"type":T,"value":hexBCS}}]}} into a
// plain object of decoded values. The original JSON is returned unchanged
// when the shape does not match.
func ConvertPropertyMap(raw json.RawMessage) json.RawMessage {
	var wrapper struct {
		Map *struct {
			Data []propertyMapEntry `json:"data"`
		} `json:"map"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Map == nil {
		return raw
	}
	out := make(map[string]string, len(wrapper.Map.Data))
	for _, entry := range wrapper.Map.Data {
		decoded, ok, err := ConvertBCSHex(entry.Value.Type, entry.Value.Value)
		if err != nil || !ok {
			decoded = entry.Value.Value
		}
		out[entry.Key] = decoded
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return raw
	}
	return encoded
}

type objectPropertyEntry struct {
	Key   string `json:"key"`
	Value struct {
		Type  uint8  `json:"type"`
		Value string `json:"value"`
	} `json:"value"`
}

// ConvertTokenObjectPropertyMap flattens the object property-map encoding
// {"data":[{"key":K,"value":{"type":code,"value":hexBCS}}]} into a plain
// object of decoded values. The original JSON is returned unchanged when
// the shape does not match.
func ConvertTokenObjectPropertyMap(raw json.RawMessage) json.RawMessage {
	var wrapper struct {
		Data []objectPropertyEntry `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil || wrapper.Data == nil {
		return raw
	}
	out := make(map[string]string, len(wrapper.Data))
	for _, entry := range wrapper.Data {
		decoded, ok, err := ConvertBCSHexNew(entry.Value.Type, entry.Value.Value)
		if err != nil || !ok {
			decoded = entry.Value.Value
		}
		out[entry.Key] = decoded
	}
	encoded, err := json.Marshal(out)
	if err != nil {
		return raw
	}
	return encoded
}
