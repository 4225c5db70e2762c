package move

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vietddude/chainsink/internal/core/domain"
)

// CleanPayload re-parses a user transaction payload into structured JSON.
// Arguments come through the wire as escaped JSON strings; each one is
// decoded recursively so the payload round-trips through structured storage
// without a second layer of escaping.
func CleanPayload(payload *domain.TransactionPayload, version uint64) (map[string]any, error) {
	if payload == nil {
		return nil, fmt.Errorf("transaction payload doesn't exist, version %d", version)
	}

	args := make([]any, 0, len(payload.Arguments))
	for _, raw := range payload.Arguments {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("unescape payload argument, version %d: %w", version, err)
		}
		args = append(args, v)
	}

	clean := map[string]any{
		"type":           string(payload.Type),
		"type_arguments": payload.TypeArguments,
		"arguments":      args,
	}
	switch payload.Type {
	case domain.PayloadTypeEntryFunction:
		clean["function"] = TruncateStr(payload.EntryFunctionID, MaxEntryFunctionLength)
	case domain.PayloadTypeMultisig:
		clean["multisig_address"] = payload.MultisigAddress
	}
	return RemoveNullBytes(clean).(map[string]any), nil
}

// EntryFunctionID extracts the declared entry function of a user request,
// bounded to the column limit. Script and writeset payloads have none.
func EntryFunctionID(req *domain.UserRequest) string {
	if req == nil || req.Payload == nil {
		return ""
	}
	switch req.Payload.Type {
	case domain.PayloadTypeEntryFunction, domain.PayloadTypeMultisig:
		return TruncateStr(req.Payload.EntryFunctionID, MaxEntryFunctionLength)
	default:
		return ""
	}
}

// RemoveNullBytes strips embedded null bytes from every string in a decoded
// JSON tree. Postgres jsonb rejects U+0000, so this runs before any
// structured column is populated.
func RemoveNullBytes(v any) any {
	switch val := v.(type) {
	case string:
		return stripNull(val)
	case []any:
		for i, item := range val {
			val[i] = RemoveNullBytes(item)
		}
		return val
	case []string:
		for i, item := range val {
			val[i] = stripNull(item)
		}
		return val
	case map[string]any:
		for k, item := range val {
			val[k] = RemoveNullBytes(item)
		}
		return val
	default:
		return v
	}
}

func stripNull(s string) string {
	s = strings.ReplaceAll(s, "\u0000", "")
	return strings.ReplaceAll(s, `\u0000`, "")
}
