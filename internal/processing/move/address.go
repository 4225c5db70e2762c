// Package move decodes Move-encoded on-chain values: address and type-string
// normalization, BCS payloads dispatched by a closed set of type tags, and
// JSON payload cleaning for escaped nested arguments.
package move

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode/utf8"
)

// Max length of entry function id string to keep the column bounded.
const MaxEntryFunctionLength = 1000

// 9999-12-31 23:59:59, the ceiling accepted by downstream warehouses.
const MaxTimestampSecs = 253_402_300_799

// StandardizeAddress left-pads a hex address or table handle to the
// canonical 0x-prefixed 64-digit form. Malformed input is padded as-is;
// normalization never fails. Idempotent.
func StandardizeAddress(addr string) string {
	trimmed := strings.TrimPrefix(addr, "0x")
	if len(trimmed) >= 64 {
		return "0x" + trimmed
	}
	return "0x" + strings.Repeat("0", 64-len(trimmed)) + trimmed
}

// StandardizeAddressBytes hex-encodes raw bytes and applies the same padding.
func StandardizeAddressBytes(b []byte) string {
	return StandardizeAddress(hex.EncodeToString(b))
}

// HashStr returns the hex sha256 of a string, used for surrogate ids.
func HashStr(val string) string {
	sum := sha256.Sum256([]byte(val))
	return hex.EncodeToString(sum[:])
}

// TruncateStr bounds a string to maxBytes bytes. The cut backs up to the
// nearest rune boundary so a multi-byte character is never split into
// invalid UTF-8.
func TruncateStr(val string, maxBytes int) string {
	if len(val) <= maxBytes {
		return val
	}
	if maxBytes < 0 {
		maxBytes = 0
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(val[cut]) {
		cut--
	}
	return val[:cut]
}

// ParseTimestampSecs converts unix seconds to UTC time, clamped to the
// maximum representable timestamp.
func ParseTimestampSecs(secs uint64) time.Time {
	if secs > MaxTimestampSecs {
		secs = MaxTimestampSecs
	}
	return time.Unix(int64(secs), 0).UTC()
}
