package move

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var errShortPayload = errors.New("bcs payload too short")

// bcsReader walks a BCS-serialized byte string.
type bcsReader struct {
	buf []byte
}

func (r *bcsReader) take(n int) ([]byte, error) {
	if len(r.buf) < n {
		return nil, errShortPayload
	}
	out := r.buf[:n]
	r.buf = r.buf[n:]
	return out, nil
}

// uleb128 reads the variable-length prefix used for sequence lengths.
func (r *bcsReader) uleb128() (uint64, error) {
	var out uint64
	var shift uint
	for {
		b, err := r.take(1)
		if err != nil {
			return 0, err
		}
		out |= uint64(b[0]&0x7f) << shift
		if b[0]&0x80 == 0 {
			return out, nil
		}
		shift += 7
		if shift > 63 {
			return 0, errors.New("bcs uleb128 overflow")
		}
	}
}

func (r *bcsReader) bytes() ([]byte, error) {
	n, err := r.uleb128()
	if err != nil {
		return nil, err
	}
	return r.take(int(n))
}

func (r *bcsReader) uintLE(width int) (uint64, error) {
	b, err := r.take(width)
	if err != nil {
		return 0, err
	}
	padded := make([]byte, 8)
	copy(padded, b)
	return binary.LittleEndian.Uint64(padded), nil
}

// bigUintLE reads a little-endian unsigned integer of the given byte width
// (16 for u128, 32 for u256).
func (r *bcsReader) bigUintLE(width int) (*big.Int, error) {
	b, err := r.take(width)
	if err != nil {
		return nil, err
	}
	be := make([]byte, width)
	for i, v := range b {
		be[width-1-i] = v
	}
	return new(big.Int).SetBytes(be), nil
}

func decodeHexPayload(val string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(val, "0x"))
}

// ConvertBCSHex decodes a hex-encoded BCS value declared by a legacy string
// type tag. Unknown tags return the input unchanged with ok=false; a
// malformed payload for a supported tag returns an error.
func ConvertBCSHex(typ, val string) (string, bool, error) {
	raw, err := decodeHexPayload(val)
	if err != nil {
		return "", false, fmt.Errorf("decode hex payload: %w", err)
	}
	r := &bcsReader{buf: raw}

	switch typ {
	case "0x1::string::String":
		b, err := r.bytes()
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	case "u8":
		v, err := r.uintLE(1)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%d", v), true, nil
	case "u64":
		v, err := r.uintLE(8)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%d", v), true, nil
	case "u128":
		v, err := r.bigUintLE(16)
		if err != nil {
			return "", false, err
		}
		return v.String(), true, nil
	case "bool":
		v, err := r.uintLE(1)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%t", v != 0), true, nil
	case "address":
		b, err := r.take(32)
		if err != nil {
			return "", false, err
		}
		return StandardizeAddressBytes(b), true, nil
	default:
		return val, false, nil
	}
}

// Numeric type codes carried by the object property-map encoding.
const (
	bcsTypeBool = iota
	bcsTypeU8
	bcsTypeU16
	bcsTypeU32
	bcsTypeU64
	bcsTypeU128
	bcsTypeU256
	bcsTypeAddress
	bcsTypeBytes
	bcsTypeString
)

// ConvertBCSHexNew decodes a hex-encoded BCS value declared by a numeric
// type code, the dispatch object property maps use instead of string tags.
// Unknown codes return the input unchanged with ok=false; a malformed
// payload for a supported code returns an error.
func ConvertBCSHexNew(code uint8, val string) (string, bool, error) {
	raw, err := decodeHexPayload(val)
	if err != nil {
		return "", false, fmt.Errorf("decode hex payload: %w", err)
	}
	r := &bcsReader{buf: raw}

	switch code {
	case bcsTypeBool:
		v, err := r.uintLE(1)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%t", v != 0), true, nil
	case bcsTypeU8:
		v, err := r.uintLE(1)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%d", v), true, nil
	case bcsTypeU16:
		v, err := r.uintLE(2)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%d", v), true, nil
	case bcsTypeU32:
		v, err := r.uintLE(4)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%d", v), true, nil
	case bcsTypeU64:
		v, err := r.uintLE(8)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("%d", v), true, nil
	case bcsTypeU128:
		v, err := r.bigUintLE(16)
		if err != nil {
			return "", false, err
		}
		return v.String(), true, nil
	case bcsTypeU256:
		v, err := r.bigUintLE(32)
		if err != nil {
			return "", false, err
		}
		return v.String(), true, nil
	case bcsTypeAddress:
		b, err := r.take(32)
		if err != nil {
			return "", false, err
		}
		return StandardizeAddressBytes(b), true, nil
	case bcsTypeBytes:
		b, err := r.bytes()
		if err != nil {
			return "", false, err
		}
		return "0x" + hex.EncodeToString(b), true, nil
	case bcsTypeString:
		b, err := r.bytes()
		if err != nil {
			return "", false, err
		}
		return string(b), true, nil
	default:
		return val, false, nil
	}
}
