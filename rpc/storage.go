package rpc

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// SystemNumberKey is the storage key of System::Number, the block number
// maintained by the runtime.
var SystemNumberKey = StorageKey("System", "Number")

var ErrUnexpectedStorageWidth = errors.New("unexpected storage value width")

// StorageKey builds the key of a plain storage value:
// twox128(pallet) ++ twox128(item).
func StorageKey(pallet, item string) []byte {
	key := make([]byte, 0, 32)
	key = append(key, twox128([]byte(pallet))...)
	key = append(key, twox128([]byte(item))...)
	return key
}

// twox128 is two xxh64 digests, seeded 0 and 1, each little endian.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	for i := 0; i < 2; i++ {
		h := xxhash.NewWithSeed(uint64(i))
		_, _ = h.Write(data)
		binary.LittleEndian.PutUint64(out[i*8:], h.Sum64())
	}
	return out
}

// DecodeFixedUint decodes a SCALE fixed width unsigned integer.
func DecodeFixedUint(raw []byte) (uint64, error) {
	switch len(raw) {
	case 1:
		return uint64(raw[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(raw)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(raw)), nil
	case 8:
		return binary.LittleEndian.Uint64(raw), nil
	default:
		return 0, errors.Wrapf(ErrUnexpectedStorageWidth, "%d bytes", len(raw))
	}
}

// EncodeFixedUint32 is the SCALE encoding of a u32, the block number type
// of the chain.
func EncodeFixedUint32(v uint32) []byte {
	out := make([]byte, 4)
	binary.LittleEndian.PutUint32(out, v)
	return out
}
