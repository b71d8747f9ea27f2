package rpc

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemNumberKey(t *testing.T) {
	assert.Equal(t,
		"0x26aa394eea5630e07c48ae0c9558cef702a5c1b19ab7a04f536c519aca4983ac",
		hexutil.Encode(SystemNumberKey),
	)
}

func TestTwox128(t *testing.T) {
	assert.Equal(t, "0x26aa394eea5630e07c48ae0c9558cef7", hexutil.Encode(twox128([]byte("System"))))
	assert.Equal(t, "0x02a5c1b19ab7a04f536c519aca4983ac", hexutil.Encode(twox128([]byte("Number"))))
}

func TestDecodeFixedUint(t *testing.T) {
	cases := []struct {
		name    string
		raw     []byte
		want    uint64
		wantErr bool
	}{
		{name: "u8", raw: []byte{0x2a}, want: 42},
		{name: "u16", raw: []byte{0xe9, 0x03}, want: 1001},
		{name: "u32", raw: []byte{0xe9, 0x03, 0x00, 0x00}, want: 1001},
		{name: "u64", raw: []byte{0x01, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}, want: 1<<32 + 1},
		{name: "empty", raw: nil, wantErr: true},
		{name: "three bytes", raw: []byte{0x01, 0x02, 0x03}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeFixedUint(tc.raw)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnexpectedStorageWidth))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEncodeFixedUint32RoundTrip(t *testing.T) {
	got, err := DecodeFixedUint(EncodeFixedUint32(1001))
	require.NoError(t, err)
	assert.Equal(t, uint64(1001), got)
}
