package identifier_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/imagefeed/identifier"
	"github.com/krisalay/imagefeed/types"
)

func keyFrom(b byte) identifier.PublicKey {
	var k identifier.PublicKey
	copy(k[:], bytes.Repeat([]byte{b}, len(k)))
	return k
}

func encodeWith(t *testing.T, hrp string, payload []byte) string {
	t.Helper()
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	require.NoError(t, err)
	s, err := bech32.Encode(hrp, data)
	require.NoError(t, err)
	return s
}

func TestRoundTrip(t *testing.T) {
	for _, b := range []byte{0x00, 0x01, 0x7f, 0xab, 0xff} {
		k := keyFrom(b)
		s := identifier.Encode(k)
		require.True(t, strings.HasPrefix(s, "npub1"), s)

		got, err := identifier.Decode(s)
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
}

func TestDecodeKnownVector(t *testing.T) {
	// NIP-19 example
	k, err := identifier.Decode("npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg")
	require.NoError(t, err)
	assert.Equal(t, "7e7e9c42a91bfef19fa929e5fda1b72e0ebc1a4c1141673e2794234d86addf4e", k.Hex())
}

func TestDecodeAcceptsURIPrefix(t *testing.T) {
	k := keyFrom(0x42)
	got, err := identifier.Decode("  nostr:" + identifier.Encode(k) + "\n")
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	valid := identifier.Encode(keyFrom(0x11))
	flipped := []byte(valid)
	last := len(flipped) - 1
	if flipped[last] == 'q' {
		flipped[last] = 'p'
	} else {
		flipped[last] = 'q'
	}

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "not-an-identifier"},
		{"bad checksum", string(flipped)},
		{"truncated", valid[:len(valid)-10]},
		{"wrong variant", encodeWith(t, "nsec", bytes.Repeat([]byte{0x11}, 32))},
		{"note variant", encodeWith(t, "note", bytes.Repeat([]byte{0x11}, 32))},
		{"short payload", encodeWith(t, "npub", bytes.Repeat([]byte{0x11}, 31))},
		{"long payload", encodeWith(t, "npub", bytes.Repeat([]byte{0x11}, 33))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identifier.Decode(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, types.ErrInvalidIdentifier), "got %v", err)
			assert.Equal(t, types.KindInvalidIdentifier, types.KindOf(err))
		})
	}
}

func TestParseHex(t *testing.T) {
	k := keyFrom(0xcd)
	got, err := identifier.ParseHex(k.Hex())
	require.NoError(t, err)
	assert.Equal(t, k, got)

	_, err = identifier.ParseHex("abcd")
	assert.True(t, errors.Is(err, types.ErrInvalidIdentifier))

	_, err = identifier.ParseHex(strings.Repeat("z", 64))
	assert.True(t, errors.Is(err, types.ErrInvalidIdentifier))
}
