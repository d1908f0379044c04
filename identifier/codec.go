// Package identifier decodes the user-supplied npub into a raw public key.
//
// Decoding is pure: no I/O, no state. A failure here is terminal for the
// request and must happen before any query is dispatched.
package identifier

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/krisalay/imagefeed/types"
)

const (
	// PublicKeyHRP is the human readable part of an encoded public key.
	PublicKeyHRP = "npub"

	// uriScheme is the optional NIP-21 prefix.
	uriScheme = "nostr:"
)

// PublicKey is a 32 byte x-only public key.
type PublicKey [32]byte

// Hex returns the lowercase hex form used in filters and Blossom paths.
func (k PublicKey) Hex() string {
	return hex.EncodeToString(k[:])
}

func (k PublicKey) String() string {
	return Encode(k)
}

// Decode parses an npub (optionally prefixed with "nostr:") into a key.
// Every failure is a *types.Error of kind KindInvalidIdentifier.
func Decode(s string) (PublicKey, error) {
	var key PublicKey

	s = strings.TrimSpace(s)
	if len(s) >= len(uriScheme) && strings.EqualFold(s[:len(uriScheme)], uriScheme) {
		s = s[len(uriScheme):]
	}
	if s == "" {
		return key, types.InvalidIdentifier("empty identifier")
	}

	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return key, types.InvalidIdentifier("%v", err)
	}
	if hrp != PublicKeyHRP {
		return key, types.InvalidIdentifier("expected %s, got %s", PublicKeyHRP, hrp)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return key, types.InvalidIdentifier("%v", err)
	}
	if len(raw) != len(key) {
		return key, types.InvalidIdentifier("public key is %d bytes, want %d", len(raw), len(key))
	}

	copy(key[:], raw)
	return key, nil
}

// Encode is the inverse of Decode.
func Encode(k PublicKey) string {
	data, err := bech32.ConvertBits(k[:], 8, 5, true)
	if err != nil {
		// 8 to 5 bit conversion with padding cannot fail
		panic(err)
	}
	s, err := bech32.Encode(PublicKeyHRP, data)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseHex parses a 64 character hex public key.
func ParseHex(s string) (PublicKey, error) {
	var key PublicKey
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return key, types.InvalidIdentifier("%v", err)
	}
	if len(raw) != len(key) {
		return key, types.InvalidIdentifier("public key is %d bytes, want %d", len(raw), len(key))
	}
	copy(key[:], raw)
	return key, nil
}
