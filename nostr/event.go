// Package nostr is a minimal client for the read side of the Nostr event
// network: events, filters, one-shot relay queries and a relay pool.
package nostr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// Event kinds used by the image sources.
const (
	KindTextNote     = 1
	KindFileMetadata = 1063
)

// Event is a signed Nostr event as it travels on the wire (NIP-01).
type Event struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      Tags   `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

var (
	errIDMismatch  = errors.New("event id does not match content")
	errBadSig      = errors.New("invalid event signature")
	errMissingSig  = errors.New("event has no signature")
	errShortPubKey = errors.New("event pubkey is not 32 bytes")
)

// Serialize returns the canonical form that the event id is the hash of:
// [0, pubkey, created_at, kind, tags, content].
func (e *Event) Serialize() []byte {
	var b strings.Builder
	b.WriteString(`[0,`)
	writeString(&b, e.PubKey)
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(e.CreatedAt, 10))
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(e.Kind))
	b.WriteString(`,[`)
	for i, tag := range e.Tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		for j, v := range tag {
			if j > 0 {
				b.WriteByte(',')
			}
			writeString(&b, v)
		}
		b.WriteByte(']')
	}
	b.WriteString(`],`)
	writeString(&b, e.Content)
	b.WriteByte(']')
	return []byte(b.String())
}

// ComputeID returns the hex sha256 of the serialized event.
func (e *Event) ComputeID() string {
	sum := sha256.Sum256(e.Serialize())
	return hex.EncodeToString(sum[:])
}

// CheckID reports whether the declared id matches the content.
func (e *Event) CheckID() bool {
	return strings.EqualFold(e.ID, e.ComputeID())
}

// Verify checks the id and the BIP-340 signature against the pubkey.
func (e *Event) Verify() error {
	if !e.CheckID() {
		return errIDMismatch
	}
	if e.Sig == "" {
		return errMissingSig
	}

	pk, err := hex.DecodeString(e.PubKey)
	if err != nil {
		return fmt.Errorf("event pubkey: %w", err)
	}
	if len(pk) != 32 {
		return errShortPubKey
	}
	pub, err := schnorr.ParsePubKey(pk)
	if err != nil {
		return fmt.Errorf("event pubkey: %w", err)
	}

	rawSig, err := hex.DecodeString(e.Sig)
	if err != nil {
		return fmt.Errorf("event sig: %w", err)
	}
	sig, err := schnorr.ParseSignature(rawSig)
	if err != nil {
		return fmt.Errorf("event sig: %w", err)
	}

	id, err := hex.DecodeString(e.ID)
	if err != nil {
		return fmt.Errorf("event id: %w", err)
	}
	if !sig.Verify(id, pub) {
		return errBadSig
	}
	return nil
}

// writeString writes s as a JSON string using the NIP-01 escaping rules:
// only quote, backslash and control characters are escaped, nothing else.
func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				b.WriteString(`�`)
			} else {
				b.WriteString(s[i : i+size])
			}
			i += size
			continue
		}
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			if c < 0x20 {
				fmt.Fprintf(b, `\u%04x`, c)
			} else {
				b.WriteByte(c)
			}
		}
		i++
	}
	b.WriteByte('"')
}
