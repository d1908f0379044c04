// Package nostrtest provides a signing key and an in-process relay for tests.
package nostrtest

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/gorilla/websocket"

	"github.com/krisalay/imagefeed/nostr"
)

// Signer signs events with a deterministic key.
type Signer struct {
	priv *btcec.PrivateKey
}

// NewSigner derives a key from seed, which must not be zero.
func NewSigner(seed byte) *Signer {
	priv, _ := btcec.PrivKeyFromBytes(bytes.Repeat([]byte{seed}, 32))
	return &Signer{priv: priv}
}

// PubKey returns the x-only hex public key.
func (s *Signer) PubKey() string {
	return hex.EncodeToString(schnorr.SerializePubKey(s.priv.PubKey()))
}

// Sign fills PubKey, ID and Sig of ev and returns it.
func (s *Signer) Sign(t testing.TB, ev nostr.Event) nostr.Event {
	t.Helper()
	ev.PubKey = s.PubKey()
	ev.ID = ev.ComputeID()
	id, err := hex.DecodeString(ev.ID)
	if err != nil {
		t.Fatalf("decode id: %v", err)
	}
	sig, err := schnorr.Sign(s.priv, id)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ev.Sig = hex.EncodeToString(sig.Serialize())
	return ev
}

/*
Relay is an in-process websocket relay.

It answers every REQ with the stored events that match the filter,
followed by EOSE. Setting Hold makes it accept REQs and never answer,
which is what timeout and cancellation tests need.
*/
type Relay struct {
	srv *httptest.Server

	mu     sync.Mutex
	events []nostr.Event

	// Hold, when true, makes the relay swallow REQs.
	Hold atomic.Bool

	// Closed, when non-empty, answers every REQ with CLOSED and this reason.
	Closed string

	// Notice is sent before the events when non-empty.
	Notice string

	reqs   atomic.Int64
	closes atomic.Int64
}

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// NewRelay starts a relay serving events. It is closed with t.Cleanup.
func NewRelay(t testing.TB, events ...nostr.Event) *Relay {
	t.Helper()
	r := &Relay{events: events}
	r.srv = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.srv.Close)
	return r
}

// URL is the ws:// address of the relay.
func (r *Relay) URL() string {
	return "ws" + strings.TrimPrefix(r.srv.URL, "http")
}

// Add stores more events.
func (r *Relay) Add(events ...nostr.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// Requests is the number of REQ frames received.
func (r *Relay) Requests() int { return int(r.reqs.Load()) }

// Closes is the number of CLOSE frames received.
func (r *Relay) Closes() int { return int(r.closes.Load()) }

func (r *Relay) serve(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame []json.RawMessage
		if json.Unmarshal(data, &frame) != nil || len(frame) < 2 {
			continue
		}
		var label, subID string
		_ = json.Unmarshal(frame[0], &label)
		_ = json.Unmarshal(frame[1], &subID)

		switch label {
		case "CLOSE":
			r.closes.Add(1)
		case "REQ":
			r.reqs.Add(1)
			if r.Hold.Load() {
				continue
			}
			if r.Notice != "" {
				_ = conn.WriteJSON([]any{"NOTICE", r.Notice})
			}
			if r.Closed != "" {
				_ = conn.WriteJSON([]any{"CLOSED", subID, r.Closed})
				continue
			}
			var filter nostr.Filter
			if len(frame) >= 3 {
				_ = json.Unmarshal(frame[2], &filter)
			}
			for _, ev := range r.matching(filter) {
				if err := conn.WriteJSON([]any{"EVENT", subID, ev}); err != nil {
					return
				}
			}
			_ = conn.WriteJSON([]any{"EOSE", subID})
		}
	}
}

func (r *Relay) matching(filter nostr.Filter) []nostr.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []nostr.Event
	for i := range r.events {
		if filter.Matches(&r.events[i]) {
			out = append(out, r.events[i])
		}
	}
	return out
}
