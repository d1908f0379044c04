package nostr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned when a relay ends the subscription with CLOSED.
var ErrClosed = errors.New("subscription closed by relay")

// Relay runs one-shot queries against a single relay URL.
// Every Query opens its own connection and closes it when done.
type Relay struct {
	URL string

	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Header is sent with the upgrade request.
	Header http.Header

	Logger *slog.Logger
}

// NewRelay returns a relay client for url.
func NewRelay(url string, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Relay{URL: url, Logger: logger}
}

/*
Query sends filter as a REQ and collects matching events until the relay
signals EOSE, the limit is reached, or ctx is done.

When ctx fires the socket is closed at once, the blocked read returns and
Query reports ctx's error. No events are returned in that case.
*/
func (r *Relay) Query(ctx context.Context, filter Filter) ([]Event, error) {
	dialer := r.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, r.URL, r.Header)
	if err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", r.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", r.URL, err)
	}
	defer conn.Close()

	// Close and WriteControl are the only Conn methods safe to call
	// concurrently with a read.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	subID := uuid.NewString()
	if err := conn.WriteJSON([]any{"REQ", subID, filter}); err != nil {
		return nil, r.readErr(ctx, fmt.Errorf("send REQ: %w", err))
	}

	events, err := r.collect(ctx, conn, subID, filter)
	if err != nil {
		return nil, r.readErr(ctx, err)
	}

	if ctx.Err() == nil {
		_ = conn.WriteJSON([]any{"CLOSE", subID})
	}
	return events, nil
}

func (r *Relay) collect(ctx context.Context, conn *websocket.Conn, subID string, filter Filter) ([]Event, error) {
	var events []Event
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}

		var frame []json.RawMessage
		if err := json.Unmarshal(data, &frame); err != nil || len(frame) == 0 {
			r.Logger.Debug("ignoring malformed relay frame", "relay", r.URL)
			continue
		}

		var label string
		if err := json.Unmarshal(frame[0], &label); err != nil {
			continue
		}

		switch label {
		case "EVENT":
			if len(frame) < 3 || !sameSub(frame[1], subID) {
				continue
			}
			var ev Event
			if err := json.Unmarshal(frame[2], &ev); err != nil {
				r.Logger.Debug("ignoring undecodable event", "relay", r.URL, "error", err)
				continue
			}
			events = append(events, ev)
			if filter.Limit > 0 && len(events) >= filter.Limit {
				return events, nil
			}

		case "EOSE":
			if len(frame) >= 2 && sameSub(frame[1], subID) {
				return events, nil
			}

		case "CLOSED":
			if len(frame) >= 2 && sameSub(frame[1], subID) {
				var reason string
				if len(frame) >= 3 {
					_ = json.Unmarshal(frame[2], &reason)
				}
				return nil, fmt.Errorf("%w: %s", ErrClosed, reason)
			}

		case "NOTICE":
			var msg string
			if len(frame) >= 2 {
				_ = json.Unmarshal(frame[1], &msg)
			}
			r.Logger.Info("relay notice", "relay", r.URL, "notice", msg)
		}

		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
	}
}

// readErr prefers the context's cause over the transport error it produced.
func (r *Relay) readErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return err
}

func sameSub(raw json.RawMessage, subID string) bool {
	var s string
	return json.Unmarshal(raw, &s) == nil && s == subID
}
