package notify

import (
	"context"

	"github.com/krisalay/imagefeed/types"
)

/*
This file defines how state changes reach the presentation layer.

Every transition of a cache entry (Loading, Refreshing, Ready, Failed) is
published as a Snapshot. A gallery subscribes once and re-renders from
what it receives instead of polling the feed.
*/

// Notifier is the contract the engine publishes through.
type Notifier interface {

	// Publish is called on every entry transition. It must not block the caller for long.
	Publish(ctx context.Context, snap types.Snapshot)

	// Close flushes pending snapshots and stops background work.
	Close()
}

// Listener receives snapshots.
type Listener interface {
	OnUpdate(snap types.Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(types.Snapshot)

func (f ListenerFunc) OnUpdate(s types.Snapshot) { f(s) }
