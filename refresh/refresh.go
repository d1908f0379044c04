// This file defines the idea of a "refresh hook".
// The feed calls the hook every time an entry is served, which lets a hook
// decide what to keep fresh without slowing down reads.

package refresh

import "github.com/krisalay/imagefeed/types"

/*
Hook is told about every served entry.

Stale-entry refreshes are the feed's own job; a hook adds policies on top,
such as re-fetching the keys people look at on a fixed interval.
*/
type Hook interface {

	// OnRead must be fast and must not block: it runs on the read path.
	OnRead(key types.Key, ent *types.Entry)
}

// Runner is a hook that needs a background loop. The feed starts Run with
// a channel it closes on shutdown and a trigger that refreshes one key.
type Runner interface {
	Hook
	Run(stop <-chan struct{}, trigger func(types.Key))
}
