package api

import (
	"context"

	"github.com/krisalay/imagefeed/types"
)

/*
Feed is the public contract of the image feed.

A caller names what it wants with a types.Key (an identifier plus a source
selector) and gets back a Snapshot: the ordered records, a status, and a
human-readable message when the last query failed. Sharding, staleness,
retries, coalescing and cancellation are hidden behind it.
*/
type Feed interface {

	/*
		Get returns the result set for key.

		BEHAVIOR:
		---------
		1. Fresh Ready entry: returned at once.
		2. Stale Ready entry: returned at once with status Refreshing while a
		   background refresh runs.
		3. Refreshing entry: returned at once with the previous records.
		4. Loading entry: the caller waits on the query already in flight.
		5. No entry, or Failed: a query is started and awaited.

		The returned error is the snapshot's error, always a *types.Error.
		If ctx is done first, Get returns whatever is cached and a
		cancellation error; the shared query keeps running for other callers.
	*/
	Get(ctx context.Context, key types.Key) (types.Snapshot, error)

	/*
		Refresh re-queries key even if it is fresh, and waits for the result.
		A Ready entry goes through Refreshing and keeps its records if the
		query fails. Coalesces with a query already in flight.
	*/
	Refresh(ctx context.Context, key types.Key) (types.Snapshot, error)

	// Peek returns the cached snapshot without querying or recording a read.
	Peek(key types.Key) (types.Snapshot, bool)

	// Invalidate drops key. Idempotent. A query in flight still stores its result.
	Invalidate(key types.Key)

	// Keys lists every cached key, in no particular order.
	Keys() []types.Key

	// Close stops background refreshes, waits for them, and flushes the notifier.
	Close()
}
