// This file defines how cache entries age.

package expiration

import (
	"time"

	"github.com/krisalay/imagefeed/types"
)

/*
Strategy is the interface every aging rule follows. The engine holds two:
one decides when a Ready entry is stale and needs a refresh, the other
when an idle entry should be dropped altogether.
*/
type Strategy interface {

	// IsExpired reports whether the rule considers ent past its window at now.
	IsExpired(*types.Entry, time.Time) bool

	// OnAccess is called whenever ent is served to a caller.
	OnAccess(*types.Entry, time.Time)

	// OnWrite is called whenever a new version of an entry is stored.
	OnWrite(*types.Entry, time.Time)
}
