package expiration

import (
	"time"

	"github.com/krisalay/imagefeed/types"
)

/*
ExpireAfterAccess drops entries nobody asked for in TTL ("sliding TTL").
Every read pushes the deadline forward; an entry with a query in flight
never expires.
*/
type ExpireAfterAccess struct {
	TTL time.Duration
}

func (e *ExpireAfterAccess) IsExpired(ent *types.Entry, now time.Time) bool {
	if e.TTL <= 0 || ent.Status.InFlight() {
		return false
	}
	return now.Sub(ent.LastAccess()) > e.TTL
}

func (e *ExpireAfterAccess) OnAccess(ent *types.Entry, now time.Time) {
	ent.Touch(now)
}

// OnWrite counts a write as an access, so a fresh result is not dropped
// before anyone had a chance to read it.
func (e *ExpireAfterAccess) OnWrite(ent *types.Entry, now time.Time) {
	ent.Touch(now)
}
