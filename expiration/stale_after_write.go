package expiration

import (
	"time"

	"github.com/krisalay/imagefeed/types"
)

// DefaultStaleWindow is how long a successful result counts as fresh.
const DefaultStaleWindow = 5 * time.Minute

/*
StaleAfterWrite marks a result stale a fixed window after it was last
loaded successfully. Reads do not extend the window. An entry that never
loaded is never stale, it is simply not Ready.
*/
type StaleAfterWrite struct {
	Window time.Duration
}

func (s *StaleAfterWrite) IsExpired(ent *types.Entry, now time.Time) bool {
	if ent.LastSuccess.IsZero() {
		return false
	}
	return now.Sub(ent.LastSuccess) >= s.window()
}

func (s *StaleAfterWrite) OnAccess(*types.Entry, time.Time) {}

func (s *StaleAfterWrite) OnWrite(*types.Entry, time.Time) {}

func (s *StaleAfterWrite) window() time.Duration {
	if s.Window <= 0 {
		return DefaultStaleWindow
	}
	return s.Window
}
