package refresh

import (
	"sync"
	"time"

	"github.com/krisalay/imagefeed/types"
)

/*
Interval re-fetches every key that was read at least once, every Every.

This covers the presentation layer's polling: a gallery that stays open
keeps getting new images, and a Failed entry is retried on the next tick.
Keys are forgotten when nobody read them for Forget (default 10 * Every),
so closed galleries stop costing queries.
*/
type Interval struct {
	Every  time.Duration
	Forget time.Duration

	mu   sync.Mutex
	keys map[string]tracked
}

type tracked struct {
	key      types.Key
	lastRead time.Time
}

// NewInterval returns a runner that ticks every d.
func NewInterval(d time.Duration) *Interval {
	return &Interval{Every: d}
}

func (i *Interval) OnRead(key types.Key, _ *types.Entry) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.keys == nil {
		i.keys = make(map[string]tracked)
	}
	i.keys[key.String()] = tracked{key: key, lastRead: time.Now()}
}

// Tracked returns the keys that will be refreshed on the next tick.
func (i *Interval) Tracked() []types.Key {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]types.Key, 0, len(i.keys))
	for _, t := range i.keys {
		out = append(out, t.key)
	}
	return out
}

// Run ticks until stop is closed. Each tick triggers every tracked key.
// trigger must not block for long; the feed runs refreshes in the background.
func (i *Interval) Run(stop <-chan struct{}, trigger func(types.Key)) {
	if i.Every <= 0 {
		return
	}
	ticker := time.NewTicker(i.Every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			for _, key := range i.due(now) {
				trigger(key)
			}
		}
	}
}

func (i *Interval) due(now time.Time) []types.Key {
	forget := i.Forget
	if forget <= 0 {
		forget = 10 * i.Every
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]types.Key, 0, len(i.keys))
	for id, t := range i.keys {
		if now.Sub(t.lastRead) > forget {
			delete(i.keys, id)
			continue
		}
		out = append(out, t.key)
	}
	return out
}
