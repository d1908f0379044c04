// This file implements LRU eviction.

package eviction

import (
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// lru keeps recency order in a simplelru list. The list is sized one above
// the shard capacity so it never evicts on its own: the feed calls Evict
// before storing into a full shard.
type lru struct {
	list *simplelru.LRU[string, struct{}]
}

func newLRU(capacity int) *lru {
	size := capacity + 1
	if capacity <= 0 {
		size = math.MaxInt32
	}
	l, err := simplelru.NewLRU[string, struct{}](size, nil)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &lru{list: l}
}

// OnGet marks k as the most recently used key.
func (l *lru) OnGet(k string) {
	l.list.Get(k)
}

// OnPut adds k, or moves it to the front if it is already tracked.
func (l *lru) OnPut(k string) {
	l.list.Add(k, struct{}{})
}

// Evict removes the least recently used key.
func (l *lru) Evict() string {
	k, _, ok := l.list.RemoveOldest()
	if !ok {
		return ""
	}
	return k
}

func (l *lru) Remove(k string) {
	l.list.Remove(k)
}

func (l *lru) Len() int { return l.list.Len() }
