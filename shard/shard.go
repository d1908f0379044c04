package shard

import (
	"sync"

	"github.com/krisalay/imagefeed/eviction"
)

/*
A shard is an independent slice of the feed's key space.

Each shard has its own store, eviction policy and lock, so transitions for
unrelated keys never contend. Reads go straight to the store without the
lock; every transition (Loading, Ready, Failed, eviction) holds Mu.
*/
type Shard struct {

	// Store holds the current entry for each key. Lock-free reads.
	Store Store

	// Eviction orders this shard's keys for dropping when it is full.
	Eviction eviction.Policy

	// Mu guards every write to Store and every call into Eviction.
	Mu sync.Mutex
}

func NewShard(ev eviction.Policy) *Shard {
	return &Shard{
		Store:    NewCOWStore(),
		Eviction: ev,
	}
}
