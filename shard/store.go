package shard

import (
	"sync/atomic"

	"github.com/krisalay/imagefeed/types"
)

/*
This file defines how entries are stored inside a shard.

Reads vastly outnumber transitions, so the store is copy-on-write: readers
load an immutable map and never lock, writers build a new map and swap it
in. Entries themselves are immutable too, so a reader can keep the
*types.Entry it got for as long as it likes.
*/

// Store is what a shard keeps its entries in.
type Store interface {
	Get(string) (*types.Entry, bool)

	// Put inserts or replaces an entry. Callers hold the shard lock.
	Put(string, *types.Entry)

	// Delete removes an entry. Callers hold the shard lock.
	Delete(string)

	// Keys lists the stored keys.
	Keys() []string

	Size() int64
}

type cowStore struct {
	data atomic.Pointer[map[string]*types.Entry]
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	m := make(map[string]*types.Entry)
	s.data.Store(&m)
	return s
}

func (s *cowStore) Get(key string) (*types.Entry, bool) {
	ent, ok := (*s.data.Load())[key]
	return ent, ok
}

/*
Put copies the current map, adds the entry and swaps the copy in.
*/
func (s *cowStore) Put(key string, ent *types.Entry) {
	old := *s.data.Load()

	n := make(map[string]*types.Entry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent

	s.data.Store(&n)
}

// Delete removes an entry, copying the map only when key is present.
func (s *cowStore) Delete(key string) {
	old := *s.data.Load()
	if _, ok := old[key]; !ok {
		return
	}

	n := make(map[string]*types.Entry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	s.data.Store(&n)
}

func (s *cowStore) Keys() []string {
	m := *s.data.Load()
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (s *cowStore) Size() int64 {
	return int64(len(*s.data.Load()))
}
