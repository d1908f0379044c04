package shard

import "hash/fnv"

/*
Selector decides which shard owns a key. The choice must be stable: every
transition for one key has to land on the same shard so it is covered by
the same lock.
*/
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector spreads keys across shards by their FNV-1a hash.
type HashSelector struct{}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func (HashSelector) Select(key string, shards []*Shard) *Shard {
	return shards[hash(key)%uint32(len(shards))]
}
