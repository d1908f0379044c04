package eviction

import "fmt"

/*
This file defines how the feed decides which key to drop when a shard is full.

The bound on cached keys is a choice of this package: without one, every
identifier ever looked up would stay in memory for the life of the process.
*/

/*
Policy is the interface every eviction strategy follows.
The feed does not care how a policy orders keys; it only calls these methods,
always while holding the owning shard's lock.
*/
type Policy interface {

	// OnGet is called whenever a key is served.
	// LRU moves it to the front, FIFO ignores it.
	OnGet(string)

	// OnPut is called whenever a new version of a key is stored.
	OnPut(string)

	// Remove is called when a key is dropped for a reason other than eviction
	// (invalidation, idle expiry), so the policy can forget it.
	Remove(string)

	// Evict picks the key to drop and forgets it. It returns "" when empty.
	Evict() string

	// Len is the number of tracked keys.
	Len() int
}

// PolicyType names a supported strategy.
type PolicyType string

const (
	// LRU evicts the key that was not served for the longest time.
	LRU PolicyType = "LRU"

	// FIFO evicts the key that was stored first, regardless of reads.
	FIFO PolicyType = "FIFO"
)

// ParsePolicyType accepts the names used in configuration files.
func ParsePolicyType(s string) (PolicyType, error) {
	switch PolicyType(s) {
	case LRU, "lru", "":
		return LRU, nil
	case FIFO, "fifo":
		return FIFO, nil
	default:
		return "", fmt.Errorf("unknown eviction policy %q", s)
	}
}

// NewEvictionPolicy creates the policy for t. capacity is the most keys it
// will ever hold; <= 0 means unbounded.
func NewEvictionPolicy(t PolicyType, capacity int) Policy {
	switch t {
	case LRU:
		return newLRU(capacity)
	case FIFO:
		return newFIFO()
	default:
		panic("unknown eviction policy")
	}
}
