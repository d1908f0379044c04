package types

import (
	"sync/atomic"
	"time"
)

/*
Entry is the query result set for one Key.

Entries are never mutated after they are stored. Every state transition
builds a new Entry from the previous one and swaps it into the shard, so a
reader holding an *Entry always sees a consistent view.
*/
type Entry struct {
	Key Key

	// Records is the last successful result. It survives a failed refresh.
	Records []ImageRecord

	Status Status

	// Err is the error of the last failed attempt, nil once a load succeeds.
	Err error

	// Attempts is how many query attempts the last load needed.
	Attempts int

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastSuccess time.Time // zero => never loaded

	// accessed is shared by every version of the entry for one key, so a
	// read can record itself without swapping the entry.
	accessed *atomic.Int64
}

// NewEntry returns the Empty entry for key.
func NewEntry(key Key, now time.Time) *Entry {
	e := &Entry{
		Key:       key,
		Status:    StatusEmpty,
		CreatedAt: now,
		UpdatedAt: now,
		accessed:  new(atomic.Int64),
	}
	e.accessed.Store(now.UnixNano())
	return e
}

// Touch records a read at now.
func (e *Entry) Touch(now time.Time) {
	if e.accessed != nil {
		e.accessed.Store(now.UnixNano())
	}
}

// LastAccess is the time of the last read, or UpdatedAt if never read.
func (e *Entry) LastAccess() time.Time {
	if e.accessed == nil {
		return e.UpdatedAt
	}
	return time.Unix(0, e.accessed.Load())
}

// Clone returns a shallow copy that can be changed and stored as the next state.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// Snapshot is what callers and listeners receive for a key.
type Snapshot struct {
	Key         Key
	Records     []ImageRecord
	Status      Status
	Err         error
	Message     string
	Attempts    int
	LastSuccess time.Time
	UpdatedAt   time.Time
}

// Snapshot copies the entry into a value safe to hand out.
func (e *Entry) Snapshot() Snapshot {
	if e == nil {
		return Snapshot{Status: StatusEmpty}
	}
	s := Snapshot{
		Key:         e.Key,
		Records:     append([]ImageRecord(nil), e.Records...),
		Status:      e.Status,
		Err:         e.Err,
		Attempts:    e.Attempts,
		LastSuccess: e.LastSuccess,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Err != nil {
		s.Message = e.Err.Error()
	}
	return s
}
