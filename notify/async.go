package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/krisalay/imagefeed/types"
)

/*
Async hands snapshots to the listener from one background worker.

Publish never blocks: when the queue is full the snapshot is dropped and
counted. A later transition for the same key carries the newer state, so
a listener only ever misses intermediate states.
*/
type Async struct {
	listener Listener
	ch       chan types.Snapshot
	wg       sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsync starts the worker with a queue of buffer snapshots.
func NewAsync(listener Listener, buffer int) *Async {
	if buffer <= 0 {
		buffer = 64
	}
	a := &Async{
		listener: listener,
		ch:       make(chan types.Snapshot, buffer),
	}
	a.wg.Add(1)
	go a.worker()
	return a
}

func (a *Async) Publish(_ context.Context, snap types.Snapshot) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- snap:
	default:
		a.dropped.Add(1)
	}
}

// Dropped is how many snapshots were discarded because the queue was full.
func (a *Async) Dropped() int64 { return a.dropped.Load() }

func (a *Async) worker() {
	defer a.wg.Done()
	for snap := range a.ch {
		a.listener.OnUpdate(snap)
	}
}

// Close stops accepting snapshots, delivers the queued ones and waits for
// the worker. It is safe to call more than once.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.ch)
	a.mu.Unlock()
	a.wg.Wait()
}
