package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/imagefeed/api"
	"github.com/krisalay/imagefeed/engine"
	evict "github.com/krisalay/imagefeed/eviction"
	"github.com/krisalay/imagefeed/refresh"
	"github.com/krisalay/imagefeed/shard"
	"github.com/krisalay/imagefeed/types"
)

var _ api.Feed = (*Feed)(nil)

// errAbandoned is the cause a query is cancelled with once no caller waits
// for it.
var errAbandoned = errors.New("feed: query abandoned by every caller")

// flight is the context a coalesced query runs under and how many callers
// are waiting on it.
type flight struct {
	ctx     context.Context
	cancel  context.CancelCauseFunc
	waiters int
}

/*
Feed is the cache and refresh controller.
It connects:
- shards, which hold one immutable entry per key
- eviction, which bounds how many keys are held
- the engine, which ages entries, loads them and publishes transitions
- singleflight, which keeps at most one query in flight per key

Every state transition of a key happens under its shard's lock and stores
a new entry. Reads never lock the store.
*/
type Feed struct {
	shards []*shard.Shard

	// engine holds the rules: staleness, retries, loader, notifier, metrics.
	engine *engine.CacheEngine

	// selector decides which shard owns a key.
	selector shard.Selector

	// capacity is the per-shard bound, 0 for unbounded.
	capacity int

	// sf coalesces concurrent queries for one key.
	sf singleflight.Group

	// flights counts the callers waiting on each key's query.
	flightMu sync.Mutex
	flights  map[string]*flight

	// lifetime bounds background refreshes. Cancelled by Close.
	lifetime context.Context
	cancel   context.CancelFunc
	stop     chan struct{}

	// mu orders wg.Add against Close.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	once   sync.Once
}

/*
New builds a feed with shards independent shards holding at most capacity
keys in total (<= 0 for no bound). If the engine's refresh hook is a
refresh.Runner its loop is started and stopped by Close.
*/
func New(
	shards int,
	capacity int,
	eviction evict.PolicyType,
	engine *engine.CacheEngine,
) *Feed {
	if shards <= 0 {
		shards = 1
	}

	perShard := 0
	if capacity > 0 {
		perShard = (capacity + shards - 1) / shards
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		s[i] = shard.NewShard(evict.NewEvictionPolicy(eviction, perShard))
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Feed{
		shards:   s,
		engine:   engine,
		selector: shard.HashSelector{},
		capacity: perShard,
		flights:  make(map[string]*flight),
		lifetime: ctx,
		cancel:   cancel,
		stop:     make(chan struct{}),
	}

	if r, ok := engine.Refresh.(refresh.Runner); ok {
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			r.Run(f.stop, f.refreshInBackground)
		}()
	}
	return f
}

// Get implements api.Feed.
func (f *Feed) Get(ctx context.Context, key types.Key) (types.Snapshot, error) {
	id := key.String()
	sh := f.selector.Select(id, f.shards)
	now := time.Now()

	if ent, ok := sh.Store.Get(id); ok {
		if f.engine.IsExpired(ent, now) {
			f.engine.Metrics.Expire()
			f.drop(sh, id, ent)
		} else {
			switch ent.Status {
			case types.StatusReady:
				f.served(sh, key, ent)
				if f.engine.IsStale(ent, now) {
					f.engine.Metrics.Stale()
					f.refreshInBackground(key)
					snap := ent.Snapshot()
					snap.Status = types.StatusRefreshing
					return snap, nil
				}
				f.engine.Metrics.Hit()
				return ent.Snapshot(), nil

			case types.StatusRefreshing:
				f.served(sh, key, ent)
				f.engine.Metrics.Stale()
				return ent.Snapshot(), nil

			case types.StatusLoading:
				// joins the query in flight
				return f.await(ctx, sh, key)
			}
		}
	}

	f.engine.Metrics.Miss()
	return f.await(ctx, sh, key)
}

// Refresh implements api.Feed.
func (f *Feed) Refresh(ctx context.Context, key types.Key) (types.Snapshot, error) {
	id := key.String()
	f.engine.Metrics.Refresh()
	return f.await(ctx, f.selector.Select(id, f.shards), key)
}

// Peek implements api.Feed.
func (f *Feed) Peek(key types.Key) (types.Snapshot, bool) {
	id := key.String()
	ent, ok := f.selector.Select(id, f.shards).Store.Get(id)
	if !ok {
		return types.Snapshot{Key: key, Status: types.StatusEmpty}, false
	}
	return ent.Snapshot(), true
}

// Invalidate implements api.Feed.
func (f *Feed) Invalidate(key types.Key) {
	id := key.String()
	sh := f.selector.Select(id, f.shards)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()
	sh.Store.Delete(id)
	sh.Eviction.Remove(id)
}

// Keys implements api.Feed.
func (f *Feed) Keys() []types.Key {
	var out []types.Key
	for _, sh := range f.shards {
		for _, id := range sh.Store.Keys() {
			if ent, ok := sh.Store.Get(id); ok {
				out = append(out, ent.Key)
			}
		}
	}
	return out
}

/*
Close stops the refresh loop, cancels background refreshes and waits for
them, then flushes the notifier. Safe to call more than once.
*/
func (f *Feed) Close() {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()

		close(f.stop)
		f.cancel()
		f.wg.Wait()
		f.engine.Close()
	})
}

/*
await joins or starts the query for key and waits for it, or for ctx.

The query runs under a context of its own, derived from the feed lifetime.
A caller whose ctx is done stops waiting at once; the query itself is
cancelled only when the last waiting caller has left, or by Close.
*/
func (f *Feed) await(ctx context.Context, sh *shard.Shard, key types.Key) (types.Snapshot, error) {
	id := key.String()
	for {
		fl := f.join(id)
		ch := f.sf.DoChan(id, func() (any, error) {
			return f.query(fl.ctx, sh, key)
		})

		select {
		case res := <-ch:
			f.leave(id, fl, false)
			if errors.Is(res.Err, errAbandoned) {
				// joined a query that was already being abandoned
				if ctx.Err() != nil {
					return f.gaveUp(ctx, key)
				}
				continue
			}
			snap := res.Val.(types.Snapshot)
			if ent, ok := sh.Store.Get(id); ok {
				f.served(sh, key, ent)
			}
			return snap, snap.Err

		case <-ctx.Done():
			f.leave(id, fl, true)
			return f.gaveUp(ctx, key)
		}
	}
}

// gaveUp reports a caller whose ctx ended before its query did.
func (f *Feed) gaveUp(ctx context.Context, key types.Key) (types.Snapshot, error) {
	snap, _ := f.Peek(key)
	return snap, &types.Error{
		Kind:     types.KindFetch,
		Op:       "get",
		Source:   key.String(),
		Terminal: true,
		Err:      context.Cause(ctx),
	}
}

// join registers a caller waiting on id's query.
func (f *Feed) join(id string) *flight {
	f.flightMu.Lock()
	defer f.flightMu.Unlock()

	fl, ok := f.flights[id]
	if !ok {
		ctx, cancel := context.WithCancelCause(f.lifetime)
		fl = &flight{ctx: ctx, cancel: cancel}
		f.flights[id] = fl
	}
	fl.waiters++
	return fl
}

// leave unregisters a caller. The last one out releases the flight and,
// if it gave up rather than got a result, cancels the query.
func (f *Feed) leave(id string, fl *flight, abandoned bool) {
	f.flightMu.Lock()
	defer f.flightMu.Unlock()

	fl.waiters--
	if fl.waiters > 0 {
		return
	}
	if f.flights[id] == fl {
		delete(f.flights, id)
	}
	if abandoned {
		fl.cancel(errAbandoned)
	} else {
		fl.cancel(nil)
	}
}

// refreshInBackground starts a query for key unless one is in flight and
// returns without waiting for it.
func (f *Feed) refreshInBackground(key types.Key) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.engine.Metrics.Refresh()

	id := key.String()
	sh := f.selector.Select(id, f.shards)
	ch := f.sf.DoChan(id, func() (any, error) {
		return f.query(f.lifetime, sh, key)
	})

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		<-ch
	}()
}

/*
query moves key to Loading (or Refreshing when it holds records), runs the
engine's load, and stores Ready or Failed. A failed query keeps the last
good records. A query abandoned by every caller puts the entry back the
way it found it and returns errAbandoned. Only ever called from inside
the singleflight group.
*/
func (f *Feed) query(ctx context.Context, sh *shard.Shard, key types.Key) (types.Snapshot, error) {
	var (
		prevStatus types.Status
		prevErr    error
	)
	pending := f.transition(ctx, sh, key, func(next *types.Entry, now time.Time) {
		prevStatus, prevErr = next.Status, next.Err
		next.Err = nil
		if next.LastSuccess.IsZero() {
			next.Status = types.StatusLoading
		} else {
			next.Status = types.StatusRefreshing
		}
	})

	recs, attempts, err := f.engine.Load(ctx, key)

	if err != nil && errors.Is(context.Cause(ctx), errAbandoned) {
		f.engine.Logger.Debug("query abandoned", "key", key.String(), "attempts", attempts)
		if prevStatus == types.StatusEmpty {
			f.drop(sh, key.String(), pending)
			return types.Snapshot{Key: key, Status: types.StatusEmpty}, errAbandoned
		}
		ent := f.transition(ctx, sh, key, func(next *types.Entry, now time.Time) {
			next.Status = prevStatus
			next.Err = prevErr
		})
		return ent.Snapshot(), errAbandoned
	}

	ent := f.transition(ctx, sh, key, func(next *types.Entry, now time.Time) {
		next.Attempts = attempts
		if err != nil {
			next.Status = types.StatusFailed
			next.Err = err
			return
		}
		next.Status = types.StatusReady
		next.Records = recs
		next.Err = nil
		next.LastSuccess = now
	})

	if err != nil {
		f.engine.Metrics.Failure(types.KindOf(err))
		f.engine.Logger.Warn("query failed",
			"key", key.String(), "attempts", attempts, "kept_records", len(ent.Records), "error", err)
	} else {
		f.engine.Logger.Debug("query succeeded",
			"key", key.String(), "attempts", attempts, "records", len(recs))
	}
	return ent.Snapshot(), nil
}

/*
transition stores the next version of key's entry, built by mutate from a
copy of the current one. A new key makes room first if the shard is full.
The transition is published after the lock is released.
*/
func (f *Feed) transition(
	ctx context.Context,
	sh *shard.Shard,
	key types.Key,
	mutate func(next *types.Entry, now time.Time),
) *types.Entry {
	id := key.String()
	now := time.Now()

	sh.Mu.Lock()
	prev, ok := sh.Store.Get(id)
	next := prev.Clone()
	if !ok {
		if f.capacity > 0 && sh.Store.Size() >= int64(f.capacity) {
			if evicted := sh.Eviction.Evict(); evicted != "" {
				f.engine.Metrics.Eviction()
				sh.Store.Delete(evicted)
			}
		}
		next = types.NewEntry(key, now)
	}
	next.UpdatedAt = now
	mutate(next, now)
	sh.Store.Put(id, next)
	sh.Eviction.OnPut(id)
	sh.Mu.Unlock()

	f.engine.OnWrite(ctx, next)
	return next
}

// served records a read of ent for the engine and the eviction order.
func (f *Feed) served(sh *shard.Shard, key types.Key, ent *types.Entry) {
	f.engine.OnRead(key, ent)

	sh.Mu.Lock()
	sh.Eviction.OnGet(key.String())
	sh.Mu.Unlock()
}

// drop removes ent if it is still the current entry for id.
func (f *Feed) drop(sh *shard.Shard, id string, ent *types.Entry) {
	sh.Mu.Lock()
	defer sh.Mu.Unlock()
	if cur, ok := sh.Store.Get(id); ok && cur == ent {
		sh.Store.Delete(id)
		sh.Eviction.Remove(id)
	}
}
