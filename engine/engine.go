package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/krisalay/imagefeed/abort"
	"github.com/krisalay/imagefeed/expiration"
	"github.com/krisalay/imagefeed/notify"
	"github.com/krisalay/imagefeed/refresh"
	"github.com/krisalay/imagefeed/types"
)

// DefaultTimeout bounds a single query attempt.
const DefaultTimeout = 10 * time.Second

/*
CacheEngine is the policy layer of the feed.

It decides:
- When a Ready entry is stale and when an idle entry is dropped
- How long one attempt may take and how failed attempts are retried
- Which hooks run on reads
- Where state transitions are published
- How metrics are recorded

It does NOT:
- Store entries
- Handle sharding or locking
- Coalesce concurrent callers
- Decide eviction order
*/
type CacheEngine struct {

	// Staleness decides when a Ready result should be refreshed.
	// Defaults to StaleAfterWrite with the 5 minute window.
	Staleness expiration.Strategy

	// Expiration drops entries nobody reads any more. Nil keeps them for
	// the life of the process, bounded only by the feed capacity.
	Expiration expiration.Strategy

	// Refresh is told about every served entry. Optional.
	Refresh refresh.Hook

	// Loader runs one query attempt.
	Loader types.Loader

	// Notifier receives a snapshot on every transition. Optional.
	Notifier notify.Notifier

	Metrics types.Metrics
	Logger  *slog.Logger

	Retry RetryConfig

	// Timeout bounds every attempt, composed with the caller's context.
	Timeout time.Duration
}

// Options configures NewCacheEngine. Zero values fall back to defaults.
type Options struct {
	Staleness  expiration.Strategy
	Expiration expiration.Strategy
	Refresh    refresh.Hook
	Notifier   notify.Notifier
	Metrics    types.Metrics
	Logger     *slog.Logger
	Retry      RetryConfig
	Timeout    time.Duration
}

/*
NewCacheEngine creates a CacheEngine around loader.
*/
func NewCacheEngine(loader types.Loader, opts Options) *CacheEngine {
	if opts.Staleness == nil {
		opts.Staleness = &expiration.StaleAfterWrite{Window: expiration.DefaultStaleWindow}
	}

	// Metrics and Logger are never nil past this point.
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &CacheEngine{
		Staleness:  opts.Staleness,
		Expiration: opts.Expiration,
		Refresh:    opts.Refresh,
		Loader:     loader,
		Notifier:   opts.Notifier,
		Metrics:    opts.Metrics,
		Logger:     opts.Logger,
		Retry:      opts.Retry.withDefaults(),
		Timeout:    opts.Timeout,
	}
}

// IsStale reports whether a loaded entry is past its freshness window.
func (e *CacheEngine) IsStale(ent *types.Entry, now time.Time) bool {
	return e.Staleness.IsExpired(ent, now)
}

// IsExpired reports whether an idle entry should be dropped. Entries with a
// query in flight never are.
func (e *CacheEngine) IsExpired(ent *types.Entry, now time.Time) bool {
	return e.Expiration != nil &&
		!ent.Status.InFlight() &&
		e.Expiration.IsExpired(ent, now)
}

/*
OnRead is called every time an entry is served, whatever its status.
*/
func (e *CacheEngine) OnRead(key types.Key, ent *types.Entry) {
	now := time.Now()

	e.Staleness.OnAccess(ent, now)
	if e.Expiration != nil {
		e.Expiration.OnAccess(ent, now)
	}

	// Must never slow down the read path.
	if e.Refresh != nil {
		e.Refresh.OnRead(key, ent)
	}
}

/*
OnWrite is called after a new version of an entry has been stored.
It applies write-side aging rules and publishes the transition.
*/
func (e *CacheEngine) OnWrite(ctx context.Context, ent *types.Entry) {
	now := time.Now()

	e.Staleness.OnWrite(ent, now)
	if e.Expiration != nil {
		e.Expiration.OnWrite(ent, now)
	}

	if e.Notifier != nil {
		e.Notifier.Publish(ctx, ent.Snapshot())
	}
}

/*
Load runs the loader for key until it succeeds or the retry bound is hit.

Every attempt gets its own signal: the first of the attempt timeout and
ctx. If the timeout fires first the attempt fails with a Timeout error
and no records, even if the transport would have answered later. Timeout
and Fetch errors are retried with exponential backoff; anything else,
including a cancelled ctx, ends the load at once.

The returned count is how many attempts ran. Every error is a *types.Error.
*/
func (e *CacheEngine) Load(ctx context.Context, key types.Key) ([]types.ImageRecord, int, error) {
	log := e.Logger.With("key", key.String())

	var lastErr error
	for attempt := 0; attempt <= e.Retry.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, attempt, cancelled(ctx, key)
		}

		recs, err := e.attempt(ctx, key)
		if err == nil {
			if attempt > 0 {
				log.Info("query succeeded after retry", "attempts", attempt+1)
			}
			return recs, attempt + 1, nil
		}
		lastErr = err

		if !types.IsRetryable(err) {
			log.Debug("query failed, not retrying", "attempt", attempt+1, "error", err)
			return nil, attempt + 1, err
		}
		if attempt == e.Retry.MaxRetries {
			log.Warn("query retries exhausted", "attempts", attempt+1, "error", err)
			break
		}

		delay := e.Retry.Backoff(attempt)
		log.Debug("query failed, retrying", "attempt", attempt+1, "delay", delay, "error", err)
		if sleep(ctx, delay) != nil {
			return nil, attempt + 1, cancelled(ctx, key)
		}
	}
	return nil, e.Retry.MaxRetries + 1, lastErr
}

func (e *CacheEngine) attempt(ctx context.Context, key types.Key) ([]types.ImageRecord, error) {
	sig := abort.FirstOf(ctx, e.Timeout)
	defer sig.Stop()

	recs, err := e.Loader.Load(sig.Context(), key)
	if err == nil && sig.Cause() == nil {
		return recs, nil
	}

	switch {
	case ctx.Err() != nil:
		return nil, cancelled(ctx, key)
	case sig.TimedOut():
		return nil, &types.Error{
			Kind:   types.KindTimeout,
			Op:     "query",
			Source: sourceName(key),
			Err:    abort.ErrTimeout,
		}
	}

	var te *types.Error
	if errors.As(err, &te) {
		return nil, err
	}
	return nil, types.FetchError("query", sourceName(key), err)
}

// Close stops the notifier, delivering what it still holds.
func (e *CacheEngine) Close() {
	if e.Notifier != nil {
		e.Notifier.Close()
	}
}

// cancelled reports a caller that gave up. It is never retried.
func cancelled(ctx context.Context, key types.Key) error {
	return &types.Error{
		Kind:     types.KindFetch,
		Op:       "query",
		Source:   sourceName(key),
		Terminal: true,
		Err:      context.Cause(ctx),
	}
}

func sourceName(key types.Key) string {
	if key.Source.Endpoint == "" {
		return string(key.Source.Kind)
	}
	return string(key.Source.Kind) + " " + key.Source.Endpoint
}
