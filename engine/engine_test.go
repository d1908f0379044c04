package engine_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/imagefeed/engine"
	"github.com/krisalay/imagefeed/expiration"
	"github.com/krisalay/imagefeed/notify"
	"github.com/krisalay/imagefeed/types"
)

var key = types.NewKey("npub1test", types.SourceMetadata, "")

func fastRetry() engine.RetryConfig {
	return engine.RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestLoadSucceedsFirstAttempt(t *testing.T) {
	want := []types.ImageRecord{{URL: "https://a/1.png", SourceID: "x", CreatedAt: 1}}
	e := engine.NewCacheEngine(types.LoaderFunc(func(context.Context, types.Key) ([]types.ImageRecord, error) {
		return want, nil
	}), engine.Options{Retry: fastRetry()})

	got, attempts, err := e.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, attempts)
}

func TestLoadRetriesFetchErrors(t *testing.T) {
	var calls atomic.Int32
	e := engine.NewCacheEngine(types.LoaderFunc(func(context.Context, types.Key) ([]types.ImageRecord, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("connection refused")
		}
		return nil, nil
	}), engine.Options{Retry: fastRetry()})

	_, attempts, err := e.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLoadGivesUpAfterBound(t *testing.T) {
	var calls atomic.Int32
	e := engine.NewCacheEngine(types.LoaderFunc(func(context.Context, types.Key) ([]types.ImageRecord, error) {
		calls.Add(1)
		return nil, errors.New("503")
	}), engine.Options{Retry: fastRetry()})

	_, attempts, err := e.Load(context.Background(), key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrFetch))
	assert.Equal(t, 3, attempts)
	assert.EqualValues(t, 3, calls.Load())
}

func TestLoadDoesNotRetryInvalidIdentifier(t *testing.T) {
	var calls atomic.Int32
	e := engine.NewCacheEngine(types.LoaderFunc(func(context.Context, types.Key) ([]types.ImageRecord, error) {
		calls.Add(1)
		return nil, types.InvalidIdentifier("bad checksum")
	}), engine.Options{Retry: fastRetry()})

	_, attempts, err := e.Load(context.Background(), key)
	assert.Equal(t, types.KindInvalidIdentifier, types.KindOf(err))
	assert.Equal(t, 1, attempts)
	assert.EqualValues(t, 1, calls.Load())
}

func TestLoadTimesOutBeforeTransport(t *testing.T) {
	var calls atomic.Int32
	e := engine.NewCacheEngine(types.LoaderFunc(func(ctx context.Context, _ types.Key) ([]types.ImageRecord, error) {
		calls.Add(1)
		select {
		case <-time.After(5 * time.Second):
			return []types.ImageRecord{{URL: "late"}}, nil
		case <-ctx.Done():
			return nil, context.Cause(ctx)
		}
	}), engine.Options{Retry: fastRetry(), Timeout: 20 * time.Millisecond})

	start := time.Now()
	recs, attempts, err := e.Load(context.Background(), key)

	assert.Nil(t, recs)
	assert.True(t, errors.Is(err, types.ErrTimeout))
	assert.Equal(t, 3, attempts)
	assert.EqualValues(t, 3, calls.Load())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestLoadCallerCancelIsTerminal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	e := engine.NewCacheEngine(types.LoaderFunc(func(ctx context.Context, _ types.Key) ([]types.ImageRecord, error) {
		calls.Add(1)
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}), engine.Options{Retry: fastRetry()})

	_, _, err := e.Load(ctx, key)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, types.KindFetch, types.KindOf(err))
	assert.False(t, types.IsRetryable(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestBackoff(t *testing.T) {
	cfg := engine.DefaultRetryConfig()
	assert.Equal(t, time.Second, cfg.Backoff(0))
	assert.Equal(t, 2*time.Second, cfg.Backoff(1))
	assert.Equal(t, 4*time.Second, cfg.Backoff(2))
	assert.Equal(t, 30*time.Second, cfg.Backoff(10))
	assert.Equal(t, 30*time.Second, cfg.Backoff(200))
}

func TestOnWritePublishes(t *testing.T) {
	var (
		mu  sync.Mutex
		got []types.Snapshot
	)
	n := notify.NewSync(notify.ListenerFunc(func(s types.Snapshot) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}))
	e := engine.NewCacheEngine(nil, engine.Options{Notifier: n})

	ent := types.NewEntry(key, time.Now())
	ent.Status = types.StatusLoading
	e.OnWrite(context.Background(), ent)

	require.Len(t, got, 1)
	assert.Equal(t, types.StatusLoading, got[0].Status)
	assert.Equal(t, key, got[0].Key)
}

func TestStaleAndExpired(t *testing.T) {
	e := engine.NewCacheEngine(nil, engine.Options{
		Staleness:  &expiration.StaleAfterWrite{Window: time.Minute},
		Expiration: &expiration.ExpireAfterAccess{TTL: time.Hour},
	})
	now := time.Now()

	ent := types.NewEntry(key, now)
	ent.Status = types.StatusReady
	ent.LastSuccess = now.Add(-2 * time.Minute)
	assert.True(t, e.IsStale(ent, now))
	assert.False(t, e.IsExpired(ent, now))
	assert.True(t, e.IsExpired(ent, now.Add(2*time.Hour)))

	ent.Status = types.StatusRefreshing
	assert.False(t, e.IsExpired(ent, now.Add(2*time.Hour)))
}
