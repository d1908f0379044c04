package notify_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/imagefeed/notify"
	"github.com/krisalay/imagefeed/types"
)

func TestAsyncDeliversInOrder(t *testing.T) {
	var (
		mu  sync.Mutex
		got []types.Status
	)
	a := notify.NewAsync(notify.ListenerFunc(func(s types.Snapshot) {
		mu.Lock()
		got = append(got, s.Status)
		mu.Unlock()
	}), 8)

	ctx := context.Background()
	a.Publish(ctx, types.Snapshot{Status: types.StatusLoading})
	a.Publish(ctx, types.Snapshot{Status: types.StatusReady})
	a.Close()
	a.Close()
	a.Publish(ctx, types.Snapshot{Status: types.StatusFailed})

	assert.Equal(t, []types.Status{types.StatusLoading, types.StatusReady}, got)
}

func TestAsyncDropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	a := notify.NewAsync(notify.ListenerFunc(func(types.Snapshot) { <-release }), 1)

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		a.Publish(ctx, types.Snapshot{})
	}
	close(release)
	a.Close()

	// at most one in the worker and one queued
	assert.GreaterOrEqual(t, a.Dropped(), int64(8))
}

func TestSyncCallsInline(t *testing.T) {
	var got types.Status
	s := notify.NewSync(notify.ListenerFunc(func(snap types.Snapshot) { got = snap.Status }))
	s.Publish(context.Background(), types.Snapshot{Status: types.StatusRefreshing})
	s.Close()
	assert.Equal(t, types.StatusRefreshing, got)
}
