package nostr_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/imagefeed/nostr"
	"github.com/krisalay/imagefeed/nostr/nostrtest"
)

func TestPoolMergesAndDeduplicates(t *testing.T) {
	signer := nostrtest.NewSigner(0x09)
	evs := notes(t, signer, 3)

	a := nostrtest.NewRelay(t, evs[0], evs[1])
	b := nostrtest.NewRelay(t, evs[1], evs[2])

	pool, err := nostr.NewPool(nostr.PoolOptions{Relays: []string{a.URL(), b.URL()}, Verify: true})
	require.NoError(t, err)

	got, err := pool.Query(context.Background(), nil, nostr.Filter{Authors: []string{signer.PubKey()}})
	require.NoError(t, err)
	require.Len(t, got, 3)

	// newest first
	assert.Equal(t, evs[2].ID, got[0].ID)
	assert.Equal(t, evs[0].ID, got[2].ID)
}

func TestPoolToleratesPartialFailure(t *testing.T) {
	signer := nostrtest.NewSigner(0x09)
	good := nostrtest.NewRelay(t, notes(t, signer, 2)...)

	pool, err := nostr.NewPool(nostr.PoolOptions{})
	require.NoError(t, err)

	got, err := pool.Query(context.Background(), []string{"ws://127.0.0.1:1", good.URL()}, nostr.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPoolFailsWhenEveryRelayFails(t *testing.T) {
	closed := nostrtest.NewRelay(t)
	closed.Closed = "blocked"

	pool, err := nostr.NewPool(nostr.PoolOptions{})
	require.NoError(t, err)

	_, err = pool.Query(context.Background(), []string{"ws://127.0.0.1:1", closed.URL()}, nostr.Filter{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, nostr.ErrClosed))
}

func TestPoolWithoutRelays(t *testing.T) {
	pool, err := nostr.NewPool(nostr.PoolOptions{})
	require.NoError(t, err)

	_, err = pool.Query(context.Background(), nil, nostr.Filter{})
	assert.ErrorIs(t, err, nostr.ErrNoRelays)
}

func TestPoolDropsForgedAndForeignEvents(t *testing.T) {
	signer := nostrtest.NewSigner(0x0a)
	evs := notes(t, signer, 2)

	forged := evs[1]
	forged.Content = "tampered"

	foreign := nostrtest.NewSigner(0x0b).Sign(t, nostr.Event{CreatedAt: 5, Kind: nostr.KindTextNote})

	srv := nostrtest.NewRelay(t, evs[0], forged, foreign)
	pool, err := nostr.NewPool(nostr.PoolOptions{Relays: []string{srv.URL()}, Verify: true})
	require.NoError(t, err)

	// The test relay filters by author itself, so ask for everything and
	// let the pool drop what is outside the filter it was given.
	got, err := pool.Query(context.Background(), nil, nostr.Filter{Kinds: []int{nostr.KindTextNote}})
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, ev := range got {
		ids = append(ids, ev.ID)
	}
	assert.Contains(t, ids, evs[0].ID)
	assert.Contains(t, ids, foreign.ID)
	assert.NotContains(t, ids, forged.ID)

	// second pass goes through the verified cache and stays consistent
	again, err := pool.Query(context.Background(), nil, nostr.Filter{Kinds: []int{nostr.KindTextNote}})
	require.NoError(t, err)
	assert.Len(t, again, len(got))
}

func TestPoolCapsMergedResultAtLimit(t *testing.T) {
	signer := nostrtest.NewSigner(0x0c)
	evs := notes(t, signer, 4)
	a := nostrtest.NewRelay(t, evs[0], evs[1])
	b := nostrtest.NewRelay(t, evs[2], evs[3])

	pool, err := nostr.NewPool(nostr.PoolOptions{Relays: []string{a.URL(), b.URL()}})
	require.NoError(t, err)

	got, err := pool.Query(context.Background(), nil, nostr.Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, evs[3].ID, got[0].ID)
	assert.Equal(t, evs[2].ID, got[1].ID)
}

func TestPoolCancelledReturnsNothing(t *testing.T) {
	held := nostrtest.NewRelay(t, notes(t, nostrtest.NewSigner(0x0d), 1)...)
	held.Hold.Store(true)

	pool, err := nostr.NewPool(nostr.PoolOptions{Relays: []string{held.URL()}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	got, err := pool.Query(ctx, nil, nostr.Filter{})
	assert.Nil(t, got)
	assert.ErrorIs(t, err, context.Canceled)
}
