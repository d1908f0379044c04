package refresh_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/imagefeed/refresh"
	"github.com/krisalay/imagefeed/types"
)

var _ refresh.Runner = (*refresh.Interval)(nil)

func TestIntervalTriggersReadKeys(t *testing.T) {
	iv := refresh.NewInterval(10 * time.Millisecond)
	k1 := types.NewKey("npub1a", types.SourceBlossom, "")
	k2 := types.NewKey("npub1b", types.SourceNotes, "")
	iv.OnRead(k1, nil)
	iv.OnRead(k2, nil)
	iv.OnRead(k1, nil)
	assert.Len(t, iv.Tracked(), 2)

	var (
		mu   sync.Mutex
		seen = map[string]int{}
	)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		iv.Run(stop, func(k types.Key) {
			mu.Lock()
			seen[k.String()]++
			mu.Unlock()
		})
	}()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[k1.String()] >= 2 && seen[k2.String()] >= 2
	}, time.Second, 5*time.Millisecond)

	close(stop)
	<-done
}

func TestIntervalForgetsIdleKeys(t *testing.T) {
	iv := &refresh.Interval{Every: 5 * time.Millisecond, Forget: 20 * time.Millisecond}
	iv.OnRead(types.NewKey("npub1a", types.SourceBlossom, ""), nil)

	stop := make(chan struct{})
	go iv.Run(stop, func(types.Key) {})
	defer close(stop)

	assert.Eventually(t, func() bool { return len(iv.Tracked()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestIntervalDisabled(t *testing.T) {
	iv := refresh.NewInterval(0)
	done := make(chan struct{})
	go func() {
		iv.Run(make(chan struct{}), func(types.Key) { t.Error("should never trigger") })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled interval should return at once")
	}
}
