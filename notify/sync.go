package notify

import (
	"context"

	"github.com/krisalay/imagefeed/types"
)

// Sync calls the listener inline, on the goroutine that made the transition.
// Listeners must be quick; the shard lock is not held while they run.
type Sync struct {
	listener Listener
}

func NewSync(listener Listener) *Sync {
	return &Sync{listener: listener}
}

func (s *Sync) Publish(_ context.Context, snap types.Snapshot) {
	s.listener.OnUpdate(snap)
}

func (s *Sync) Close() {}
