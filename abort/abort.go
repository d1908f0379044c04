// Package abort composes cancellation sources into one signal that fires
// when the first of them fires, and remembers which one it was.
package abort

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTimeout is the cause recorded when the signal's own deadline fires.
var ErrTimeout = errors.New("attempt timed out")

/*
Signal fires on the first of: its timeout, the parent context, or any of
the extra contexts. Context() is what gets handed to the transport.

Stop must be called once the guarded operation is over to release the
timer and the watchers on the extra contexts.
*/
type Signal struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	stopTimeout context.CancelFunc
	stops       []func() bool
	once        sync.Once
}

// FirstOf builds a signal. A timeout <= 0 means no deadline of its own.
func FirstOf(parent context.Context, timeout time.Duration, others ...context.Context) *Signal {
	ctx, cancel := context.WithCancelCause(parent)
	s := &Signal{cancel: cancel, stopTimeout: func() {}}

	if timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeoutCause(ctx, timeout, ErrTimeout)
		s.stopTimeout = stop
	}
	s.ctx = ctx

	for _, o := range others {
		if o == nil {
			continue
		}
		s.stops = append(s.stops, context.AfterFunc(o, func() {
			cancel(context.Cause(o))
		}))
	}
	return s
}

// Context is cancelled when the signal fires.
func (s *Signal) Context() context.Context { return s.ctx }

// Done is closed when the signal fires.
func (s *Signal) Done() <-chan struct{} { return s.ctx.Done() }

// Cause reports why the signal fired, nil while it has not.
func (s *Signal) Cause() error {
	if s.ctx.Err() == nil {
		return nil
	}
	return context.Cause(s.ctx)
}

// TimedOut reports whether the signal's own deadline fired first.
func (s *Signal) TimedOut() bool {
	return errors.Is(s.Cause(), ErrTimeout)
}

// Stop releases resources. The signal's context is cancelled afterwards.
func (s *Signal) Stop() {
	s.once.Do(func() {
		for _, stop := range s.stops {
			stop()
		}
		s.stopTimeout()
		s.cancel(context.Canceled)
	})
}
