package nostr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// Querier is what the image sources need from the event network.
type Querier interface {
	// Query runs filter against relays, or the default set when relays is empty.
	Query(ctx context.Context, relays []string, filter Filter) ([]Event, error)
}

// ErrNoRelays is returned when neither the caller nor the pool name a relay.
var ErrNoRelays = errors.New("no relays configured")

// PoolOptions configures a Pool. Zero values fall back to defaults.
type PoolOptions struct {
	// Relays is the default relay set used when a query names none.
	Relays []string

	// Concurrency bounds how many relays are queried at once. Default 8.
	Concurrency int

	// Verify enables id and signature checks on every received event.
	Verify bool

	// VerifiedCacheSize bounds the set of event ids already verified. Default 4096.
	VerifiedCacheSize int

	Logger *slog.Logger

	// NewRelay builds the per-URL client. Defaults to NewRelay.
	NewRelay func(url string, logger *slog.Logger) *Relay
}

/*
Pool fans one filter out to several relays in parallel and merges the
answers into a single deduplicated list.

A relay that fails is logged and skipped. The query only fails when every
relay failed, or when ctx is done, in which case nothing is returned.
*/
type Pool struct {
	relays      []string
	concurrency int
	verify      bool
	logger      *slog.Logger
	newRelay    func(string, *slog.Logger) *Relay

	// verified remembers ids whose signature already checked out so that
	// periodic refreshes of the same author skip the schnorr work.
	verified *lru.Cache[string, struct{}]
}

// NewPool builds a pool from opts.
func NewPool(opts PoolOptions) (*Pool, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.VerifiedCacheSize <= 0 {
		opts.VerifiedCacheSize = 4096
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.NewRelay == nil {
		opts.NewRelay = NewRelay
	}

	verified, err := lru.New[string, struct{}](opts.VerifiedCacheSize)
	if err != nil {
		return nil, fmt.Errorf("verified cache: %w", err)
	}

	return &Pool{
		relays:      append([]string(nil), opts.Relays...),
		concurrency: opts.Concurrency,
		verify:      opts.Verify,
		logger:      opts.Logger,
		newRelay:    opts.NewRelay,
		verified:    verified,
	}, nil
}

// Relays returns the default relay set.
func (p *Pool) Relays() []string {
	return append([]string(nil), p.relays...)
}

// Query implements Querier.
func (p *Pool) Query(ctx context.Context, relays []string, filter Filter) ([]Event, error) {
	if len(relays) == 0 {
		relays = p.relays
	}
	if len(relays) == 0 {
		return nil, ErrNoRelays
	}

	var (
		mu     sync.Mutex
		seen   = make(map[string]struct{})
		merged []Event
		errs   []error
		g      errgroup.Group
	)
	g.SetLimit(p.concurrency)

	for _, url := range relays {
		g.Go(func() error {
			events, err := p.newRelay(url, p.logger).Query(ctx, filter)
			if err == nil {
				events = slices.DeleteFunc(events, func(ev Event) bool {
					return !p.accept(&ev, filter)
				})
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Debug("relay query failed", "relay", url, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", url, err))
				return nil
			}
			for _, ev := range events {
				if _, dup := seen[ev.ID]; dup {
					continue
				}
				seen[ev.ID] = struct{}{}
				merged = append(merged, ev)
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	if len(errs) == len(relays) {
		return nil, errors.Join(errs...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt != merged[j].CreatedAt {
			return merged[i].CreatedAt > merged[j].CreatedAt
		}
		return merged[i].ID < merged[j].ID
	})
	if filter.Limit > 0 && len(merged) > filter.Limit {
		merged = merged[:filter.Limit]
	}
	return merged, nil
}

// accept drops events outside the filter and, when enabled, events that do
// not verify. Safe for concurrent use.
func (p *Pool) accept(ev *Event, filter Filter) bool {
	if ev.ID == "" || !filter.Matches(ev) {
		p.logger.Debug("dropping event outside filter", "id", ev.ID, "kind", ev.Kind)
		return false
	}
	if !p.verify {
		return true
	}
	// The id is rehashed every time; only the signature check is cached.
	if _, ok := p.verified.Get(ev.ID + ev.Sig); ok && ev.CheckID() {
		return true
	}
	if err := ev.Verify(); err != nil {
		p.logger.Debug("dropping unverifiable event", "id", ev.ID, "error", err)
		return false
	}
	p.verified.Add(ev.ID+ev.Sig, struct{}{})
	return true
}
