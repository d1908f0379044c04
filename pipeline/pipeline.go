// Package pipeline runs one query attempt for a cache key: decode the
// identifier, resolve the source, load, normalize and order.
package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/krisalay/imagefeed/aggregate"
	"github.com/krisalay/imagefeed/identifier"
	"github.com/krisalay/imagefeed/source"
	"github.com/krisalay/imagefeed/types"
)

// Resolver picks the source strategy for a selector.
type Resolver interface {
	Resolve(sel types.Selector) (source.Source, error)
}

// Pipeline implements types.Loader.
type Pipeline struct {
	resolver Resolver
	metrics  types.Metrics
	logger   *slog.Logger
}

// New builds a pipeline. Nil metrics or logger fall back to no-ops.
func New(resolver Resolver, metrics types.Metrics, logger *slog.Logger) *Pipeline {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{resolver: resolver, metrics: metrics, logger: logger}
}

/*
Load runs one attempt.

A bad identifier fails before anything is dispatched. On success the
records are deduplicated and sorted newest first. If ctx fires during the
query nothing is returned; the caller maps that to a timeout or a
cancellation.
*/
func (p *Pipeline) Load(ctx context.Context, key types.Key) ([]types.ImageRecord, error) {
	pk, err := identifier.Decode(key.Identifier)
	if err != nil {
		return nil, err
	}

	src, err := p.resolver.Resolve(key.Source)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	p.metrics.Dispatch(src.Name())
	recs, rep, err := src.Load(ctx, pk)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}

	if rep.Dropped > 0 {
		p.metrics.Malformed(src.Name(), rep.Dropped)
	}

	out := aggregate.Normalize(recs)
	p.logger.Debug("query done",
		"key", key.String(),
		"source", src.Name(),
		"input", rep.Input,
		"dropped", rep.Dropped,
		"records", len(out),
		"took", time.Since(start),
	)
	return out, nil
}
