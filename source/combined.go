package source

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/krisalay/imagefeed/aggregate"
	"github.com/krisalay/imagefeed/identifier"
	"github.com/krisalay/imagefeed/normalize"
	"github.com/krisalay/imagefeed/types"
)

type combined struct {
	sources []Source
}

/*
Combined queries every source in parallel and merges the results.

Duplicates across sources collapse; the copy from the earlier source in
the list wins. One failing source does not fail the batch, only all of
them failing does.
*/
func Combined(sources ...Source) Source {
	return &combined{sources: sources}
}

func (c *combined) Name() string {
	names := make([]string, 0, len(c.sources))
	for _, s := range c.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (c *combined) Load(ctx context.Context, pk identifier.PublicKey) ([]types.ImageRecord, normalize.Report, error) {
	var (
		mu      sync.Mutex
		batches = make([][]types.ImageRecord, len(c.sources))
		errs    []error
		rep     normalize.Report
		g       errgroup.Group
	)

	for i, s := range c.sources {
		g.Go(func() error {
			recs, r, err := s.Load(ctx, pk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			batches[i] = recs
			rep = rep.Add(r)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, normalize.Report{}, context.Cause(ctx)
	}
	if len(c.sources) > 0 && len(errs) == len(c.sources) {
		return nil, normalize.Report{}, firstTyped(errs)
	}
	return aggregate.Merge(batches...), rep, nil
}

// firstTyped returns a *types.Error describing all failures, so the
// retry policy can classify it. It is terminal only when every failure is.
func firstTyped(errs []error) error {
	joined := errors.Join(errs...)

	var first *types.Error
	terminal := len(errs) > 0
	for _, err := range errs {
		var terr *types.Error
		if !errors.As(err, &terr) {
			terminal = false
			continue
		}
		if first == nil {
			first = terr
		}
		terminal = terminal && terr.Terminal
	}
	if first == nil {
		return types.FetchError("combined query", "", joined)
	}
	return &types.Error{Kind: first.Kind, Op: "combined query", Terminal: terminal, Err: joined}
}
