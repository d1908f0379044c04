package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/imagefeed/identifier"
	"github.com/krisalay/imagefeed/normalize"
	"github.com/krisalay/imagefeed/pipeline"
	"github.com/krisalay/imagefeed/source"
	"github.com/krisalay/imagefeed/types"
)

type countingSource struct {
	mu    sync.Mutex
	calls int
	recs  []types.ImageRecord
	rep   normalize.Report
	err   error
}

func (s *countingSource) Name() string { return "stub" }

func (s *countingSource) Load(context.Context, identifier.PublicKey) ([]types.ImageRecord, normalize.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.recs, s.rep, s.err
}

type staticResolver struct{ src source.Source }

func (r staticResolver) Resolve(types.Selector) (source.Source, error) { return r.src, nil }

type recordingMetrics struct {
	types.NoopMetrics
	dispatched []string
	malformed  int
}

func (m *recordingMetrics) Dispatch(s string)          { m.dispatched = append(m.dispatched, s) }
func (m *recordingMetrics) Malformed(_ string, n int) { m.malformed += n }

func validKey() types.Key {
	var pk identifier.PublicKey
	pk[0] = 1
	return types.NewKey(identifier.Encode(pk), types.SourceBlossom, "")
}

func TestLoadSortsAndDedups(t *testing.T) {
	src := &countingSource{
		recs: []types.ImageRecord{
			{SourceID: "a", URL: "u1", CreatedAt: 1},
			{SourceID: "b", URL: "u2", CreatedAt: 5},
			{SourceID: "a", URL: "u1", CreatedAt: 1},
		},
		rep: normalize.Report{Input: 4, Produced: 3, Dropped: 1},
	}
	m := &recordingMetrics{}
	p := pipeline.New(staticResolver{src}, m, nil)

	recs, err := p.Load(context.Background(), validKey())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].SourceID)
	assert.Equal(t, []string{"stub"}, m.dispatched)
	assert.Equal(t, 1, m.malformed)
}

func TestInvalidIdentifierDispatchesNothing(t *testing.T) {
	src := &countingSource{}
	p := pipeline.New(staticResolver{src}, nil, nil)

	_, err := p.Load(context.Background(), types.NewKey("npub1garbage", types.SourceBlossom, ""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidIdentifier))
	assert.Equal(t, 0, src.calls)
}

func TestSourceErrorFailsBatch(t *testing.T) {
	src := &countingSource{err: types.FetchError("blossom list", "https://bs.test", errors.New("boom"))}
	p := pipeline.New(staticResolver{src}, nil, nil)

	recs, err := p.Load(context.Background(), validKey())
	assert.Nil(t, recs)
	assert.True(t, errors.Is(err, types.ErrFetch))
}

func TestCancelledAttemptReturnsNothing(t *testing.T) {
	src := &countingSource{recs: []types.ImageRecord{{SourceID: "a", URL: "u", CreatedAt: 1}}}
	p := pipeline.New(staticResolver{src}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recs, err := p.Load(ctx, validKey())
	assert.Nil(t, recs)
	assert.ErrorIs(t, err, context.Canceled)
}
