package metrics_test

import (
	"testing"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/imagefeed/metrics"
	"github.com/krisalay/imagefeed/types"
)

func TestCounters(t *testing.T) {
	reg := promclient.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.Hit()
	m.Hit()
	m.Miss()
	m.Dispatch("nostr-notes")
	m.Failure(types.KindTimeout)
	m.Malformed("nostr-notes", 3)
	m.Malformed("nostr-notes", 0)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "imagefeed_cache_events_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "imagefeed_malformed_records_total"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range mfs {
		for _, metric := range mf.GetMetric() {
			values[mf.GetName()+"/"+metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, values["imagefeed_cache_events_total/hit"])
	assert.Equal(t, 1.0, values["imagefeed_cache_events_total/miss"])
	assert.Equal(t, 1.0, values["imagefeed_query_failures_total/timeout"])
	assert.Equal(t, 3.0, values["imagefeed_malformed_records_total/nostr-notes"])
}

func TestNewReusesRegisteredCollectors(t *testing.T) {
	reg := promclient.NewRegistry()
	a := metrics.MustNew(reg)
	b := metrics.MustNew(reg)

	a.Miss()
	b.Miss()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.Equal(t, 2.0, mfs[0].GetMetric()[0].GetCounter().GetValue())
}
