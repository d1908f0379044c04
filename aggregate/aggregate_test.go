package aggregate_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/imagefeed/aggregate"
	"github.com/krisalay/imagefeed/types"
)

func rec(id string, created int64, url string) types.ImageRecord {
	return types.ImageRecord{SourceID: id, CreatedAt: created, URL: url}
}

func TestSortNewestFirstWithTiebreak(t *testing.T) {
	records := []types.ImageRecord{
		rec("b", 10, "https://x.test/1.png"),
		rec("a", 30, "https://x.test/2.png"),
		rec("a", 10, "https://x.test/4.png"),
		rec("a", 10, "https://x.test/3.png"),
		rec("c", 20, "https://x.test/5.png"),
	}
	aggregate.Sort(records)

	got := make([]string, 0, len(records))
	for _, r := range records {
		got = append(got, r.URL)
	}
	assert.Equal(t, []string{
		"https://x.test/2.png",
		"https://x.test/5.png",
		"https://x.test/3.png",
		"https://x.test/4.png",
		"https://x.test/1.png",
	}, got)
}

func TestSortIsNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	records := make([]types.ImageRecord, 200)
	for i := range records {
		records[i] = rec("s", rng.Int63n(50), "u")
	}
	aggregate.Sort(records)
	for i := 1; i < len(records); i++ {
		require.GreaterOrEqual(t, records[i-1].CreatedAt, records[i].CreatedAt)
	}
}

func TestDedupByIdentity(t *testing.T) {
	records := []types.ImageRecord{
		rec("note", 10, "https://x.test/a.png"),
		rec("note", 10, "https://x.test/a.png"),
		rec("note", 10, "https://x.test/b.png"),
		rec("other", 10, "https://x.test/a.png"),
	}
	out := aggregate.Dedup(records)
	assert.Len(t, out, 3)
}

func TestMergeKeepsFirstBatchCopy(t *testing.T) {
	first := rec("h1", 5, "https://bs.test/h1")
	first.Description = "from blossom"
	second := rec("h1", 5, "https://bs.test/h1")
	second.Description = "from metadata"

	out := aggregate.Merge(
		[]types.ImageRecord{first, rec("h2", 9, "https://bs.test/h2")},
		[]types.ImageRecord{second, rec("h3", 1, "https://bs.test/h3")},
	)
	require.Len(t, out, 3)
	assert.Equal(t, "h2", out[0].SourceID)
	assert.Equal(t, "from blossom", out[1].Description)
	assert.Equal(t, "h3", out[2].SourceID)
}

func TestMergeEmpty(t *testing.T) {
	assert.Empty(t, aggregate.Merge())
	assert.Empty(t, aggregate.Merge(nil, nil))
}
