// Package aggregate orders and deduplicates normalized image records.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/krisalay/imagefeed/types"
)

// Compare orders newest first. Ties fall back to SourceID then URL, both
// ascending, so the order is total and repeatable across refreshes.
func Compare(a, b types.ImageRecord) int {
	if c := cmp.Compare(b.CreatedAt, a.CreatedAt); c != 0 {
		return c
	}
	if c := cmp.Compare(a.SourceID, b.SourceID); c != 0 {
		return c
	}
	return cmp.Compare(a.URL, b.URL)
}

// Sort orders records in place by Compare.
func Sort(records []types.ImageRecord) {
	slices.SortStableFunc(records, Compare)
}

// Dedup keeps the first record of every identity (SourceID plus URL) and
// preserves the order of the survivors.
func Dedup(records []types.ImageRecord) []types.ImageRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]types.ImageRecord, 0, len(records))
	for _, r := range records {
		id := r.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Normalize deduplicates and sorts a single batch.
func Normalize(records []types.ImageRecord) []types.ImageRecord {
	out := Dedup(records)
	Sort(out)
	return out
}

/*
Merge is the set union of several batches, sorted.

When two batches carry the same identity, the copy from the earlier batch
wins. Callers pass the batch they trust most first.
*/
func Merge(batches ...[]types.ImageRecord) []types.ImageRecord {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	all := make([]types.ImageRecord, 0, n)
	for _, b := range batches {
		all = append(all, b...)
	}
	return Normalize(all)
}
