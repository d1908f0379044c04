package normalize

import (
	"strconv"
	"strings"

	"github.com/krisalay/imagefeed/nostr"
	"github.com/krisalay/imagefeed/types"
)

// File metadata tag names (NIP-94).
const (
	tagURL      = "url"
	tagHash     = "x"
	tagMIME     = "m"
	tagSize     = "size"
	tagDim      = "dim"
	tagBlurhash = "blurhash"
)

/*
FileMetadata maps kind 1063 events to records.

An event is dropped when it has no url or no x (hash) tag, or when its m
tag is present and not an image type. The hash becomes the SourceID so
that the same blob found through Blossom deduplicates against it.
*/
func FileMetadata(events []nostr.Event) ([]types.ImageRecord, Report) {
	rep := Report{Input: len(events)}
	out := make([]types.ImageRecord, 0, len(events))

	for i := range events {
		ev := &events[i]
		tags := ev.Tags.Map()

		url, ok := tags.Get(tagURL)
		if !ok {
			rep.Dropped++
			continue
		}
		hash, ok := tags.Get(tagHash)
		if !ok {
			rep.Dropped++
			continue
		}
		mime, hasMIME := tags.Get(tagMIME)
		if hasMIME && !types.IsImageMIME(mime) {
			rep.Dropped++
			continue
		}

		rec := types.ImageRecord{
			URL:         strings.TrimSpace(url),
			SourceID:    hash,
			CreatedAt:   ev.CreatedAt,
			MimeType:    strings.ToLower(strings.TrimSpace(mime)),
			SizeBytes:   parseSize(tags.Value(tagSize)),
			Dimensions:  tags.Value(tagDim),
			Blurhash:    tags.Value(tagBlurhash),
			Description: ev.Content,
			Hash:        hash,
			Source:      types.SourceMetadata,
		}.WithProvenance(provenance(ev))

		if !rec.Valid() {
			rep.Dropped++
			continue
		}
		out = append(out, rec)
	}

	rep.Produced = len(out)
	return out, rep
}

func parseSize(s string) *int64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}
