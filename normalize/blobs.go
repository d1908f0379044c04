package normalize

import (
	"fmt"
	"strings"

	"github.com/krisalay/imagefeed/blossom"
	"github.com/krisalay/imagefeed/types"
)

/*
Blobs maps Blossom list entries served by server to records.

Only entries whose type starts with "image/" are kept. When an entry has
no url it defaults to {server}/{sha256}. Entries without a hash cannot be
addressed and are dropped.
*/
func Blobs(server string, blobs []blossom.Descriptor) ([]types.ImageRecord, Report) {
	server = strings.TrimRight(server, "/")
	rep := Report{Input: len(blobs)}
	out := make([]types.ImageRecord, 0, len(blobs))

	for i := range blobs {
		b := &blobs[i]
		if !types.IsImageMIME(b.Type) || b.SHA256 == "" {
			rep.Dropped++
			continue
		}

		url := b.URL
		if url == "" {
			url = server + "/" + b.SHA256
		}

		rec := types.ImageRecord{
			URL:       url,
			SourceID:  b.SHA256,
			CreatedAt: b.Uploaded,
			MimeType:  strings.ToLower(strings.TrimSpace(b.Type)),
			Hash:      b.SHA256,
			Source:    types.SourceBlossom,
		}.WithProvenance(provenance(b))
		if b.Size > 0 {
			size := b.Size
			rec.SizeBytes = &size
		}
		if b.Width > 0 && b.Height > 0 {
			rec.Dimensions = fmt.Sprintf("%dx%d", b.Width, b.Height)
		}

		if !rec.Valid() {
			rep.Dropped++
			continue
		}
		out = append(out, rec)
	}

	rep.Produced = len(out)
	return out, rep
}
