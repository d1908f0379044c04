package normalize

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/krisalay/imagefeed/nostr"
	"github.com/krisalay/imagefeed/types"
)

// candidateURL matches anything that looks like an http(s) link. Whether it
// points at an image is decided from its parsed path.
var candidateURL = regexp.MustCompile(`(?i)https?://[^\s<>"'()\[\]]+`)

// trailing punctuation that ends a sentence rather than a link
const trailing = ".,;:!?"

var extMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
}

/*
Notes scans kind 1 notes for image links.

Every match in a note becomes one record sharing the note's id, timestamp
and content. A note with no links produces nothing and is not counted as
dropped; an event with no id or timestamp is.
*/
func Notes(events []nostr.Event) ([]types.ImageRecord, Report) {
	rep := Report{Input: len(events)}
	var out []types.ImageRecord

	for i := range events {
		ev := &events[i]
		if ev.ID == "" || ev.CreatedAt == 0 {
			rep.Dropped++
			continue
		}

		matches := ExtractImageURLs(ev.Content)
		if len(matches) == 0 {
			continue
		}
		raw := provenance(ev)
		for _, link := range matches {
			out = append(out, types.ImageRecord{
				URL:         link,
				SourceID:    ev.ID,
				CreatedAt:   ev.CreatedAt,
				MimeType:    mimeFromURL(link),
				Description: ev.Content,
				Source:      types.SourceNotes,
			}.WithProvenance(raw))
		}
	}

	rep.Produced = len(out)
	return out, rep
}

/*
ExtractImageURLs returns every image link in text, in order of appearance.

A link is an image when the last segment of its path ends in a known image
extension. The host does not count, so "https://cdn.gif.example/cat" is
not an image; a query string or fragment after the path is kept.
*/
func ExtractImageURLs(text string) []string {
	var out []string
	for _, raw := range candidateURL.FindAllString(text, -1) {
		raw = strings.TrimRight(raw, trailing)
		if mimeFromURL(raw) != "" {
			out = append(out, raw)
		}
	}
	return out
}

func mimeFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	if u.Path == "" || u.Path == "/" {
		return ""
	}
	return extMIME[strings.ToLower(path.Ext(u.Path))]
}
