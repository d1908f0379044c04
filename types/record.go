package types

import "strings"

// SourceKind names where an image record came from.
type SourceKind string

const (
	// SourceMetadata is a kind 1063 file metadata event.
	SourceMetadata SourceKind = "metadata"

	// SourceNotes is a kind 1 short text note scanned for image URLs.
	SourceNotes SourceKind = "notes"

	// SourceBlossom is a blob descriptor listed by a Blossom server.
	SourceBlossom SourceKind = "blossom"

	// SourceAll merges every source above into one result set.
	SourceAll SourceKind = "all"
)

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceMetadata, SourceNotes, SourceBlossom, SourceAll:
		return true
	}
	return false
}

/*
ImageRecord is the canonical shape every source is normalized into.

Records are values. Once a normalizer has produced one, nothing in the
pipeline changes it. The raw provenance (the original event or blob
descriptor as JSON) is unexported so that no caller can alias it: it is
copied in by WithProvenance and copied out by Provenance.
*/
type ImageRecord struct {
	// URL is the fetchable location of the image. Always set.
	URL string `json:"url"`

	// SourceID is the stable key of the origin: a content hash for
	// metadata events and blobs, the note id for scanned notes.
	SourceID string `json:"source_id"`

	// CreatedAt is the origin timestamp in seconds since epoch.
	CreatedAt int64 `json:"created_at"`

	// MimeType is empty when unknown, otherwise always "image/...".
	MimeType string `json:"mime_type,omitempty"`

	// SizeBytes is nil when the source did not declare a size.
	SizeBytes *int64 `json:"size_bytes,omitempty"`

	Dimensions  string `json:"dimensions,omitempty"`
	Blurhash    string `json:"blurhash,omitempty"`
	Description string `json:"description,omitempty"`

	// Hash is the sha256 of the blob when the source declared one.
	Hash string `json:"hash,omitempty"`

	// Source is the kind of source that produced the record.
	Source SourceKind `json:"source"`

	raw []byte
}

// WithProvenance returns a copy of r that owns a private copy of raw.
func (r ImageRecord) WithProvenance(raw []byte) ImageRecord {
	if raw == nil {
		r.raw = nil
		return r
	}
	r.raw = append([]byte(nil), raw...)
	return r
}

// Provenance returns a copy of the raw source object as JSON.
func (r ImageRecord) Provenance() []byte {
	if r.raw == nil {
		return nil
	}
	return append([]byte(nil), r.raw...)
}

// Identity is the key used to deduplicate records across sources and
// refreshes. Two images referenced by the same note stay distinct.
func (r ImageRecord) Identity() string {
	return r.SourceID + "\x00" + r.URL
}

// Valid reports whether the record satisfies the canonical invariants.
func (r ImageRecord) Valid() bool {
	if r.URL == "" || r.SourceID == "" || r.CreatedAt == 0 {
		return false
	}
	return r.MimeType == "" || IsImageMIME(r.MimeType)
}

// IsImageMIME reports whether m is an image-class MIME type.
func IsImageMIME(m string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(m)), "image/")
}
