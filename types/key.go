package types

import "strings"

// Selector picks the source strategy for a query and, optionally, the
// endpoint it should talk to instead of the configured default.
type Selector struct {
	Kind SourceKind

	// Endpoint overrides the default relay pool (metadata, notes) or the
	// default Blossom server (blossom). Empty means use the default.
	Endpoint string
}

// Key identifies one cached query result set.
type Key struct {
	Identifier string
	Source     Selector
}

// NewKey builds a key with the identifier and endpoint trimmed.
func NewKey(identifier string, kind SourceKind, endpoint string) Key {
	return Key{
		Identifier: strings.TrimSpace(identifier),
		Source: Selector{
			Kind:     kind,
			Endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		},
	}
}

// String is the id the cache shards on. It is stable for equal keys.
func (k Key) String() string {
	return string(k.Source.Kind) + "|" + k.Source.Endpoint + "|" + k.Identifier
}
