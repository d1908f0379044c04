package nostr

import "slices"

// Filter is a NIP-01 subscription filter. Only the fields the image
// sources need are modelled.
type Filter struct {
	Kinds   []int    `json:"kinds,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Matches reports whether e satisfies the kind and author constraints.
func (f Filter) Matches(e *Event) bool {
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, e.Kind) {
		return false
	}
	if len(f.Authors) > 0 && !slices.Contains(f.Authors, e.PubKey) {
		return false
	}
	return true
}
