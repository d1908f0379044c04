package nostr

// Tags is the raw array-of-arrays tag list of an event.
type Tags [][]string

/*
TagMap is a typed view over an event's tags, built once per event.

Only the first value of every tag name is kept, which is what the file
metadata fields (url, x, m, size, dim, blurhash) need. Tags with no
value are ignored.
*/
type TagMap map[string]string

// Map builds the lookup for t.
func (t Tags) Map() TagMap {
	m := make(TagMap, len(t))
	for _, tag := range t {
		if len(tag) < 2 || tag[0] == "" {
			continue
		}
		if _, seen := m[tag[0]]; seen {
			continue
		}
		m[tag[0]] = tag[1]
	}
	return m
}

// Get returns the value of name and whether it was present and non-empty.
func (m TagMap) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok && v != ""
}

// Value returns the value of name or "".
func (m TagMap) Value(name string) string {
	return m[name]
}
