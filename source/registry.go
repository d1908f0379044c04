package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/krisalay/imagefeed/nostr"
	"github.com/krisalay/imagefeed/types"
)

var (
	errNoBlossomServer = errors.New("no blossom server configured")
	errUnknownKind     = errors.New("unknown source kind")
)

/*
Registry builds the source strategy for a selector.

Defaults (the relay pool and the Blossom server) live here and are
replaced per call by the selector's endpoint, never by mutating the
registry.
*/
type Registry struct {
	Events  nostr.Querier
	Blossom Lister

	// BlossomServer is the server used when a selector names none.
	BlossomServer string

	// Limit is the relay query bound. Zero means DefaultLimit.
	Limit int
}

// Resolve returns the source for sel.
func (r *Registry) Resolve(sel types.Selector) (Source, error) {
	endpoint := strings.TrimSpace(sel.Endpoint)

	switch sel.Kind {
	case types.SourceMetadata:
		return Metadata(r.Events, relaysFor(endpoint), r.Limit), nil

	case types.SourceNotes:
		return Notes(r.Events, relaysFor(endpoint), r.Limit), nil

	case types.SourceBlossom:
		server := endpoint
		if server == "" {
			server = r.BlossomServer
		}
		if server == "" {
			return nil, terminal(sel, errNoBlossomServer)
		}
		return Blossom(r.Blossom, server), nil

	case types.SourceAll:
		// One override can only name one endpoint; its scheme tells which
		// side it replaces.
		var relays []string
		server := r.BlossomServer
		if isRelayURL(endpoint) {
			relays = []string{endpoint}
		} else if endpoint != "" {
			server = endpoint
		}

		sources := []Source{}
		if server != "" {
			sources = append(sources, Blossom(r.Blossom, server))
		}
		sources = append(sources,
			Metadata(r.Events, relays, r.Limit),
			Notes(r.Events, relays, r.Limit),
		)
		return Combined(sources...), nil
	}

	return nil, terminal(sel, fmt.Errorf("%w %q", errUnknownKind, sel.Kind))
}

func relaysFor(endpoint string) []string {
	if endpoint == "" {
		return nil
	}
	return []string{endpoint}
}

func isRelayURL(s string) bool {
	s = strings.ToLower(s)
	return strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "wss://")
}

func terminal(sel types.Selector, err error) error {
	return &types.Error{Kind: types.KindFetch, Op: "resolve source", Source: string(sel.Kind), Terminal: true, Err: err}
}
