package source

import (
	"context"
	"errors"
	"strings"

	"github.com/krisalay/imagefeed/identifier"
	"github.com/krisalay/imagefeed/normalize"
	"github.com/krisalay/imagefeed/nostr"
	"github.com/krisalay/imagefeed/types"
)

// eventSource is the shared shape of the two relay-backed strategies.
type eventSource struct {
	name      string
	kind      int
	querier   nostr.Querier
	relays    []string
	limit     int
	normalize func([]nostr.Event) ([]types.ImageRecord, normalize.Report)
}

// Metadata queries kind 1063 file metadata events.
// An empty relays list means the querier's default pool.
func Metadata(q nostr.Querier, relays []string, limit int) Source {
	return &eventSource{
		name:      string(types.SourceMetadata),
		kind:      nostr.KindFileMetadata,
		querier:   q,
		relays:    relays,
		limit:     limitOrDefault(limit),
		normalize: normalize.FileMetadata,
	}
}

// Notes queries kind 1 text notes and scans them for image links.
func Notes(q nostr.Querier, relays []string, limit int) Source {
	return &eventSource{
		name:      string(types.SourceNotes),
		kind:      nostr.KindTextNote,
		querier:   q,
		relays:    relays,
		limit:     limitOrDefault(limit),
		normalize: normalize.Notes,
	}
}

func (s *eventSource) Name() string { return s.name }

func (s *eventSource) Load(ctx context.Context, pk identifier.PublicKey) ([]types.ImageRecord, normalize.Report, error) {
	filter := nostr.Filter{
		Kinds:   []int{s.kind},
		Authors: []string{pk.Hex()},
		Limit:   s.limit,
	}

	events, err := s.querier.Query(ctx, s.relays, filter)
	if err != nil {
		return nil, normalize.Report{}, s.wrap(ctx, err)
	}

	recs, rep := s.normalize(events)
	return recs, rep, nil
}

func (s *eventSource) wrap(ctx context.Context, err error) error {
	var terr *types.Error
	if errors.As(err, &terr) {
		return err
	}
	if ctx.Err() != nil {
		// the caller decides whether this was a timeout
		return err
	}
	target := "default relays"
	if len(s.relays) > 0 {
		target = strings.Join(s.relays, ",")
	}
	ferr := types.FetchError("relay query "+s.name, target, err)
	ferr.Terminal = errors.Is(err, nostr.ErrNoRelays)
	return ferr
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}
