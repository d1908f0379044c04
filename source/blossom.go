package source

import (
	"context"

	"github.com/krisalay/imagefeed/blossom"
	"github.com/krisalay/imagefeed/identifier"
	"github.com/krisalay/imagefeed/normalize"
	"github.com/krisalay/imagefeed/types"
)

// Lister is the part of blossom.Client a source needs.
type Lister interface {
	List(ctx context.Context, server, pubkeyHex string) ([]blossom.Descriptor, error)
}

type blossomSource struct {
	client Lister
	server string
}

// Blossom lists the blobs of a key on server.
func Blossom(client Lister, server string) Source {
	return &blossomSource{client: client, server: server}
}

func (s *blossomSource) Name() string { return string(types.SourceBlossom) }

func (s *blossomSource) Load(ctx context.Context, pk identifier.PublicKey) ([]types.ImageRecord, normalize.Report, error) {
	blobs, err := s.client.List(ctx, s.server, pk.Hex())
	if err != nil {
		return nil, normalize.Report{}, err
	}
	recs, rep := normalize.Blobs(s.server, blobs)
	return recs, rep, nil
}
