// Package source holds the interchangeable query strategies. Each one
// fetches raw objects for a public key and hands them to its normalizer.
package source

import (
	"context"

	"github.com/krisalay/imagefeed/identifier"
	"github.com/krisalay/imagefeed/normalize"
	"github.com/krisalay/imagefeed/types"
)

// DefaultLimit bounds how many events a relay query asks for.
const DefaultLimit = 500

/*
Source is one query strategy.

Load dispatches exactly one query and returns normalized records in no
particular order. Per-item problems are absorbed and counted in the
report. A transport failure fails the whole batch. Load never retries.
*/
type Source interface {
	Name() string
	Load(ctx context.Context, pk identifier.PublicKey) ([]types.ImageRecord, normalize.Report, error)
}
