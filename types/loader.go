package types

import "context"

/*
Loader is the contract between the cache and the sources behind it.

Load runs exactly one query attempt for key and returns the normalized,
ordered records. It must honour ctx: once ctx is done the attempt is
abandoned and no records are returned. Retries are not the loader's job,
the engine wraps Load with the retry policy.
*/
type Loader interface {
	Load(ctx context.Context, key Key) ([]ImageRecord, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, key Key) ([]ImageRecord, error)

func (f LoaderFunc) Load(ctx context.Context, key Key) ([]ImageRecord, error) {
	return f(ctx, key)
}
