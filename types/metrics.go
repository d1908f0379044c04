package types

// This file defines how the feed reports what it is doing.

/*
Metrics receives one call per event in the feed lifecycle.
Implementations must be safe for concurrent use.
*/
type Metrics interface {

	// Hit is called when a fresh entry is served from memory.
	Hit()

	// Miss is called when a key has no usable entry and must be loaded.
	Miss()

	// Stale is called when a stale entry is served while it refreshes.
	Stale()

	// Eviction is called when a key is dropped to respect the capacity bound.
	Eviction()

	// Expire is called when an idle entry is dropped on lookup.
	Expire()

	// Refresh is called when a background or interval refresh starts.
	Refresh()

	// Dispatch is called once per query attempt sent to a source.
	Dispatch(source string)

	// Failure is called when a load ends in the Failed state.
	Failure(kind ErrorKind)

	// Malformed is called with the number of items a normalizer dropped.
	Malformed(source string, n int)
}

/*
NoopMetrics ignores every event. The engine falls back to it so the rest
of the code never has to check for a nil Metrics.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()                  {}
func (NoopMetrics) Miss()                 {}
func (NoopMetrics) Stale()                {}
func (NoopMetrics) Eviction()             {}
func (NoopMetrics) Expire()               {}
func (NoopMetrics) Refresh()              {}
func (NoopMetrics) Dispatch(string)       {}
func (NoopMetrics) Failure(ErrorKind)     {}
func (NoopMetrics) Malformed(string, int) {}
