package types

// Status is the lifecycle state of one cache entry.
//
//	Empty -> Loading -> Ready
//	Ready -> Refreshing -> Ready
//	Loading | Refreshing -> Failed
//	Failed -> Loading
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusRefreshing
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusRefreshing:
		return "refreshing"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a query is running for an entry in this state.
func (s Status) InFlight() bool {
	return s == StatusLoading || s == StatusRefreshing
}
