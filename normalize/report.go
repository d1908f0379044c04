// Package normalize turns raw source objects into canonical image records.
//
// Normalizers never fail on a single bad item. An item that cannot become
// a valid record is dropped and counted in the Report.
package normalize

import "encoding/json"

// Report counts what a normalizer saw and what it produced.
type Report struct {
	Input    int
	Produced int
	Dropped  int
}

// Add merges o into r.
func (r Report) Add(o Report) Report {
	return Report{
		Input:    r.Input + o.Input,
		Produced: r.Produced + o.Produced,
		Dropped:  r.Dropped + o.Dropped,
	}
}

func provenance(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
