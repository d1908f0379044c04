package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/krisalay/imagefeed/types"
)

// snapshotView is the JSON shape of a snapshot.
type snapshotView struct {
	Key         string              `json:"key"`
	Status      string              `json:"status"`
	Error       string              `json:"error,omitempty"`
	Attempts    int                 `json:"attempts"`
	LastSuccess *time.Time          `json:"last_success,omitempty"`
	Records     []types.ImageRecord `json:"records"`
}

func render(w io.Writer, format string, snap types.Snapshot) error {
	if format == "json" {
		v := snapshotView{
			Key:      snap.Key.String(),
			Status:   snap.Status.String(),
			Error:    snap.Message,
			Attempts: snap.Attempts,
			Records:  snap.Records,
		}
		if !snap.LastSuccess.IsZero() {
			v.LastSuccess = &snap.LastSuccess
		}
		if v.Records == nil {
			v.Records = []types.ImageRecord{}
		}
		return json.NewEncoder(w).Encode(v)
	}

	fmt.Fprintf(w, "%s: %s, %d images", snap.Key.Identifier, snap.Status, len(snap.Records))
	if snap.Message != "" {
		fmt.Fprintf(w, " (%s)", snap.Message)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range snap.Records {
		size := "-"
		if r.SizeBytes != nil {
			size = fmt.Sprint(*r.SizeBytes)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			time.Unix(r.CreatedAt, 0).UTC().Format(time.RFC3339), r.Source, orDash(r.MimeType), size, r.URL)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
