// Package blossom lists the blobs a public key uploaded to a Blossom server
// (BUD-02 list endpoint: GET /<pubkey>/list).
package blossom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/krisalay/imagefeed/types"
)

// Descriptor is one entry of a list response.
type Descriptor struct {
	SHA256   string `json:"sha256"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
	Uploaded int64  `json:"uploaded"`
	URL      string `json:"url,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// Client talks to Blossom servers. The zero value uses http.DefaultClient.
type Client struct {
	HTTP *http.Client

	// UserAgent is sent when non-empty.
	UserAgent string
}

// NewClient returns a client with its own transport timeout as a last
// resort; callers still bound each call with a context.
func NewClient(timeout time.Duration) *Client {
	return &Client{HTTP: &http.Client{Timeout: timeout}}
}

/*
List fetches GET {server}/{pubkeyHex}/list.

Cancelling ctx aborts the request. A non-2xx status is a KindFetch error
carrying the server's status text. No retries happen here.
*/
func (c *Client) List(ctx context.Context, server, pubkeyHex string) ([]Descriptor, error) {
	server = strings.TrimRight(server, "/")
	url := server + "/" + pubkeyHex + "/list"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, types.FetchError("blossom list", server, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		return nil, types.FetchError("blossom list", server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.Error{
			Kind:       types.KindFetch,
			Op:         "blossom list",
			Source:     server,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to fetch from Blossom server: %s", statusText(resp)),
		}
	}

	var blobs []Descriptor
	if err := json.NewDecoder(resp.Body).Decode(&blobs); err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		return nil, types.FetchError("blossom list", server, fmt.Errorf("decode list: %w", err))
	}
	return blobs, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// statusText is the reason phrase, e.g. "Bad Gateway".
func statusText(resp *http.Response) string {
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
