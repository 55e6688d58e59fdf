package crates

import (
	"context"
	"fmt"

	"github.com/serpent-os/ent/pkg/integrations"
)

// Client provides access to the crates.io registry API.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client.
func NewClient(opts ...integrations.Option) *Client {
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		baseURL: "https://crates.io/api/v1",
	}
}

// WithBaseURL points the client at another registry root, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchVersions lists all non-yanked versions of crate, newest first as
// returned by the API. The crate name is case-sensitive.
func (c *Client) FetchVersions(ctx context.Context, crate string) ([]string, error) {
	var data crateResponse
	url := fmt.Sprintf("%s/crates/%s", c.baseURL, integrations.PathEscape(crate))
	if err := c.Get(ctx, url, &data); err != nil {
		return nil, err
	}

	var versions []string
	for _, v := range data.Versions {
		if !v.Yanked {
			versions = append(versions, v.Num)
		}
	}
	if len(versions) == 0 && data.Crate.MaxStableVersion != "" {
		versions = append(versions, data.Crate.MaxStableVersion)
	}
	return versions, nil
}

type crateResponse struct {
	Crate struct {
		Name             string `json:"name"`
		MaxVersion       string `json:"max_version"`
		MaxStableVersion string `json:"max_stable_version"`
	} `json:"crate"`
	Versions []struct {
		Num    string `json:"num"`
		Yanked bool   `json:"yanked"`
	} `json:"versions"`
}
