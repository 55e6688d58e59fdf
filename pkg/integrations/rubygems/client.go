package rubygems

import (
	"context"
	"fmt"
	"strings"

	"github.com/serpent-os/ent/pkg/integrations"
)

// Client provides access to the RubyGems registry API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client.
func NewClient(opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(nil, opts...),
		baseURL: "https://rubygems.org/api/v1",
	}
}

// WithBaseURL points the client at another API root, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchVersions lists every published version number of gem, newest first.
// Platform-specific builds of the same number are reported once.
func (c *Client) FetchVersions(ctx context.Context, gem string) ([]string, error) {
	gem = strings.ToLower(strings.TrimSpace(gem))

	var data []versionResponse
	url := fmt.Sprintf("%s/versions/%s.json", c.baseURL, integrations.PathEscape(gem))
	if err := c.Get(ctx, url, &data); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(data))
	var versions []string
	for _, v := range data {
		if !seen[v.Number] {
			seen[v.Number] = true
			versions = append(versions, v.Number)
		}
	}
	return versions, nil
}

type versionResponse struct {
	Number     string `json:"number"`
	Platform   string `json:"platform"`
	Prerelease bool   `json:"prerelease"`
}
