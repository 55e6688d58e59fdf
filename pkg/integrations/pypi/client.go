package pypi

import (
	"context"
	"fmt"
	"sort"

	"github.com/serpent-os/ent/pkg/integrations"
)

// Client provides access to the PyPI JSON API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client.
func NewClient(opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(nil, opts...),
		baseURL: "https://pypi.org/pypi",
	}
}

// WithBaseURL points the client at another index, for tests or mirrors.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchVersions lists every release of pkg that still has at least one
// non-yanked file. Releases with no files are kept; old uploads often lack
// file metadata.
//
// The pkg parameter is normalized automatically (case-insensitive, underscores→hyphens).
func (c *Client) FetchVersions(ctx context.Context, pkg string) ([]string, error) {
	pkg = integrations.NormalizePkgName(pkg)

	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, integrations.PathEscape(pkg)), &data); err != nil {
		return nil, err
	}

	var versions []string
	for v, files := range data.Releases {
		if len(files) == 0 || !allYanked(files) {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 && data.Info.Version != "" {
		versions = append(versions, data.Info.Version)
	}
	sort.Strings(versions)
	return versions, nil
}

func allYanked(files []releaseFile) bool {
	for _, f := range files {
		if !f.Yanked {
			return false
		}
	}
	return true
}

type apiResponse struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"info"`
	Releases map[string][]releaseFile `json:"releases"`
}

type releaseFile struct {
	Filename string `json:"filename"`
	Yanked   bool   `json:"yanked"`
}
