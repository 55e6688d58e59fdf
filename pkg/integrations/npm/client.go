package npm

import (
	"context"
	"sort"
	"strings"

	"github.com/serpent-os/ent/pkg/integrations"
)

// Client provides access to the npm registry.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm registry client.
func NewClient(opts ...integrations.Option) *Client {
	headers := map[string]string{"Accept": "application/vnd.npm.install-v1+json"}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		baseURL: "https://registry.npmjs.org",
	}
}

// WithBaseURL points the client at another registry, for tests or mirrors.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchVersions lists all published versions of pkg that are not deprecated.
// Scoped names (@scope/name) are supported.
func (c *Client) FetchVersions(ctx context.Context, pkg string) ([]string, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))

	var data registryResponse
	if err := c.Get(ctx, c.baseURL+"/"+escapeName(pkg), &data); err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(data.Versions))
	for v, details := range data.Versions {
		if details.Deprecated == "" {
			versions = append(versions, v)
		}
	}
	if len(versions) == 0 && data.DistTags.Latest != "" {
		versions = append(versions, data.DistTags.Latest)
	}
	sort.Strings(versions)
	return versions, nil
}

// escapeName keeps the leading @ of a scoped package and encodes the slash.
func escapeName(pkg string) string {
	if scope, name, ok := strings.Cut(pkg, "/"); ok && strings.HasPrefix(scope, "@") {
		return scope + "%2F" + integrations.PathEscape(name)
	}
	return integrations.PathEscape(pkg)
}

type registryResponse struct {
	Name     string                    `json:"name"`
	DistTags distTags                  `json:"dist-tags"`
	Versions map[string]versionDetails `json:"versions"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type versionDetails struct {
	Deprecated string `json:"deprecated"`
}
