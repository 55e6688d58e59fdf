package goproxy

import (
	"context"
	"fmt"
	"strings"

	"github.com/serpent-os/ent/pkg/integrations"
)

// Client provides access to the Go module proxy protocol.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Go module proxy client for proxy.golang.org.
func NewClient(opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(nil, opts...),
		baseURL: "https://proxy.golang.org",
	}
}

// WithBaseURL points the client at another GOPROXY, for tests or mirrors.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// FetchVersions lists the tagged versions of mod from @v/list. Modules with
// no tagged version fall back to the @latest pseudo-version.
//
// Module paths with uppercase letters are escaped per the Go module proxy protocol.
func (c *Client) FetchVersions(ctx context.Context, mod string) ([]string, error) {
	mod = strings.TrimSpace(mod)

	text, err := c.GetText(ctx, fmt.Sprintf("%s/%s/@v/list", c.baseURL, escapePath(mod)))
	if err != nil {
		return nil, err
	}

	var versions []string
	for line := range strings.Lines(text) {
		if v := strings.TrimSpace(line); v != "" {
			versions = append(versions, v)
		}
	}
	if len(versions) > 0 {
		return versions, nil
	}

	var latest latestResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/@latest", c.baseURL, escapePath(mod)), &latest); err != nil {
		return nil, err
	}
	if latest.Version == "" {
		return nil, nil
	}
	return []string{latest.Version}, nil
}

func escapePath(path string) string {
	var b strings.Builder
	for _, r := range path {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('!')
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type latestResponse struct {
	Version string `json:"Version"`
	Time    string `json:"Time"`
}
