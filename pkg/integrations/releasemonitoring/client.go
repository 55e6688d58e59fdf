package releasemonitoring

import (
	"context"
	"fmt"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations"
)

// Versions is the release-monitoring.org answer for one project.
type Versions struct {
	Latest string   `json:"latest_version"`
	Stable []string `json:"stable_versions"`
	All    []string `json:"versions"`
}

// Preferred returns the versions worth comparing against: the stable list
// when Anitya classified any, else the latest version, else everything.
func (v Versions) Preferred() []string {
	switch {
	case len(v.Stable) > 0:
		return v.Stable
	case v.Latest != "":
		return []string{v.Latest}
	default:
		return v.All
	}
}

// Client provides access to the release-monitoring.org (Anitya) v2 API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a release-monitoring.org client.
func NewClient(opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(map[string]string{"Accept": "application/json"}, opts...),
		baseURL: "https://release-monitoring.org/api/v2",
	}
}

// WithBaseURL points the client at another Anitya instance, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchVersions retrieves the version lists of a project by numeric id.
func (c *Client) FetchVersions(ctx context.Context, projectID int64) (*Versions, error) {
	if projectID <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidLocator, "release-monitoring project id must be positive, got %d", projectID)
	}
	var v Versions
	if err := c.Get(ctx, fmt.Sprintf("%s/versions/?project_id=%d", c.baseURL, projectID), &v); err != nil {
		return nil, err
	}
	return &v, nil
}
