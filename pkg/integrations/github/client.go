package github

import (
	"context"
	"fmt"
	"regexp"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations"
)

// maxPages bounds tag and release pagination. At 100 items per page the
// newest 1000 entries are always enough to find the latest version.
const maxPages = 10

var repoURLPattern = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`)

// Client provides access to the GitHub REST API for tag and release listings.
// It handles HTTP requests with automatic retries and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate limits).
func NewClient(token string, opts ...integrations.Option) *Client {
	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		baseURL: "https://api.github.com",
	}
}

// WithBaseURL points the client at another API root, such as a GitHub
// Enterprise instance or a test server.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// FetchTags lists tag names of owner/repo, newest first as returned by the API.
func (c *Client) FetchTags(ctx context.Context, owner, repo string) ([]string, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLocator, err, "github %s/%s", owner, repo)
	}

	var names []string
	url := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100", c.baseURL, owner, repo)
	for page := 0; url != "" && page < maxPages; page++ {
		var data []tagResponse
		next, err := c.GetPage(ctx, url, nil, &data)
		if err != nil {
			return nil, err
		}
		for _, t := range data {
			names = append(names, t.Name)
		}
		url = next
	}
	return names, nil
}

// FetchReleases lists the tag names of published, non-draft releases.
// Pre-releases are included; callers decide whether to consider them.
func (c *Client) FetchReleases(ctx context.Context, owner, repo string) ([]string, error) {
	if err := ValidateRepoRef(owner, repo); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidLocator, err, "github %s/%s", owner, repo)
	}

	var names []string
	url := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=100", c.baseURL, owner, repo)
	for page := 0; url != "" && page < maxPages; page++ {
		var data []releaseResponse
		next, err := c.GetPage(ctx, url, nil, &data)
		if err != nil {
			return nil, err
		}
		for _, r := range data {
			if r.Draft {
				continue
			}
			names = append(names, r.TagName)
		}
		url = next
	}
	return names, nil
}

// ExtractURL parses a https://github.com/owner/repo URL.
func ExtractURL(u string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(integrations.NormalizeRepoURL(u))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
