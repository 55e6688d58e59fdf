package gitlab

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations"
)

// DefaultHost is used when a locator names no host.
const DefaultHost = "gitlab.com"

const maxPages = 10

var (
	repoURLPattern = regexp.MustCompile(`^https?://([^/]+)/(.+?)(?:\.git)?/?$`)
	segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_.][A-Za-z0-9_.-]*$`)
)

// Client provides access to the GitLab REST API (v4) for tag listings on
// gitlab.com or any self-hosted instance.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitLab API client with optional authentication.
// Pass an empty token for unauthenticated access to public projects.
func NewClient(token string, opts ...integrations.Option) *Client {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"PRIVATE-TOKEN": token}
	}
	return &Client{Client: integrations.NewClient(headers, opts...)}
}

// WithBaseURL pins the API root for every host, for tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

func (c *Client) apiBase(host string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + host + "/api/v4"
}

// FetchTags lists tag names of the project at host.
func (c *Client) FetchTags(ctx context.Context, host, project string) ([]string, error) {
	url := fmt.Sprintf("%s/projects/%s/repository/tags?per_page=100",
		c.apiBase(host), integrations.PathEscape(project))

	var names []string
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

type tagResponse struct {
	Name string `json:"name"`
}

// ParseProject splits a locator body into host and project path.
//
//	group/project              -> gitlab.com, group/project
//	group/sub/project          -> gitlab.com, group/sub/project
//	gitlab.gnome.org/GNOME/gtk -> gitlab.gnome.org, GNOME/gtk
func ParseProject(ref string) (host, project string, err error) {
	parts := strings.Split(strings.Trim(ref, "/"), "/")
	host = DefaultHost
	if len(parts) > 0 && strings.Contains(parts[0], ".") {
		host, parts = parts[0], parts[1:]
	}
	if len(parts) < 2 {
		return "", "", errors.New(errors.ErrCodeInvalidLocator, "gitlab project must be group/project: %q", ref)
	}
	for _, p := range parts {
		if !segmentPattern.MatchString(p) {
			return "", "", errors.New(errors.ErrCodeInvalidLocator, "invalid gitlab path segment %q", p)
		}
	}
	return host, strings.Join(parts, "/"), nil
}

// ExtractURL parses a https://<host>/group/project URL. Only hosts whose
// name contains "gitlab" are recognised.
func ExtractURL(u string) (host, project string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(integrations.NormalizeRepoURL(u))
	if m == nil || !strings.Contains(m[1], "gitlab") {
		return "", "", false
	}
	if strings.Contains(m[2], "/-/") {
		return "", "", false
	}
	host, project, err := ParseProject(m[1] + "/" + m[2])
	if err != nil {
		return "", "", false
	}
	return host, project, true
}
