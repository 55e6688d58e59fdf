package summit

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/serpent-os/ent/pkg/integrations"
)

// DefaultBaseURL is the public Summit API.
const DefaultBaseURL = "https://dash.serpentos.com/api/v1"

// DefaultPages is how many enumeration pages FetchRecent reads by default.
const DefaultPages = 4

// Status is the state of a build task.
type Status int

const (
	StatusNew Status = iota
	StatusFailed
	StatusBuilding
	StatusPublishing
	StatusCompleted
	StatusBlocked
)

var statusNames = [...]string{"New", "Failed", "Building", "Publishing", "Completed", "Blocked"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// UnmarshalJSON decodes the numeric status. Values Summit may add later
// are treated as failed.
func (s *Status) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n < 0 || n >= len(statusNames) {
		n = int(StatusFailed)
	}
	*s = Status(n)
	return nil
}

// Task is one build task.
type Task struct {
	ID               int64    `json:"id"`
	ProjectID        int64    `json:"projectID"`
	RepoID           int64    `json:"repoID"`
	ProfileID        int64    `json:"profileID"`
	Slug             string   `json:"slug"`
	PkgID            string   `json:"pkgID"`
	Architecture     string   `json:"architecture"`
	BuildID          string   `json:"buildID"`
	Description      string   `json:"description"`
	CommitRef        string   `json:"commitRef"`
	SourcePath       string   `json:"sourcePath"`
	Status           Status   `json:"status"`
	Started          int64    `json:"tsStarted"`
	Updated          int64    `json:"tsUpdated"`
	Ended            int64    `json:"tsEnded"`
	BlockedBy        []string `json:"blockedBy"`
	AllocatedBuilder string   `json:"allocatedBuilder"`
	LogPath          string   `json:"logPath"`
}

// Package returns the last segment of the build ID, which names the
// package and version being built.
func (t Task) Package() string {
	if i := strings.LastIndexByte(t.BuildID, '/'); i >= 0 {
		return t.BuildID[i+1:]
	}
	return t.BuildID
}

// Page is one page of the task enumeration.
type Page struct {
	Items       []Task `json:"items"`
	NumPages    int    `json:"numPages"`
	Page        int    `json:"page"`
	HasPrevious bool   `json:"hasPrevious"`
	HasNext     bool   `json:"hasNext"`
}

// Client provides access to the Summit task API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Summit client.
func NewClient(opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(map[string]string{"Accept": "application/json"}, opts...),
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL points the client at another Summit instance.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimSuffix(u, "/")
	return c
}

// FetchPage retrieves one page of tasks. Pages are numbered from zero.
func (c *Client) FetchPage(ctx context.Context, n int) (*Page, error) {
	var p Page
	if err := c.Get(ctx, fmt.Sprintf("%s/tasks/enumerate?pageNumber=%d", c.baseURL, n), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FetchRecent retrieves up to pages pages of tasks, newest first as Summit
// returns them. It stops early when Summit reports no further page.
func (c *Client) FetchRecent(ctx context.Context, pages int) ([]Task, error) {
	var tasks []Task
	for n := range pages {
		p, err := c.FetchPage(ctx, n)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, p.Items...)
		if !p.HasNext {
			break
		}
	}
	return tasks, nil
}

// Order returns tasks with building tasks first, then new ones, then the
// rest. Order within each group is preserved.
func Order(tasks []Task) []Task {
	rank := func(s Status) int {
		switch s {
		case StatusBuilding:
			return 0
		case StatusNew:
			return 1
		default:
			return 2
		}
	}
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int { return rank(a.Status) - rank(b.Status) })
	return out
}
