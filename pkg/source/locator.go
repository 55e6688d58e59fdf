package source

import (
	"context"
	"sort"
	"strings"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations/github"
	"github.com/serpent-os/ent/pkg/integrations/gitlab"
)

// SplitLocator splits "scheme:body". http(s) URLs that point at a known
// forge are rewritten to their short form ("github:owner/repo",
// "gitlab:host/group/project"); other URLs return scheme "url".
func SplitLocator(locator string) (scheme, body string, err error) {
	locator = strings.TrimSpace(locator)
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		if owner, repo, ok := github.ExtractURL(locator); ok {
			return "github", owner + "/" + repo, nil
		}
		if host, project, ok := gitlab.ExtractURL(locator); ok {
			return "gitlab", host + "/" + project, nil
		}
		return "url", locator, nil
	}
	scheme, body, ok := strings.Cut(locator, ":")
	if !ok || scheme == "" || body == "" {
		return "", "", errors.New(errors.ErrCodeInvalidLocator, "locator must be scheme:target or an http(s) URL: %q", locator)
	}
	return strings.ToLower(scheme), body, nil
}

// Router is a Checker that dispatches on the locator scheme. It backs the
// tags and releases kinds, which each front several upstream APIs.
type Router struct {
	kind   Kind
	routes map[string]Checker
}

// NewRouter creates an empty router for kind.
func NewRouter(kind Kind) *Router {
	return &Router{kind: kind, routes: make(map[string]Checker)}
}

// Handle registers c for locators with the given scheme.
func (r *Router) Handle(scheme string, c Checker) *Router {
	r.routes[scheme] = c
	return r
}

// Schemes returns the handled locator schemes in sorted order.
func (r *Router) Schemes() []string {
	out := make([]string, 0, len(r.routes))
	for s := range r.routes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Check implements Checker.
func (r *Router) Check(ctx context.Context, locator string) ([]string, error) {
	scheme, body, err := SplitLocator(locator)
	if err != nil {
		return nil, err
	}
	c, ok := r.routes[scheme]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidLocator,
			"%s locator scheme %q not supported (want one of %s)", r.kind, scheme, strings.Join(r.Schemes(), ", "))
	}
	return c.Check(ctx, body)
}
