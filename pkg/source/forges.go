package source

import (
	"context"
	"strconv"

	"github.com/serpent-os/ent/pkg/errors"
	"github.com/serpent-os/ent/pkg/integrations/crates"
	"github.com/serpent-os/ent/pkg/integrations/github"
	"github.com/serpent-os/ent/pkg/integrations/gitlab"
	"github.com/serpent-os/ent/pkg/integrations/goproxy"
	"github.com/serpent-os/ent/pkg/integrations/npm"
	"github.com/serpent-os/ent/pkg/integrations/pypi"
	"github.com/serpent-os/ent/pkg/integrations/releasemonitoring"
	"github.com/serpent-os/ent/pkg/integrations/rubygems"
)

// GitHubTags lists tags of "owner/repo".
func GitHubTags(c *github.Client) Checker {
	return CheckerFunc(func(ctx context.Context, ref string) ([]string, error) {
		owner, repo, err := github.ParseRepoRef(ref)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLocator, err, "github locator %q", ref)
		}
		return c.FetchTags(ctx, owner, repo)
	})
}

// GitHubReleases lists non-draft release tags of "owner/repo".
func GitHubReleases(c *github.Client) Checker {
	return CheckerFunc(func(ctx context.Context, ref string) ([]string, error) {
		owner, repo, err := github.ParseRepoRef(ref)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLocator, err, "github locator %q", ref)
		}
		return c.FetchReleases(ctx, owner, repo)
	})
}

// GitLabTags lists tags of "[host/]group/project".
func GitLabTags(c *gitlab.Client) Checker {
	return CheckerFunc(func(ctx context.Context, ref string) ([]string, error) {
		host, project, err := gitlab.ParseProject(ref)
		if err != nil {
			return nil, err
		}
		return c.FetchTags(ctx, host, project)
	})
}

// ReleaseMonitoring reads the preferred versions of a numeric project id.
func ReleaseMonitoring(c *releasemonitoring.Client) Checker {
	return CheckerFunc(func(ctx context.Context, ref string) ([]string, error) {
		id, err := strconv.ParseInt(ref, 10, 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidLocator, err, "release-monitoring id %q", ref)
		}
		v, err := c.FetchVersions(ctx, id)
		if err != nil {
			return nil, err
		}
		return v.Preferred(), nil
	})
}

// PyPI lists releases of a Python package.
func PyPI(c *pypi.Client) Checker { return CheckerFunc(c.FetchVersions) }

// Crates lists non-yanked versions of a Rust crate.
func Crates(c *crates.Client) Checker { return CheckerFunc(c.FetchVersions) }

// NPM lists versions of an npm package.
func NPM(c *npm.Client) Checker { return CheckerFunc(c.FetchVersions) }

// RubyGems lists versions of a gem.
func RubyGems(c *rubygems.Client) Checker { return CheckerFunc(c.FetchVersions) }

// GoProxy lists tagged versions of a Go module.
func GoProxy(c *goproxy.Client) Checker { return CheckerFunc(c.FetchVersions) }
