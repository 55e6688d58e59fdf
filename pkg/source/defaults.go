package source

import (
	"github.com/serpent-os/ent/pkg/integrations"
	"github.com/serpent-os/ent/pkg/integrations/crates"
	"github.com/serpent-os/ent/pkg/integrations/github"
	"github.com/serpent-os/ent/pkg/integrations/gitlab"
	"github.com/serpent-os/ent/pkg/integrations/goproxy"
	"github.com/serpent-os/ent/pkg/integrations/npm"
	"github.com/serpent-os/ent/pkg/integrations/pypi"
	"github.com/serpent-os/ent/pkg/integrations/releasemonitoring"
	"github.com/serpent-os/ent/pkg/integrations/rubygems"
)

// Options configures the built-in upstream clients.
type Options struct {
	GitHubToken string
	GitLabToken string

	// Client options applied to every upstream client (doer, retry policy).
	ClientOptions []integrations.Option
}

// Clients bundles one client per upstream API.
type Clients struct {
	HTTP              *integrations.Client
	GitHub            *github.Client
	GitLab            *gitlab.Client
	ReleaseMonitoring *releasemonitoring.Client
	PyPI              *pypi.Client
	Crates            *crates.Client
	NPM               *npm.Client
	RubyGems          *rubygems.Client
	GoProxy           *goproxy.Client
}

// NewClients builds every upstream client from opts.
func NewClients(opts Options) *Clients {
	co := opts.ClientOptions
	return &Clients{
		HTTP:              integrations.NewClient(map[string]string{"User-Agent": integrations.UserAgent}, co...),
		GitHub:            github.NewClient(opts.GitHubToken, co...),
		GitLab:            gitlab.NewClient(opts.GitLabToken, co...),
		ReleaseMonitoring: releasemonitoring.NewClient(co...),
		PyPI:              pypi.NewClient(co...),
		Crates:            crates.NewClient(co...),
		NPM:               npm.NewClient(co...),
		RubyGems:          rubygems.NewClient(co...),
		GoProxy:           goproxy.NewClient(co...),
	}
}

// NewDefaultRegistry registers the four built-in kinds:
//
//	tags       github:owner/repo, gitlab:[host/]group/project, forge URLs
//	releases   release-monitoring:<id>, github:owner/repo, pypi:<name>,
//	           crates:<name>, npm:<name>, rubygems:<name>, goproxy:<module>
//	redirect   http(s) URL redirecting to the latest artifact
//	directory  http(s) URL of an HTML index
func NewDefaultRegistry(c *Clients) *Registry {
	r := NewRegistry()

	r.Register(Tags, NewRouter(Tags).
		Handle("github", GitHubTags(c.GitHub)).
		Handle("gitlab", GitLabTags(c.GitLab)))

	r.Register(Releases, NewRouter(Releases).
		Handle("release-monitoring", ReleaseMonitoring(c.ReleaseMonitoring)).
		Handle("github", GitHubReleases(c.GitHub)).
		Handle("pypi", PyPI(c.PyPI)).
		Handle("crates", Crates(c.Crates)).
		Handle("npm", NPM(c.NPM)).
		Handle("rubygems", RubyGems(c.RubyGems)).
		Handle("goproxy", GoProxy(c.GoProxy)))

	r.Register(Redirect, &RedirectChecker{Client: c.HTTP})
	r.Register(Directory, &DirectoryChecker{Client: c.HTTP})
	return r
}
