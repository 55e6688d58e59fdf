// Package integrations provides HTTP clients for upstream release APIs.
//
// # Overview
//
// Each upstream has its own subpackage returning raw version observations:
//
//   - [github]: repository tags and releases
//   - [gitlab]: repository tags (gitlab.com or self-hosted)
//   - [releasemonitoring]: release-monitoring.org project versions
//   - [pypi]: Python Package Index releases
//   - [npm]: npm registry versions
//   - [crates]: crates.io versions (yanked excluded)
//   - [rubygems]: RubyGems versions
//   - [goproxy]: Go module proxy version lists
//
// # Client Pattern
//
// All upstream clients embed the shared [Client]:
//
//	client := pypi.NewClient(integrations.WithDoer(httpClient))
//	versions, err := client.FetchVersions(ctx, "fastapi")
//
// [Client] handles:
//   - a per-request timeout (10 seconds)
//   - retries of transient failures with exponential backoff
//   - mapping of HTTP statuses to coded errors (NOT_FOUND, RATE_LIMITED,
//     UNREACHABLE, TIMEOUT)
//
// Clients do not cache. Caching of observations is done once, per locator,
// by the scheduler in [pipeline].
//
// # Adding a New Upstream
//
//  1. Create a subpackage: pkg/integrations/<upstream>/
//  2. Define response structs matching the API schema
//  3. Implement a Client with a FetchVersions method
//  4. Register a checker for it in [source]
//
// [github]: github.com/serpent-os/ent/pkg/integrations/github
// [gitlab]: github.com/serpent-os/ent/pkg/integrations/gitlab
// [releasemonitoring]: github.com/serpent-os/ent/pkg/integrations/releasemonitoring
// [pypi]: github.com/serpent-os/ent/pkg/integrations/pypi
// [npm]: github.com/serpent-os/ent/pkg/integrations/npm
// [crates]: github.com/serpent-os/ent/pkg/integrations/crates
// [rubygems]: github.com/serpent-os/ent/pkg/integrations/rubygems
// [goproxy]: github.com/serpent-os/ent/pkg/integrations/goproxy
// [pipeline]: github.com/serpent-os/ent/pkg/pipeline
// [source]: github.com/serpent-os/ent/pkg/source
package integrations
