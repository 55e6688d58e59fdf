// Package rubygems provides an HTTP client for the RubyGems.org API.
//
// # Usage
//
//	versions, err := rubygems.NewClient().FetchVersions(ctx, "rails")
package rubygems
