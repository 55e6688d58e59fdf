// Package crates provides an HTTP client for the crates.io API.
//
// # Usage
//
//	versions, err := crates.NewClient().FetchVersions(ctx, "serde")
//
// Yanked versions are excluded. The client includes a User-Agent header as
// requested by crates.io policy.
package crates
