// Package npm provides an HTTP client for the npm registry.
//
// # Usage
//
//	versions, err := npm.NewClient().FetchVersions(ctx, "@types/node")
//
// Requests use the abbreviated metadata document, which lists versions
// without full manifests. Deprecated versions are excluded.
package npm
